// Package vcom implements the virtual-COM provider abstraction: a single
// interface hidden behind which the session doesn't care whether writes
// land on a true paired serial port or a named-pipe fallback.
package vcom

// Provider is the contract a virtual-COM backend implements.
type Provider interface {
	Open() error
	Close() error
	Write(data []byte) (int, error)
	IsReady() bool
}

// Config selects and parameterizes a provider.
type Config struct {
	// PortName names the pipe/port to create or open.
	PortName string
	// AutoMode, when true, lets New probe for a true paired-serial-port
	// backend before falling back to the named pipe.
	AutoMode bool
}

// New selects a provider for cfg. The factory decides once, at
// construction time; the core never retries the choice.
func New(cfg Config) Provider {
	if cfg.AutoMode {
		if p := detectPairedSerial(cfg.PortName); p != nil {
			return p
		}
	}
	return newPipeProvider(cfg.PortName)
}
