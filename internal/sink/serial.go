package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	goserial "github.com/jacobsa/go-serial/serial"
)

// Parity mirrors the three line settings a physical serial port supports.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) toGoSerial() goserial.ParityMode {
	switch p {
	case ParityOdd:
		return goserial.PARITY_ODD
	case ParityEven:
		return goserial.PARITY_EVEN
	default:
		return goserial.PARITY_NONE
	}
}

// SerialConfig describes the line settings for a physical serial sink.
type SerialConfig struct {
	PortName string
	BaudRate uint
	DataBits uint
	StopBits uint
	Parity   Parity

	OnState StateFunc
}

// Serial writes to a physical serial port via jacobsa/go-serial, which
// exposes the data-bits/parity/stop-bits surface a fixed-8-N-1 termios
// wrapper could not.
type Serial struct {
	cfg SerialConfig

	mu    sync.Mutex
	state State
	port  io.ReadWriteCloser
}

// NewSerial validates cfg and constructs a serial sink. The port is not
// opened until Start is called.
func NewSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.PortName == "" {
		return nil, fmt.Errorf("serial sink: port name is required")
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	if cfg.DataBits == 0 {
		cfg.DataBits = 8
	}
	if cfg.StopBits == 0 {
		cfg.StopBits = 1
	}
	return &Serial{cfg: cfg, state: Disconnected}, nil
}

func (s *Serial) Name() string { return "serial:" + s.cfg.PortName }

func (s *Serial) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Serial) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Connected && s.port != nil
}

// Start opens the serial port at the configured line settings.
func (s *Serial) Start(ctx context.Context) error {
	s.setState(Connecting, "")

	port, err := goserial.Open(goserial.OpenOptions{
		PortName:        s.cfg.PortName,
		BaudRate:        s.cfg.BaudRate,
		DataBits:        s.cfg.DataBits,
		StopBits:        s.cfg.StopBits,
		ParityMode:      s.cfg.Parity.toGoSerial(),
		MinimumReadSize: 1,
	})
	if err != nil {
		s.setState(Errored, err.Error())
		return fmt.Errorf("serial sink: open %s: %w", s.cfg.PortName, err)
	}

	s.mu.Lock()
	s.port = port
	s.mu.Unlock()
	s.setState(Connected, "")
	return nil
}

// Write sends data over the open port. Physical serial writes are
// unbuffered syscalls, so there is no separate flush step to perform.
func (s *Serial) Write(data []byte) error {
	s.mu.Lock()
	port := s.port
	ready := s.state == Connected
	s.mu.Unlock()

	if !ready || port == nil {
		return fmt.Errorf("serial sink: not ready")
	}

	if _, err := port.Write(data); err != nil {
		s.setState(Errored, err.Error())
		return fmt.Errorf("serial sink: write: %w", err)
	}
	return nil
}

// Stop closes the port and transitions to Disconnected.
func (s *Serial) Stop() {
	s.mu.Lock()
	port := s.port
	s.port = nil
	s.mu.Unlock()

	if port != nil {
		_ = port.Close()
	}
	s.setState(Disconnected, "")
}

func (s *Serial) setState(st State, msg string) {
	s.mu.Lock()
	old := s.state
	s.state = st
	s.mu.Unlock()
	if old != st && s.cfg.OnState != nil {
		s.cfg.OnState(old, st, msg)
	}
}
