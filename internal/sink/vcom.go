package sink

import (
	"context"
	"fmt"
	"sync"

	"nmeabridge/internal/vcom"
)

// VCOMConfig controls a virtual-COM sink.
type VCOMConfig struct {
	PortName string
	AutoMode bool

	OnState StateFunc
}

// VCOM delegates to a vcom.Provider, which is either a true
// paired-serial-port backend or the named-pipe fallback.
type VCOM struct {
	cfg      VCOMConfig
	provider vcom.Provider

	mu    sync.Mutex
	state State
}

// NewVCOM constructs a virtual-COM sink. The provider is selected now but
// not opened until Start is called.
func NewVCOM(cfg VCOMConfig) (*VCOM, error) {
	if cfg.PortName == "" {
		return nil, fmt.Errorf("vcom sink: port name is required")
	}
	provider := vcom.New(vcom.Config{PortName: cfg.PortName, AutoMode: cfg.AutoMode})
	return &VCOM{cfg: cfg, provider: provider, state: Disconnected}, nil
}

func (v *VCOM) Name() string { return "vcom:" + v.cfg.PortName }

func (v *VCOM) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Ready reflects both the sink's own state and the provider's attachment
// state: a pipe fallback with no reader attached is connected but not
// ready.
func (v *VCOM) Ready() bool {
	v.mu.Lock()
	st := v.state
	v.mu.Unlock()
	return st == Connected && v.provider.IsReady()
}

func (v *VCOM) Start(ctx context.Context) error {
	v.setState(Connecting, "")
	if err := v.provider.Open(); err != nil {
		v.setState(Errored, err.Error())
		return fmt.Errorf("vcom sink: open: %w", err)
	}
	v.setState(Connected, "")
	return nil
}

func (v *VCOM) Write(data []byte) error {
	v.mu.Lock()
	ready := v.state == Connected
	v.mu.Unlock()
	if !ready {
		return fmt.Errorf("vcom sink: not ready")
	}
	if _, err := v.provider.Write(data); err != nil {
		v.setState(Errored, err.Error())
		return fmt.Errorf("vcom sink: write: %w", err)
	}
	return nil
}

func (v *VCOM) Stop() {
	_ = v.provider.Close()
	v.setState(Disconnected, "")
}

func (v *VCOM) setState(st State, msg string) {
	v.mu.Lock()
	old := v.state
	v.state = st
	v.mu.Unlock()
	if old != st && v.cfg.OnState != nil {
		v.cfg.OnState(old, st, msg)
	}
}
