package source

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
)

// UDPConfig controls a UDP listener source.
type UDPConfig struct {
	// Addr is the optional bind address; empty means all interfaces.
	Addr string
	// Port is the UDP port to listen on.
	Port int

	OnData  DataFunc
	OnState StateFunc
}

// UDPListener binds synchronously on Start and reports each datagram of
// nonzero length as a dataReceived event.
type UDPListener struct {
	cfg UDPConfig

	started atomic.Bool
	closed  atomic.Bool

	mu    sync.Mutex
	state State
	conn  *net.UDPConn

	cancel context.CancelFunc
	done   chan struct{}
}

// NewUDPListener validates cfg and constructs a listener. It does not bind
// until Start is called.
func NewUDPListener(cfg UDPConfig) (*UDPListener, error) {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("udp source: invalid port %d", cfg.Port)
	}
	return &UDPListener{cfg: cfg, state: Disconnected, done: make(chan struct{})}, nil
}

func (u *UDPListener) Name() string { return fmt.Sprintf("udp:%s:%d", u.cfg.Addr, u.cfg.Port) }

func (u *UDPListener) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Start binds the UDP socket synchronously and spawns the receive loop.
func (u *UDPListener) Start(ctx context.Context) error {
	if u.closed.Load() {
		return fmt.Errorf("udp source is closed")
	}
	if u.started.Swap(true) {
		return fmt.Errorf("udp source already started")
	}

	u.setState(Connecting, "")

	laddr := &net.UDPAddr{Port: u.cfg.Port}
	if u.cfg.Addr != "" {
		ip, err := net.ResolveIPAddr("ip", u.cfg.Addr)
		if err != nil {
			u.setState(Errored, err.Error())
			return fmt.Errorf("udp source: resolve bind address: %w", err)
		}
		laddr.IP = ip.IP
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		u.setState(Errored, err.Error())
		return fmt.Errorf("udp source: listen: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	u.mu.Lock()
	u.conn = conn
	u.cancel = cancel
	u.mu.Unlock()

	u.setState(Connected, "")

	go func() {
		defer close(u.done)
		u.receiveLoop(runCtx, conn)
	}()
	return nil
}

func (u *UDPListener) receiveLoop(ctx context.Context, conn *net.UDPConn) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			u.setState(Disconnected, "")
			return
		default:
		}

		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				u.setState(Disconnected, "")
				return
			default:
			}
			if isUseOfClosed(err) {
				u.setState(Disconnected, "")
				return
			}
			// Socket errors that aren't a clean shutdown: record the error
			// and keep receiving rather than tearing the listener down —
			// the session decides whether an error state is fatal.
			u.setState(Errored, err.Error())
			continue
		}

		if n == 0 {
			continue
		}
		if u.cfg.OnData != nil {
			chunk := append([]byte(nil), buf[:n]...)
			u.cfg.OnData(chunk, now())
		}
	}
}

// Stop cancels the receive loop and closes the socket, waiting up to
// GraceTimeout for the loop to exit.
func (u *UDPListener) Stop() {
	if u.closed.Swap(true) {
		return
	}
	u.mu.Lock()
	cancel := u.cancel
	conn := u.conn
	u.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if !u.started.Load() {
		return
	}
	select {
	case <-u.done:
	case <-afterGrace():
		log.Printf("%s: receive loop did not exit within grace period", u.Name())
	}
}

func (u *UDPListener) setState(s State, msg string) {
	u.mu.Lock()
	old := u.state
	u.state = s
	u.mu.Unlock()
	if old != s && u.cfg.OnState != nil {
		u.cfg.OnState(old, s, msg)
	}
}
