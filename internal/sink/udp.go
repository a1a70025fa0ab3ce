package sink

import (
	"context"
	"fmt"
	"net"
	"sync"
)

// UDPConfig controls a UDP datagram sink.
type UDPConfig struct {
	// Address is the destination host: a literal IP or a DNS name.
	Address string
	Port    int
	// Broadcast enables SO_BROADCAST on the underlying socket.
	Broadcast bool

	OnState StateFunc
}

// UDP sends one datagram per Write to a destination resolved once at
// Start.
type UDP struct {
	cfg UDPConfig

	mu    sync.Mutex
	state State
	conn  *net.UDPConn
	raddr *net.UDPAddr
}

// NewUDP validates cfg and constructs a UDP sink. Resolution happens in
// Start, not here.
func NewUDP(cfg UDPConfig) (*UDP, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("udp sink: address is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("udp sink: invalid port %d", cfg.Port)
	}
	return &UDP{cfg: cfg, state: Disconnected}, nil
}

func (u *UDP) Name() string { return fmt.Sprintf("udp:%s:%d", u.cfg.Address, u.cfg.Port) }

func (u *UDP) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *UDP) Ready() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state == Connected && u.conn != nil
}

// Start resolves the destination (literal address, else the first A
// record) and opens a connected UDP socket.
func (u *UDP) Start(ctx context.Context) error {
	u.setState(Connecting, "")

	raddr, err := resolveUDPDest(u.cfg.Address, u.cfg.Port)
	if err != nil {
		u.setState(Errored, err.Error())
		return fmt.Errorf("udp sink: resolve %s: %w", u.cfg.Address, err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		u.setState(Errored, err.Error())
		return fmt.Errorf("udp sink: dial: %w", err)
	}

	if u.cfg.Broadcast {
		if err := enableBroadcast(conn); err != nil {
			_ = conn.Close()
			u.setState(Errored, err.Error())
			return fmt.Errorf("udp sink: enable broadcast: %w", err)
		}
	}

	u.mu.Lock()
	u.conn = conn
	u.raddr = raddr
	u.mu.Unlock()
	u.setState(Connected, "")
	return nil
}

// Write sends one datagram to the resolved destination.
func (u *UDP) Write(data []byte) error {
	u.mu.Lock()
	conn := u.conn
	ready := u.state == Connected
	u.mu.Unlock()

	if !ready || conn == nil {
		return fmt.Errorf("udp sink: not ready")
	}
	if _, err := conn.Write(data); err != nil {
		u.setState(Errored, err.Error())
		return fmt.Errorf("udp sink: write: %w", err)
	}
	return nil
}

// Stop closes the socket.
func (u *UDP) Stop() {
	u.mu.Lock()
	conn := u.conn
	u.conn = nil
	u.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	u.setState(Disconnected, "")
}

func (u *UDP) setState(st State, msg string) {
	u.mu.Lock()
	old := u.state
	u.state = st
	u.mu.Unlock()
	if old != st && u.cfg.OnState != nil {
		u.cfg.OnState(old, st, msg)
	}
}

func resolveUDPDest(address string, port int) (*net.UDPAddr, error) {
	if ip := net.ParseIP(address); ip != nil {
		return &net.UDPAddr{IP: ip, Port: port}, nil
	}
	ips, err := net.LookupHost(address)
	if err != nil {
		return nil, err
	}
	for _, s := range ips {
		if ip := net.ParseIP(s); ip != nil && ip.To4() != nil {
			return &net.UDPAddr{IP: ip, Port: port}, nil
		}
	}
	return nil, fmt.Errorf("no A records for %s", address)
}
