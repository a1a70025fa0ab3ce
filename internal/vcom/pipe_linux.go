//go:build linux

package vcom

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// pipeProvider is the named-pipe fallback backend. It creates a FIFO in
// Open and opens the write end non-blocking: with no reader
// attached, the open fails with ENXIO, which this provider treats as
// "waiting for a client", not an error. Writes made while waiting are
// silently dropped.
type pipeProvider struct {
	path string

	mu    sync.Mutex
	fd    int
	ready bool
}

func newPipeProvider(path string) Provider {
	return &pipeProvider{path: path, fd: -1}
}

// Open creates the FIFO if it doesn't already exist and makes one
// non-blocking attach attempt. It does not block waiting for a reader; if
// none is there yet, Write and IsReady retry the attach.
func (p *pipeProvider) Open() error {
	if err := unix.Mkfifo(p.path, 0o600); err != nil && err != unix.EEXIST {
		return fmt.Errorf("vcom pipe: mkfifo %s: %w", p.path, err)
	}
	p.tryAttach()
	return nil
}

// tryAttach attempts a non-blocking open of the write end. It is a no-op
// if already attached.
func (p *pipeProvider) tryAttach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fd >= 0 {
		return
	}
	fd, err := unix.Open(p.path, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		// ENXIO: no reader yet. Any other error is also treated as "not
		// ready" — the next Write/IsReady call will retry.
		return
	}
	p.fd = fd
	p.ready = true
}

func (p *pipeProvider) IsReady() bool {
	p.tryAttach()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// Write sends data to the attached reader. If no reader is attached yet,
// the write is silently dropped and reported as successful — there is no
// client to deliver to, and the caller shouldn't treat that as a fault.
func (p *pipeProvider) Write(data []byte) (int, error) {
	p.tryAttach()

	p.mu.Lock()
	fd := p.fd
	p.mu.Unlock()

	if fd < 0 {
		return len(data), nil
	}

	n, err := unix.Write(fd, data)
	if err != nil {
		// EPIPE: the reader went away. Detach and go back to waiting.
		p.mu.Lock()
		_ = unix.Close(p.fd)
		p.fd = -1
		p.ready = false
		p.mu.Unlock()
		return 0, nil
	}
	return n, nil
}

func (p *pipeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fd >= 0 {
		err := unix.Close(p.fd)
		p.fd = -1
		p.ready = false
		return err
	}
	return nil
}
