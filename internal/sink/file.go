package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileConfig controls an append-only file sink.
type FileConfig struct {
	Path string
	// AppendTimestamp, when true, inserts a YYYYMMDD_HHMMSS stamp before
	// the file extension.
	AppendTimestamp bool

	// Now defaults to time.Now and exists so tests can supply a fixed
	// clock instead of patching a package global.
	Now func() time.Time

	OnState StateFunc
}

// File writes one NMEA frame per line in append mode, flushed after every
// write.
type File struct {
	cfg FileConfig

	mu           sync.Mutex
	state        State
	f            *os.File
	w            *bufio.Writer
	resolvedPath string
}

// NewFile validates cfg and constructs a file sink. The file is not
// created until Start is called.
func NewFile(cfg FileConfig) (*File, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file sink: path is required")
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now() }
	}
	return &File{cfg: cfg, state: Disconnected}, nil
}

func (f *File) Name() string { return "file:" + f.cfg.Path }

func (f *File) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *File) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == Connected && f.w != nil
}

// Start computes the effective path (stamping it if configured), creates
// the parent directory if missing, and opens the file for append.
func (f *File) Start(ctx context.Context) error {
	f.setState(Connecting, "")

	path := f.cfg.Path
	if f.cfg.AppendTimestamp {
		path = stampPath(path, f.cfg.Now())
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			f.setState(Errored, err.Error())
			return fmt.Errorf("file sink: mkdir %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		f.setState(Errored, err.Error())
		return fmt.Errorf("file sink: open %s: %w", path, err)
	}

	f.mu.Lock()
	f.f = file
	f.w = bufio.NewWriter(file)
	f.resolvedPath = path
	f.mu.Unlock()
	f.setState(Connected, "")
	return nil
}

// Write appends data as-is and flushes immediately. The caller is
// responsible for line termination.
func (f *File) Write(data []byte) error {
	f.mu.Lock()
	w := f.w
	ready := f.state == Connected
	f.mu.Unlock()

	if !ready || w == nil {
		return fmt.Errorf("file sink: not ready")
	}

	if _, err := w.Write(data); err != nil {
		f.setState(Errored, err.Error())
		return fmt.Errorf("file sink: write: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.setState(Errored, err.Error())
		return fmt.Errorf("file sink: flush: %w", err)
	}
	return nil
}

// Stop flushes and closes the file.
func (f *File) Stop() {
	f.mu.Lock()
	w := f.w
	file := f.f
	f.w = nil
	f.f = nil
	f.mu.Unlock()

	if w != nil {
		_ = w.Flush()
	}
	if file != nil {
		_ = file.Close()
	}
	f.setState(Disconnected, "")
}

func (f *File) setState(st State, msg string) {
	f.mu.Lock()
	old := f.state
	f.state = st
	f.mu.Unlock()
	if old != st && f.cfg.OnState != nil {
		f.cfg.OnState(old, st, msg)
	}
}

// stampPath inserts <dir>/<base>_YYYYMMDD_HHMMSS<ext>.
func stampPath(path string, at time.Time) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	stamped := fmt.Sprintf("%s_%s%s", name, at.Format("20060102_150405"), ext)
	if dir == "." {
		return stamped
	}
	return filepath.Join(dir, stamped)
}
