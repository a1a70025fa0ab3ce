//go:build linux

package vcom

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestPipeProvider_WriteDropsUntilReaderAttaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vcom0")
	p := newPipeProvider(path)
	if err := p.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	if p.IsReady() {
		t.Fatalf("expected not ready with no reader attached")
	}
	n, err := p.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected dropped write to report full length, got %d", n)
	}
}

func TestPipeProvider_BecomesReadyWhenReaderAttaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vcom1")
	if err := unix.Mkfifo(path, 0o600); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}

	reader := make(chan *os.File, 1)
	go func() {
		f, err := os.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			reader <- nil
			return
		}
		reader <- f
	}()

	p := newPipeProvider(path)
	if err := p.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	// Open makes a single non-blocking attach attempt, which may run before
	// the reader goroutine has entered open(2). IsReady retries the attach,
	// and the reader's blocking open returns once the write end is attached.
	deadline := time.Now().Add(2 * time.Second)
	for !p.IsReady() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !p.IsReady() {
		t.Fatalf("expected ready once reader attached")
	}

	rf := <-reader
	if rf == nil {
		t.Fatalf("failed to open read end")
	}
	defer rf.Close()

	if _, err := p.Write([]byte("hi")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 8)
	n, err := rf.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != "hi" {
		t.Fatalf("got %q", buf[:n])
	}
}
