//go:build !linux

package vcom

import "fmt"

// pipeProvider stubs the named-pipe fallback on platforms without Mkfifo
// support. The virtual-COM sink still constructs cleanly; Open fails with
// a clear error instead of the package failing to compile.
type pipeProvider struct {
	path string
}

func newPipeProvider(path string) Provider {
	return &pipeProvider{path: path}
}

func (p *pipeProvider) Open() error {
	return fmt.Errorf("vcom pipe: named-pipe fallback not supported on this platform")
}

func (p *pipeProvider) Close() error { return nil }

func (p *pipeProvider) Write(data []byte) (int, error) {
	return 0, fmt.Errorf("vcom pipe: named-pipe fallback not supported on this platform")
}

func (p *pipeProvider) IsReady() bool { return false }
