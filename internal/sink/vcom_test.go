package sink

import (
	"context"
	"path/filepath"
	"testing"
)

func TestVCOM_StartOpensProviderAndWriteDropsWithoutReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vcom0")
	v, err := NewVCOM(VCOMConfig{PortName: path})
	if err != nil {
		t.Fatalf("NewVCOM: %v", err)
	}
	if err := v.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer v.Stop()

	if v.State() != Connected {
		t.Fatalf("state=%v want Connected", v.State())
	}
	if v.Ready() {
		t.Fatalf("expected not ready with no pipe reader attached")
	}
	if err := v.Write([]byte("$GNGGA,,*00\r\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestVCOM_RejectsEmptyPortName(t *testing.T) {
	if _, err := NewVCOM(VCOMConfig{PortName: ""}); err == nil {
		t.Fatalf("expected error for empty port name")
	}
}
