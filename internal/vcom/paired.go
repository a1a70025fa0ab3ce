package vcom

// pairedSerialProvider would back a true OS-level paired serial port (e.g.
// a PTY pair or a vendor-specific virtual COM driver). This module ships
// no such backend — detecting and wiring one is host-specific and outside
// what the retrieval pack's dependencies cover — so detection always
// reports absent and the factory falls back to the named pipe.
type pairedSerialProvider struct{}

// detectPairedSerial reports whether a true paired-serial-port backend is
// available for portName. It always returns nil here: no backend is
// detected, which is a legitimate answer and simply sends the caller to
// the named-pipe fallback.
func detectPairedSerial(portName string) Provider {
	return nil
}
