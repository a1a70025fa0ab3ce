package session

import "bytes"

// normalizeLineEnding ensures raw ends in exactly one CR+LF, applied once
// per sentence before broadcasting to every sink.
func normalizeLineEnding(raw []byte) []byte {
	switch {
	case bytes.HasSuffix(raw, []byte("\r\n")):
		return raw
	case bytes.HasSuffix(raw, []byte("\r")):
		return append(append([]byte{}, raw...), '\n')
	case bytes.HasSuffix(raw, []byte("\n")):
		trimmed := raw[:len(raw)-1]
		out := make([]byte, 0, len(trimmed)+2)
		out = append(out, trimmed...)
		return append(out, '\r', '\n')
	default:
		out := make([]byte, 0, len(raw)+2)
		out = append(out, raw...)
		return append(out, '\r', '\n')
	}
}
