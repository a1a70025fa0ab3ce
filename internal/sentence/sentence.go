// Package sentence implements the NMEA-0183 byte-to-sentence decoder: a
// stateless, zero-copy framer that preserves the exact wire image of each
// sentence and verifies its XOR checksum. It performs no semantic
// interpretation of sentence fields.
package sentence

import "time"

// Sentence is an immutable record of one parsed NMEA-0183 frame.
type Sentence struct {
	// Talker is the 2-character talker identifier, e.g. "GN".
	Talker string
	// Type is the sentence type, e.g. "GGA".
	Type string
	// Fields holds the comma-split payload fields after talker+type,
	// in order, with empty fields preserved.
	Fields []string
	// Checksum is the transmitted checksum byte, or the computed value if
	// none was present in the frame.
	Checksum byte
	// Raw is the exact byte image from '$' through the last character
	// before CR/LF, inclusive of "*HH" if present. It is never mutated and
	// must not be retained past the caller's use of the sentence.
	Raw []byte
	// ReceivedAt is the time the sentence's containing chunk was received.
	ReceivedAt time.Time
	// Valid is true iff a transmitted checksum was present and equal to
	// the XOR of every byte strictly between '$' and '*'.
	Valid bool
}

// FullType is the talker+type concatenation used as the sentence's
// canonical identity, e.g. "GNGGA".
func (s Sentence) FullType() string {
	return s.Talker + s.Type
}

// Field returns the field at i, or "" if i is out of range.
func (s Sentence) Field(i int) string {
	if i < 0 || i >= len(s.Fields) {
		return ""
	}
	return s.Fields[i]
}
