package sentence

import (
	"fmt"
	"testing"
	"time"
)

func nmeaLine(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X\r\n", payload, ck)
}

func TestParse_ValidGGA(t *testing.T) {
	line := "$GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,47.0,M,,*51\r\n"
	got, _ := Parse([]byte(line), time.Unix(0, 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(got))
	}
	s := got[0]
	if s.Talker != "GN" || s.Type != "GGA" {
		t.Fatalf("unexpected talker/type: %q/%q", s.Talker, s.Type)
	}
	if s.FullType() != "GNGGA" {
		t.Fatalf("unexpected fullType: %q", s.FullType())
	}
	if s.Checksum != 0x51 {
		t.Fatalf("unexpected checksum: 0x%02x", s.Checksum)
	}
	if !s.Valid {
		t.Fatalf("expected valid")
	}
	if s.Field(0) != "123519" || s.Field(1) != "4807.038" || s.Field(2) != "N" {
		t.Fatalf("unexpected fields: %+v", s.Fields)
	}
}

func TestParse_BadChecksum(t *testing.T) {
	line := "$GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,47.0,M,,*99\r\n"
	got, _ := Parse([]byte(line), time.Unix(0, 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(got))
	}
	if got[0].Valid {
		t.Fatalf("expected invalid")
	}
}

func TestParse_TwoConcatenatedFrames(t *testing.T) {
	gga := nmeaLine("GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,47.0,M,,")
	rmc := nmeaLine("GNRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	got, _ := Parse([]byte(gga+rmc), time.Unix(0, 0))
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(got))
	}
	if got[0].Type != "GGA" || got[1].Type != "RMC" {
		t.Fatalf("unexpected order: %q, %q", got[0].Type, got[1].Type)
	}
}

func TestParse_IncompleteTailIsDiscarded(t *testing.T) {
	good := nmeaLine("GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,47.0,M,,")
	data := good + "$PARTIAL"
	got, _ := Parse([]byte(data), time.Unix(0, 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(got))
	}
}

func TestParse_RawBytesExcludeLineEnding(t *testing.T) {
	line := "$GNGGA,1,2,3*00\r\n"
	got, _ := Parse([]byte(line), time.Unix(0, 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(got))
	}
	want := "$GNGGA,1,2,3*00"
	if string(got[0].Raw) != want {
		t.Fatalf("raw = %q, want %q", got[0].Raw, want)
	}
}

func TestParse_ShortFrameSkippedSilently(t *testing.T) {
	// "$A*00" is 5 bytes, below the 6-byte minimum.
	data := "$A*00\r\n" + nmeaLine("GNGGA,1,2,3")
	got, _ := Parse([]byte(data), time.Unix(0, 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence (short frame dropped), got %d", len(got))
	}
}

func TestParse_MissingChecksumYieldsComputedValueAndInvalid(t *testing.T) {
	line := "$GNGGA,1,2,3\r\n"
	got, _ := Parse([]byte(line), time.Unix(0, 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(got))
	}
	s := got[0]
	if s.Valid {
		t.Fatalf("expected invalid when no checksum present")
	}
	want := xorAll([]byte("GNGGA,1,2,3"))
	if s.Checksum != want {
		t.Fatalf("checksum = 0x%02x, want 0x%02x", s.Checksum, want)
	}
}

func TestParse_NonHexChecksumReportsZeroAndInvalid(t *testing.T) {
	line := "$GNGGA,1,2,3*ZZ\r\n"
	got, _ := Parse([]byte(line), time.Unix(0, 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(got))
	}
	s := got[0]
	if s.Valid {
		t.Fatalf("expected invalid for non-hex checksum")
	}
	if s.Checksum != 0 {
		t.Fatalf("expected checksum 0, got 0x%02x", s.Checksum)
	}
}

func TestParse_LowercaseHexAccepted(t *testing.T) {
	// Checksum of "GNGGA,1,2" is 0x4B, so its hex has a letter to lowercase.
	line := nmeaLine("GNGGA,1,2")
	lower := []byte(line)
	// Only the two checksum digits before the trailing CR+LF are lowercased;
	// the payload the checksum covers is left as it was.
	for i := len(lower) - 4; i < len(lower)-2; i++ {
		if c := lower[i]; c >= 'A' && c <= 'F' {
			lower[i] = c + ('a' - 'A')
		}
	}
	got, _ := Parse(lower, time.Unix(0, 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(got))
	}
	if !got[0].Valid {
		t.Fatalf("expected valid with lowercase hex checksum")
	}
}

func TestParse_EmptyFieldsPreserved(t *testing.T) {
	line := nmeaLine("GNGGA,,,")
	got, _ := Parse([]byte(line), time.Unix(0, 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(got))
	}
	if len(got[0].Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d: %+v", len(got[0].Fields), got[0].Fields)
	}
	for i, f := range got[0].Fields {
		if f != "" {
			t.Fatalf("field %d not empty: %q", i, f)
		}
	}
}

func TestParse_NoDollarSkipsToNextFrame(t *testing.T) {
	data := "garbage before\n" + nmeaLine("GNGGA,1,2,3")
	got, _ := Parse([]byte(data), time.Unix(0, 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(got))
	}
}

func TestParse_MalformedCountsShortAndNoCommaFrames(t *testing.T) {
	data := "$A*00\r\n" + "$GNGGANOFIELDS\r\n" + nmeaLine("GNGGA,1,2,3")
	got, malformed := Parse([]byte(data), time.Unix(0, 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(got))
	}
	if malformed != 2 {
		t.Fatalf("expected 2 malformed frames, got %d", malformed)
	}
}
