package ratelimit

import (
	"testing"
	"time"

	"nmeabridge/internal/sentence"
)

func sent(typ string) sentence.Sentence {
	return sentence.Sentence{Talker: "GN", Type: typ}
}

func TestDisabledAlwaysEmits(t *testing.T) {
	l := New(Config{MaxHz: 0})
	now := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		if !l.ShouldEmit(sent("GGA"), now) {
			t.Fatalf("expected disabled limiter to always emit")
		}
	}
}

func TestGlobalRateLimit(t *testing.T) {
	l := New(Config{MaxHz: 1})
	base := time.Unix(0, 0)

	if !l.ShouldEmit(sent("GGA"), base) {
		t.Fatalf("expected first emit to pass")
	}
	if l.ShouldEmit(sent("RMC"), base.Add(100*time.Millisecond)) {
		t.Fatalf("expected second emit within interval to be dropped regardless of type")
	}
	if !l.ShouldEmit(sent("RMC"), base.Add(1100*time.Millisecond)) {
		t.Fatalf("expected emit to pass after interval elapsed")
	}
}

func TestPerTypeRateLimit(t *testing.T) {
	l := New(Config{MaxHz: 1, PerType: true})
	base := time.Unix(0, 0)

	if !l.ShouldEmit(sent("GGA"), base) {
		t.Fatalf("expected first GGA to pass")
	}
	if l.ShouldEmit(sent("GGA"), base.Add(10*time.Millisecond)) {
		t.Fatalf("expected second GGA within interval to drop")
	}
	if !l.ShouldEmit(sent("RMC"), base.Add(10*time.Millisecond)) {
		t.Fatalf("expected RMC to pass independently of GGA's limiter state")
	}
}

func TestReset(t *testing.T) {
	l := New(Config{MaxHz: 1})
	base := time.Unix(0, 0)
	l.ShouldEmit(sent("GGA"), base)
	l.Reset()
	if !l.ShouldEmit(sent("GGA"), base.Add(time.Millisecond)) {
		t.Fatalf("expected reset to clear last-emit state")
	}
}

func TestRateBound(t *testing.T) {
	l := New(Config{MaxHz: 10})
	base := time.Unix(0, 0)
	delta := 2 * time.Second
	emitted := 0
	for t0 := time.Duration(0); t0 < delta; t0 += time.Millisecond {
		if l.ShouldEmit(sent("GGA"), base.Add(t0)) {
			emitted++
		}
	}
	maxAllowed := int(10*2.0) + 1
	if emitted > maxAllowed {
		t.Fatalf("emitted %d, want <= %d", emitted, maxAllowed)
	}
}
