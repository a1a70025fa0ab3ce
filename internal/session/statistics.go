package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics holds the session's monotonic counters and timestamps.
// Counters are incremented from the data path only and read by a status
// observer, so they are plain atomics; the two timestamps share a small
// mutex. The current rate is not stored here: Snapshot takes it as an
// argument.
type Statistics struct {
	sentencesReceived atomic.Uint64
	sentencesSent     atomic.Uint64
	bytesReceived     atomic.Uint64
	bytesSent         atomic.Uint64
	parseErrors       atomic.Uint64
	checksumErrors    atomic.Uint64
	writeErrors       atomic.Uint64

	mu               sync.Mutex
	sessionStart     time.Time
	lastDataReceived time.Time
}

// Snapshot is a point-in-time, read-only copy of Statistics.
type Snapshot struct {
	SentencesReceived uint64
	SentencesSent     uint64
	BytesReceived     uint64
	BytesSent         uint64
	ParseErrors       uint64
	ChecksumErrors    uint64
	WriteErrors       uint64

	SessionStart     time.Time
	LastDataReceived time.Time

	CurrentRateHz   float64
	SessionDuration time.Duration
}

func (s *Statistics) reset(now time.Time) {
	s.sentencesReceived.Store(0)
	s.sentencesSent.Store(0)
	s.bytesReceived.Store(0)
	s.bytesSent.Store(0)
	s.parseErrors.Store(0)
	s.checksumErrors.Store(0)
	s.writeErrors.Store(0)

	s.mu.Lock()
	s.sessionStart = now
	s.lastDataReceived = time.Time{}
	s.mu.Unlock()
}

func (s *Statistics) recordChunk(n int, now time.Time) {
	s.bytesReceived.Add(uint64(n))
	s.mu.Lock()
	s.lastDataReceived = now
	s.mu.Unlock()
}

func (s *Statistics) incSentencesReceived() { s.sentencesReceived.Add(1) }
func (s *Statistics) incSentencesSent()     { s.sentencesSent.Add(1) }
func (s *Statistics) incBytesSent(n int)    { s.bytesSent.Add(uint64(n)) }
func (s *Statistics) incParseErrors(n int)  { s.parseErrors.Add(uint64(n)) }
func (s *Statistics) incChecksumErrors()    { s.checksumErrors.Add(1) }
func (s *Statistics) incWriteErrors()       { s.writeErrors.Add(1) }

// Snapshot returns a copy of the current statistics. currentRateHz is
// supplied by the caller (the session reads it from the health monitor)
// since Statistics has no reference back to it.
func (s *Statistics) Snapshot(now time.Time, currentRateHz float64) Snapshot {
	s.mu.Lock()
	start := s.sessionStart
	last := s.lastDataReceived
	s.mu.Unlock()

	var duration time.Duration
	if !start.IsZero() {
		duration = now.Sub(start)
	}

	return Snapshot{
		SentencesReceived: s.sentencesReceived.Load(),
		SentencesSent:     s.sentencesSent.Load(),
		BytesReceived:     s.bytesReceived.Load(),
		BytesSent:         s.bytesSent.Load(),
		ParseErrors:       s.parseErrors.Load(),
		ChecksumErrors:    s.checksumErrors.Load(),
		WriteErrors:       s.writeErrors.Load(),
		SessionStart:      start,
		LastDataReceived:  last,
		CurrentRateHz:     currentRateHz,
		SessionDuration:   duration,
	}
}
