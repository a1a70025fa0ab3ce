// Package session implements the session manager: it builds the
// source/filter/rate-limiter/health-monitor/sink pipeline from a
// config.Config, drives the data path, and owns session-level state.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"nmeabridge/internal/config"
	"nmeabridge/internal/filter"
	"nmeabridge/internal/health"
	"nmeabridge/internal/ratelimit"
	"nmeabridge/internal/sentence"
	"nmeabridge/internal/sink"
	"nmeabridge/internal/source"
)

// StateFunc is called once per session state transition.
type StateFunc func(old, new State, message string)

// SentenceFunc is called for every sentence that survives filtering and
// rate limiting, just before broadcast.
type SentenceFunc func(s sentence.Sentence)

// Session is the pipeline manager: it owns construction, the lifecycle
// state machine, and the data path from source to sinks.
type Session struct {
	onStateChange StateFunc
	onSentence    SentenceFunc

	// newSource and newSinks build the pipeline's transports. They default
	// to buildSource/buildSinks; tests override them to inject fakes in
	// place of real network/hardware transports.
	newSource func(config.InputConfig, source.DataFunc, source.StateFunc) (source.Source, error)
	newSinks  func([]config.OutputConfig, func(name string, old, new sink.State, msg string)) ([]sink.Sink, error)

	mu    sync.Mutex
	state State

	src   source.Source
	sinks []sink.Sink

	filt    *filter.Filter
	limiter *ratelimit.Limiter
	mon     *health.Monitor

	stats Statistics
	wg    sync.WaitGroup

	cancel context.CancelFunc
}

// New constructs an idle Session. Callbacks may be nil.
func New(onStateChange StateFunc, onSentence SentenceFunc) *Session {
	return &Session{
		onStateChange: onStateChange,
		onSentence:    onSentence,
		state:         Stopped,
		newSource:     buildSource,
		newSinks:      buildSinks,
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Statistics returns a snapshot of the session's counters and derived
// rates.
func (s *Session) Statistics() Snapshot {
	s.mu.Lock()
	mon := s.mon
	s.mu.Unlock()

	var rate float64
	if mon != nil {
		rate = mon.DataRateHz()
	}
	return s.stats.Snapshot(time.Now().UTC(), rate)
}

// Start builds the pipeline from cfg and brings up the source and every
// enabled sink. Only legal from Stopped.
func (s *Session) Start(ctx context.Context, cfg config.Config) error {
	s.mu.Lock()
	if s.state != Stopped {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("session: start is only legal from stopped, current state is %s", st)
	}
	s.setStateLocked(Starting, "")
	s.mu.Unlock()

	now := time.Now().UTC()
	s.stats.reset(now)

	filt := filter.New(filter.Config{
		Mode:     cfg.Filter.FilterMode(),
		AllowSet: cfg.Filter.AllowList,
		BlockSet: cfg.Filter.BlockList,
	})
	limiter := ratelimit.New(ratelimit.Config{MaxHz: cfg.Rate.MaxHz, PerType: cfg.Rate.PerType})
	mon := health.New(health.Config{OnStatusChange: s.logHealthChange})

	runCtx, cancel := context.WithCancel(ctx)

	src, err := s.newSource(cfg.Input, s.handleData, s.handleSourceState)
	if err != nil {
		cancel()
		mon.Close()
		s.setState(Errored, err.Error())
		s.setState(Stopped, "")
		return fmt.Errorf("session: build source: %w", err)
	}

	sinks, err := s.newSinks(cfg.Outputs, logSinkState)
	if err != nil {
		cancel()
		mon.Close()
		s.setState(Errored, err.Error())
		s.setState(Stopped, "")
		return fmt.Errorf("session: build sinks: %w", err)
	}

	s.mu.Lock()
	s.filt = filt
	s.limiter = limiter
	s.mon = mon
	s.src = src
	s.sinks = sinks
	s.cancel = cancel
	s.mu.Unlock()

	if err := src.Start(runCtx); err != nil {
		s.setState(Errored, err.Error())
		s.teardown()
		s.setState(Stopped, "")
		return fmt.Errorf("session: start source: %w", err)
	}

	for _, sk := range sinks {
		if err := sk.Start(runCtx); err != nil {
			s.setState(Errored, err.Error())
			s.teardown()
			s.setState(Stopped, "")
			return fmt.Errorf("session: start sink %s: %w", sk.Name(), err)
		}
	}

	s.setState(Running, "")
	return nil
}

// Stop is idempotent. It stops and disposes the source and every sink in
// order, disposes the health monitor, clears references, and sets Stopped.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == Stopped {
		s.mu.Unlock()
		return
	}
	s.setStateLocked(Stopping, "")
	s.mu.Unlock()

	s.teardown()
	s.setState(Stopped, "")
}

func (s *Session) teardown() {
	s.mu.Lock()
	cancel := s.cancel
	src := s.src
	sinks := s.sinks
	mon := s.mon
	s.cancel = nil
	s.src = nil
	s.sinks = nil
	s.mon = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if src != nil {
		// Joins the source's receive loop, so no further broadcast can
		// start after this returns: the in-flight count the wait below
		// joins is final.
		src.Stop()
	}

	s.awaitSinkWrites()

	for _, sk := range sinks {
		sk.Stop()
	}
	if mon != nil {
		mon.Close()
	}
}

// awaitSinkWrites waits for every dispatched-but-unfinished sink write to
// return, up to sink.GraceTimeout, before the caller stops the sinks
// themselves, so a sink's handle is not closed under a write still in
// progress. It does not interrupt a write; it only waits for it.
func (s *Session) awaitSinkWrites() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(sink.GraceTimeout):
		log.Printf("session: in-flight sink writes did not finish within grace period")
	}
}

func (s *Session) handleData(data []byte, receivedAt time.Time) {
	s.mu.Lock()
	running := s.state == Running
	s.mu.Unlock()
	if !running {
		// The source can keep delivering chunks after an error (UDP in
		// particular records error but keeps attempting receives) for as
		// long as it takes the escalation goroutine to actually cancel it.
		// Once the session has left running, none of that traffic counts.
		return
	}

	s.stats.recordChunk(len(data), receivedAt)

	sentences, malformed := sentence.Parse(data, receivedAt)
	if malformed > 0 {
		log.Printf("session: discarded %d malformed frame(s)", malformed)
		s.stats.incParseErrors(malformed)
	}

	for _, sen := range sentences {
		s.stats.incSentencesReceived()

		if !sen.Valid {
			s.stats.incChecksumErrors()
			log.Printf("session: checksum mismatch for %s", sen.FullType())
			continue
		}

		s.mu.Lock()
		filt := s.filt
		limiter := s.limiter
		mon := s.mon
		s.mu.Unlock()

		if filt != nil && !filt.Allowed(sen) {
			continue
		}
		if limiter != nil && !limiter.ShouldEmit(sen, receivedAt) {
			continue
		}
		if mon != nil {
			mon.Record(sen, receivedAt)
		}
		if s.onSentence != nil {
			s.onSentence(sen)
		}
		s.broadcast(sen)
	}
}

// broadcast dispatches a write to every ready sink concurrently and
// independently. It does not wait for sink completions.
func (s *Session) broadcast(sen sentence.Sentence) {
	s.mu.Lock()
	sinks := s.sinks
	s.mu.Unlock()

	payload := normalizeLineEnding(sen.Raw)
	for _, sk := range sinks {
		if !sk.Ready() {
			continue
		}
		s.wg.Add(1)
		go func(sk sink.Sink) {
			defer s.wg.Done()
			if err := sk.Write(payload); err != nil {
				s.stats.incWriteErrors()
				log.Printf("session: sink %s write failed: %v", sk.Name(), err)
				return
			}
			s.stats.incSentencesSent()
			s.stats.incBytesSent(len(payload))
		}(sk)
	}
}

func (s *Session) handleSourceState(old, new source.State, message string) {
	log.Printf("source state %s -> %s", old, new)
	if new != source.Errored {
		return
	}
	s.mu.Lock()
	running := s.state == Running
	s.mu.Unlock()
	if !running {
		return
	}
	// Escalate asynchronously: this callback runs on the source's own
	// goroutine, and Stop waits for that goroutine to exit.
	go func() {
		s.setState(Errored, message)
		s.mu.Lock()
		mon := s.mon
		s.mu.Unlock()
		if mon != nil {
			mon.SetErrored()
		}
		s.Stop()
	}()
}

func (s *Session) logHealthChange(old, new health.Status) {
	log.Printf("health status %s -> %s", old, new)
}

func (s *Session) setState(st State, message string) {
	s.mu.Lock()
	s.setStateLocked(st, message)
	s.mu.Unlock()
}

func (s *Session) setStateLocked(st State, message string) {
	old := s.state
	s.state = st
	if old == st {
		return
	}
	if s.onStateChange != nil {
		s.onStateChange(old, st, message)
	}
}
