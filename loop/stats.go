package loop

import (
	"sync"
	"time"
)

// Instrumentation receives timing measurements from a Loop. A loop only
// reads the clock for instrumentation when a non-nop sink is configured.
type Instrumentation interface {
	// RecordFrame receives the wall time of one whole Tick.
	RecordFrame(d time.Duration)
	// RecordFixedStep receives the wall time of one Update pass over all
	// groups, once per fixed step (or once per frame in variable-step mode).
	RecordFixedStep(d time.Duration)
}

// NopInstrumentation discards every measurement.
type NopInstrumentation struct{}

func (NopInstrumentation) RecordFrame(time.Duration)     {}
func (NopInstrumentation) RecordFixedStep(time.Duration) {}

// Stats is a point-in-time copy of a StatsRecorder.
type Stats struct {
	Frame     DurationStats
	FixedStep DurationStats
	// History holds the most recent frame times, oldest first.
	History []time.Duration
}

// DurationStats summarises one measurement stream.
type DurationStats struct {
	Count         int64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	AvgDuration   time.Duration
	LastDuration  time.Duration
	TotalDuration time.Duration
}

type durationStatsInternal struct {
	count         int64
	minDuration   time.Duration
	maxDuration   time.Duration
	totalDuration time.Duration
	lastDuration  time.Duration
}

func (s *durationStatsInternal) record(d time.Duration) {
	s.count++
	s.lastDuration = d
	s.totalDuration += d

	if s.count == 1 || d < s.minDuration {
		s.minDuration = d
	}
	if d > s.maxDuration {
		s.maxDuration = d
	}
}

func (s *durationStatsInternal) snapshot() DurationStats {
	avgDuration := time.Duration(0)
	if s.count > 0 {
		avgDuration = s.totalDuration / time.Duration(s.count)
	}
	return DurationStats{
		Count:         s.count,
		MinDuration:   s.minDuration,
		MaxDuration:   s.maxDuration,
		AvgDuration:   avgDuration,
		LastDuration:  s.lastDuration,
		TotalDuration: s.totalDuration,
	}
}

// StatsRecorder is an Instrumentation that aggregates both streams and keeps
// a ring of recent frame times. It is safe for concurrent use.
type StatsRecorder struct {
	mu        sync.Mutex
	frame     durationStatsInternal
	fixedStep durationStatsInternal
	history   []time.Duration
	next      int
	filled    bool
}

// NewStatsRecorder creates a recorder that remembers the last historyFrames
// frame times.
func NewStatsRecorder(historyFrames int) *StatsRecorder {
	if historyFrames < 1 {
		historyFrames = 1
	}
	return &StatsRecorder{history: make([]time.Duration, historyFrames)}
}

// RecordFrame implements Instrumentation.
func (r *StatsRecorder) RecordFrame(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frame.record(d)
	r.history[r.next] = d
	r.next = (r.next + 1) % len(r.history)
	if r.next == 0 {
		r.filled = true
	}
}

// RecordFixedStep implements Instrumentation.
func (r *StatsRecorder) RecordFixedStep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fixedStep.record(d)
}

// Snapshot returns the current statistics.
func (r *StatsRecorder) Snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	var history []time.Duration
	if r.filled {
		history = make([]time.Duration, 0, len(r.history))
		history = append(history, r.history[r.next:]...)
		history = append(history, r.history[:r.next]...)
	} else {
		history = append([]time.Duration(nil), r.history[:r.next]...)
	}

	return Stats{
		Frame:     r.frame.snapshot(),
		FixedStep: r.fixedStep.snapshot(),
		History:   history,
	}
}

// Reset clears every counter and the history.
func (r *StatsRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frame = durationStatsInternal{}
	r.fixedStep = durationStatsInternal{}
	clear(r.history)
	r.next = 0
	r.filled = false
}
