// Package timing measures elapsed wall time around arbitrary operations
// and emits the duration samples (in milliseconds) the analysis engine
// consumes.
package timing

import "time"

// Clock returns the current time. Injectable for tests.
type Clock func() time.Time

// Stopwatch collects duration samples for one measured operation.
type Stopwatch struct {
	now     Clock
	samples []float64
}

// NewStopwatch creates a stopwatch on the real clock.
func NewStopwatch() *Stopwatch {
	return NewStopwatchWithClock(time.Now)
}

// NewStopwatchWithClock creates a stopwatch with an injected clock.
func NewStopwatchWithClock(now Clock) *Stopwatch {
	return &Stopwatch{now: now}
}

// Measure runs op and records its elapsed time in milliseconds.
// The operation's error passes through untouched; failed operations are
// recorded too, since error paths have latency as well.
func (s *Stopwatch) Measure(op func() error) (float64, error) {
	start := s.now()
	err := op()
	elapsed := durationMs(s.now().Sub(start))
	s.samples = append(s.samples, elapsed)
	return elapsed, err
}

// Samples returns a copy of all recorded durations in ms.
func (s *Stopwatch) Samples() []float64 {
	out := make([]float64, len(s.samples))
	copy(out, s.samples)
	return out
}

// Reset discards recorded samples.
func (s *Stopwatch) Reset() {
	s.samples = s.samples[:0]
}

// durationMs converts a duration to fractional milliseconds.
func durationMs(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
