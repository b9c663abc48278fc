package timing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances a fixed step on every read.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestStopwatch_MeasureRecordsElapsed(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: 5 * time.Millisecond}
	sw := NewStopwatchWithClock(clock.now)

	elapsed, err := sw.Measure(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 5.0, elapsed)

	samples := sw.Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, 5.0, samples[0])
}

func TestStopwatch_ErrorPathsAreRecorded(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: time.Millisecond}
	sw := NewStopwatchWithClock(clock.now)

	opErr := errors.New("boom")
	_, err := sw.Measure(func() error { return opErr })
	require.ErrorIs(t, err, opErr)
	assert.Len(t, sw.Samples(), 1, "failed operations have latency too")
}

func TestStopwatch_Reset(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: time.Millisecond}
	sw := NewStopwatchWithClock(clock.now)

	_, _ = sw.Measure(func() error { return nil })
	sw.Reset()
	assert.Empty(t, sw.Samples())
}

func TestStopwatch_SamplesIsACopy(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0), step: time.Millisecond}
	sw := NewStopwatchWithClock(clock.now)

	_, _ = sw.Measure(func() error { return nil })
	got := sw.Samples()
	got[0] = -1
	assert.NotEqual(t, -1.0, sw.Samples()[0])
}
