package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqConfig(maxN int) SequentialConfig {
	return SequentialConfig{
		Alpha:                   0.05,
		Beta:                    0.2,
		MinimumDetectableEffect: 0.1,
		MaxSampleSize:           maxN,
	}
}

// growSamples extends a and b by one batch of deterministic samples around
// the given centers, with a small fixed oscillation as noise.
func growSamples(a, b []float64, batch int, centerA, centerB float64) ([]float64, []float64) {
	noise := []float64{0, 0.5, -0.5, 0.25, -0.25}
	for i := 0; i < batch; i++ {
		a = append(a, centerA+noise[len(a)%len(noise)])
		b = append(b, centerB+noise[len(b)%len(noise)])
	}
	return a, b
}

func TestSequentialTest_LargeEffectStopsEarly(t *testing.T) {
	st := NewSequentialTest(seqConfig(1000))

	var a, b []float64
	stoppedAt := 0
	for n := 50; n <= 1000; n += 50 {
		a, b = growSamples(a, b, 50, 100, 60)
		res, err := st.Analyze(a, b, n)
		require.NoError(t, err)

		if res.Decision == DecisionRejectNull {
			stoppedAt = n
			break
		}
	}

	require.NotZero(t, stoppedAt, "large true effect must eventually reject")
	assert.Less(t, stoppedAt, 1000, "rejection must come before the sample budget")
}

func TestSequentialTest_NoEffectAcceptsAtCap(t *testing.T) {
	st := NewSequentialTest(seqConfig(200))

	var a, b []float64
	for n := 50; n < 200; n += 50 {
		a, b = growSamples(a, b, 50, 100, 100)
		res, err := st.Analyze(a, b, n)
		require.NoError(t, err)
		assert.Equal(t, DecisionContinue, res.Decision, "no effect must not reject at n=%d", n)
	}

	a, b = growSamples(a, b, 50, 100, 100)
	res, err := st.Analyze(a, b, 200)
	require.NoError(t, err)
	assert.Equal(t, DecisionAcceptNull, res.Decision, "budget exhausted without significance")
}

func TestSequentialTest_NeverContinuesPastCap(t *testing.T) {
	st := NewSequentialTest(seqConfig(100))

	var a, b []float64
	a, b = growSamples(a, b, 120, 100, 100)

	res, err := st.Analyze(a, b, 120)
	require.NoError(t, err)
	assert.NotEqual(t, DecisionContinue, res.Decision)
}

func TestSequentialTest_EarlyBoundaryTighterThanAlpha(t *testing.T) {
	st := NewSequentialTest(seqConfig(1000))

	var a, b []float64
	a, b = growSamples(a, b, 50, 100, 100)

	res, err := st.Analyze(a, b, 50)
	require.NoError(t, err)

	// alpha * sqrt(50/1000) ≈ 0.0112 — early looks demand stronger evidence.
	assert.Less(t, res.AdjustedAlpha, st.config.Alpha)
	assert.InDelta(t, 0.05*0.2236, res.AdjustedAlpha, 1e-3)
}

func TestSequentialTest_InsufficientSamples(t *testing.T) {
	st := NewSequentialTest(seqConfig(100))
	_, err := st.Analyze([]float64{1}, []float64{2}, 1)
	require.ErrorIs(t, err, ErrInsufficientSamples)
}
