package bayes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformPrior(t *testing.T) {
	p := UniformPrior()
	assert.Equal(t, 1.0, p.Alpha)
	assert.Equal(t, 1.0, p.Beta)
	assert.Equal(t, 0.5, p.Mean())
}

func TestUpdate_ReturnsNewPosterior(t *testing.T) {
	prior := UniformPrior()
	post := prior.Update(100, 70)

	// 70 successes out of 100: alpha 71, beta 31.
	assert.Equal(t, 71.0, post.Alpha)
	assert.Equal(t, 31.0, post.Beta)

	// The prior itself is untouched.
	assert.Equal(t, 1.0, prior.Alpha)
	assert.Equal(t, 1.0, prior.Beta)
}

func TestPosterior_MeanAndVariance(t *testing.T) {
	p := Posterior{Alpha: 3, Beta: 7}
	assert.InDelta(t, 0.3, p.Mean(), 1e-12)

	// αβ/((α+β)²(α+β+1)) = 21/1100
	assert.InDelta(t, 21.0/1100.0, p.Variance(), 1e-12)
}

func TestProbabilityBBeatsA_StrongerArmWins(t *testing.T) {
	// A observed 70/100, B observed 50/100: B is clearly worse.
	a := UniformPrior().Update(100, 70)
	b := UniformPrior().Update(100, 50)

	p := ProbabilityBBeatsA(a, b)
	assert.Less(t, p, 0.5, "weaker B must have P(B>A) below 0.5")
	assert.GreaterOrEqual(t, p, 0.0)

	// Symmetry: swapping the arms flips the probability.
	assert.InDelta(t, 1-p, ProbabilityBBeatsA(b, a), 1e-12)
}

func TestProbabilityBBeatsA_IdenticalPosteriors(t *testing.T) {
	a := UniformPrior().Update(50, 25)
	assert.InDelta(t, 0.5, ProbabilityBBeatsA(a, a), 1e-12)
}

func TestProbabilityBBeatsA_Bounds(t *testing.T) {
	cases := [][2]Posterior{
		{UniformPrior(), UniformPrior()},
		{UniformPrior().Update(1000, 999), UniformPrior().Update(1000, 1)},
		{UniformPrior().Update(10, 5), UniformPrior().Update(10000, 5000)},
	}
	for _, c := range cases {
		p := ProbabilityBBeatsA(c[0], c[1])
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestCredibleInterval_ExcludesNullForStrongArm(t *testing.T) {
	// 70% observed success over 100 trials: the 95% interval must not
	// contain 0.5.
	p := UniformPrior().Update(100, 70)

	lo, hi, err := CredibleInterval(p, 0.95)
	require.NoError(t, err)

	assert.Greater(t, lo, 0.5)
	assert.Less(t, lo, hi)
	assert.LessOrEqual(t, hi, 1.0)
}

func TestCredibleInterval_ClampedToUnit(t *testing.T) {
	// A near-certain arm with few trials pushes the raw upper bound
	// past 1; the interval is clamped.
	p := UniformPrior().Update(3, 3)

	lo, hi, err := CredibleInterval(p, 0.99)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, lo, 0.0)
	assert.LessOrEqual(t, hi, 1.0)
}

func TestCredibleInterval_WidensWithConfidence(t *testing.T) {
	p := UniformPrior().Update(100, 60)

	lo90, hi90, err := CredibleInterval(p, 0.90)
	require.NoError(t, err)
	lo95, hi95, err := CredibleInterval(p, 0.95)
	require.NoError(t, err)
	lo99, hi99, err := CredibleInterval(p, 0.99)
	require.NoError(t, err)

	assert.Less(t, hi90-lo90, hi95-lo95)
	assert.Less(t, hi95-lo95, hi99-lo99)
}

func TestCredibleInterval_UnsupportedConfidence(t *testing.T) {
	_, _, err := CredibleInterval(UniformPrior(), 0.80)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported confidence")
}
