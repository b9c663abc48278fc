package compare

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTest_InsufficientSamples(t *testing.T) {
	_, err := TTest([]float64{1}, []float64{1, 2})
	require.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = TTest([]float64{1, 2}, nil)
	require.ErrorIs(t, err, ErrInsufficientSamples)
}

func TestTTest_ClearDifference(t *testing.T) {
	slow := []float64{100, 102, 98, 101, 99, 100, 103, 97, 100, 101}
	fast := []float64{50, 52, 48, 51, 49, 50, 53, 47, 50, 51}

	res, err := TTest(slow, fast)
	require.NoError(t, err)

	assert.True(t, res.IsSignificant, "50ms mean gap must be significant")
	assert.Greater(t, res.TStatistic, 0.0, "A slower than B gives positive t")
	assert.Less(t, res.PValue, 0.05)
	assert.Greater(t, res.EffectSize, 1.0, "gap of ~28 pooled SDs is a huge effect")

	// CI on the mean difference must bracket the true gap of 50.
	assert.Less(t, res.ConfidenceInterval[0], 50.0)
	assert.Greater(t, res.ConfidenceInterval[1], 50.0)
}

func TestTTest_NoDifference(t *testing.T) {
	a := []float64{10, 11, 9, 10, 12, 8, 10, 11, 9, 10}
	b := []float64{10, 9, 11, 10, 8, 12, 10, 9, 11, 10}

	res, err := TTest(a, b)
	require.NoError(t, err)

	assert.False(t, res.IsSignificant)
	assert.GreaterOrEqual(t, res.PValue, 0.05)
}

func TestTTest_SwapNegatesStatisticKeepsPValue(t *testing.T) {
	a := []float64{5, 6, 7, 8, 9, 10}
	b := []float64{1, 2, 3, 4, 5, 6}

	ab, err := TTest(a, b)
	require.NoError(t, err)
	ba, err := TTest(b, a)
	require.NoError(t, err)

	assert.InDelta(t, -ab.TStatistic, ba.TStatistic, 1e-12)
	assert.InDelta(t, -ab.EffectSize, ba.EffectSize, 1e-12)
	assert.InDelta(t, ab.PValue, ba.PValue, 1e-12)
}

func TestTTest_PValueBounds(t *testing.T) {
	cases := [][2][]float64{
		{{1, 1, 1}, {1, 1, 1}},
		{{1, 2}, {1, 2}},
		{{0, 1000}, {500, 501}},
		{{1, 1, 1}, {2, 2, 2}},
	}

	for _, c := range cases {
		res, err := TTest(c[0], c[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.PValue, 0.0)
		assert.LessOrEqual(t, res.PValue, 1.0)
	}
}

func TestTTest_IdenticalConstantGroups(t *testing.T) {
	// Zero variance and zero difference: no evidence either way.
	res, err := TTest([]float64{5, 5, 5}, []float64{5, 5, 5})
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.TStatistic)
	assert.Equal(t, 1.0, res.PValue)
	assert.Equal(t, 0.0, res.EffectSize)
	assert.False(t, res.IsSignificant)
}

func TestTTest_ConstantGroupsWithGap(t *testing.T) {
	// Zero variance but different means: evidence is overwhelming.
	res, err := TTest([]float64{10, 10, 10}, []float64{5, 5, 5})
	require.NoError(t, err)

	assert.True(t, math.IsInf(res.TStatistic, 1))
	assert.Equal(t, 0.0, res.PValue)
	assert.True(t, res.IsSignificant)
}

func TestTTest_PValueMonotonicInT(t *testing.T) {
	// A wider mean gap at fixed noise must not raise the p-value.
	base := []float64{0, 1, -1, 0.5, -0.5, 0, 1, -1}
	prev := 2.0
	for _, shift := range []float64{0.5, 1, 2, 4, 8} {
		shifted := make([]float64, len(base))
		for i, v := range base {
			shifted[i] = v + shift
		}
		res, err := TTest(shifted, base)
		require.NoError(t, err)
		assert.LessOrEqual(t, res.PValue, prev, "p-value must shrink as the gap grows")
		prev = res.PValue
	}
}

func TestNormalCDF_KnownValues(t *testing.T) {
	assert.InDelta(t, 0.5, normalCDF(0), 1e-12)
	assert.InDelta(t, 0.975, normalCDF(1.96), 1e-4)
	assert.InDelta(t, 0.025, normalCDF(-1.96), 1e-4)
	assert.InDelta(t, 1.0, normalCDF(8), 1e-12)
}
