// Package compare decides, with statistical confidence, whether one
// system or strategy variant outperforms another. It provides Welch's
// unequal-variance t-test and an alpha-spending sequential test built
// on top of it.
package compare

import (
	"errors"
	"math"
)

// ErrInsufficientSamples is returned when a test needs at least two
// samples per side to estimate sample variance.
var ErrInsufficientSamples = errors.New("need at least 2 samples per group")

// significanceLevel is the fixed two-tailed threshold for TTest.
const significanceLevel = 0.05

// z95 is the standard normal quantile for a 95% confidence interval.
const z95 = 1.96

// TTestResult holds the outcome of one Welch's t-test.
// ConfidenceInterval bounds the mean difference (A - B) at 95%.
type TTestResult struct {
	TStatistic         float64
	PValue             float64
	IsSignificant      bool
	EffectSize         float64
	ConfidenceInterval [2]float64
}

// TTest runs Welch's unequal-variance t-test on two sample groups.
// Variances use the sample formula (n-1 denominator). The p-value is the
// two-tailed tail mass of |t| under the standard normal CDF — a large-n
// approximation of the Student-t distribution that is monotonic in |t|
// and bounded in [0, 1]. Returns ErrInsufficientSamples unless both
// groups have at least 2 samples.
func TTest(sampleA, sampleB []float64) (*TTestResult, error) {
	nA := len(sampleA)
	nB := len(sampleB)
	if nA < 2 || nB < 2 {
		return nil, ErrInsufficientSamples
	}

	meanA := mean(sampleA)
	meanB := mean(sampleB)
	varA := sampleVariance(sampleA, meanA)
	varB := sampleVariance(sampleB, meanB)

	se := math.Sqrt(varA/float64(nA) + varB/float64(nB))
	diff := meanA - meanB

	var t float64
	switch {
	case se > 0:
		t = diff / se
	case diff == 0:
		// Identical constant groups: no evidence of any difference.
		t = 0
	case diff > 0:
		t = math.Inf(1)
	default:
		t = math.Inf(-1)
	}

	p := twoTailedP(t)

	return &TTestResult{
		TStatistic:         t,
		PValue:             p,
		IsSignificant:      p < significanceLevel,
		EffectSize:         cohensD(diff, varA, varB),
		ConfidenceInterval: [2]float64{diff - z95*se, diff + z95*se},
	}, nil
}

// cohensD computes the standardized effect size (meanA-meanB)/pooledSD.
// Zero pooled variance with equal means is no effect; with different
// means the effect is unbounded.
func cohensD(diff, varA, varB float64) float64 {
	pooled := math.Sqrt((varA + varB) / 2)
	if pooled == 0 {
		if diff == 0 {
			return 0
		}
		if diff > 0 {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return diff / pooled
}

// twoTailedP returns 2*(1 - Φ(|t|)), clamped to [0, 1].
func twoTailedP(t float64) float64 {
	if math.IsInf(t, 0) {
		return 0
	}
	p := 2 * (1 - normalCDF(math.Abs(t)))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// mean of a non-empty slice.
func mean(samples []float64) float64 {
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// sampleVariance uses the unbiased n-1 denominator.
func sampleVariance(samples []float64, m float64) float64 {
	sumSq := 0.0
	for _, s := range samples {
		d := s - m
		sumSq += d * d
	}
	return sumSq / float64(len(samples)-1)
}
