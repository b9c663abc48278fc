// Package bayes provides Beta-Bernoulli A/B comparison: conjugate
// posterior updates over success/failure counts, the probability that one
// variant's true rate beats another's, and credible intervals.
//
// Interval and comparison math use a normal approximation to the Beta
// posterior (mean α/(α+β), variance αβ/((α+β)²(α+β+1))), not exact
// Beta-quantile inversion. That is accurate for the trial counts these
// experiments run at and keeps the hot path dependency-free.
package bayes

import (
	"fmt"
	"math"
)

// Posterior holds Beta distribution parameters for one variant.
// Values are immutable: Update returns a new Posterior, so comparisons
// between two posteriors stay referentially transparent.
type Posterior struct {
	Alpha float64
	Beta  float64
}

// UniformPrior is the Beta(1,1) prior: every success rate equally likely.
func UniformPrior() Posterior {
	return Posterior{Alpha: 1, Beta: 1}
}

// Update folds observed trials into the posterior:
// alpha += successes, beta += (trials - successes).
func (p Posterior) Update(trials, successes int) Posterior {
	return Posterior{
		Alpha: p.Alpha + float64(successes),
		Beta:  p.Beta + float64(trials-successes),
	}
}

// Mean is the posterior expected success rate, α/(α+β).
func (p Posterior) Mean() float64 {
	return p.Alpha / (p.Alpha + p.Beta)
}

// Variance of the Beta posterior.
func (p Posterior) Variance() float64 {
	sum := p.Alpha + p.Beta
	return (p.Alpha * p.Beta) / (sum * sum * (sum + 1))
}

// ProbabilityBBeatsA approximates P(θ_B > θ_A) by standardizing the mean
// difference of the two (normal-approximated) posteriors. Two identical
// point-mass posteriors have no resolvable difference and yield 0.5.
func ProbabilityBBeatsA(a, b Posterior) float64 {
	diff := b.Mean() - a.Mean()
	sd := math.Sqrt(a.Variance() + b.Variance())
	if sd == 0 {
		if diff == 0 {
			return 0.5
		}
		if diff > 0 {
			return 1
		}
		return 0
	}
	return normalCDF(diff / sd)
}

// zByConfidence is the fixed quantile lookup for supported confidence
// levels. Not a general inverse CDF.
var zByConfidence = map[float64]float64{
	0.90: 1.64,
	0.95: 1.96,
	0.99: 2.58,
}

// CredibleInterval returns [lo, hi] = mean ± z·stddev clamped to [0, 1],
// where z comes from the fixed lookup for 90%, 95% and 99%. Other
// confidence levels are rejected.
func CredibleInterval(p Posterior, confidence float64) (lo, hi float64, err error) {
	z, ok := zByConfidence[confidence]
	if !ok {
		return 0, 0, fmt.Errorf("unsupported confidence level %v (supported: 0.90, 0.95, 0.99)", confidence)
	}

	mean := p.Mean()
	sd := math.Sqrt(p.Variance())

	lo = mean - z*sd
	hi = mean + z*sd
	if lo < 0 {
		lo = 0
	}
	if hi > 1 {
		hi = 1
	}
	return lo, hi, nil
}

// normalCDF is Φ(x) for the standard normal distribution.
func normalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
