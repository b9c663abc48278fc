// Package trend analyzes how a measured quantity evolves over time or load.
// It flags suspected resource leaks (strong linear growth over time) and
// validates that costs scale linearly rather than super-linearly.
package trend

import (
	"errors"
	"math"
)

// ErrEmptyInput is returned when analysis is requested on zero points.
var ErrEmptyInput = errors.New("empty point set")

// linearGrowthThreshold on |r| above which a time series is treated as
// growing linearly. A strong linear trend in memory/latency over time is
// suspicious; a flat or noisy trend is normal GC behavior.
const linearGrowthThreshold = 0.8

// TimedSample pairs a measurement with its observation time.
type TimedSample struct {
	T float64 // observation time (ms since experiment start)
	V float64 // measured value
}

// ScalingPoint pairs a load level with its observed cost.
type ScalingPoint struct {
	X int     // load level (item count, concurrency, ...)
	Y float64 // observed cost at that load
}

// TrendResult describes the temporal behavior of a series.
type TrendResult struct {
	IsLinearGrowth bool    // |Pearson r| > 0.8 between time and value
	StabilityScore float64 // 1 - variance/mean², clamped to [0, 1]
	GrowthRate     float64 // (vLast - vFirst) / (tLast - tFirst)
	Correlation    float64 // Pearson r, in [-1, 1]
}

// ScalingResult describes how cost grows with load.
type ScalingResult struct {
	LinearityScore float64 // R² of the least-squares fit, in [0, 1]
	BaseOverhead   float64 // fit intercept
	PerItemCost    float64 // fit slope
}

// AnalyzeTrend computes the Pearson correlation between time and value and
// derives growth/stability indicators. Degenerate inputs (constant series,
// zero mean) are valid and produce the documented fallbacks rather than an
// error: a constant series has correlation 0, and a zero-mean series is
// treated as fully unstable. Returns ErrEmptyInput on zero points.
func AnalyzeTrend(samples []TimedSample) (*TrendResult, error) {
	n := len(samples)
	if n == 0 {
		return nil, ErrEmptyInput
	}

	times := make([]float64, n)
	values := make([]float64, n)
	for i, s := range samples {
		times[i] = s.T
		values[i] = s.V
	}

	r := pearson(times, values)

	return &TrendResult{
		IsLinearGrowth: math.Abs(r) > linearGrowthThreshold,
		StabilityScore: stabilityScore(values),
		GrowthRate:     growthRate(samples),
		Correlation:    r,
	}, nil
}

// AnalyzeScaling fits y = slope*x + intercept by ordinary least squares and
// reports R² as the linearity score. Returns ErrEmptyInput on zero points.
// A constant-x input has no defined slope; the fit degenerates to
// slope 0, intercept mean(y), linearity 0.
func AnalyzeScaling(points []ScalingPoint) (*ScalingResult, error) {
	n := len(points)
	if n == 0 {
		return nil, ErrEmptyInput
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range points {
		xs[i] = float64(p.X)
		ys[i] = p.Y
	}

	slope, intercept := leastSquares(xs, ys)

	return &ScalingResult{
		LinearityScore: rSquared(xs, ys, slope, intercept),
		BaseOverhead:   intercept,
		PerItemCost:    slope,
	}, nil
}

// pearson computes the correlation coefficient between xs and ys.
// Constant series (zero variance on either axis) yield 0.
func pearson(xs, ys []float64) float64 {
	meanX := mean(xs)
	meanY := mean(ys)

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0
	}

	r := cov / math.Sqrt(varX*varY)
	// Guard rounding drift past ±1.
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// stabilityScore returns max(0, 1 - variance/mean²), clamped to [0, 1].
// A zero mean would divide by zero; the series is then treated as fully
// unstable (score 0).
func stabilityScore(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}

	var variance float64
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(values))

	score := 1 - variance/(m*m)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// growthRate estimates the slope from the series endpoints.
// Zero elapsed time yields rate 0.
func growthRate(samples []TimedSample) float64 {
	first := samples[0]
	last := samples[len(samples)-1]
	dt := last.T - first.T
	if dt == 0 {
		return 0
	}
	return (last.V - first.V) / dt
}

// leastSquares fits y = slope*x + intercept.
// Constant x degenerates to slope 0, intercept mean(y).
func leastSquares(xs, ys []float64) (slope, intercept float64) {
	meanX := mean(xs)
	meanY := mean(ys)

	var num, den float64
	for i := range xs {
		dx := xs[i] - meanX
		num += dx * (ys[i] - meanY)
		den += dx * dx
	}

	if den == 0 {
		return 0, meanY
	}
	slope = num / den
	intercept = meanY - slope*meanX
	return slope, intercept
}

// rSquared computes the coefficient of determination for the fit.
// A constant-y series is fit exactly by its mean, so R² is 1 when the fit
// residuals are zero and 0 otherwise.
func rSquared(xs, ys []float64, slope, intercept float64) float64 {
	meanY := mean(ys)

	var ssRes, ssTot float64
	for i := range xs {
		pred := slope*xs[i] + intercept
		dRes := ys[i] - pred
		dTot := ys[i] - meanY
		ssRes += dRes * dRes
		ssTot += dTot * dTot
	}

	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}

	r2 := 1 - ssRes/ssTot
	if r2 < 0 {
		return 0
	}
	if r2 > 1 {
		return 1
	}
	return r2
}

// mean of a non-empty slice.
func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
