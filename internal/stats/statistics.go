// Package stats computes descriptive statistics over raw sample sets.
// Samples are operation durations in milliseconds or per-trial returns;
// callers own collection, this package only aggregates.
package stats

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyInput is returned when statistics are requested on zero samples.
// Empty input never silently produces zeros or NaN.
var ErrEmptyInput = errors.New("empty sample set")

// Statistics is a read-only aggregate of one sample set.
// Recomputed fresh on every Compute call; never cached.
type Statistics struct {
	Count  int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
	P50    float64
	P95    float64
	P99    float64
	P999   float64
}

// Compute calculates all descriptive statistics from samples.
// The input slice is never mutated; percentiles are read from a sorted copy.
// Returns ErrEmptyInput on an empty sample set.
func Compute(samples []float64) (*Statistics, error) {
	n := len(samples)
	if n == 0 {
		return nil, ErrEmptyInput
	}

	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	mean := computeMean(samples)

	return &Statistics{
		Count:  n,
		Mean:   mean,
		Median: percentile(sorted, 0.50),
		StdDev: computeStdDev(samples, mean),
		Min:    sorted[0],
		Max:    sorted[n-1],
		P50:    percentile(sorted, 0.50),
		P95:    percentile(sorted, 0.95),
		P99:    percentile(sorted, 0.99),
		P999:   percentile(sorted, 0.999),
	}, nil
}

// computeMean calculates the arithmetic mean.
func computeMean(samples []float64) float64 {
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// computeStdDev calculates population standard deviation (n denominator).
func computeStdDev(samples []float64, mean float64) float64 {
	sumSq := 0.0
	for _, s := range samples {
		diff := s - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(samples)))
}

// percentile reads the value at index floor(n*p), clamped to n-1.
// sorted must be pre-sorted ASC. This is the index-based convention,
// not linear interpolation: percentile([1..10], 0.50) reads index 5,
// giving 6, not the interpolated 5.5.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	idx := int(math.Floor(float64(n) * p))
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}
