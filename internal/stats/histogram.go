package stats

import (
	"math"
	"sort"
)

// HistogramBin is one contiguous half-open bin [LowerBound, LowerBound+width).
type HistogramBin struct {
	LowerBound float64
	Count      int
}

// Histogram is an ordered sequence of contiguous, non-overlapping bins.
// Invariant: the bin counts always sum to the input sample count.
type Histogram struct {
	Bins     []HistogramBin
	BinWidth float64
}

// maxHistogramBins caps bin count regardless of sample size.
const maxHistogramBins = 50

// ComputeHistogram buckets samples into k = min(50, ceil(sqrt(n))) bins.
// All-equal samples produce a single bin holding the full count (bin width
// would otherwise be zero). A sample exactly at max falls outside the last
// half-open bin under a naive scan; it is clamped into the last bin so that
// counts sum to n. Returns ErrEmptyInput on an empty sample set.
func ComputeHistogram(samples []float64) (*Histogram, error) {
	n := len(samples)
	if n == 0 {
		return nil, ErrEmptyInput
	}

	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	min := sorted[0]
	max := sorted[n-1]

	if min == max {
		return &Histogram{
			Bins:     []HistogramBin{{LowerBound: min, Count: n}},
			BinWidth: 0,
		}, nil
	}

	k := int(math.Ceil(math.Sqrt(float64(n))))
	if k > maxHistogramBins {
		k = maxHistogramBins
	}
	width := (max - min) / float64(k)

	bins := make([]HistogramBin, k)
	for i := range bins {
		bins[i].LowerBound = min + float64(i)*width
	}

	for _, s := range samples {
		idx := int((s - min) / width)
		// Clamp the top sample into the last bin.
		if idx >= k {
			idx = k - 1
		}
		bins[idx].Count++
	}

	return &Histogram{Bins: bins, BinWidth: width}, nil
}
