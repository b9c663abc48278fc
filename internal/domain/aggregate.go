package domain

// VariantAggregate is the descriptive-statistics row for one
// (experiment, variant, kind). Corresponds to the variant_aggregates table.
type VariantAggregate struct {
	ExperimentID string
	VariantID    string
	Kind         string

	SampleCount int
	Mean        float64
	Median      float64
	StdDev      float64
	Min         float64
	Max         float64
	P50         float64
	P95         float64
	P99         float64
	P999        float64

	ComputedAt int64 // ms since epoch
}
