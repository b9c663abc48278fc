package reporting

import (
	"time"

	"strategy-perf-lab/internal/decision"
)

// Report is the rendered view of one experiment's results.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Experiment  ExperimentSummary

	// Per-variant descriptive statistics (sorted by variant_id, kind)
	Aggregates []AggregateRow

	// Comparisons against the baseline (sorted by candidate_id, method, kind)
	Comparisons []ComparisonRow

	// Promotion verdicts per candidate (sorted by candidate_id)
	Verdicts []VerdictRow
}

// ExperimentSummary describes the experiment under report.
type ExperimentSummary struct {
	ExperimentID string
	ShortID      string
	Name         string
	Description  string
	Status       string
	BaselineID   string
	VariantCount int
	CreatedAt    int64 // Unix ms
}

// AggregateRow represents one row in the aggregates table.
type AggregateRow struct {
	VariantID   string
	Kind        string
	SampleCount int
	Mean        float64
	Median      float64
	StdDev      float64
	Min         float64
	Max         float64
	P95         float64
	P99         float64
}

// ComparisonRow represents one row in the comparisons table.
type ComparisonRow struct {
	CandidateID        string
	Method             string
	Kind               string
	SamplesBaseline    int
	SamplesCandidate   int
	TStatistic         float64
	PValue             float64
	EffectSize         float64
	CILow              float64
	CIHigh             float64
	AdjustedAlpha      float64
	ProbCandidateBeats float64
	CredibleLow        float64
	CredibleHigh       float64
	Significant        bool
	Decision           string
}

// VerdictRow holds the promotion verdict for one candidate.
type VerdictRow struct {
	CandidateID string
	Result      *decision.Result
}
