package decision

// Outcome represents the final promotion verdict for a candidate variant.
type Outcome string

const (
	OutcomePromote      Outcome = "PROMOTE"
	OutcomeKeep         Outcome = "KEEP"
	OutcomeInconclusive Outcome = "INCONCLUSIVE"
)

// Input contains the comparison evidence for one candidate variant.
type Input struct {
	ExperimentID string
	BaselineID   string
	CandidateID  string

	// Welch's t-test on latency. A positive t-statistic means the
	// candidate's mean latency is below the baseline's.
	HasLatencyTest     bool
	LatencySignificant bool
	LatencyTStatistic  float64
	LatencyPValue      float64
	LatencyEffectSize  float64

	// Bayesian comparison on success outcomes.
	HasSuccessTest     bool
	ProbCandidateBeats float64

	// Sequential test decision (stored decision vocabulary).
	SequentialDecision string

	SamplesBaseline  int
	SamplesCandidate int
}

// CriterionResult represents pass/fail for one criterion.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// Result contains the final verdict with its criterion checklist.
type Result struct {
	Outcome         Outcome
	PromoteCriteria []CriterionResult // all must pass to promote
	KeepTriggers    []CriterionResult // any trigger forces keep
}
