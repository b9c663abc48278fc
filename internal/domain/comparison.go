package domain

// Comparison methods.
const (
	MethodWelchTTest = "WELCH_T_TEST"
	MethodBayesian   = "BAYESIAN_AB"
	MethodSequential = "SEQUENTIAL"
)

// Comparison decisions. Frequentist/sequential methods emit the null-
// hypothesis decisions; the Bayesian method emits candidate/baseline ones.
const (
	DecisionContinue       = "CONTINUE"
	DecisionRejectNull     = "REJECT_NULL"
	DecisionAcceptNull     = "ACCEPT_NULL"
	DecisionCandidateLeads = "CANDIDATE_LEADS"
	DecisionBaselineLeads  = "BASELINE_LEADS"
	DecisionInconclusive   = "INCONCLUSIVE"
)

// ComparisonRecord is the stored result of comparing a candidate variant
// against the baseline with one method. Corresponds to the comparisons
// table. Fields that a method does not produce are left at zero.
type ComparisonRecord struct {
	ComparisonID string // deterministic hash, see idhash
	ExperimentID string
	BaselineID   string
	CandidateID  string
	Method       string
	Kind         string // measurement kind compared

	SamplesBaseline  int
	SamplesCandidate int

	// Frequentist / sequential
	TStatistic    float64
	PValue        float64
	IsSignificant bool
	EffectSize    float64
	CILow         float64
	CIHigh        float64
	AdjustedAlpha float64

	// Bayesian
	ProbCandidateBeats float64
	CredibleLow        float64
	CredibleHigh       float64

	Decision   string
	ComputedAt int64 // ms since epoch
}
