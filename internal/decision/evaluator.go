package decision

import "fmt"

// Evaluation thresholds.
const (
	minSamplesPerArm   = 30
	successTrail       = 0.05
	sequentialAccepted = "ACCEPT_NULL"
)

// Evaluator evaluates promotion criteria for a candidate variant.
type Evaluator struct{}

// NewEvaluator creates a new promotion evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate produces a Result from comparison evidence.
// PROMOTE if ALL promote criteria pass and NO keep trigger fires.
// KEEP if ANY trigger fires. INCONCLUSIVE otherwise.
func (e *Evaluator) Evaluate(input Input) *Result {
	criteria := e.evaluatePromoteCriteria(input)
	triggers := e.evaluateKeepTriggers(input)

	allPass := true
	for _, c := range criteria {
		if !c.Pass {
			allPass = false
			break
		}
	}

	anyTriggered := false
	for _, c := range triggers {
		if !c.Pass { // Pass=false means triggered
			anyTriggered = true
			break
		}
	}

	outcome := OutcomeInconclusive
	switch {
	case anyTriggered:
		outcome = OutcomeKeep
	case allPass:
		outcome = OutcomePromote
	}

	return &Result{
		Outcome:         outcome,
		PromoteCriteria: criteria,
		KeepTriggers:    triggers,
	}
}

// evaluatePromoteCriteria evaluates the 4 promote criteria.
func (e *Evaluator) evaluatePromoteCriteria(input Input) []CriterionResult {
	criteria := make([]CriterionResult, 4)

	// 1. Latency difference significant
	criteria[0] = CriterionResult{
		Name:      "Latency difference significant",
		Threshold: "p < 0.05",
		Actual:    fmt.Sprintf("p=%.4f", input.LatencyPValue),
		Pass:      input.HasLatencyTest && input.LatencySignificant,
	}

	// 2. Latency improved: positive t means candidate is faster
	criteria[1] = CriterionResult{
		Name:      "Latency improved",
		Threshold: "t > 0",
		Actual:    fmt.Sprintf("t=%.4f", input.LatencyTStatistic),
		Pass:      input.HasLatencyTest && input.LatencyTStatistic > 0,
	}

	// 3. Success rate not worse. Passes vacuously when the experiment
	// recorded no success outcomes.
	successPass := true
	successActual := "no success data"
	if input.HasSuccessTest {
		successPass = input.ProbCandidateBeats >= 0.5
		successActual = fmt.Sprintf("P(candidate>baseline)=%.4f", input.ProbCandidateBeats)
	}
	criteria[2] = CriterionResult{
		Name:      "Success rate not worse",
		Threshold: ">= 0.5",
		Actual:    successActual,
		Pass:      successPass,
	}

	// 4. Enough samples in both arms
	criteria[3] = CriterionResult{
		Name:      "Enough samples",
		Threshold: fmt.Sprintf(">= %d per arm", minSamplesPerArm),
		Actual:    fmt.Sprintf("baseline=%d, candidate=%d", input.SamplesBaseline, input.SamplesCandidate),
		Pass:      input.SamplesBaseline >= minSamplesPerArm && input.SamplesCandidate >= minSamplesPerArm,
	}

	return criteria
}

// evaluateKeepTriggers evaluates the 3 keep triggers.
// Pass=true means NOT triggered, Pass=false means triggered.
func (e *Evaluator) evaluateKeepTriggers(input Input) []CriterionResult {
	triggers := make([]CriterionResult, 3)

	// 1. Latency regressed: significant and candidate slower
	regressed := input.HasLatencyTest && input.LatencySignificant && input.LatencyTStatistic < 0
	triggers[0] = CriterionResult{
		Name:      "Latency regressed",
		Threshold: "significant AND t < 0",
		Actual:    fmt.Sprintf("t=%.4f, p=%.4f", input.LatencyTStatistic, input.LatencyPValue),
		Pass:      !regressed,
	}

	// 2. Success rate regressed
	successRegressed := input.HasSuccessTest && input.ProbCandidateBeats <= successTrail
	triggers[1] = CriterionResult{
		Name:      "Success rate regressed",
		Threshold: fmt.Sprintf("P(candidate>baseline) <= %.2f", successTrail),
		Actual:    fmt.Sprintf("P(candidate>baseline)=%.4f", input.ProbCandidateBeats),
		Pass:      !successRegressed,
	}

	// 3. Sequential test exhausted the sample budget without a difference
	accepted := input.SequentialDecision == sequentialAccepted
	triggers[2] = CriterionResult{
		Name:      "Sample budget exhausted without effect",
		Threshold: "sequential decision == ACCEPT_NULL",
		Actual:    input.SequentialDecision,
		Pass:      !accepted,
	}

	return triggers
}
