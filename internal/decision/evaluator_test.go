package decision

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-perf-lab/internal/domain"
)

func promoteInput() Input {
	return Input{
		ExperimentID:       "exp-1",
		BaselineID:         "control",
		CandidateID:        "candidate",
		HasLatencyTest:     true,
		LatencySignificant: true,
		LatencyTStatistic:  8.2,
		LatencyPValue:      0.0001,
		LatencyEffectSize:  1.4,
		HasSuccessTest:     true,
		ProbCandidateBeats: 0.97,
		SequentialDecision: "REJECT_NULL",
		SamplesBaseline:    100,
		SamplesCandidate:   100,
	}
}

func TestEvaluatePromote(t *testing.T) {
	result := NewEvaluator().Evaluate(promoteInput())

	assert.Equal(t, OutcomePromote, result.Outcome)
	for _, c := range result.PromoteCriteria {
		assert.True(t, c.Pass, c.Name)
	}
	for _, c := range result.KeepTriggers {
		assert.True(t, c.Pass, c.Name)
	}
}

func TestEvaluateInconclusiveWhenNotSignificant(t *testing.T) {
	input := promoteInput()
	input.LatencySignificant = false
	input.LatencyPValue = 0.3

	result := NewEvaluator().Evaluate(input)
	assert.Equal(t, OutcomeInconclusive, result.Outcome)
}

func TestEvaluateInconclusiveWithFewSamples(t *testing.T) {
	input := promoteInput()
	input.SamplesBaseline = 10
	input.SamplesCandidate = 10

	result := NewEvaluator().Evaluate(input)
	assert.Equal(t, OutcomeInconclusive, result.Outcome)
}

func TestEvaluateKeepOnLatencyRegression(t *testing.T) {
	input := promoteInput()
	input.LatencyTStatistic = -6.1

	result := NewEvaluator().Evaluate(input)
	assert.Equal(t, OutcomeKeep, result.Outcome)
}

func TestEvaluateKeepOnSuccessRegression(t *testing.T) {
	input := promoteInput()
	input.ProbCandidateBeats = 0.01

	result := NewEvaluator().Evaluate(input)
	assert.Equal(t, OutcomeKeep, result.Outcome)
}

func TestEvaluateKeepWhenBudgetExhausted(t *testing.T) {
	input := promoteInput()
	input.LatencySignificant = false
	input.SequentialDecision = "ACCEPT_NULL"

	result := NewEvaluator().Evaluate(input)
	assert.Equal(t, OutcomeKeep, result.Outcome)
}

func TestEvaluateMissingSuccessDataPassesVacuously(t *testing.T) {
	input := promoteInput()
	input.HasSuccessTest = false
	input.ProbCandidateBeats = 0

	result := NewEvaluator().Evaluate(input)
	assert.Equal(t, OutcomePromote, result.Outcome)
}

func TestBuildInput(t *testing.T) {
	comparisons := []*domain.ComparisonRecord{
		{
			ExperimentID: "exp-1", BaselineID: "control", CandidateID: "candidate",
			Method: domain.MethodWelchTTest, Kind: domain.MeasurementLatencyMs,
			TStatistic: 5.5, PValue: 0.001, IsSignificant: true, EffectSize: 1.1,
			SamplesBaseline: 50, SamplesCandidate: 50,
		},
		{
			ExperimentID: "exp-1", BaselineID: "control", CandidateID: "candidate",
			Method: domain.MethodSequential, Kind: domain.MeasurementLatencyMs,
			Decision: domain.DecisionRejectNull,
		},
		{
			ExperimentID: "exp-1", BaselineID: "control", CandidateID: "candidate",
			Method: domain.MethodBayesian, Kind: domain.MeasurementSuccess,
			ProbCandidateBeats: 0.96,
		},
		{
			ExperimentID: "exp-1", BaselineID: "control", CandidateID: "other",
			Method: domain.MethodWelchTTest, Kind: domain.MeasurementLatencyMs,
			TStatistic: -2, PValue: 0.04, IsSignificant: true,
		},
	}

	input, err := BuildInput(comparisons, "candidate")
	require.NoError(t, err)

	assert.True(t, input.HasLatencyTest)
	assert.Equal(t, 5.5, input.LatencyTStatistic)
	assert.Equal(t, 50, input.SamplesBaseline)
	assert.True(t, input.HasSuccessTest)
	assert.Equal(t, 0.96, input.ProbCandidateBeats)
	assert.Equal(t, domain.DecisionRejectNull, input.SequentialDecision)
	assert.Equal(t, "control", input.BaselineID)
}

func TestBuildInputNoRecords(t *testing.T) {
	_, err := BuildInput(nil, "candidate")
	require.ErrorIs(t, err, ErrNoComparisons)
}

func TestRenderMarkdown(t *testing.T) {
	result := NewEvaluator().Evaluate(promoteInput())
	md := RenderMarkdown(result)

	assert.True(t, strings.HasPrefix(md, "# Promotion Gate Report"))
	assert.Contains(t, md, "## Verdict: PROMOTE")
	assert.Contains(t, md, "Promote criteria: 4/4 passed")
	assert.Contains(t, md, "Keep triggers: 0/3 triggered")
}

func TestRenderMarkdownKeep(t *testing.T) {
	input := promoteInput()
	input.LatencyTStatistic = -3

	md := RenderMarkdown(NewEvaluator().Evaluate(input))
	assert.Contains(t, md, "## Verdict: KEEP")
	assert.Contains(t, md, "Trigger fired: Latency regressed")
}
