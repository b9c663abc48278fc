package decision

import (
	"errors"

	"strategy-perf-lab/internal/domain"
)

// ErrNoComparisons is returned when a candidate has no comparison records.
var ErrNoComparisons = errors.New("no comparison records for candidate")

// BuildInput assembles evaluation Input for one candidate from its
// comparison records. Records for other candidates are ignored. The
// latest record per method wins when duplicates exist (records are
// expected in ComputedAt order).
func BuildInput(comparisons []*domain.ComparisonRecord, candidateID string) (*Input, error) {
	input := &Input{CandidateID: candidateID}
	found := false

	for _, c := range comparisons {
		if c.CandidateID != candidateID {
			continue
		}
		found = true
		input.ExperimentID = c.ExperimentID
		input.BaselineID = c.BaselineID

		switch c.Method {
		case domain.MethodWelchTTest:
			if c.Kind != domain.MeasurementLatencyMs {
				continue
			}
			input.HasLatencyTest = true
			input.LatencySignificant = c.IsSignificant
			input.LatencyTStatistic = c.TStatistic
			input.LatencyPValue = c.PValue
			input.LatencyEffectSize = c.EffectSize
			input.SamplesBaseline = c.SamplesBaseline
			input.SamplesCandidate = c.SamplesCandidate
		case domain.MethodBayesian:
			input.HasSuccessTest = true
			input.ProbCandidateBeats = c.ProbCandidateBeats
		case domain.MethodSequential:
			if c.Kind != domain.MeasurementLatencyMs {
				continue
			}
			input.SequentialDecision = c.Decision
		}
	}

	if !found {
		return nil, ErrNoComparisons
	}
	return input, nil
}
