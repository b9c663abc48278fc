package analysis

import (
	"context"
	"fmt"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks for one experiment.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
}

// Default sufficiency thresholds.
const (
	minLatencySamples = 30
	minSpanMs         = int64(60_000)
)

// SufficiencyChecker validates that an experiment has enough data for
// a trustworthy analysis pass.
type SufficiencyChecker struct {
	experimentStore  storage.ExperimentStore
	measurementStore storage.MeasurementStore
}

// NewSufficiencyChecker creates a new sufficiency checker.
func NewSufficiencyChecker(
	experimentStore storage.ExperimentStore,
	measurementStore storage.MeasurementStore,
) *SufficiencyChecker {
	return &SufficiencyChecker{
		experimentStore:  experimentStore,
		measurementStore: measurementStore,
	}
}

// Check runs all sufficiency criteria for one experiment:
//  1. A baseline variant exists
//  2. At least one candidate variant exists
//  3. Every variant has enough latency samples
//  4. The recording window spans a minimum duration
func (c *SufficiencyChecker) Check(ctx context.Context, experimentID string) (*SufficiencyResult, error) {
	experiment, err := c.experimentStore.GetByID(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	var checks []SufficiencyCheck

	// 1. Baseline exists
	baseline := experiment.Baseline()
	checks = append(checks, SufficiencyCheck{
		Name:      "Baseline variant present",
		Threshold: "exactly one",
		Actual:    baselineActual(baseline),
		Pass:      baseline != nil,
	})

	// 2. At least one candidate
	candidates := 0
	for _, v := range experiment.Variants {
		if !v.IsBaseline {
			candidates++
		}
	}
	checks = append(checks, SufficiencyCheck{
		Name:      "Candidate variants present",
		Threshold: ">= 1",
		Actual:    fmt.Sprintf("%d", candidates),
		Pass:      candidates >= 1,
	})

	// 3. Enough latency samples per variant
	var minT, maxT int64
	minSamples := -1
	for _, v := range experiment.Variants {
		ms, err := c.measurementStore.GetByVariant(ctx, experimentID, v.ID, domain.MeasurementLatencyMs)
		if err != nil {
			return nil, err
		}
		if minSamples < 0 || len(ms) < minSamples {
			minSamples = len(ms)
		}
		for _, m := range ms {
			if minT == 0 || m.RecordedAt < minT {
				minT = m.RecordedAt
			}
			if m.RecordedAt > maxT {
				maxT = m.RecordedAt
			}
		}
	}
	if minSamples < 0 {
		minSamples = 0
	}
	checks = append(checks, SufficiencyCheck{
		Name:      "Latency samples per variant",
		Threshold: fmt.Sprintf(">= %d", minLatencySamples),
		Actual:    fmt.Sprintf("min %d", minSamples),
		Pass:      minSamples >= minLatencySamples,
	})

	// 4. Recording window span
	span := maxT - minT
	checks = append(checks, SufficiencyCheck{
		Name:      "Recording window span",
		Threshold: fmt.Sprintf(">= %dms", minSpanMs),
		Actual:    fmt.Sprintf("%dms", span),
		Pass:      span >= minSpanMs,
	})

	allPass := true
	for _, check := range checks {
		if !check.Pass {
			allPass = false
			break
		}
	}

	return &SufficiencyResult{Checks: checks, AllPass: allPass}, nil
}

func baselineActual(baseline *domain.Variant) string {
	if baseline == nil {
		return "none"
	}
	return baseline.ID
}
