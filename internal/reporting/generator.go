package reporting

import (
	"context"
	"sort"
	"time"

	"strategy-perf-lab/internal/decision"
	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/idhash"
	"strategy-perf-lab/internal/storage"
)

// Generator produces experiment reports from stored data.
type Generator struct {
	experimentStore storage.ExperimentStore
	aggregateStore  storage.VariantAggregateStore
	comparisonStore storage.ComparisonStore
	now             func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	experimentStore storage.ExperimentStore,
	aggregateStore storage.VariantAggregateStore,
	comparisonStore storage.ComparisonStore,
) *Generator {
	return &Generator{
		experimentStore: experimentStore,
		aggregateStore:  aggregateStore,
		comparisonStore: comparisonStore,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report for one experiment.
func (g *Generator) Generate(ctx context.Context, experimentID string) (*Report, error) {
	experiment, err := g.experimentStore.GetByID(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	aggs, err := g.aggregateStore.GetByExperiment(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	comparisons, err := g.comparisonStore.GetByExperiment(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt: g.now(),
		Experiment:  summarize(experiment),
		Aggregates:  aggregateRows(aggs),
		Comparisons: comparisonRows(comparisons),
		Verdicts:    verdictRows(experiment, comparisons),
	}, nil
}

func summarize(experiment *domain.Experiment) ExperimentSummary {
	summary := ExperimentSummary{
		ExperimentID: experiment.ExperimentID,
		ShortID:      idhash.ShortID(experiment.ExperimentID),
		Name:         experiment.Name,
		Description:  experiment.Description,
		Status:       experiment.Status,
		VariantCount: len(experiment.Variants),
		CreatedAt:    experiment.CreatedAt,
	}
	if baseline := experiment.Baseline(); baseline != nil {
		summary.BaselineID = baseline.ID
	}
	return summary
}

func aggregateRows(aggs []*domain.VariantAggregate) []AggregateRow {
	rows := make([]AggregateRow, len(aggs))
	for i, a := range aggs {
		rows[i] = AggregateRow{
			VariantID:   a.VariantID,
			Kind:        a.Kind,
			SampleCount: a.SampleCount,
			Mean:        a.Mean,
			Median:      a.Median,
			StdDev:      a.StdDev,
			Min:         a.Min,
			Max:         a.Max,
			P95:         a.P95,
			P99:         a.P99,
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].VariantID != rows[j].VariantID {
			return rows[i].VariantID < rows[j].VariantID
		}
		return rows[i].Kind < rows[j].Kind
	})
	return rows
}

func comparisonRows(comparisons []*domain.ComparisonRecord) []ComparisonRow {
	rows := make([]ComparisonRow, len(comparisons))
	for i, c := range comparisons {
		rows[i] = ComparisonRow{
			CandidateID:        c.CandidateID,
			Method:             c.Method,
			Kind:               c.Kind,
			SamplesBaseline:    c.SamplesBaseline,
			SamplesCandidate:   c.SamplesCandidate,
			TStatistic:         c.TStatistic,
			PValue:             c.PValue,
			EffectSize:         c.EffectSize,
			CILow:              c.CILow,
			CIHigh:             c.CIHigh,
			AdjustedAlpha:      c.AdjustedAlpha,
			ProbCandidateBeats: c.ProbCandidateBeats,
			CredibleLow:        c.CredibleLow,
			CredibleHigh:       c.CredibleHigh,
			Significant:        c.IsSignificant,
			Decision:           c.Decision,
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CandidateID != rows[j].CandidateID {
			return rows[i].CandidateID < rows[j].CandidateID
		}
		if rows[i].Method != rows[j].Method {
			return rows[i].Method < rows[j].Method
		}
		return rows[i].Kind < rows[j].Kind
	})
	return rows
}

// verdictRows evaluates the promotion gate for every candidate with
// comparison records. Candidates without records are skipped.
func verdictRows(experiment *domain.Experiment, comparisons []*domain.ComparisonRecord) []VerdictRow {
	evaluator := decision.NewEvaluator()

	var rows []VerdictRow
	for _, v := range experiment.Variants {
		if v.IsBaseline {
			continue
		}
		input, err := decision.BuildInput(comparisons, v.ID)
		if err != nil {
			// No comparison records for this candidate yet.
			continue
		}
		rows = append(rows, VerdictRow{
			CandidateID: v.ID,
			Result:      evaluator.Evaluate(*input),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CandidateID < rows[j].CandidateID
	})
	return rows
}
