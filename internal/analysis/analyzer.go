// Package analysis coordinates the offline analysis pass for one
// experiment: load measurements → aggregate per variant → compare each
// candidate against the baseline → persist results.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"strategy-perf-lab/internal/bayes"
	"strategy-perf-lab/internal/compare"
	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/idhash"
	"strategy-perf-lab/internal/stats"
	"strategy-perf-lab/internal/storage"
	"strategy-perf-lab/internal/trend"
)

// Analyzer errors
var (
	ErrNoBaseline     = errors.New("experiment has no baseline variant")
	ErrNoMeasurements = errors.New("no measurements available for analysis")
)

// Bayesian decision thresholds on P(candidate beats baseline).
const (
	bayesLeadThreshold  = 0.95
	bayesTrailThreshold = 0.05
)

// Analyzer runs the analysis pass for experiments.
type Analyzer struct {
	experimentStore  storage.ExperimentStore
	measurementStore storage.MeasurementStore
	aggregateStore   storage.VariantAggregateStore
	comparisonStore  storage.ComparisonStore

	sequentialConfig compare.SequentialConfig
	verbose          bool
}

// Options for creating an Analyzer.
type Options struct {
	ExperimentStore  storage.ExperimentStore
	MeasurementStore storage.MeasurementStore
	AggregateStore   storage.VariantAggregateStore
	ComparisonStore  storage.ComparisonStore

	SequentialConfig compare.SequentialConfig
	Verbose          bool
}

// New creates a new Analyzer.
func New(opts Options) *Analyzer {
	return &Analyzer{
		experimentStore:  opts.ExperimentStore,
		measurementStore: opts.MeasurementStore,
		aggregateStore:   opts.AggregateStore,
		comparisonStore:  opts.ComparisonStore,
		sequentialConfig: opts.SequentialConfig,
		verbose:          opts.Verbose,
	}
}

// RunResult contains results from one analysis pass.
type RunResult struct {
	AggregatesComputed  int
	ComparisonsComputed int
	Comparisons         []*domain.ComparisonRecord

	// LatencyTrends holds the per-variant latency trend over the
	// recording window, keyed by variant ID. A strong positive
	// correlation flags a drift (for example a leak) that would bias
	// the comparison.
	LatencyTrends map[string]*trend.TrendResult

	Errors []string
}

// numericKinds are compared with the frequentist and sequential methods;
// SUCCESS is a Bernoulli outcome and gets the Bayesian method instead.
var numericKinds = []string{domain.MeasurementLatencyMs, domain.MeasurementReturnRatio}

// Run executes the full analysis pass for one experiment.
// Phases:
//  1. Load experiment and locate the baseline
//  2. Compute per-variant aggregates for every measurement kind
//  3. Compare each candidate variant against the baseline
func (a *Analyzer) Run(ctx context.Context, experimentID string) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1: Load experiment
	a.log("Phase 1: loading experiment %s...", idhash.ShortID(experimentID))
	experiment, err := a.experimentStore.GetByID(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load experiment) failed: %w", err)
	}
	baseline := experiment.Baseline()
	if baseline == nil {
		return nil, ErrNoBaseline
	}

	computedAt := time.Now().UnixMilli()

	// Phase 2: Aggregates
	a.log("Phase 2: computing aggregates...")
	result.LatencyTrends = make(map[string]*trend.TrendResult)
	samplesByVariantKind := make(map[string]map[string][]float64)
	for _, variant := range experiment.Variants {
		samplesByVariantKind[variant.ID] = make(map[string][]float64)
		for _, kind := range allKinds() {
			measurements, err := a.measurementStore.GetByVariant(ctx, experimentID, variant.ID, kind)
			if err != nil {
				return nil, fmt.Errorf("phase 2 (load measurements) failed: %w", err)
			}
			values := make([]float64, len(measurements))
			for i, m := range measurements {
				values[i] = m.Value
			}
			samplesByVariantKind[variant.ID][kind] = values
			if len(values) == 0 {
				continue
			}

			if kind == domain.MeasurementLatencyMs {
				if tr, err := latencyTrend(measurements); err == nil {
					result.LatencyTrends[variant.ID] = tr
					if tr.IsLinearGrowth && tr.Correlation > 0 {
						result.Errors = append(result.Errors,
							fmt.Sprintf("trend %s: latency drifts upward over the run (r=%.2f)", variant.ID, tr.Correlation))
					}
				}
			}

			agg, err := buildAggregate(experimentID, variant.ID, kind, values, computedAt)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("aggregate %s/%s: %v", variant.ID, kind, err))
				continue
			}
			if err := a.aggregateStore.Insert(ctx, agg); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					continue
				}
				return nil, fmt.Errorf("phase 2 (store aggregate) failed: %w", err)
			}
			result.AggregatesComputed++
		}
	}
	a.log("  Computed %d aggregates", result.AggregatesComputed)

	if result.AggregatesComputed == 0 && allEmpty(samplesByVariantKind) {
		return nil, ErrNoMeasurements
	}

	// Phase 3: Comparisons
	a.log("Phase 3: comparing candidates against baseline %s...", baseline.ID)
	for _, candidate := range experiment.Variants {
		if candidate.IsBaseline {
			continue
		}

		records, compErrs := a.compareVariant(
			experiment, baseline, &candidate,
			samplesByVariantKind[baseline.ID], samplesByVariantKind[candidate.ID],
			computedAt,
		)
		result.Errors = append(result.Errors, compErrs...)

		for _, record := range records {
			if err := a.comparisonStore.Insert(ctx, record); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					continue
				}
				return nil, fmt.Errorf("phase 3 (store comparison) failed: %w", err)
			}
			result.Comparisons = append(result.Comparisons, record)
			result.ComparisonsComputed++
		}
	}
	a.log("  Computed %d comparisons (%d errors)", result.ComparisonsComputed, len(result.Errors))

	return result, nil
}

// compareVariant runs every applicable comparison method for one
// candidate against the baseline.
func (a *Analyzer) compareVariant(
	experiment *domain.Experiment,
	baseline, candidate *domain.Variant,
	baselineSamples, candidateSamples map[string][]float64,
	computedAt int64,
) ([]*domain.ComparisonRecord, []string) {
	var records []*domain.ComparisonRecord
	var errs []string

	for _, kind := range numericKinds {
		base := baselineSamples[kind]
		cand := candidateSamples[kind]
		if len(base) == 0 && len(cand) == 0 {
			continue
		}

		record, err := a.welch(experiment.ExperimentID, baseline.ID, candidate.ID, kind, base, cand, computedAt)
		if err != nil {
			errs = append(errs, fmt.Sprintf("welch %s/%s: %v", candidate.ID, kind, err))
		} else {
			records = append(records, record)
		}

		record, err = a.sequential(experiment.ExperimentID, baseline.ID, candidate.ID, kind, base, cand, computedAt)
		if err != nil {
			errs = append(errs, fmt.Sprintf("sequential %s/%s: %v", candidate.ID, kind, err))
		} else {
			records = append(records, record)
		}
	}

	base := baselineSamples[domain.MeasurementSuccess]
	cand := candidateSamples[domain.MeasurementSuccess]
	if len(base) > 0 || len(cand) > 0 {
		record, err := a.bayesian(experiment.ExperimentID, baseline.ID, candidate.ID, base, cand, computedAt)
		if err != nil {
			errs = append(errs, fmt.Sprintf("bayesian %s: %v", candidate.ID, err))
		} else {
			records = append(records, record)
		}
	}

	return records, errs
}

// welch runs Welch's t-test over two numeric sample sets.
func (a *Analyzer) welch(experimentID, baselineID, candidateID, kind string, base, cand []float64, computedAt int64) (*domain.ComparisonRecord, error) {
	tt, err := compare.TTest(base, cand)
	if err != nil {
		return nil, err
	}

	decision := domain.DecisionInconclusive
	if tt.IsSignificant {
		decision = domain.DecisionRejectNull
	}

	return &domain.ComparisonRecord{
		ComparisonID:     idhash.ComputeComparisonID(experimentID, baselineID, candidateID, domain.MethodWelchTTest, kind, computedAt),
		ExperimentID:     experimentID,
		BaselineID:       baselineID,
		CandidateID:      candidateID,
		Method:           domain.MethodWelchTTest,
		Kind:             kind,
		SamplesBaseline:  len(base),
		SamplesCandidate: len(cand),
		TStatistic:       tt.TStatistic,
		PValue:           tt.PValue,
		IsSignificant:    tt.IsSignificant,
		EffectSize:       tt.EffectSize,
		CILow:            tt.ConfidenceInterval[0],
		CIHigh:           tt.ConfidenceInterval[1],
		Decision:         decision,
		ComputedAt:       computedAt,
	}, nil
}

// sequential runs the alpha-spending sequential test, treating the
// candidate sample count as the per-variant sample size.
func (a *Analyzer) sequential(experimentID, baselineID, candidateID, kind string, base, cand []float64, computedAt int64) (*domain.ComparisonRecord, error) {
	st := compare.NewSequentialTest(a.sequentialConfig)

	sampleSize := len(cand)
	if len(base) < sampleSize {
		sampleSize = len(base)
	}

	seq, err := st.Analyze(base, cand, sampleSize)
	if err != nil {
		return nil, err
	}

	return &domain.ComparisonRecord{
		ComparisonID:     idhash.ComputeComparisonID(experimentID, baselineID, candidateID, domain.MethodSequential, kind, computedAt),
		ExperimentID:     experimentID,
		BaselineID:       baselineID,
		CandidateID:      candidateID,
		Method:           domain.MethodSequential,
		Kind:             kind,
		SamplesBaseline:  len(base),
		SamplesCandidate: len(cand),
		PValue:           seq.PValue,
		AdjustedAlpha:    seq.AdjustedAlpha,
		IsSignificant:    seq.Decision == compare.DecisionRejectNull,
		Decision:         sequentialDecision(seq.Decision),
		ComputedAt:       computedAt,
	}, nil
}

// bayesian runs the Beta-Bernoulli comparison over SUCCESS outcomes.
func (a *Analyzer) bayesian(experimentID, baselineID, candidateID string, base, cand []float64, computedAt int64) (*domain.ComparisonRecord, error) {
	if len(base) == 0 || len(cand) == 0 {
		return nil, ErrNoMeasurements
	}

	posteriorBase := bayes.UniformPrior().Update(len(base), countSuccesses(base))
	posteriorCand := bayes.UniformPrior().Update(len(cand), countSuccesses(cand))

	prob := bayes.ProbabilityBBeatsA(posteriorBase, posteriorCand)
	lo, hi, err := bayes.CredibleInterval(posteriorCand, 0.95)
	if err != nil {
		return nil, err
	}

	decision := domain.DecisionInconclusive
	switch {
	case prob >= bayesLeadThreshold:
		decision = domain.DecisionCandidateLeads
	case prob <= bayesTrailThreshold:
		decision = domain.DecisionBaselineLeads
	}

	return &domain.ComparisonRecord{
		ComparisonID:       idhash.ComputeComparisonID(experimentID, baselineID, candidateID, domain.MethodBayesian, domain.MeasurementSuccess, computedAt),
		ExperimentID:       experimentID,
		BaselineID:         baselineID,
		CandidateID:        candidateID,
		Method:             domain.MethodBayesian,
		Kind:               domain.MeasurementSuccess,
		SamplesBaseline:    len(base),
		SamplesCandidate:   len(cand),
		ProbCandidateBeats: prob,
		CredibleLow:        lo,
		CredibleHigh:       hi,
		Decision:           decision,
		ComputedAt:         computedAt,
	}, nil
}

// latencyTrend analyzes how a variant's latency evolves over the
// recording window, using time offsets from the first measurement.
func latencyTrend(measurements []*domain.Measurement) (*trend.TrendResult, error) {
	if len(measurements) == 0 {
		return nil, trend.ErrEmptyInput
	}
	start := measurements[0].RecordedAt
	samples := make([]trend.TimedSample, len(measurements))
	for i, m := range measurements {
		samples[i] = trend.TimedSample{
			T: float64(m.RecordedAt - start),
			V: m.Value,
		}
	}
	return trend.AnalyzeTrend(samples)
}

// buildAggregate computes the descriptive-statistics row for one sample set.
func buildAggregate(experimentID, variantID, kind string, values []float64, computedAt int64) (*domain.VariantAggregate, error) {
	s, err := stats.Compute(values)
	if err != nil {
		return nil, err
	}
	return &domain.VariantAggregate{
		ExperimentID: experimentID,
		VariantID:    variantID,
		Kind:         kind,
		SampleCount:  s.Count,
		Mean:         s.Mean,
		Median:       s.Median,
		StdDev:       s.StdDev,
		Min:          s.Min,
		Max:          s.Max,
		P50:          s.P50,
		P95:          s.P95,
		P99:          s.P99,
		P999:         s.P999,
		ComputedAt:   computedAt,
	}, nil
}

// sequentialDecision maps the sequential-test outcome onto the stored
// decision vocabulary.
func sequentialDecision(d compare.Decision) string {
	switch d {
	case compare.DecisionRejectNull:
		return domain.DecisionRejectNull
	case compare.DecisionAcceptNull:
		return domain.DecisionAcceptNull
	default:
		return domain.DecisionContinue
	}
}

func countSuccesses(values []float64) int {
	var n int
	for _, v := range values {
		if v > 0 {
			n++
		}
	}
	return n
}

func allKinds() []string {
	return []string{domain.MeasurementLatencyMs, domain.MeasurementReturnRatio, domain.MeasurementSuccess}
}

func allEmpty(samples map[string]map[string][]float64) bool {
	for _, byKind := range samples {
		for _, values := range byKind {
			if len(values) > 0 {
				return false
			}
		}
	}
	return true
}

func (a *Analyzer) log(format string, args ...interface{}) {
	if a.verbose {
		log.Printf("[analysis] "+format, args...)
	}
}
