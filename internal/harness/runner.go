// Package harness executes live experiments: it allocates trials to
// variants, runs the variant operations under a stopwatch, and records
// the resulting measurements.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"strategy-perf-lab/internal/bandit"
	"strategy-perf-lab/internal/compare"
	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
	"strategy-perf-lab/internal/timing"
)

// Runner errors
var (
	ErrNoVariants      = errors.New("experiment has no variants")
	ErrMissingOp       = errors.New("variant has no registered operation")
	ErrUnknownStrategy = errors.New("unknown allocation strategy")
)

// Allocation strategies.
const (
	AllocRoundRobin = "ROUND_ROBIN"
	AllocBandit     = "BANDIT"
)

// Op is one unit of variant work executed per trial.
type Op func(ctx context.Context) error

// Options contains configuration for creating a Runner.
type Options struct {
	Experiment       *domain.Experiment
	Ops              map[string]Op // variant ID -> operation
	MeasurementStore storage.MeasurementStore
	Allocation       string  // AllocRoundRobin or AllocBandit
	Epsilon          float64 // bandit exploration rate, 0 means default
	MaxTrials        int
	FlushEvery       int // measurements buffered before a bulk insert

	// Sequential stops the run early when a sequential test over the
	// baseline and the best candidate reaches a terminal decision.
	// Nil disables early stopping.
	Sequential *compare.SequentialTest
}

// Runner executes trials for one experiment.
type Runner struct {
	experiment *domain.Experiment
	ops        map[string]Op
	store      storage.MeasurementStore
	allocation string
	selector   *bandit.Selector
	maxTrials  int
	flushEvery int
	sequential *compare.SequentialTest

	newStopwatch func() *timing.Stopwatch
}

// Result summarizes one completed run.
type Result struct {
	TrialsRun      int
	TrialsByArm    map[string]int
	StoppedEarly   bool
	FinalDecision  compare.Decision
	LatenciesByArm map[string][]float64
}

// NewRunner creates a harness runner. Every variant of the experiment
// must have an operation registered in opts.Ops.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Experiment == nil || len(opts.Experiment.Variants) == 0 {
		return nil, ErrNoVariants
	}
	for _, v := range opts.Experiment.Variants {
		if _, ok := opts.Ops[v.ID]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingOp, v.ID)
		}
	}

	r := &Runner{
		experiment: opts.Experiment,
		ops:        opts.Ops,
		store:      opts.MeasurementStore,
		allocation: opts.Allocation,
		maxTrials:  opts.MaxTrials,
		flushEvery: opts.FlushEvery,
		sequential: opts.Sequential,

		newStopwatch: timing.NewStopwatch,
	}
	if r.allocation == "" {
		r.allocation = AllocRoundRobin
	}
	if r.maxTrials <= 0 {
		r.maxTrials = 100
	}
	if r.flushEvery <= 0 {
		r.flushEvery = 50
	}

	switch r.allocation {
	case AllocRoundRobin:
	case AllocBandit:
		sel := bandit.NewSelector(opts.Epsilon)
		for _, v := range opts.Experiment.Variants {
			sel.RegisterArm(v.ID)
		}
		r.selector = sel
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, r.allocation)
	}

	return r, nil
}

// Run executes trials until the budget is exhausted, the context is
// cancelled, or the sequential test reaches a terminal decision.
// Each trial records a LATENCY_MS measurement and, for bandit
// allocation, rewards the arm with the negated latency so faster
// variants accumulate higher value.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		TrialsByArm:    make(map[string]int),
		LatenciesByArm: make(map[string][]float64),
		FinalDecision:  compare.DecisionContinue,
	}

	var pending []*domain.Measurement

	for trial := 0; trial < r.maxTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		variantID, err := r.pickVariant(trial)
		if err != nil {
			return result, err
		}

		sw := r.newStopwatch()
		elapsed, opErr := sw.Measure(func() error {
			return r.ops[variantID](ctx)
		})

		result.TrialsRun++
		result.TrialsByArm[variantID]++
		result.LatenciesByArm[variantID] = append(result.LatenciesByArm[variantID], elapsed)

		if r.selector != nil {
			// Lower latency is better, so reward the negated value.
			if err := r.selector.Update(variantID, -elapsed); err != nil {
				return result, err
			}
		}

		now := time.Now().UnixMilli()
		pending = append(pending, &domain.Measurement{
			ExperimentID: r.experiment.ExperimentID,
			VariantID:    variantID,
			Kind:         domain.MeasurementLatencyMs,
			Value:        elapsed,
			RecordedAt:   now,
		})
		success := 1.0
		if opErr != nil {
			success = 0
		}
		pending = append(pending, &domain.Measurement{
			ExperimentID: r.experiment.ExperimentID,
			VariantID:    variantID,
			Kind:         domain.MeasurementSuccess,
			Value:        success,
			RecordedAt:   now,
		})

		if len(pending) >= r.flushEvery {
			if err := r.flush(ctx, pending); err != nil {
				return result, err
			}
			pending = pending[:0]
		}

		if decision, stopped := r.checkSequential(result, trial+1); stopped {
			result.StoppedEarly = true
			result.FinalDecision = decision
			break
		}
	}

	if err := r.flush(ctx, pending); err != nil {
		return result, err
	}

	return result, nil
}

// pickVariant chooses the variant for one trial.
func (r *Runner) pickVariant(trial int) (string, error) {
	if r.selector != nil {
		return r.selector.SelectArm()
	}
	variants := r.experiment.Variants
	return variants[trial%len(variants)].ID, nil
}

// checkSequential runs the sequential test over the baseline and the
// first non-baseline variant once both have at least two samples.
func (r *Runner) checkSequential(result *Result, sampleSize int) (compare.Decision, bool) {
	if r.sequential == nil {
		return compare.DecisionContinue, false
	}

	baseline := r.experiment.Baseline()
	if baseline == nil {
		return compare.DecisionContinue, false
	}

	var candidateID string
	for _, v := range r.experiment.Variants {
		if !v.IsBaseline {
			candidateID = v.ID
			break
		}
	}
	if candidateID == "" {
		return compare.DecisionContinue, false
	}

	a := result.LatenciesByArm[baseline.ID]
	b := result.LatenciesByArm[candidateID]
	if len(a) < 2 || len(b) < 2 {
		return compare.DecisionContinue, false
	}

	seq, err := r.sequential.Analyze(a, b, sampleSize)
	if err != nil {
		return compare.DecisionContinue, false
	}
	if seq.Decision != compare.DecisionContinue {
		return seq.Decision, true
	}
	return compare.DecisionContinue, false
}

func (r *Runner) flush(ctx context.Context, pending []*domain.Measurement) error {
	if r.store == nil || len(pending) == 0 {
		return nil
	}
	return r.store.InsertBulk(ctx, pending)
}
