// Package main runs a synthetic two-variant latency experiment end to
// end: harness trials → analysis → promotion verdict → report.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"strategy-perf-lab/internal/analysis"
	"strategy-perf-lab/internal/compare"
	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/harness"
	"strategy-perf-lab/internal/idhash"
	"strategy-perf-lab/internal/reporting"
	"strategy-perf-lab/internal/stats"
	"strategy-perf-lab/internal/storage/memory"
)

func main() {
	// Parse flags
	trials := flag.Int("trials", 200, "Number of trials to run")
	allocation := flag.String("allocation", harness.AllocRoundRobin, "Trial allocation: ROUND_ROBIN or BANDIT")
	epsilon := flag.Float64("epsilon", 0.1, "Bandit exploration rate")
	baseLatency := flag.Duration("base-latency", 2*time.Millisecond, "Baseline op latency")
	speedup := flag.Float64("speedup", 2.0, "Candidate speedup factor over baseline")
	seed := flag.Int64("seed", 1, "RNG seed for synthetic workloads")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling experiment...\n", sig)
		cancel()
	}()

	// Memory stores are enough for a synthetic run
	experiments := memory.NewExperimentStore()
	measurements := memory.NewMeasurementStore()
	aggregates := memory.NewVariantAggregateStore()
	comparisons := memory.NewComparisonStore()

	// Create the experiment
	createdAt := time.Now().UnixMilli()
	experiment := &domain.Experiment{
		ExperimentID: idhash.ComputeExperimentID("synthetic-latency-ab", createdAt),
		Name:         "synthetic-latency-ab",
		Description:  "synthetic baseline vs sped-up candidate",
		Status:       domain.ExperimentStatusRunning,
		Variants: []domain.Variant{
			{ID: "control", Name: "baseline-op", IsBaseline: true},
			{ID: "candidate", Name: "optimized-op"},
		},
		CreatedAt: createdAt,
	}
	if err := experiments.Insert(ctx, experiment); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating experiment: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Synthetic Experiment ===")
	fmt.Printf("Experiment: %s (%s)\n", experiment.Name, idhash.ShortID(experiment.ExperimentID))
	fmt.Printf("Trials: %d, allocation: %s\n", *trials, *allocation)

	// Phase 1: Run trials
	rng := rand.New(rand.NewSource(*seed))
	runner, err := harness.NewRunner(harness.Options{
		Experiment:       experiment,
		Ops:              syntheticOps(rng, *baseLatency, *speedup),
		MeasurementStore: measurements,
		Allocation:       *allocation,
		Epsilon:          *epsilon,
		MaxTrials:        *trials,
		Sequential: compare.NewSequentialTest(compare.SequentialConfig{
			Alpha:         0.05,
			MaxSampleSize: *trials,
		}),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating runner: %v\n", err)
		os.Exit(1)
	}

	runResult, err := runner.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Harness error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Trials completed: %d", runResult.TrialsRun)
	if runResult.StoppedEarly {
		fmt.Printf(" (stopped early: %s)", runResult.FinalDecision)
	}
	fmt.Println()
	for _, v := range experiment.Variants {
		fmt.Printf("  %-10s %d trials\n", v.ID, runResult.TrialsByArm[v.ID])
	}

	if err := experiments.UpdateStatus(ctx, experiment.ExperimentID, domain.ExperimentStatusCompleted); err != nil {
		fmt.Fprintf(os.Stderr, "Error completing experiment: %v\n", err)
		os.Exit(1)
	}

	// Phase 2: Analyze
	analyzer := analysis.New(analysis.Options{
		ExperimentStore:  experiments,
		MeasurementStore: measurements,
		AggregateStore:   aggregates,
		ComparisonStore:  comparisons,
		SequentialConfig: compare.SequentialConfig{Alpha: 0.05, MaxSampleSize: *trials},
		Verbose:          *verbose,
	})

	analysisResult, err := analyzer.Run(ctx, experiment.ExperimentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Analysis: %d aggregates, %d comparisons\n",
		analysisResult.AggregatesComputed, analysisResult.ComparisonsComputed)
	for _, e := range analysisResult.Errors {
		fmt.Printf("  warning: %s\n", e)
	}

	// Phase 3: Report
	report, err := reporting.NewGenerator(experiments, aggregates, comparisons).
		Generate(ctx, experiment.ExperimentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Report error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Print(reporting.RenderMarkdown(report))

	// Latency distributions
	fmt.Println("## Latency Distributions")
	fmt.Println()
	for _, v := range experiment.Variants {
		ms, err := measurements.GetByVariant(ctx, experiment.ExperimentID, v.ID, domain.MeasurementLatencyMs)
		if err != nil || len(ms) == 0 {
			continue
		}
		values := make([]float64, len(ms))
		for i, m := range ms {
			values[i] = m.Value
		}
		printHistogram(v.ID, values)
	}
}

// printHistogram renders a text histogram of latency values in ms.
func printHistogram(variantID string, values []float64) {
	hist, err := stats.ComputeHistogram(values)
	if err != nil {
		return
	}

	maxCount := 0
	for _, bin := range hist.Bins {
		if bin.Count > maxCount {
			maxCount = bin.Count
		}
	}

	fmt.Printf("%s:\n", variantID)
	for _, bin := range hist.Bins {
		bar := ""
		if maxCount > 0 {
			bar = strings.Repeat("#", bin.Count*40/maxCount)
		}
		fmt.Printf("  %8.3f ms | %-40s %d\n", bin.LowerBound, bar, bin.Count)
	}
	fmt.Println()
}

// syntheticOps builds one op per variant: the baseline sleeps around
// baseLatency, the candidate around baseLatency/speedup, both with
// 20% uniform jitter.
func syntheticOps(rng *rand.Rand, baseLatency time.Duration, speedup float64) map[string]harness.Op {
	if speedup <= 0 {
		speedup = 1
	}
	jittered := func(base time.Duration) time.Duration {
		jitter := 0.8 + 0.4*rng.Float64()
		return time.Duration(float64(base) * jitter)
	}
	candidateLatency := time.Duration(float64(baseLatency) / speedup)

	return map[string]harness.Op{
		"control": func(ctx context.Context) error {
			time.Sleep(jittered(baseLatency))
			return nil
		},
		"candidate": func(ctx context.Context) error {
			time.Sleep(jittered(candidateLatency))
			return nil
		},
	}
}
