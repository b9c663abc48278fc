// Package main analyzes stored measurements for one experiment and
// writes report files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"strategy-perf-lab/internal/analysis"
	"strategy-perf-lab/internal/compare"
	"strategy-perf-lab/internal/decision"
	"strategy-perf-lab/internal/reporting"
	chstore "strategy-perf-lab/internal/storage/clickhouse"
	"strategy-perf-lab/internal/storage/migrations"
	pgstore "strategy-perf-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	experimentID := flag.String("experiment-id", "", "Experiment ID to analyze")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	outputDir := flag.String("output-dir", "output", "Output directory for report files")
	alpha := flag.Float64("alpha", 0.05, "Sequential test alpha")
	maxSamples := flag.Int("max-samples", 1000, "Sequential test sample budget")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	if *experimentID == "" {
		fmt.Fprintln(os.Stderr, "--experiment-id is required")
		os.Exit(1)
	}
	if *postgresDSN == "" || *clickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "--postgres-dsn and --clickhouse-dsn are required")
		os.Exit(1)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling analysis...\n", sig)
		cancel()
	}()

	// Connect and migrate
	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Error running postgres migrations: %v\n", err)
		os.Exit(1)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running clickhouse migrations: %v\n", err)
		os.Exit(1)
	}
	defer chConn.Close()

	experiments := pgstore.NewExperimentStore(pool)
	aggregates := pgstore.NewVariantAggregateStore(pool)
	comparisons := pgstore.NewComparisonStore(pool)
	measurements := chstore.NewMeasurementStore(chConn)

	// Sufficiency gate: warn, but still analyze what is there
	sufficiency, err := analysis.NewSufficiencyChecker(experiments, measurements).Check(ctx, *experimentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sufficiency check error: %v\n", err)
		os.Exit(1)
	}
	if !sufficiency.AllPass {
		fmt.Println("Warning: data sufficiency checks failed:")
		for _, check := range sufficiency.Checks {
			if !check.Pass {
				fmt.Printf("  - %s: %s (need %s)\n", check.Name, check.Actual, check.Threshold)
			}
		}
	}

	// Analyze
	analyzer := analysis.New(analysis.Options{
		ExperimentStore:  experiments,
		MeasurementStore: measurements,
		AggregateStore:   aggregates,
		ComparisonStore:  comparisons,
		SequentialConfig: compare.SequentialConfig{Alpha: *alpha, MaxSampleSize: *maxSamples},
		Verbose:          *verbose,
	})

	result, err := analyzer.Run(ctx, *experimentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Analysis completed: %d aggregates, %d comparisons\n",
		result.AggregatesComputed, result.ComparisonsComputed)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	// Report
	report, err := reporting.NewGenerator(experiments, aggregates, comparisons).
		Generate(ctx, *experimentID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Report error: %v\n", err)
		os.Exit(1)
	}

	if err := writeReports(*outputDir, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing reports: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Reports written:")
	fmt.Printf("  - %s/REPORT.md\n", *outputDir)
	fmt.Printf("  - %s/aggregates.csv\n", *outputDir)
	fmt.Printf("  - %s/comparisons.csv\n", *outputDir)
	fmt.Printf("  - %s/PROMOTION_GATE.md\n", *outputDir)
}

// writeReports writes the markdown and CSV artifacts.
func writeReports(outputDir string, report *reporting.Report) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]string{
		"REPORT.md":       reporting.RenderMarkdown(report),
		"aggregates.csv":  reporting.RenderCSV(report.Aggregates),
		"comparisons.csv": reporting.RenderComparisonsCSV(report.Comparisons),
	}

	var gate strings.Builder
	if len(report.Verdicts) == 0 {
		gate.WriteString("# Promotion Gate Report\n\nNo candidates with comparison records.\n")
	}
	for _, v := range report.Verdicts {
		gate.WriteString(decision.RenderMarkdown(v.Result))
		gate.WriteString("\n")
	}
	files["PROMOTION_GATE.md"] = gate.String()

	for name, content := range files {
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
