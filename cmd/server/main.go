// Package main provides the long-running experiment service:
// - Ingestion (continuous): WebSocket measurement feed
// - Analysis (scheduled): aggregates → comparisons → verdicts
// - Observability: health, status, Prometheus metrics
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"strategy-perf-lab/internal/analysis"
	"strategy-perf-lab/internal/compare"
	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/feed"
	"strategy-perf-lab/internal/idhash"
	"strategy-perf-lab/internal/observability"
	"strategy-perf-lab/internal/storage"
	chstore "strategy-perf-lab/internal/storage/clickhouse"
	"strategy-perf-lab/internal/storage/memory"
	"strategy-perf-lab/internal/storage/migrations"
	pgstore "strategy-perf-lab/internal/storage/postgres"
)

// Server holds all components of the experiment service.
type Server struct {
	// Configuration
	feedEndpoint     string
	postgresDSN      string
	clickhouseDSN    string
	useMemory        bool
	analysisInterval time.Duration
	sequentialConfig compare.SequentialConfig

	// Stores
	stores *allStores

	// Components
	metrics *observability.Metrics
	logger  *log.Logger

	// State
	mu              sync.Mutex
	started         time.Time
	lastAnalysisRun time.Time
	analysisRunning bool

	// Stats
	analysisRuns int
}

// allStores holds all storage implementations.
type allStores struct {
	experimentStore  storage.ExperimentStore
	measurementStore storage.MeasurementStore
	aggregateStore   storage.VariantAggregateStore
	comparisonStore  storage.ComparisonStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	feedEndpoint := flag.String("feed-endpoint", os.Getenv("FEED_WS_ENDPOINT"), "Measurement feed WebSocket endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	analysisInterval := flag.Duration("analysis-interval", 5*time.Minute, "Analysis run interval")
	alpha := flag.Float64("alpha", 0.05, "Sequential test alpha")
	maxSamples := flag.Int("max-samples", 1000, "Sequential test sample budget")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *feedEndpoint == "" {
		logger.Fatal("--feed-endpoint is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Create server
	server := &Server{
		feedEndpoint:     *feedEndpoint,
		postgresDSN:      *postgresDSN,
		clickhouseDSN:    *clickhouseDSN,
		useMemory:        *useMemory,
		analysisInterval: *analysisInterval,
		sequentialConfig: compare.SequentialConfig{Alpha: *alpha, MaxSampleSize: *maxSamples},
		stores:           stores,
		metrics:          observability.NewMetrics(""),
		logger:           logger,
		started:          time.Now(),
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	go server.startHTTPServer(*metricsAddr)

	// Run the service
	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			experimentStore:  memory.NewExperimentStore(),
			measurementStore: memory.NewMeasurementStore(),
			aggregateStore:   memory.NewVariantAggregateStore(),
			comparisonStore:  memory.NewComparisonStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL (experiments, aggregates, comparisons)
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse (measurements)
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	stores := &allStores{
		experimentStore:  pgstore.NewExperimentStore(pool),
		aggregateStore:   pgstore.NewVariantAggregateStore(pool),
		comparisonStore:  pgstore.NewComparisonStore(pool),
		measurementStore: chstore.NewMeasurementStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// Run starts the service components.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting experiment service...")

	errCh := make(chan error, 2)

	// Start feed ingestion in background
	go func() {
		err := s.runIngestion(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("ingestion: %w", err)
		}
	}()

	// Start analysis scheduler in background
	go func() {
		err := s.runAnalysisScheduler(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("analysis scheduler: %w", err)
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runIngestion connects to the measurement feed and batches incoming
// measurements into storage.
func (s *Server) runIngestion(ctx context.Context) error {
	s.logger.Println("Starting feed ingestion...")

	ingestor := feed.NewIngestor(feed.IngestorOptions{
		Store:   s.stores.measurementStore,
		Metrics: s.metrics,
	})
	defer ingestor.Close()

	client, err := feed.NewClient(ctx, s.feedEndpoint, nil, ingestor.Handle)
	if err != nil {
		return fmt.Errorf("connect to feed: %w", err)
	}
	defer client.Close()

	s.logger.Println("Feed ingestion started")

	<-ctx.Done()
	return ctx.Err()
}

// runAnalysisScheduler runs the analysis pass on schedule.
func (s *Server) runAnalysisScheduler(ctx context.Context) error {
	s.logger.Printf("Starting analysis scheduler (interval: %v)...", s.analysisInterval)

	// Run immediately on start
	s.runAnalysis(ctx)

	ticker := time.NewTicker(s.analysisInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runAnalysis(ctx)
		}
	}
}

// runAnalysis analyzes every running experiment once.
func (s *Server) runAnalysis(ctx context.Context) {
	s.mu.Lock()
	if s.analysisRunning {
		s.mu.Unlock()
		s.logger.Println("Analysis already running, skipping...")
		return
	}
	s.analysisRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.analysisRunning = false
		s.lastAnalysisRun = time.Now()
		s.analysisRuns++
		s.mu.Unlock()
	}()

	s.logger.Println("Running analysis...")
	start := time.Now()

	experiments, err := s.stores.experimentStore.GetAll(ctx)
	if err != nil {
		s.logger.Printf("Analysis error: load experiments: %v", err)
		s.metrics.RecordAnalysis("error", time.Since(start).Seconds())
		return
	}

	analyzer := analysis.New(analysis.Options{
		ExperimentStore:  s.stores.experimentStore,
		MeasurementStore: s.stores.measurementStore,
		AggregateStore:   s.stores.aggregateStore,
		ComparisonStore:  s.stores.comparisonStore,
		SequentialConfig: s.sequentialConfig,
	})

	var analyzed, failed int
	for _, experiment := range experiments {
		if experiment.Status != domain.ExperimentStatusRunning {
			continue
		}

		result, err := analyzer.Run(ctx, experiment.ExperimentID)
		if err != nil {
			if errors.Is(err, analysis.ErrNoMeasurements) {
				continue
			}
			s.logger.Printf("Analysis error for %s: %v", idhash.ShortID(experiment.ExperimentID), err)
			failed++
			continue
		}

		analyzed++
		s.metrics.AggregatesComputed.Add(float64(result.AggregatesComputed))
		for _, c := range result.Comparisons {
			s.metrics.RecordComparison(c.Method)
		}
	}

	outcome := "success"
	if failed > 0 {
		outcome = "partial"
	}
	s.metrics.RecordAnalysis(outcome, time.Since(start).Seconds())
	s.metrics.LastSuccessfulAnalysis.Set(float64(time.Now().Unix()))

	s.logger.Printf("Analysis completed in %v: %d experiments analyzed, %d failed",
		time.Since(start), analyzed, failed)
}

// startHTTPServer starts the HTTP server for health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	LastAnalysisRun time.Time `json:"last_analysis_run,omitempty"`
	AnalysisRuns    int       `json:"analysis_runs"`
	AnalysisRunning bool      `json:"analysis_running"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).String(),
		LastAnalysisRun: s.lastAnalysisRun,
		AnalysisRuns:    s.analysisRuns,
		AnalysisRunning: s.analysisRunning,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
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
