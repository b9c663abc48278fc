// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	MeasurementsIngested *prometheus.CounterVec
	IngestErrors         *prometheus.CounterVec
	FeedReconnects       prometheus.Counter
	FeedMessageLatency   prometheus.Histogram

	// Analysis metrics
	AnalysesRun         *prometheus.CounterVec
	AnalysisDuration    prometheus.Histogram
	AggregatesComputed  prometheus.Counter
	ComparisonsComputed *prometheus.CounterVec
	EarlyStops          prometheus.Counter

	// Harness metrics
	TrialsExecuted *prometheus.CounterVec

	// Database metrics
	DBQueryErrors *prometheus.CounterVec

	// Health metrics
	LastSuccessfulAnalysis prometheus.Gauge
	UptimeSeconds          prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "strategy_perf_lab"
	}

	return &Metrics{
		MeasurementsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "measurements_ingested_total",
			Help:      "Total number of measurements ingested",
		}, []string{"kind"}),
		IngestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by type",
		}, []string{"error_type"}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "feed_reconnects_total",
			Help:      "Total number of measurement feed reconnects",
		}),
		FeedMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "feed_message_latency_seconds",
			Help:      "Latency of handling one feed message",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		AnalysesRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by result",
		}, []string{"result"}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Duration of one full analysis run",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		AggregatesComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "aggregates_computed_total",
			Help:      "Total number of variant aggregates computed",
		}),
		ComparisonsComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "comparisons_computed_total",
			Help:      "Total number of comparisons computed by method",
		}, []string{"method"}),
		EarlyStops: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "early_stops_total",
			Help:      "Total number of sequential tests stopped before the sample budget",
		}),
		TrialsExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "harness",
			Name:      "trials_executed_total",
			Help:      "Total number of harness trials executed by variant",
		}, []string{"variant"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"store"}),
		LastSuccessfulAnalysis: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_analysis_timestamp",
			Help:      "Unix timestamp of the last successful analysis run",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// RecordIngested increments the ingested-measurement counter for a kind.
func (m *Metrics) RecordIngested(kind string, n int) {
	m.MeasurementsIngested.WithLabelValues(kind).Add(float64(n))
}

// RecordIngestError increments the ingestion error counter for an error type.
func (m *Metrics) RecordIngestError(errorType string) {
	m.IngestErrors.WithLabelValues(errorType).Inc()
}

// RecordAnalysis records one analysis run with its duration in seconds.
func (m *Metrics) RecordAnalysis(result string, seconds float64) {
	m.AnalysesRun.WithLabelValues(result).Inc()
	m.AnalysisDuration.Observe(seconds)
}

// RecordComparison increments the comparison counter for a method.
func (m *Metrics) RecordComparison(method string) {
	m.ComparisonsComputed.WithLabelValues(method).Inc()
}

// RecordDBError increments the database error counter for a store.
func (m *Metrics) RecordDBError(store string) {
	m.DBQueryErrors.WithLabelValues(store).Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
