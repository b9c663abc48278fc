package domain

// Measurement kinds. The engine treats all kinds as plain float64 samples;
// the kind only controls which comparisons make sense (success samples are
// 0/1 and feed the Bayesian comparator).
const (
	MeasurementLatencyMs   = "LATENCY_MS"
	MeasurementReturnRatio = "RETURN_RATIO"
	MeasurementSuccess     = "SUCCESS"
)

// Measurement is one raw sample produced by a harness or feed.
// Immutable once recorded; the engine never mutates samples.
type Measurement struct {
	ExperimentID string
	VariantID    string
	Kind         string
	Value        float64
	RecordedAt   int64 // ms since epoch
}
