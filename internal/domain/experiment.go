// Package domain defines the entities shared across the lab: experiments,
// raw measurements, per-variant aggregates, and comparison records.
package domain

// Experiment statuses.
const (
	ExperimentStatusRunning   = "RUNNING"
	ExperimentStatusCompleted = "COMPLETED"
	ExperimentStatusStopped   = "STOPPED"
)

// Variant is one strategy/system configuration under test.
type Variant struct {
	ID         string // stable label, e.g. "baseline", "batched-writes"
	Name       string // human-readable description
	IsBaseline bool   // exactly one variant per experiment is the baseline
}

// Experiment groups a set of variants measured against each other.
type Experiment struct {
	ExperimentID string // deterministic hash, see idhash
	Name         string
	Description  string
	Variants     []Variant
	Status       string
	CreatedAt    int64 // ms since epoch
}

// Baseline returns the baseline variant, or the first variant if none is
// marked. Returns nil for an experiment without variants.
func (e *Experiment) Baseline() *Variant {
	for i := range e.Variants {
		if e.Variants[i].IsBaseline {
			return &e.Variants[i]
		}
	}
	if len(e.Variants) > 0 {
		return &e.Variants[0]
	}
	return nil
}

// VariantByID returns the variant with the given id, or nil.
func (e *Experiment) VariantByID(id string) *Variant {
	for i := range e.Variants {
		if e.Variants[i].ID == id {
			return &e.Variants[i]
		}
	}
	return nil
}
