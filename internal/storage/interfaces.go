package storage

import (
	"context"

	"strategy-perf-lab/internal/domain"
)

// ExperimentStore provides access to experiments storage.
type ExperimentStore interface {
	// Insert adds a new experiment. Returns ErrDuplicateKey if experiment_id exists.
	Insert(ctx context.Context, e *domain.Experiment) error

	// GetByID retrieves an experiment by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, experimentID string) (*domain.Experiment, error)

	// GetAll retrieves all experiments ordered by created_at ASC.
	GetAll(ctx context.Context) ([]*domain.Experiment, error)

	// UpdateStatus transitions an experiment's status. The one mutable
	// field in the schema; everything else is append-only.
	// Returns ErrNotFound if the experiment does not exist.
	UpdateStatus(ctx context.Context, experimentID, status string) error
}

// MeasurementStore provides access to raw measurement storage.
// Measurements are high-volume append-only timeseries.
type MeasurementStore interface {
	// InsertBulk adds a batch of measurements.
	InsertBulk(ctx context.Context, measurements []*domain.Measurement) error

	// GetByVariant retrieves all measurements for (experiment, variant, kind),
	// ordered by recorded_at ASC.
	GetByVariant(ctx context.Context, experimentID, variantID, kind string) ([]*domain.Measurement, error)

	// GetByTimeRange retrieves measurements within [start, end] (inclusive, ms),
	// ordered by recorded_at ASC.
	GetByTimeRange(ctx context.Context, experimentID, variantID, kind string, start, end int64) ([]*domain.Measurement, error)
}

// VariantAggregateStore provides access to variant_aggregates storage.
type VariantAggregateStore interface {
	// Insert adds a new aggregate. Returns ErrDuplicateKey if the
	// (experiment_id, variant_id, kind) key exists.
	Insert(ctx context.Context, a *domain.VariantAggregate) error

	// GetByKey retrieves an aggregate by its composite key.
	// Returns ErrNotFound if not exists.
	GetByKey(ctx context.Context, experimentID, variantID, kind string) (*domain.VariantAggregate, error)

	// GetByExperiment retrieves all aggregates for an experiment.
	GetByExperiment(ctx context.Context, experimentID string) ([]*domain.VariantAggregate, error)
}

// ComparisonStore provides access to comparisons storage.
type ComparisonStore interface {
	// Insert adds a new comparison record. Returns ErrDuplicateKey if
	// comparison_id exists.
	Insert(ctx context.Context, c *domain.ComparisonRecord) error

	// GetByID retrieves a comparison by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, comparisonID string) (*domain.ComparisonRecord, error)

	// GetByExperiment retrieves all comparisons for an experiment ordered
	// by computed_at ASC.
	GetByExperiment(ctx context.Context, experimentID string) ([]*domain.ComparisonRecord, error)
}
