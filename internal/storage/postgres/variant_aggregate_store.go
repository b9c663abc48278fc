package postgres

import (
	"context"
	"fmt"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// VariantAggregateStore implements storage.VariantAggregateStore using PostgreSQL.
type VariantAggregateStore struct {
	pool *Pool
}

// NewVariantAggregateStore creates a new VariantAggregateStore.
func NewVariantAggregateStore(pool *Pool) *VariantAggregateStore {
	return &VariantAggregateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VariantAggregateStore = (*VariantAggregateStore)(nil)

const aggregateColumns = `
	experiment_id, variant_id, kind,
	sample_count, mean, median, stddev, min, max,
	p50, p95, p99, p999, computed_at
`

// Insert adds a new aggregate. Returns ErrDuplicateKey if the
// (experiment_id, variant_id, kind) key exists.
func (s *VariantAggregateStore) Insert(ctx context.Context, a *domain.VariantAggregate) error {
	if a == nil || a.ExperimentID == "" || a.VariantID == "" || a.Kind == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO variant_aggregates (` + aggregateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.pool.Exec(ctx, query,
		a.ExperimentID, a.VariantID, a.Kind,
		a.SampleCount, a.Mean, a.Median, a.StdDev, a.Min, a.Max,
		a.P50, a.P95, a.P99, a.P999, a.ComputedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert variant aggregate: %w", err)
	}
	return nil
}

// GetByKey retrieves an aggregate by its composite key.
func (s *VariantAggregateStore) GetByKey(ctx context.Context, experimentID, variantID, kind string) (*domain.VariantAggregate, error) {
	query := `
		SELECT ` + aggregateColumns + `
		FROM variant_aggregates
		WHERE experiment_id = $1 AND variant_id = $2 AND kind = $3
	`

	var a domain.VariantAggregate
	err := s.pool.QueryRow(ctx, query, experimentID, variantID, kind).Scan(
		&a.ExperimentID, &a.VariantID, &a.Kind,
		&a.SampleCount, &a.Mean, &a.Median, &a.StdDev, &a.Min, &a.Max,
		&a.P50, &a.P95, &a.P99, &a.P999, &a.ComputedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get variant aggregate: %w", err)
	}
	return &a, nil
}

// GetByExperiment retrieves all aggregates for an experiment.
func (s *VariantAggregateStore) GetByExperiment(ctx context.Context, experimentID string) ([]*domain.VariantAggregate, error) {
	query := `
		SELECT ` + aggregateColumns + `
		FROM variant_aggregates
		WHERE experiment_id = $1
		ORDER BY variant_id ASC, kind ASC
	`

	rows, err := s.pool.Query(ctx, query, experimentID)
	if err != nil {
		return nil, fmt.Errorf("query variant aggregates: %w", err)
	}
	defer rows.Close()

	var out []*domain.VariantAggregate
	for rows.Next() {
		var a domain.VariantAggregate
		if err := rows.Scan(
			&a.ExperimentID, &a.VariantID, &a.Kind,
			&a.SampleCount, &a.Mean, &a.Median, &a.StdDev, &a.Min, &a.Max,
			&a.P50, &a.P95, &a.P99, &a.P999, &a.ComputedAt,
		); err != nil {
			return nil, fmt.Errorf("scan variant aggregate: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variant aggregates: %w", err)
	}
	return out, nil
}
