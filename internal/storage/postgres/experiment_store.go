package postgres

import (
	"context"
	"fmt"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// ExperimentStore implements storage.ExperimentStore using PostgreSQL.
// Variants live in a child table keyed by (experiment_id, position) so
// that registration order survives round trips.
type ExperimentStore struct {
	pool *Pool
}

// NewExperimentStore creates a new ExperimentStore.
func NewExperimentStore(pool *Pool) *ExperimentStore {
	return &ExperimentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ExperimentStore = (*ExperimentStore)(nil)

// Insert adds a new experiment and its variants in one transaction.
// Returns ErrDuplicateKey if experiment_id exists.
func (s *ExperimentStore) Insert(ctx context.Context, e *domain.Experiment) error {
	if e == nil || e.ExperimentID == "" || len(e.Variants) == 0 {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert experiment: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO experiments (experiment_id, name, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ExperimentID, e.Name, e.Description, e.Status, e.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert experiment: %w", err)
	}

	for i, v := range e.Variants {
		_, err = tx.Exec(ctx, `
			INSERT INTO experiment_variants (experiment_id, position, variant_id, name, is_baseline)
			VALUES ($1, $2, $3, $4, $5)
		`, e.ExperimentID, i, v.ID, v.Name, v.IsBaseline)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert experiment variant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert experiment: %w", err)
	}
	return nil
}

// GetByID retrieves an experiment with its variants.
// Returns ErrNotFound if not exists.
func (s *ExperimentStore) GetByID(ctx context.Context, experimentID string) (*domain.Experiment, error) {
	var e domain.Experiment
	err := s.pool.QueryRow(ctx, `
		SELECT experiment_id, name, description, status, created_at
		FROM experiments
		WHERE experiment_id = $1
	`, experimentID).Scan(&e.ExperimentID, &e.Name, &e.Description, &e.Status, &e.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get experiment: %w", err)
	}

	variants, err := s.variantsFor(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	e.Variants = variants
	return &e, nil
}

// GetAll retrieves all experiments ordered by created_at ASC.
func (s *ExperimentStore) GetAll(ctx context.Context) ([]*domain.Experiment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT experiment_id, name, description, status, created_at
		FROM experiments
		ORDER BY created_at ASC, experiment_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query experiments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Experiment
	for rows.Next() {
		var e domain.Experiment
		if err := rows.Scan(&e.ExperimentID, &e.Name, &e.Description, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate experiments: %w", err)
	}

	for _, e := range out {
		variants, err := s.variantsFor(ctx, e.ExperimentID)
		if err != nil {
			return nil, err
		}
		e.Variants = variants
	}
	return out, nil
}

// UpdateStatus transitions an experiment's status.
func (s *ExperimentStore) UpdateStatus(ctx context.Context, experimentID, status string) error {
	if status == "" {
		return storage.ErrInvalidInput
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE experiments SET status = $2 WHERE experiment_id = $1
	`, experimentID, status)
	if err != nil {
		return fmt.Errorf("update experiment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// variantsFor loads the variants of one experiment in registration order.
func (s *ExperimentStore) variantsFor(ctx context.Context, experimentID string) ([]domain.Variant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT variant_id, name, is_baseline
		FROM experiment_variants
		WHERE experiment_id = $1
		ORDER BY position ASC
	`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("query experiment variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.Name, &v.IsBaseline); err != nil {
			return nil, fmt.Errorf("scan experiment variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate experiment variants: %w", err)
	}
	return variants, nil
}
