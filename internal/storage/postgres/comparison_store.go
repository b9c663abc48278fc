package postgres

import (
	"context"
	"fmt"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// ComparisonStore implements storage.ComparisonStore using PostgreSQL.
type ComparisonStore struct {
	pool *Pool
}

// NewComparisonStore creates a new ComparisonStore.
func NewComparisonStore(pool *Pool) *ComparisonStore {
	return &ComparisonStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ComparisonStore = (*ComparisonStore)(nil)

const comparisonColumns = `
	comparison_id, experiment_id, baseline_id, candidate_id, method, kind,
	samples_baseline, samples_candidate,
	t_statistic, p_value, is_significant, effect_size, ci_low, ci_high, adjusted_alpha,
	prob_candidate_beats, credible_low, credible_high,
	decision, computed_at
`

// Insert adds a new comparison record. Returns ErrDuplicateKey if
// comparison_id exists.
func (s *ComparisonStore) Insert(ctx context.Context, c *domain.ComparisonRecord) error {
	if c == nil || c.ComparisonID == "" || c.ExperimentID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO comparisons (` + comparisonColumns + `)
		VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8,
			$9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18,
			$19, $20
		)
	`

	_, err := s.pool.Exec(ctx, query,
		c.ComparisonID, c.ExperimentID, c.BaselineID, c.CandidateID, c.Method, c.Kind,
		c.SamplesBaseline, c.SamplesCandidate,
		c.TStatistic, c.PValue, c.IsSignificant, c.EffectSize, c.CILow, c.CIHigh, c.AdjustedAlpha,
		c.ProbCandidateBeats, c.CredibleLow, c.CredibleHigh,
		c.Decision, c.ComputedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert comparison: %w", err)
	}
	return nil
}

// GetByID retrieves a comparison by its ID.
func (s *ComparisonStore) GetByID(ctx context.Context, comparisonID string) (*domain.ComparisonRecord, error) {
	query := `
		SELECT ` + comparisonColumns + `
		FROM comparisons
		WHERE comparison_id = $1
	`

	var c domain.ComparisonRecord
	err := s.pool.QueryRow(ctx, query, comparisonID).Scan(
		&c.ComparisonID, &c.ExperimentID, &c.BaselineID, &c.CandidateID, &c.Method, &c.Kind,
		&c.SamplesBaseline, &c.SamplesCandidate,
		&c.TStatistic, &c.PValue, &c.IsSignificant, &c.EffectSize, &c.CILow, &c.CIHigh, &c.AdjustedAlpha,
		&c.ProbCandidateBeats, &c.CredibleLow, &c.CredibleHigh,
		&c.Decision, &c.ComputedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get comparison: %w", err)
	}
	return &c, nil
}

// GetByExperiment retrieves all comparisons for an experiment ordered by
// computed_at ASC.
func (s *ComparisonStore) GetByExperiment(ctx context.Context, experimentID string) ([]*domain.ComparisonRecord, error) {
	query := `
		SELECT ` + comparisonColumns + `
		FROM comparisons
		WHERE experiment_id = $1
		ORDER BY computed_at ASC, comparison_id ASC
	`

	rows, err := s.pool.Query(ctx, query, experimentID)
	if err != nil {
		return nil, fmt.Errorf("query comparisons: %w", err)
	}
	defer rows.Close()

	var out []*domain.ComparisonRecord
	for rows.Next() {
		var c domain.ComparisonRecord
		if err := rows.Scan(
			&c.ComparisonID, &c.ExperimentID, &c.BaselineID, &c.CandidateID, &c.Method, &c.Kind,
			&c.SamplesBaseline, &c.SamplesCandidate,
			&c.TStatistic, &c.PValue, &c.IsSignificant, &c.EffectSize, &c.CILow, &c.CIHigh, &c.AdjustedAlpha,
			&c.ProbCandidateBeats, &c.CredibleLow, &c.CredibleHigh,
			&c.Decision, &c.ComputedAt,
		); err != nil {
			return nil, fmt.Errorf("scan comparison: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comparisons: %w", err)
	}
	return out, nil
}
