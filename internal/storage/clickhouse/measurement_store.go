package clickhouse

import (
	"context"
	"fmt"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// MeasurementStore implements storage.MeasurementStore using ClickHouse.
// MergeTree does not enforce uniqueness; measurements are raw append-only
// samples, so exact duplicates are harmless.
type MeasurementStore struct {
	conn *Conn
}

// NewMeasurementStore creates a new MeasurementStore.
func NewMeasurementStore(conn *Conn) *MeasurementStore {
	return &MeasurementStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MeasurementStore = (*MeasurementStore)(nil)

// InsertBulk adds a batch of measurements using a native batch insert.
func (s *MeasurementStore) InsertBulk(ctx context.Context, measurements []*domain.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}

	for _, m := range measurements {
		if m == nil || m.ExperimentID == "" || m.VariantID == "" || m.Kind == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO measurements (experiment_id, variant_id, kind, value, recorded_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare measurement batch: %w", err)
	}

	for _, m := range measurements {
		if err := batch.Append(m.ExperimentID, m.VariantID, m.Kind, m.Value, m.RecordedAt); err != nil {
			return fmt.Errorf("append measurement to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send measurement batch: %w", err)
	}
	return nil
}

// GetByVariant retrieves all measurements for a series, ordered by recorded_at ASC.
func (s *MeasurementStore) GetByVariant(ctx context.Context, experimentID, variantID, kind string) ([]*domain.Measurement, error) {
	query := `
		SELECT experiment_id, variant_id, kind, value, recorded_at
		FROM measurements
		WHERE experiment_id = ? AND variant_id = ? AND kind = ?
		ORDER BY recorded_at ASC
	`
	return s.queryMeasurements(ctx, query, experimentID, variantID, kind)
}

// GetByTimeRange retrieves measurements within [start, end] inclusive.
func (s *MeasurementStore) GetByTimeRange(ctx context.Context, experimentID, variantID, kind string, start, end int64) ([]*domain.Measurement, error) {
	query := `
		SELECT experiment_id, variant_id, kind, value, recorded_at
		FROM measurements
		WHERE experiment_id = ? AND variant_id = ? AND kind = ?
		  AND recorded_at >= ? AND recorded_at <= ?
		ORDER BY recorded_at ASC
	`
	return s.queryMeasurements(ctx, query, experimentID, variantID, kind, start, end)
}

// queryMeasurements runs a SELECT returning measurement rows.
func (s *MeasurementStore) queryMeasurements(ctx context.Context, query string, args ...any) ([]*domain.Measurement, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	var out []*domain.Measurement
	for rows.Next() {
		var m domain.Measurement
		if err := rows.Scan(&m.ExperimentID, &m.VariantID, &m.Kind, &m.Value, &m.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate measurements: %w", err)
	}
	return out, nil
}
