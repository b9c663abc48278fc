package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// MeasurementStore is an in-memory implementation of storage.MeasurementStore.
type MeasurementStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.Measurement // keyed by (experiment|variant|kind)
}

// NewMeasurementStore creates a new in-memory measurement store.
func NewMeasurementStore() *MeasurementStore {
	return &MeasurementStore{
		data: make(map[string][]*domain.Measurement),
	}
}

var _ storage.MeasurementStore = (*MeasurementStore)(nil)

// measurementKey generates a unique series key.
func measurementKey(experimentID, variantID, kind string) string {
	return fmt.Sprintf("%s|%s|%s", experimentID, variantID, kind)
}

// InsertBulk adds a batch of measurements.
func (s *MeasurementStore) InsertBulk(_ context.Context, measurements []*domain.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}

	for _, m := range measurements {
		if m == nil || m.ExperimentID == "" || m.VariantID == "" || m.Kind == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range measurements {
		key := measurementKey(m.ExperimentID, m.VariantID, m.Kind)
		mCopy := *m
		s.data[key] = append(s.data[key], &mCopy)
	}
	return nil
}

// GetByVariant retrieves all measurements for a series, ordered by recorded_at ASC.
func (s *MeasurementStore) GetByVariant(_ context.Context, experimentID, variantID, kind string) ([]*domain.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedCopy(measurementKey(experimentID, variantID, kind), nil), nil
}

// GetByTimeRange retrieves measurements within [start, end] inclusive.
func (s *MeasurementStore) GetByTimeRange(_ context.Context, experimentID, variantID, kind string, start, end int64) ([]*domain.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inRange := func(m *domain.Measurement) bool {
		return m.RecordedAt >= start && m.RecordedAt <= end
	}
	return s.sortedCopy(measurementKey(experimentID, variantID, kind), inRange), nil
}

// sortedCopy returns copies of the series entries matching filter (nil
// filter matches all), sorted by recorded_at ASC. Callers must hold s.mu.
func (s *MeasurementStore) sortedCopy(key string, filter func(*domain.Measurement) bool) []*domain.Measurement {
	series := s.data[key]

	out := make([]*domain.Measurement, 0, len(series))
	for _, m := range series {
		if filter != nil && !filter(m) {
			continue
		}
		mCopy := *m
		out = append(out, &mCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedAt < out[j].RecordedAt
	})
	return out
}
