// Package memory provides in-memory store implementations, used by unit
// tests and by runs that don't need durable results.
package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// ExperimentStore is an in-memory implementation of storage.ExperimentStore.
type ExperimentStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Experiment
}

// NewExperimentStore creates a new in-memory experiment store.
func NewExperimentStore() *ExperimentStore {
	return &ExperimentStore{
		data: make(map[string]*domain.Experiment),
	}
}

var _ storage.ExperimentStore = (*ExperimentStore)(nil)

// Insert adds a new experiment. Returns ErrDuplicateKey if experiment_id exists.
func (s *ExperimentStore) Insert(_ context.Context, e *domain.Experiment) error {
	if e == nil || e.ExperimentID == "" || len(e.Variants) == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.ExperimentID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[e.ExperimentID] = copyExperiment(e)
	return nil
}

// GetByID retrieves an experiment by its ID. Returns ErrNotFound if not exists.
func (s *ExperimentStore) GetByID(_ context.Context, experimentID string) (*domain.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[experimentID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyExperiment(e), nil
}

// GetAll retrieves all experiments ordered by created_at ASC.
func (s *ExperimentStore) GetAll(_ context.Context) ([]*domain.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Experiment, 0, len(s.data))
	for _, e := range s.data {
		out = append(out, copyExperiment(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ExperimentID < out[j].ExperimentID
	})
	return out, nil
}

// UpdateStatus transitions an experiment's status.
func (s *ExperimentStore) UpdateStatus(_ context.Context, experimentID, status string) error {
	if status == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[experimentID]
	if !ok {
		return storage.ErrNotFound
	}
	e.Status = status
	return nil
}

// copyExperiment deep-copies so callers cannot mutate stored state.
func copyExperiment(e *domain.Experiment) *domain.Experiment {
	cp := *e
	cp.Variants = make([]domain.Variant, len(e.Variants))
	copy(cp.Variants, e.Variants)
	return &cp
}
