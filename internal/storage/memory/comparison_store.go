package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// ComparisonStore is an in-memory implementation of storage.ComparisonStore.
type ComparisonStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ComparisonRecord
}

// NewComparisonStore creates a new in-memory comparison store.
func NewComparisonStore() *ComparisonStore {
	return &ComparisonStore{
		data: make(map[string]*domain.ComparisonRecord),
	}
}

var _ storage.ComparisonStore = (*ComparisonStore)(nil)

// Insert adds a new comparison record. Returns ErrDuplicateKey if
// comparison_id exists.
func (s *ComparisonStore) Insert(_ context.Context, c *domain.ComparisonRecord) error {
	if c == nil || c.ComparisonID == "" || c.ExperimentID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.ComparisonID]; exists {
		return storage.ErrDuplicateKey
	}

	cCopy := *c
	s.data[c.ComparisonID] = &cCopy
	return nil
}

// GetByID retrieves a comparison by its ID.
func (s *ComparisonStore) GetByID(_ context.Context, comparisonID string) (*domain.ComparisonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[comparisonID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cCopy := *c
	return &cCopy, nil
}

// GetByExperiment retrieves all comparisons for an experiment ordered by
// computed_at ASC.
func (s *ComparisonStore) GetByExperiment(_ context.Context, experimentID string) ([]*domain.ComparisonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ComparisonRecord
	for _, c := range s.data {
		if c.ExperimentID != experimentID {
			continue
		}
		cCopy := *c
		out = append(out, &cCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ComputedAt != out[j].ComputedAt {
			return out[i].ComputedAt < out[j].ComputedAt
		}
		return out[i].ComparisonID < out[j].ComparisonID
	})
	return out, nil
}
