package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

// VariantAggregateStore is an in-memory implementation of
// storage.VariantAggregateStore.
type VariantAggregateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.VariantAggregate // keyed by composite key
}

// NewVariantAggregateStore creates a new in-memory variant aggregate store.
func NewVariantAggregateStore() *VariantAggregateStore {
	return &VariantAggregateStore{
		data: make(map[string]*domain.VariantAggregate),
	}
}

var _ storage.VariantAggregateStore = (*VariantAggregateStore)(nil)

// aggregateKey generates a unique key for an aggregate.
func aggregateKey(experimentID, variantID, kind string) string {
	return fmt.Sprintf("%s|%s|%s", experimentID, variantID, kind)
}

// Insert adds a new aggregate. Returns ErrDuplicateKey if key exists.
func (s *VariantAggregateStore) Insert(_ context.Context, a *domain.VariantAggregate) error {
	if a == nil || a.ExperimentID == "" || a.VariantID == "" || a.Kind == "" {
		return storage.ErrInvalidInput
	}

	key := aggregateKey(a.ExperimentID, a.VariantID, a.Kind)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	aCopy := *a
	s.data[key] = &aCopy
	return nil
}

// GetByKey retrieves an aggregate by its composite key.
func (s *VariantAggregateStore) GetByKey(_ context.Context, experimentID, variantID, kind string) (*domain.VariantAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[aggregateKey(experimentID, variantID, kind)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	aCopy := *a
	return &aCopy, nil
}

// GetByExperiment retrieves all aggregates for an experiment, ordered by
// (variant_id, kind) for deterministic output.
func (s *VariantAggregateStore) GetByExperiment(_ context.Context, experimentID string) ([]*domain.VariantAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.VariantAggregate
	for _, a := range s.data {
		if a.ExperimentID != experimentID {
			continue
		}
		aCopy := *a
		out = append(out, &aCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VariantID != out[j].VariantID {
			return out[i].VariantID < out[j].VariantID
		}
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}
