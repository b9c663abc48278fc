// Package bandit provides epsilon-greedy arm selection for online
// experiments: explore a uniformly random arm with probability epsilon,
// otherwise exploit the best-known arm.
package bandit

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// Selection errors.
var (
	// ErrNoArmsRegistered is returned by SelectArm on an empty selector.
	ErrNoArmsRegistered = errors.New("no arms registered")

	// ErrUnknownArm is returned by Update for an unregistered arm id.
	ErrUnknownArm = errors.New("unknown arm")
)

// DefaultEpsilon is the exploration probability when none is configured.
const DefaultEpsilon = 0.1

// ArmSnapshot is a read-only copy of one arm's counters.
type ArmSnapshot struct {
	ID               string
	Selections       int
	CumulativeReward float64
	AverageReward    float64
}

// arm holds mutable per-arm counters. Owned exclusively by one Selector.
type arm struct {
	id               string
	selections       int
	cumulativeReward float64
}

func (a *arm) averageReward() float64 {
	if a.selections == 0 {
		return 0
	}
	return a.cumulativeReward / float64(a.selections)
}

// Selector is an epsilon-greedy multi-armed bandit over named arms.
// Counters live for the selector's lifetime; reset by creating a new one.
// Safe for concurrent SelectArm/Update callers: a single mutex guards the
// registry, so updates are never lost or torn. Reads during selection may
// be momentarily stale relative to in-flight updates, which epsilon-greedy
// tolerates.
type Selector struct {
	mu      sync.Mutex
	epsilon float64
	arms    map[string]*arm
	order   []string // registration order, used for exploit tie-breaks
	rng     *rand.Rand
}

// NewSelector creates a selector with the given exploration probability.
// Epsilon outside (0, 1] falls back to DefaultEpsilon.
func NewSelector(epsilon float64) *Selector {
	return NewSelectorWithSeed(epsilon, rand.Int63())
}

// NewSelectorWithSeed creates a selector with a deterministic random
// source, for reproducible experiments and tests.
func NewSelectorWithSeed(epsilon float64, seed int64) *Selector {
	if epsilon <= 0 || epsilon > 1 {
		epsilon = DefaultEpsilon
	}
	return &Selector{
		epsilon: epsilon,
		arms:    make(map[string]*arm),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// RegisterArm adds a named arm with zeroed counters. Registering an
// existing id is a no-op so that re-registration cannot reset counters.
func (s *Selector) RegisterArm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.arms[id]; exists {
		return
	}
	s.arms[id] = &arm{id: id}
	s.order = append(s.order, id)
}

// SelectArm picks an arm: with probability epsilon a uniformly random arm
// (explore), otherwise the arm with the highest average reward so far
// (exploit), ties broken by registration order. Before any observations
// all averages are 0, so the first exploit pick is the first-registered
// arm. Returns ErrNoArmsRegistered on an empty selector.
func (s *Selector) SelectArm() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return "", ErrNoArmsRegistered
	}

	if s.rng.Float64() < s.epsilon {
		return s.order[s.rng.Intn(len(s.order))], nil
	}

	best := s.arms[s.order[0]]
	bestAvg := best.averageReward()
	for _, id := range s.order[1:] {
		a := s.arms[id]
		if avg := a.averageReward(); avg > bestAvg {
			best = a
			bestAvg = avg
		}
	}
	return best.id, nil
}

// Update records one observed reward for an arm, incrementing its
// selection count and cumulative reward atomically with respect to
// concurrent SelectArm/Update calls. Returns ErrUnknownArm for an
// unregistered id.
func (s *Selector) Update(armID string, reward float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.arms[armID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownArm, armID)
	}
	a.selections++
	a.cumulativeReward += reward
	return nil
}

// Snapshot returns read-only copies of all arms in registration order.
func (s *Selector) Snapshot() []ArmSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ArmSnapshot, 0, len(s.order))
	for _, id := range s.order {
		a := s.arms[id]
		out = append(out, ArmSnapshot{
			ID:               a.id,
			Selections:       a.selections,
			CumulativeReward: a.cumulativeReward,
			AverageReward:    a.averageReward(),
		})
	}
	return out
}
