package bandit

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectArm_NoArmsRegistered(t *testing.T) {
	s := NewSelectorWithSeed(0.1, 1)
	_, err := s.SelectArm()
	require.ErrorIs(t, err, ErrNoArmsRegistered)
}

func TestUpdate_UnknownArm(t *testing.T) {
	s := NewSelectorWithSeed(0.1, 1)
	s.RegisterArm("a")
	err := s.Update("nope", 1.0)
	require.ErrorIs(t, err, ErrUnknownArm)
}

func TestSelectArm_FirstExploitIsRegistrationOrder(t *testing.T) {
	// Epsilon 1e-9 makes exploration effectively impossible; with no
	// observations all averages are 0 and the tie-break picks the
	// first-registered arm.
	s := NewSelectorWithSeed(1e-9, 42)
	s.RegisterArm("first")
	s.RegisterArm("second")
	s.RegisterArm("third")

	for i := 0; i < 20; i++ {
		id, err := s.SelectArm()
		require.NoError(t, err)
		assert.Equal(t, "first", id)
	}
}

func TestSelectArm_ExploitsHighestAverage(t *testing.T) {
	s := NewSelectorWithSeed(1e-9, 42)
	s.RegisterArm("a")
	s.RegisterArm("b")

	require.NoError(t, s.Update("a", 0.1))
	require.NoError(t, s.Update("b", 0.3))

	id, err := s.SelectArm()
	require.NoError(t, err)
	assert.Equal(t, "b", id)
}

func TestUpdate_AverageReward(t *testing.T) {
	s := NewSelectorWithSeed(0.1, 1)
	s.RegisterArm("a")

	require.NoError(t, s.Update("a", 1.0))
	require.NoError(t, s.Update("a", 3.0))

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 2, snap[0].Selections)
	assert.Equal(t, 4.0, snap[0].CumulativeReward)
	assert.Equal(t, 2.0, snap[0].AverageReward)
}

func TestRegisterArm_DuplicateKeepsCounters(t *testing.T) {
	s := NewSelectorWithSeed(0.1, 1)
	s.RegisterArm("a")
	require.NoError(t, s.Update("a", 5.0))

	s.RegisterArm("a")

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].Selections)
}

func TestSelector_ConvergesToBetterArm(t *testing.T) {
	// Arm B pays roughly double. After 1000 trials with epsilon=0.1 the
	// final 100 selections must be >80% arm B.
	s := NewSelectorWithSeed(0.1, 7)
	s.RegisterArm("A")
	s.RegisterArm("B")

	rewards := map[string]float64{"A": 0.01, "B": 0.02}
	rng := rand.New(rand.NewSource(99))

	countB := 0
	for trial := 0; trial < 1000; trial++ {
		id, err := s.SelectArm()
		require.NoError(t, err)

		// Small deterministic jitter keeps the averages realistic.
		reward := rewards[id] * (0.9 + 0.2*rng.Float64())
		require.NoError(t, s.Update(id, reward))

		if trial >= 900 && id == "B" {
			countB++
		}
	}

	assert.Greater(t, countB, 80, "arm B should dominate the final 100 trials")
}

func TestSelector_ConcurrentUpdatesNotLost(t *testing.T) {
	s := NewSelectorWithSeed(0.1, 1)
	s.RegisterArm("a")
	s.RegisterArm("b")

	const workers = 8
	const perWorker = 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := s.SelectArm()
				if err != nil {
					t.Error(err)
					return
				}
				if err := s.Update(id, 1.0); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, a := range s.Snapshot() {
		total += a.Selections
		assert.Equal(t, float64(a.Selections), a.CumulativeReward)
	}
	assert.Equal(t, workers*perWorker, total, "no update may be lost")
}
