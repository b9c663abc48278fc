package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-perf-lab/internal/domain"
	"strategy-perf-lab/internal/storage"
)

func testExperiment(id string, createdAt int64) *domain.Experiment {
	return &domain.Experiment{
		ExperimentID: id,
		Name:         "exp " + id,
		Status:       domain.ExperimentStatusRunning,
		CreatedAt:    createdAt,
		Variants: []domain.Variant{
			{ID: "baseline", IsBaseline: true},
			{ID: "candidate"},
		},
	}
}

func TestExperimentStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewExperimentStore()

	exp := testExperiment("e1", 100)
	require.NoError(t, s.Insert(ctx, exp))

	got, err := s.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, exp.Name, got.Name)
	assert.Len(t, got.Variants, 2)

	// Stored copy is isolated from caller mutation.
	exp.Variants[0].ID = "mutated"
	got, err = s.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "baseline", got.Variants[0].ID)
}

func TestExperimentStore_DuplicateAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewExperimentStore()

	require.NoError(t, s.Insert(ctx, testExperiment("e1", 100)))
	require.ErrorIs(t, s.Insert(ctx, testExperiment("e1", 200)), storage.ErrDuplicateKey)

	_, err := s.GetByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExperimentStore_GetAllOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewExperimentStore()

	require.NoError(t, s.Insert(ctx, testExperiment("later", 300)))
	require.NoError(t, s.Insert(ctx, testExperiment("earlier", 100)))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "earlier", all[0].ExperimentID)
	assert.Equal(t, "later", all[1].ExperimentID)
}

func TestExperimentStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := NewExperimentStore()

	require.NoError(t, s.Insert(ctx, testExperiment("e1", 100)))
	require.NoError(t, s.UpdateStatus(ctx, "e1", domain.ExperimentStatusCompleted))

	got, err := s.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, domain.ExperimentStatusCompleted, got.Status)

	require.ErrorIs(t, s.UpdateStatus(ctx, "missing", "X"), storage.ErrNotFound)
}

func TestMeasurementStore_InsertAndGetOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewMeasurementStore()

	batch := []*domain.Measurement{
		{ExperimentID: "e1", VariantID: "a", Kind: domain.MeasurementLatencyMs, Value: 12, RecordedAt: 300},
		{ExperimentID: "e1", VariantID: "a", Kind: domain.MeasurementLatencyMs, Value: 10, RecordedAt: 100},
		{ExperimentID: "e1", VariantID: "a", Kind: domain.MeasurementLatencyMs, Value: 11, RecordedAt: 200},
		{ExperimentID: "e1", VariantID: "b", Kind: domain.MeasurementLatencyMs, Value: 99, RecordedAt: 100},
	}
	require.NoError(t, s.InsertBulk(ctx, batch))

	got, err := s.GetByVariant(ctx, "e1", "a", domain.MeasurementLatencyMs)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []float64{10, 11, 12}, []float64{got[0].Value, got[1].Value, got[2].Value})
}

func TestMeasurementStore_GetByTimeRange(t *testing.T) {
	ctx := context.Background()
	s := NewMeasurementStore()

	var batch []*domain.Measurement
	for i := int64(1); i <= 5; i++ {
		batch = append(batch, &domain.Measurement{
			ExperimentID: "e1", VariantID: "a", Kind: domain.MeasurementLatencyMs,
			Value: float64(i), RecordedAt: i * 100,
		})
	}
	require.NoError(t, s.InsertBulk(ctx, batch))

	got, err := s.GetByTimeRange(ctx, "e1", "a", domain.MeasurementLatencyMs, 200, 400)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(200), got[0].RecordedAt)
	assert.Equal(t, int64(400), got[2].RecordedAt)
}

func TestMeasurementStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	s := NewMeasurementStore()

	err := s.InsertBulk(ctx, []*domain.Measurement{{ExperimentID: "", VariantID: "a", Kind: "k"}})
	require.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestVariantAggregateStore_InsertGetDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewVariantAggregateStore()

	agg := &domain.VariantAggregate{
		ExperimentID: "e1", VariantID: "a", Kind: domain.MeasurementLatencyMs,
		SampleCount: 100, Mean: 12.5,
	}
	require.NoError(t, s.Insert(ctx, agg))
	require.ErrorIs(t, s.Insert(ctx, agg), storage.ErrDuplicateKey)

	got, err := s.GetByKey(ctx, "e1", "a", domain.MeasurementLatencyMs)
	require.NoError(t, err)
	assert.Equal(t, 12.5, got.Mean)

	_, err = s.GetByKey(ctx, "e1", "b", domain.MeasurementLatencyMs)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestVariantAggregateStore_GetByExperiment(t *testing.T) {
	ctx := context.Background()
	s := NewVariantAggregateStore()

	for _, v := range []string{"b", "a"} {
		require.NoError(t, s.Insert(ctx, &domain.VariantAggregate{
			ExperimentID: "e1", VariantID: v, Kind: domain.MeasurementLatencyMs,
		}))
	}
	require.NoError(t, s.Insert(ctx, &domain.VariantAggregate{
		ExperimentID: "other", VariantID: "x", Kind: domain.MeasurementLatencyMs,
	}))

	got, err := s.GetByExperiment(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].VariantID)
	assert.Equal(t, "b", got[1].VariantID)
}

func TestComparisonStore_InsertGetByExperiment(t *testing.T) {
	ctx := context.Background()
	s := NewComparisonStore()

	recs := []*domain.ComparisonRecord{
		{ComparisonID: "c2", ExperimentID: "e1", Method: domain.MethodBayesian, ComputedAt: 200},
		{ComparisonID: "c1", ExperimentID: "e1", Method: domain.MethodWelchTTest, ComputedAt: 100},
	}
	for _, r := range recs {
		require.NoError(t, s.Insert(ctx, r))
	}
	require.ErrorIs(t, s.Insert(ctx, recs[0]), storage.ErrDuplicateKey)

	got, err := s.GetByExperiment(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ComparisonID)

	one, err := s.GetByID(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, domain.MethodBayesian, one.Method)

	_, err = s.GetByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
