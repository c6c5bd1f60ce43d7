package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quentinrf/plant-monitor/services/grow-light/internal/domain"
)

func TestReadingRepository(t *testing.T) {
	repo := NewReadingRepository()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.GetLatestReading(ctx)
	assert.ErrorIs(t, err, domain.ErrReadingNotFound)

	save := func(lux float64, at time.Time) *domain.LightReading {
		r, err := domain.NewLightReading(lux, at)
		require.NoError(t, err)
		require.NoError(t, repo.SaveReading(ctx, r))
		return r
	}

	old := save(100, now.Add(-48*time.Hour))
	atStart := save(200, now.Add(-time.Hour))
	latest := save(300, now)
	assert.NotZero(t, old.ID)
	assert.NotEqual(t, old.ID, latest.ID)

	got, err := repo.GetLatestReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300.0, got.Lux)

	// Mutating a returned reading must not change the stored one.
	got.Lux = 0
	again, err := repo.GetReading(ctx, latest.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, again.Lux)

	inRange, err := repo.GetReadingsInRange(ctx, atStart.Timestamp, now)
	require.NoError(t, err)
	require.Len(t, inRange, 1, "start is inclusive, end exclusive")
	assert.Equal(t, atStart.ID, inRange[0].ID)

	require.NoError(t, repo.DeleteOldReadings(ctx, now.Add(-24*time.Hour)))
	_, err = repo.GetReading(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrReadingNotFound)
	_, err = repo.GetReading(ctx, atStart.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, repo.Len())
}

func TestReadingRepository_OutOfOrderSaves(t *testing.T) {
	repo := NewReadingRepository()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)

	for _, m := range []int{5, 1, 3, 0, 4, 2} {
		require.NoError(t, repo.SaveReading(ctx, &domain.LightReading{
			Lux:       float64(m),
			Timestamp: base.Add(time.Duration(m) * time.Minute),
		}))
	}

	all, err := repo.GetReadingsInRange(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, all, 6)
	for i, r := range all {
		assert.Equal(t, float64(i), r.Lux, "readings come back oldest first")
	}

	latest, err := repo.GetLatestReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, latest.Lux)

	mid, err := repo.GetReadingsInRange(ctx, base.Add(2*time.Minute), base.Add(4*time.Minute))
	require.NoError(t, err)
	require.Len(t, mid, 2)
	assert.Equal(t, 2.0, mid[0].Lux)
	assert.Equal(t, 3.0, mid[1].Lux)

	empty, err := repo.GetReadingsInRange(ctx, base.Add(time.Hour), base)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReadingRepository_SameTimestampOrderedByID(t *testing.T) {
	repo := NewReadingRepository()
	ctx := context.Background()
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	first := &domain.LightReading{Lux: 1, Timestamp: at}
	second := &domain.LightReading{Lux: 2, Timestamp: at}
	require.NoError(t, repo.SaveReading(ctx, first))
	require.NoError(t, repo.SaveReading(ctx, second))

	latest, err := repo.GetLatestReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	// Re-saving replaces rather than duplicates.
	first.Lux = 10
	require.NoError(t, repo.SaveReading(ctx, first))
	assert.Equal(t, 2, repo.Len())
	got, err := repo.GetReading(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Lux)
}
