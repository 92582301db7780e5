package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeradar/ridgeradar/internal/domain"
	"github.com/ridgeradar/ridgeradar/internal/storage"
)

func TestJob_Run_ScoresTodaysProfiles(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Now().UTC()
	require.NoError(t, store.UpsertProfile(ctx, domain.MarketProfileDaily{
		MarketID: "mkt-1", Date: now, Bucket: domain.Bucket6to24h,
		MeanSpreadTicks: 5, MeanDepth5Ticks: 1000, UpdateRatePerMin: 1.0,
		PriceVolatility: 0.04, TotalMatchedVolume: 10000, MeanMidPrice: 4.0,
		SnapshotCount: 10,
	}))

	job, err := NewJob(ctx, domain.DefaultConfigVersion(), store, store)
	require.NoError(t, err)

	written, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	sc, ok, err := store.LatestScore(ctx, "mkt-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Greater(t, sc.Result.TotalScore, 0.0)
	assert.Equal(t, domain.OddsBandUnderdog, sc.OddsBand)
}
