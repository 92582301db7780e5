package closing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeradar/ridgeradar/internal/domain"
	"github.com/ridgeradar/ridgeradar/internal/gateway"
	"github.com/ridgeradar/ridgeradar/internal/storage"
)

type fakeBooks struct {
	results []gateway.BookResult
}

func (f fakeBooks) ListMarketBook(ctx context.Context, marketIDs []string, priceDepth int) ([]gateway.BookResult, error) {
	return f.results, nil
}

func seedMarket(t *testing.T, ctx context.Context, store *storage.Store, marketID, eventID string, start time.Time) {
	t.Helper()
	require.NoError(t, store.UpsertSport(ctx, domain.Sport{ExternalID: "1", Name: "Soccer"}))
	require.NoError(t, store.UpsertCompetition(ctx, domain.Competition{ExternalID: "c1", SportID: "1", Name: "EPL", Enabled: true}))
	require.NoError(t, store.UpsertEvent(ctx, domain.Event{ExternalID: eventID, CompetitionID: "c1", ScheduledStart: start, Status: domain.EventScheduled}))
	require.NoError(t, store.UpsertMarket(ctx, domain.Market{ExternalID: marketID, EventID: eventID, Name: "Match Odds", MarketType: "MATCH_ODDS", Status: domain.MarketOpen}))
	require.NoError(t, store.UpsertRunner(ctx, domain.Runner{ExternalID: "r1", MarketID: marketID, Name: "Home", Status: domain.RunnerActive}))
	require.NoError(t, store.UpsertRunner(ctx, domain.Runner{ExternalID: "r2", MarketID: marketID, Name: "Away", Status: domain.RunnerActive}))
}

func TestCapturer_CapturePreStart_WritesFreshestCapture(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Now().UTC()
	start := now.Add(30 * time.Minute)
	seedMarket(t, ctx, store, "mkt-1", "evt-1", start)

	require.NoError(t, store.InsertSnapshot(ctx, domain.MarketSnapshot{MarketID: "mkt-1", CapturedAt: now}))
	require.NoError(t, store.InsertConfigVersion(ctx, domain.DefaultConfigVersion()))
	require.NoError(t, store.InsertScore(ctx, domain.ExploitabilityScore{
		ID: "sc-1", MarketID: "mkt-1", ScoredAt: now, Bucket: domain.BucketInPlay,
		OddsBand: domain.OddsBandFavourite, ConfigVersion: domain.DefaultConfigVersion().ID,
	}))

	capturer := New(fakeBooks{}, store)
	n, err := capturer.CapturePreStart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, ok, err := store.GetClosingData(ctx, "mkt-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 30.0, data.Odds.MinutesToStart, 0.1)
}

func TestCapturer_CaptureSettlement_MarksWinnerAndDerivesResult(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Now().UTC()
	seedMarket(t, ctx, store, "mkt-1", "evt-1", now.Add(-2*time.Hour))

	require.NoError(t, store.UpsertClosingData(ctx, domain.MarketClosingData{
		MarketID: "mkt-1",
		Odds:     domain.ClosingOdds{SnapshotCapturedAt: now.Add(-3 * time.Hour), ScoreID: "sc-1", MinutesToStart: 10},
	}))

	books := fakeBooks{results: []gateway.BookResult{
		{MarketID: "mkt-1", Status: domain.MarketClosed, RunnerStatuses: map[string]domain.RunnerStatus{
			"r1": domain.RunnerWinner, "r2": domain.RunnerLoser,
		}},
	}}

	capturer := New(books, store)
	n, err := capturer.CaptureSettlement(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, ok, err := store.GetClosingData(ctx, "mkt-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, data.Settlement)
	assert.Equal(t, "r1", data.Settlement.WinnerRunnerID)
	assert.False(t, data.Settlement.Void)

	unsettled, err := store.UnsettledClosingData(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsettled)

	result, ok, err := store.GetEventResult(ctx, "evt-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, result.HomeScore)
	require.NotNil(t, result.AwayScore)
	assert.Equal(t, 2, *result.HomeScore) // r1 ("Home") won
	assert.Equal(t, 1, *result.AwayScore)
	require.NotNil(t, result.TotalGoals)
	assert.Equal(t, 3, *result.TotalGoals)
	require.NotNil(t, result.BTTS)
	assert.True(t, *result.BTTS)
}
