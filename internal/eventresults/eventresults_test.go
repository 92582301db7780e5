package eventresults

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeradar/ridgeradar/internal/domain"
	"github.com/ridgeradar/ridgeradar/internal/storage"
)

func TestBackfiller_Run_DerivesResultForSettledMatchOdds(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Now().UTC()
	require.NoError(t, store.UpsertSport(ctx, domain.Sport{ExternalID: "1", Name: "Soccer"}))
	require.NoError(t, store.UpsertCompetition(ctx, domain.Competition{ExternalID: "comp-1", SportID: "1", Name: "EPL", Enabled: true}))
	require.NoError(t, store.UpsertEvent(ctx, domain.Event{ExternalID: "evt-1", CompetitionID: "comp-1", ScheduledStart: now.Add(-3 * time.Hour), Status: domain.EventClosed}))
	require.NoError(t, store.UpsertMarket(ctx, domain.Market{ExternalID: "mkt-1", EventID: "evt-1", Name: "Match Odds", MarketType: "MATCH_ODDS", Status: domain.MarketClosed}))
	require.NoError(t, store.UpsertRunner(ctx, domain.Runner{MarketID: "mkt-1", ExternalID: "r1", Name: "Home", Status: domain.RunnerWinner}))
	require.NoError(t, store.UpsertRunner(ctx, domain.Runner{MarketID: "mkt-1", ExternalID: "r2", Name: "Away", Status: domain.RunnerLoser}))

	require.NoError(t, store.UpsertClosingData(ctx, domain.MarketClosingData{
		MarketID: "mkt-1",
		Odds:     domain.ClosingOdds{SnapshotCapturedAt: now.Add(-3*time.Hour - 10*time.Minute), MinutesToStart: 10},
	}))
	require.NoError(t, store.MarkSettled(ctx, "mkt-1", domain.SettlementOutcome{WinnerRunnerID: "r1", SettledAt: now}))

	b := New(store)
	n, err := b.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	result, ok, err := store.GetEventResult(ctx, "evt-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, result.HomeScore)
	require.NotNil(t, result.AwayScore)
	assert.Equal(t, 2, *result.HomeScore) // r1 ("Home") won
	assert.Equal(t, 1, *result.AwayScore)

	// A second pass is a no-op: the event now has a result row.
	n, err = b.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBackfiller_Run_SkipsVoidAndMissingWinner(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Now().UTC()
	require.NoError(t, store.UpsertSport(ctx, domain.Sport{ExternalID: "1", Name: "Soccer"}))
	require.NoError(t, store.UpsertCompetition(ctx, domain.Competition{ExternalID: "comp-1", SportID: "1", Name: "EPL", Enabled: true}))
	require.NoError(t, store.UpsertEvent(ctx, domain.Event{ExternalID: "evt-1", CompetitionID: "comp-1", ScheduledStart: now.Add(-3 * time.Hour), Status: domain.EventClosed}))
	require.NoError(t, store.UpsertMarket(ctx, domain.Market{ExternalID: "mkt-1", EventID: "evt-1", Name: "Match Odds", MarketType: "MATCH_ODDS", Status: domain.MarketClosed}))

	require.NoError(t, store.UpsertClosingData(ctx, domain.MarketClosingData{
		MarketID: "mkt-1",
		Odds:     domain.ClosingOdds{SnapshotCapturedAt: now.Add(-3 * time.Hour), MinutesToStart: 10},
	}))
	require.NoError(t, store.MarkSettled(ctx, "mkt-1", domain.SettlementOutcome{Void: true, SettledAt: now}))

	b := New(store)
	n, err := b.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
