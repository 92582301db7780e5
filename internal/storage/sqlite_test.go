package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestDiscovery_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.UpsertSport(ctx, domain.Sport{ExternalID: "1", Name: "Soccer"}))
	require.NoError(t, st.UpsertCompetition(ctx, domain.Competition{
		ExternalID: "comp-1", SportID: "1", Name: "Championship", Country: "GB", Enabled: true,
	}))
	require.NoError(t, st.UpsertCompetition(ctx, domain.Competition{
		ExternalID: "comp-2", SportID: "1", Name: "U21 League", Enabled: false,
	}))

	comps, err := st.ListEnabledCompetitions(ctx)
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, "comp-1", comps[0].ExternalID)

	start := time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)
	require.NoError(t, st.UpsertEvent(ctx, domain.Event{
		ExternalID: "ev-1", CompetitionID: "comp-1", ScheduledStart: start, Status: domain.EventScheduled,
	}))
	events, err := st.ListScheduledEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].ScheduledStart.Equal(start))

	require.NoError(t, st.UpsertMarket(ctx, domain.Market{
		ExternalID: "mkt-1", EventID: "ev-1", Name: "Match Odds", MarketType: "MATCH_ODDS",
		Status: domain.MarketOpen, InPlay: false,
	}))
	active, err := st.ListActiveMarkets(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, st.CloseEvent(ctx, "ev-1"))
	events, err = st.ListScheduledEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSnapshot_InsertAndQuery(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	snap := domain.MarketSnapshot{
		MarketID: "mkt-1", CapturedAt: now, TotalMatched: 1000, TotalAvailable: 500,
		SpreadTicks: 3, BestDepth: 200, Depth5Ticks: 450,
		Ladder: domain.Ladder{Runners: []domain.RunnerLadder{
			{
				RunnerExternalID: "r1",
				Back:             []domain.PriceLevel{{Price: 2.0, Size: 100}},
				Lay:              []domain.PriceLevel{{Price: 2.02, Size: 120}},
			},
		}},
	}
	require.NoError(t, st.InsertSnapshot(ctx, snap))

	latest, ok, err := st.LatestSnapshot(ctx, "mkt-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1000.0, latest.TotalMatched)
	require.Len(t, latest.Ladder.Runners, 1)
	mid, midOK := latest.Ladder.Runners[0].Mid()
	require.True(t, midOK)
	assert.InDelta(t, 2.01, mid, 0.001)

	snaps, err := st.ListSnapshotsForDate(ctx, "mkt-1", now)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	markets, err := st.MarketsWithSnapshotsOnDate(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"mkt-1"}, markets)
}

func TestScore_InsertAndLatest(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	cv := domain.DefaultConfigVersion()
	cv.ID = "cv-1"
	cv.CreatedAt = time.Now().UTC()
	require.NoError(t, st.InsertConfigVersion(ctx, cv))
	require.NoError(t, st.InsertConfigVersion(ctx, cv)) // idempotent on conflict

	sc := domain.ExploitabilityScore{
		ID: "score-1", MarketID: "mkt-1", ScoredAt: time.Now().UTC(),
		Bucket: domain.Bucket6to24h, OddsBand: domain.OddsBandEven,
		Result:        domain.ScoreResult{TotalScore: 72.5, SpreadScore: 20, GuardsFailed: nil},
		ConfigVersion: "cv-1",
	}
	require.NoError(t, st.InsertScore(ctx, sc))

	got, ok, err := st.LatestScore(ctx, "mkt-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 72.5, got.Result.TotalScore)
	assert.Equal(t, "cv-1", got.ConfigVersion)
}

func TestShadowDecision_LifecycleRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.UpsertEvent(ctx, domain.Event{
		ExternalID: "ev-1", CompetitionID: "comp-1",
		ScheduledStart: time.Now().UTC().Add(-1 * time.Hour), Status: domain.EventScheduled,
	}))
	require.NoError(t, st.UpsertMarket(ctx, domain.Market{
		ExternalID: "mkt-1", EventID: "ev-1", Name: "Match Odds", MarketType: "MATCH_ODDS",
		Status: domain.MarketOpen,
	}))

	has, err := st.HasDecision(ctx, "mkt-1", "momentum-steamers")
	require.NoError(t, err)
	assert.False(t, has)

	d := domain.ShadowDecision{
		ID: "sd-1", MarketID: "mkt-1", RunnerID: "r1", Side: domain.SideBack,
		ScoreID: "score-1", HypothesisName: "momentum-steamers", DecidedAt: time.Now().UTC(),
		EntryBack: 3.0, EntryLay: 3.05, Stake: 10, Niche: "comp-1|MATCH_ODDS", CompetitionID: "comp-1",
	}
	require.NoError(t, st.InsertShadowDecision(ctx, d))

	has, err = st.HasDecision(ctx, "mkt-1", "momentum-steamers")
	require.NoError(t, err)
	assert.True(t, has)

	pending, err := st.PendingDecisionsNearKickoffUnclosed(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	fetched := pending[0]
	fetched.CaptureClosingMid(2.8, 2.9)
	require.NoError(t, st.UpdateDecision(ctx, fetched))

	fetched.Settle(domain.RunnerWinner, 0.02, time.Now().UTC())
	require.NoError(t, st.UpdateDecision(ctx, fetched))

	settled, err := st.PendingDecisionsPastStart(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, settled) // no longer PENDING
}
