package hypothesis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeradar/ridgeradar/internal/domain"
	"github.com/ridgeradar/ridgeradar/internal/storage"
)

func seed(t *testing.T, ctx context.Context, store *storage.Store, now time.Time) {
	t.Helper()
	require.NoError(t, store.UpsertSport(ctx, domain.Sport{ExternalID: "1", Name: "Soccer"}))
	require.NoError(t, store.UpsertCompetition(ctx, domain.Competition{ExternalID: "comp-1", SportID: "1", Name: "EPL", Enabled: true}))
	require.NoError(t, store.UpsertEvent(ctx, domain.Event{ExternalID: "evt-1", CompetitionID: "comp-1", ScheduledStart: now.Add(3 * time.Hour), Status: domain.EventScheduled}))
	require.NoError(t, store.UpsertMarket(ctx, domain.Market{ExternalID: "mkt-1", EventID: "evt-1", Name: "Match Odds", MarketType: "MATCH_ODDS", Status: domain.MarketOpen}))

	old := domain.MarketSnapshot{
		MarketID: "mkt-1", CapturedAt: now.Add(-40 * time.Minute),
		Ladder: domain.Ladder{Runners: []domain.RunnerLadder{
			{RunnerExternalID: "r1", Back: []domain.PriceLevel{{Price: 3.0, Size: 100}}, Lay: []domain.PriceLevel{{Price: 3.05, Size: 100}}},
		}},
	}
	require.NoError(t, store.InsertSnapshot(ctx, old))

	current := domain.MarketSnapshot{
		MarketID: "mkt-1", CapturedAt: now,
		Ladder: domain.Ladder{Runners: []domain.RunnerLadder{
			{RunnerExternalID: "r1", TotalMatched: 5000, Back: []domain.PriceLevel{{Price: 2.5, Size: 100}}, Lay: []domain.PriceLevel{{Price: 2.54, Size: 100}}},
		}},
	}
	require.NoError(t, store.InsertSnapshot(ctx, current))
}

func TestEngine_Run_CreatesDecisionOnSteamingSignal(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Now().UTC()
	seed(t, ctx, store, now)

	require.NoError(t, store.UpdateHypothesisCounters(ctx, domain.TradingHypothesis{
		Name: "steam-fade", Enabled: true, Side: domain.SideBack,
		Criteria: domain.EntryCriteria{MinPriceChangePct: 5},
	}))

	engine := New(store, 5, 10)
	created, err := engine.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	has, err := store.HasDecision(ctx, "mkt-1", "steam-fade")
	require.NoError(t, err)
	assert.True(t, has)

	// Idempotent: running again must not create a second decision (I3).
	created, err = engine.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestEngine_Run_SkipsWhenNoHypotheses(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Now().UTC()
	seed(t, ctx, store, now)

	engine := New(store, 5, 10)
	created, err := engine.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}
