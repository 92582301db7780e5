package competitionstats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeradar/ridgeradar/internal/domain"
	"github.com/ridgeradar/ridgeradar/internal/storage"
)

func TestAggregate_CountsAndMoments(t *testing.T) {
	now := time.Now().UTC()
	scores := []domain.ExploitabilityScore{
		{Result: domain.ScoreResult{TotalScore: 75}},
		{Result: domain.ScoreResult{TotalScore: 60}},
		{Result: domain.ScoreResult{TotalScore: 30}},
	}
	st := aggregate("comp-1", now, scores)
	assert.Equal(t, 3, st.Count)
	assert.InDelta(t, 55.0, st.Mean, 0.01)
	assert.Equal(t, 75.0, st.Max)
	assert.Equal(t, 30.0, st.Min)
	assert.Equal(t, 1, st.CountAbove70)
	assert.Equal(t, 2, st.CountAbove55)
	assert.Equal(t, 2, st.CountAbove40)
}

func TestAggregate_ThresholdBucketsAreInclusive(t *testing.T) {
	now := time.Now().UTC()
	scores := []domain.ExploitabilityScore{
		{Result: domain.ScoreResult{TotalScore: 70}},
		{Result: domain.ScoreResult{TotalScore: 55}},
		{Result: domain.ScoreResult{TotalScore: 40}},
	}
	st := aggregate("comp-1", now, scores)
	assert.Equal(t, 1, st.CountAbove70)
	assert.Equal(t, 2, st.CountAbove55)
	assert.Equal(t, 3, st.CountAbove40)
}

func TestAggregator_Run_WritesStatsForCompetitionsWithScoresToday(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Now().UTC()
	require.NoError(t, store.UpsertSport(ctx, domain.Sport{ExternalID: "1", Name: "Soccer"}))
	require.NoError(t, store.UpsertCompetition(ctx, domain.Competition{ExternalID: "comp-1", SportID: "1", Name: "EPL", Enabled: true}))
	require.NoError(t, store.UpsertEvent(ctx, domain.Event{ExternalID: "evt-1", CompetitionID: "comp-1", ScheduledStart: now.Add(time.Hour), Status: domain.EventScheduled}))
	require.NoError(t, store.UpsertMarket(ctx, domain.Market{ExternalID: "mkt-1", EventID: "evt-1", Name: "Match Odds", MarketType: "MATCH_ODDS", Status: domain.MarketOpen}))

	require.NoError(t, store.InsertConfigVersion(ctx, domain.DefaultConfigVersion()))
	require.NoError(t, store.InsertScore(ctx, domain.ExploitabilityScore{
		ID: "sc-1", MarketID: "mkt-1", ScoredAt: now, Bucket: domain.Bucket6to24h,
		OddsBand: domain.OddsBandEven, Result: domain.ScoreResult{TotalScore: 62},
		ConfigVersion: domain.DefaultConfigVersion().ID,
	}))

	agg := New(store)
	n, err := agg.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
