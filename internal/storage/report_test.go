package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

func TestReport_TopScoresOrdersByTotalDescending(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	cv := domain.DefaultConfigVersion()
	cv.ID = "cv-1"
	require.NoError(t, st.InsertConfigVersion(ctx, cv))

	now := time.Now().UTC()
	require.NoError(t, st.InsertScore(ctx, domain.ExploitabilityScore{
		ID: uuid.NewString(), MarketID: "mkt-low", ScoredAt: now, Bucket: domain.Bucket6to24h,
		OddsBand: domain.OddsBandEven, ConfigVersion: cv.ID,
		Result: domain.ScoreResult{TotalScore: 20},
	}))
	require.NoError(t, st.InsertScore(ctx, domain.ExploitabilityScore{
		ID: uuid.NewString(), MarketID: "mkt-high", ScoredAt: now, Bucket: domain.Bucket6to24h,
		OddsBand: domain.OddsBandEven, ConfigVersion: cv.ID,
		Result: domain.ScoreResult{TotalScore: 80},
	}))

	top, err := st.TopScores(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "mkt-high", top[0].MarketID)
	assert.Equal(t, "mkt-low", top[1].MarketID)
}

func TestReport_RecentJobRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	older := domain.JobRun{ID: uuid.NewString(), TaskName: "snapshot", StartedAt: time.Now().UTC().Add(-time.Hour), Status: domain.JobSuccess}
	newer := domain.JobRun{ID: uuid.NewString(), TaskName: "snapshot", StartedAt: time.Now().UTC(), Status: domain.JobFailed, Error: "boom"}
	require.NoError(t, st.InsertJobRun(ctx, older))
	require.NoError(t, st.InsertJobRun(ctx, newer))

	runs, err := st.RecentJobRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, "boom", runs[0].Error)
}

func TestReport_ListHypothesesAndRecentDecisions(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	h := domain.TradingHypothesis{
		Name: "steamers", DisplayName: "Steamers", Enabled: true,
		SelectionLogic: domain.SelectionLogicMomentum, Side: domain.SideBack,
		Decisions: 3, Wins: 2, Losses: 1, CumulativeNet: 12.5, MeanCLV: 1.2,
	}
	require.NoError(t, st.UpdateHypothesisCounters(ctx, h))

	d := domain.ShadowDecision{
		ID: uuid.NewString(), MarketID: "mkt-1", RunnerID: "r-1", Side: domain.SideBack,
		ScoreID: "sc-1", HypothesisName: "steamers", DecidedAt: time.Now().UTC(),
		EntryBack: 3.0, Stake: 10, CompetitionID: "comp-1", Niche: "comp-1/MATCH_ODDS",
	}
	require.NoError(t, st.InsertShadowDecision(ctx, d))

	hyps, err := st.ListHypotheses(ctx)
	require.NoError(t, err)
	require.Len(t, hyps, 1)
	assert.Equal(t, "steamers", hyps[0].Name)

	decisions, err := st.RecentShadowDecisions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "mkt-1", decisions[0].MarketID)
	assert.Equal(t, domain.OutcomePending, decisions[0].Outcome)
}
