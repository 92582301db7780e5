package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

type fakeStore struct {
	jobRuns   []domain.JobRun
	scores    []domain.ExploitabilityScore
	decisions []domain.ShadowDecision
	hyps      []domain.TradingHypothesis
}

func (f fakeStore) RecentJobRuns(context.Context, int) ([]domain.JobRun, error) { return f.jobRuns, nil }
func (f fakeStore) TopScores(context.Context, int) ([]domain.ExploitabilityScore, error) {
	return f.scores, nil
}
func (f fakeStore) RecentShadowDecisions(context.Context, int) ([]domain.ShadowDecision, error) {
	return f.decisions, nil
}
func (f fakeStore) ListHypotheses(context.Context) ([]domain.TradingHypothesis, error) {
	return f.hyps, nil
}

func TestConsole_PrintEmptyStoreShowsPlaceholders(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, fakeStore{})
	require.NoError(t, c.Print(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "Recent job runs")
	assert.Contains(t, out, "(none yet)")
	assert.NotContains(t, out, PaperTradingDisclaimer)
}

func TestConsole_PrintWithShadowDataRendersDisclaimer(t *testing.T) {
	now := time.Now().UTC()
	net := 19.6
	store := fakeStore{
		jobRuns: []domain.JobRun{{TaskName: "snapshot", StartedAt: now, Status: domain.JobSuccess, RecordsProcessed: 5}},
		scores: []domain.ExploitabilityScore{{
			MarketID: "mkt-1", Bucket: domain.Bucket6to24h, OddsBand: domain.OddsBandEven,
			Result: domain.ScoreResult{TotalScore: 62.5},
		}},
		hyps: []domain.TradingHypothesis{{Name: "steamers", Side: domain.SideBack, Decisions: 1, Wins: 1, CumulativeNet: 19.6, MeanCLV: 3.1}},
		decisions: []domain.ShadowDecision{{
			MarketID: "mkt-1", RunnerID: "r-1", Side: domain.SideBack, HypothesisName: "steamers",
			EntryBack: 3.0, Outcome: domain.OutcomeWin, NetPnL: &net,
		}},
	}

	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, store)
	require.NoError(t, c.Print(context.Background()))

	out := buf.String()
	assert.Contains(t, out, PaperTradingDisclaimer)
	assert.Contains(t, out, "mkt-1")
	assert.Contains(t, out, "steamers")
}
