package discovery

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

func TestConfig_IsExcluded(t *testing.T) {
	cfg := Config{ExclusionPatterns: []string{"friendly", "u21", "women"}}
	assert.True(t, cfg.IsExcluded("International Friendly"))
	assert.True(t, cfg.IsExcluded("England U21"))
	assert.True(t, cfg.IsExcluded("Women's Super League"))
	assert.False(t, cfg.IsExcluded("Premier League"))
}

// fakeExchange is a minimal in-memory stand-in for the gateway Client,
// exercising Discovery's sync logic without any HTTP plumbing.
type fakeExchange struct {
	sports       []domain.Sport
	competitions map[string][]domain.Competition // keyed by sport id
	events       []domain.Event
	catalogue    map[string][]gateway.MarketCatalogueResult // keyed by event id
}

func (f *fakeExchange) ListEventTypes(ctx context.Context) ([]domain.Sport, error) {
	return f.sports, nil
}

func (f *fakeExchange) ListCompetitions(ctx context.Context, sportIDs, countryCodes []string) ([]domain.Competition, error) {
	var out []domain.Competition
	for _, id := range sportIDs {
		out = append(out, f.competitions[id]...)
	}
	return out, nil
}

func (f *fakeExchange) ListEvents(ctx context.Context, competitionIDs, sportIDs []string, from, to time.Time) ([]domain.Event, error) {
	return f.events, nil
}

func (f *fakeExchange) ListMarketCatalogue(ctx context.Context, eventIDs, competitionIDs, marketTypes []string, max int) ([]gateway.MarketCatalogueResult, error) {
	var out []gateway.MarketCatalogueResult
	for _, id := range eventIDs {
		out = append(out, f.catalogue[id]...)
	}
	return out, nil
}

func TestDiscovery_Run_ExcludesAndSyncsCatalogue(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	exchange := &fakeExchange{
		sports: []domain.Sport{{ExternalID: "1", Name: "Soccer"}},
		competitions: map[string][]domain.Competition{
			"1": {
				{ExternalID: "comp-1", Name: "Premier League"},
				{ExternalID: "comp-2", Name: "U21 Friendly Cup"},
			},
		},
		events: []domain.Event{
			{ExternalID: "ev-1", CompetitionID: "comp-1", ScheduledStart: time.Now().UTC().Add(2 * time.Hour), Status: domain.EventScheduled},
		},
		catalogue: map[string][]gateway.MarketCatalogueResult{
			"ev-1": {{
				Market:  domain.Market{ExternalID: "mkt-1", EventID: "ev-1", Name: "Match Odds", Status: domain.MarketOpen},
				Runners: []domain.Runner{{ExternalID: "r1", MarketID: "mkt-1", Status: domain.RunnerActive}},
			}},
		},
	}

	cfg := Config{ExclusionPatterns: []string{"friendly", "u21"}, EventLookahead: 72 * time.Hour}
	d := New(cfg, exchange, store)

	touched, err := d.Run(ctx)
	require.NoError(t, err)
	assert.Greater(t, touched, 0)

	enabled, err := store.ListEnabledCompetitions(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "comp-1", enabled[0].ExternalID)

	markets, err := store.ListActiveMarkets(ctx)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "mkt-1", markets[0].ExternalID)
}
