package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeradar/ridgeradar/internal/domain"
	"github.com/ridgeradar/ridgeradar/internal/gateway"
	"github.com/ridgeradar/ridgeradar/internal/storage"
)

type fakeBooks struct {
	books []gateway.BookResult
	err   error
}

func (f *fakeBooks) ListMarketBook(ctx context.Context, marketIDs []string, priceDepth int) ([]gateway.BookResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.books, nil
}

func TestSnapshotter_Run_WritesOneSnapshotPerOpenMarket(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.UpsertMarket(ctx, domain.Market{
		ExternalID: "mkt-1", EventID: "ev-1", Name: "Match Odds", Status: domain.MarketOpen,
	}))

	books := &fakeBooks{books: []gateway.BookResult{{
		MarketID: "mkt-1", Status: domain.MarketOpen, TotalMatched: 5000, TotalAvailable: 800,
		Ladder: domain.Ladder{Runners: []domain.RunnerLadder{
			{RunnerExternalID: "r1",
				Back: []domain.PriceLevel{{Price: 2.00, Size: 100}},
				Lay:  []domain.PriceLevel{{Price: 2.02, Size: 90}}},
			{RunnerExternalID: "r2",
				Back: []domain.PriceLevel{{Price: 4.00, Size: 50}},
				Lay:  []domain.PriceLevel{{Price: 4.10, Size: 40}}},
		}},
	}}}

	snapshotter := New(Config{}, books, store)
	written, err := snapshotter.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	latest, ok, err := store.LatestSnapshot(ctx, "mkt-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5000.0, latest.TotalMatched)
	assert.Greater(t, latest.SpreadTicks, 0.0)
	assert.Greater(t, latest.Depth5Ticks, 0.0)
}

func TestSnapshotter_Run_SkipsSuspendedMarkets(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.UpsertMarket(ctx, domain.Market{
		ExternalID: "mkt-1", EventID: "ev-1", Name: "Match Odds", Status: domain.MarketOpen,
	}))

	books := &fakeBooks{books: []gateway.BookResult{{
		MarketID: "mkt-1", Status: domain.MarketSuspended,
	}}}

	snapshotter := New(Config{}, books, store)
	written, err := snapshotter.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, written)

	_, ok, err := store.LatestSnapshot(ctx, "mkt-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChunk(t *testing.T) {
	got := chunk([]string{"a", "b", "c", "d", "e"}, 2)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, got)
}

func TestOverround_RoundedToFourDecimalPlaces(t *testing.T) {
	l := domain.Ladder{Runners: []domain.RunnerLadder{
		{Back: []domain.PriceLevel{{Price: 2.00}}},
		{Back: []domain.PriceLevel{{Price: 2.10}}},
		{Back: []domain.PriceLevel{{Price: 10.00}}},
	}}
	// 1/2 + 1/2.1 + 1/10 = 0.5 + 0.47619... + 0.1 = 1.07619...
	assert.InDelta(t, 1.0762, overround(l), 0.0001)
}

func TestSnapshotter_Run_InvalidInputClosesBatchMarkets(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.UpsertMarket(ctx, domain.Market{
		ExternalID: "mkt-1", EventID: "ev-1", Name: "Match Odds", Status: domain.MarketOpen,
	}))

	books := &fakeBooks{err: &gateway.Error{Kind: gateway.ErrInvalidInput, Op: "listMarketBook"}}

	snapshotter := New(Config{}, books, store)
	written, err := snapshotter.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, written)

	m, ok, err := store.GetMarket(ctx, "mkt-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.MarketClosed, m.Status)
}

func TestSnapshotter_Run_TooMuchDataLeavesMarketsOpen(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.UpsertMarket(ctx, domain.Market{
		ExternalID: "mkt-1", EventID: "ev-1", Name: "Match Odds", Status: domain.MarketOpen,
	}))

	books := &fakeBooks{err: &gateway.Error{Kind: gateway.ErrTooMuchData, Op: "listMarketBook"}}

	snapshotter := New(Config{}, books, store)
	written, err := snapshotter.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, written)

	m, ok, err := store.GetMarket(ctx, "mkt-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.MarketOpen, m.Status)
}
