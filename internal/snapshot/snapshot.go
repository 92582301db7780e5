// Package snapshot implements the Snapshotter (C3): it batches active
// markets, pulls their order books from the Exchange Gateway, computes the
// market-level derived fields, and appends one MarketSnapshot row per
// market per pass.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
	"github.com/ridgeradar/ridgeradar/internal/gateway"
)

// BookProvider is the subset of the gateway Client the Snapshotter reads
// order books through.
type BookProvider interface {
	ListMarketBook(ctx context.Context, marketIDs []string, priceDepth int) ([]gateway.BookResult, error)
}

type snapshotStore interface {
	ListActiveMarkets(ctx context.Context) ([]domain.Market, error)
	UpdateMarketStatus(ctx context.Context, externalID string, status domain.MarketStatus, inPlay bool) error
	InsertSnapshot(ctx context.Context, s domain.MarketSnapshot) error
}

// Config controls batching and ladder depth.
type Config struct {
	BatchSize  int // markets per ListMarketBook call (exchange caps this; §4.1 TOO_MUCH_DATA)
	PriceDepth int // best-N price levels requested per side
	DepthTicks int // tick window for DepthWithinTicks (§4.3)
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 40
	}
	if c.PriceDepth <= 0 {
		c.PriceDepth = 3
	}
	if c.DepthTicks <= 0 {
		c.DepthTicks = 5
	}
	return c
}

// Snapshotter runs one capture pass per invocation.
type Snapshotter struct {
	cfg   Config
	books BookProvider
	store snapshotStore
}

// New builds a Snapshotter.
func New(cfg Config, books BookProvider, store snapshotStore) *Snapshotter {
	return &Snapshotter{cfg: cfg.withDefaults(), books: books, store: store}
}

// Run captures one snapshot for every open, not-in-play market, batching
// ListMarketBook calls at cfg.BatchSize markets each. Returns the number of
// snapshots written.
func (s *Snapshotter) Run(ctx context.Context) (int, error) {
	markets, err := s.store.ListActiveMarkets(ctx)
	if err != nil {
		return 0, fmt.Errorf("snapshot.Run: list active markets: %w", err)
	}
	if len(markets) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(markets))
	for _, m := range markets {
		ids = append(ids, m.ExternalID)
	}

	written := 0
	now := time.Now().UTC()
	for _, batch := range chunk(ids, s.cfg.BatchSize) {
		books, err := s.books.ListMarketBook(ctx, batch, s.cfg.PriceDepth)
		if err != nil {
			s.handleBatchError(ctx, batch, err)
			continue
		}
		for _, b := range books {
			if err := s.captureOne(ctx, b, now); err != nil {
				slog.Warn("snapshot: capture failed", "market", b.MarketID, "err", err)
				continue
			}
			if b.Status != domain.MarketOpen || b.InPlay {
				continue // status updated, no snapshot written
			}
			written++
		}
	}
	return written, nil
}

// handleBatchError applies the differentiated batch-error handling from
// §4.3: TOO_MUCH_DATA discards the batch without closing markets, HTTP 400
// (INVALID_INPUT) marks the batch's markets CLOSED as stale ids, and
// anything else is only logged.
func (s *Snapshotter) handleBatchError(ctx context.Context, batch []string, err error) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) && gwErr.Kind == gateway.ErrInvalidInput {
		slog.Warn("snapshot: invalid input, closing stale markets", "batch_size", len(batch), "err", err)
		for _, id := range batch {
			if cerr := s.store.UpdateMarketStatus(ctx, id, domain.MarketClosed, false); cerr != nil {
				slog.Warn("snapshot: failed to close stale market", "market", id, "err", cerr)
			}
		}
		return
	}
	slog.Warn("snapshot: list market book failed", "batch_size", len(batch), "err", err)
}

func (s *Snapshotter) captureOne(ctx context.Context, b gateway.BookResult, now time.Time) error {
	if err := s.store.UpdateMarketStatus(ctx, b.MarketID, b.Status, b.InPlay); err != nil {
		return fmt.Errorf("update market status: %w", err)
	}
	if b.Status != domain.MarketOpen || b.InPlay {
		return nil // gone suspended/in-play/closed since discovery; skip the capture itself
	}

	snap := domain.MarketSnapshot{
		MarketID:       b.MarketID,
		CapturedAt:     now,
		TotalMatched:   b.TotalMatched,
		TotalAvailable: b.TotalAvailable,
		Ladder:         b.Ladder,
	}
	snap.SpreadTicks = meanSpreadTicks(b.Ladder)
	snap.BestDepth = meanBestDepth(b.Ladder)
	snap.Depth5Ticks = sumDepthWithinTicks(b.Ladder, s.cfg.DepthTicks)
	snap.Overround = overround(b.Ladder)

	if err := s.store.InsertSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// meanSpreadTicks averages the back/lay tick spread across every runner
// that has both sides quoted (§4.3).
func meanSpreadTicks(l domain.Ladder) float64 {
	var sum float64
	var n int
	for _, r := range l.Runners {
		back, ok1 := r.BestBack()
		lay, ok2 := r.BestLay()
		if !ok1 || !ok2 {
			continue
		}
		sum += domain.TicksBetween(back.Price, lay.Price)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func meanBestDepth(l domain.Ladder) float64 {
	var sum float64
	var n int
	for _, r := range l.Runners {
		back, ok1 := r.BestBack()
		lay, ok2 := r.BestLay()
		if !ok1 && !ok2 {
			continue
		}
		sum += back.Size + lay.Size
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func sumDepthWithinTicks(l domain.Ladder, ticks int) float64 {
	var total float64
	for _, r := range l.Runners {
		total += r.DepthWithinTicks(ticks)
	}
	return total
}

// overround is the sum of implied probabilities (1/price) across the
// runners' best-back prices, rounded to 4 decimal places (§4.3). A value
// above 1 implies an exchange margin.
func overround(l domain.Ladder) float64 {
	var sum float64
	for _, r := range l.Runners {
		if back, ok := r.BestBack(); ok && back.Price > 0 {
			sum += 1 / back.Price
		}
	}
	return math.Round(sum*10000) / 10000
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[i:end])
	}
	return out
}
