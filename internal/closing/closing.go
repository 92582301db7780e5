// Package closing implements the Closing Capturer (C6): it freezes the
// freshest pre-start odds snapshot per market, then once the market has
// settled, records the winning runner (or void) and derives a best-effort
// EventResult, preserving the freshest pre-start capture (§4.6).
package closing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
	"github.com/ridgeradar/ridgeradar/internal/gateway"
)

// BookProvider is the subset of the gateway Client used for settlement
// polling.
type BookProvider interface {
	ListMarketBook(ctx context.Context, marketIDs []string, priceDepth int) ([]gateway.BookResult, error)
}

type closingStore interface {
	ListActiveMarkets(ctx context.Context) ([]domain.Market, error)
	GetMarket(ctx context.Context, externalID string) (domain.Market, bool, error)
	ListRunners(ctx context.Context, marketID string) ([]domain.Runner, error)
	ScheduledStartForMarket(ctx context.Context, marketID string) (time.Time, bool, error)
	LatestSnapshot(ctx context.Context, marketID string) (domain.MarketSnapshot, bool, error)
	LatestScore(ctx context.Context, marketID string) (domain.ExploitabilityScore, bool, error)
	GetClosingData(ctx context.Context, marketID string) (domain.MarketClosingData, bool, error)
	UpsertClosingData(ctx context.Context, c domain.MarketClosingData) error
	UnsettledClosingData(ctx context.Context) ([]domain.MarketClosingData, error)
	MarkSettled(ctx context.Context, marketID string, outcome domain.SettlementOutcome) error
	UpsertEventResult(ctx context.Context, r domain.EventResult) error
	CloseMarket(ctx context.Context, externalID string) error
}

// Capturer runs the two Closing Capturer passes: pre-start capture and
// settlement capture.
type Capturer struct {
	books BookProvider
	store closingStore
}

// New builds a Capturer.
func New(books BookProvider, store closingStore) *Capturer {
	return &Capturer{books: books, store: store}
}

// CapturePreStart records the freshest pre-start odds for every active
// market, preserving whichever capture is closer to kickoff (§4.6).
func (c *Capturer) CapturePreStart(ctx context.Context) (int, error) {
	markets, err := c.store.ListActiveMarkets(ctx)
	if err != nil {
		return 0, fmt.Errorf("closing.CapturePreStart: list active markets: %w", err)
	}

	written := 0
	now := time.Now().UTC()
	for _, m := range markets {
		n, err := c.captureOne(ctx, m, now)
		written += n
		if err != nil {
			slog.Warn("closing: pre-start capture failed", "market", m.ExternalID, "err", err)
		}
	}
	return written, nil
}

func (c *Capturer) captureOne(ctx context.Context, m domain.Market, now time.Time) (int, error) {
	start, ok, err := c.store.ScheduledStartForMarket(ctx, m.ExternalID)
	if err != nil || !ok {
		return 0, err
	}
	minutesToStart := start.Sub(now).Minutes()
	if minutesToStart < 0 {
		return 0, nil // already started; settlement capture handles it
	}

	score, ok, err := c.store.LatestScore(ctx, m.ExternalID)
	if err != nil || !ok {
		return 0, err
	}
	snap, ok, err := c.store.LatestSnapshot(ctx, m.ExternalID)
	if err != nil || !ok {
		return 0, err
	}

	existing, ok, err := c.store.GetClosingData(ctx, m.ExternalID)
	if err != nil {
		return 0, err
	}
	if ok && !existing.IsFresherThan(minutesToStart) {
		return 0, nil // existing capture is already closer to kickoff
	}

	data := domain.MarketClosingData{
		MarketID: m.ExternalID,
		Odds: domain.ClosingOdds{
			SnapshotCapturedAt: snap.CapturedAt,
			ScoreID:            score.ID,
			MinutesToStart:     minutesToStart,
		},
	}
	if err := c.store.UpsertClosingData(ctx, data); err != nil {
		return 0, err
	}
	return 1, nil
}

// CaptureSettlement polls the exchange for every market with unsettled
// closing data and, once a winner is determined, records the
// SettlementOutcome and a best-effort EventResult (§4.6).
func (c *Capturer) CaptureSettlement(ctx context.Context) (int, error) {
	pending, err := c.store.UnsettledClosingData(ctx)
	if err != nil {
		return 0, fmt.Errorf("closing.CaptureSettlement: list unsettled: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		ids = append(ids, p.MarketID)
	}

	books, err := c.books.ListMarketBook(ctx, ids, 1)
	if err != nil {
		return 0, fmt.Errorf("closing.CaptureSettlement: list market book: %w", err)
	}

	written := 0
	now := time.Now().UTC()
	for _, b := range books {
		if b.Status != domain.MarketClosed {
			continue
		}
		outcome := settlementFrom(b, now)
		if err := c.store.MarkSettled(ctx, b.MarketID, outcome); err != nil {
			slog.Warn("closing: mark settled failed", "market", b.MarketID, "err", err)
			continue
		}
		if err := c.store.CloseMarket(ctx, b.MarketID); err != nil {
			slog.Warn("closing: close market failed", "market", b.MarketID, "err", err)
		}
		if err := c.recordEventResult(ctx, b.MarketID, outcome); err != nil {
			slog.Warn("closing: event result derivation failed", "market", b.MarketID, "err", err)
		}
		written++
	}
	return written, nil
}

// recordEventResult derives a best-effort EventResult once a market has
// settled, when that market is a Match Odds market (the only type a winner
// runner name can be turned into a result from; §9).
func (c *Capturer) recordEventResult(ctx context.Context, marketID string, outcome domain.SettlementOutcome) error {
	if outcome.Void || outcome.WinnerRunnerID == "" {
		return nil
	}
	m, ok, err := c.store.GetMarket(ctx, marketID)
	if err != nil || !ok || m.MarketType != "MATCH_ODDS" {
		return err
	}
	runners, err := c.store.ListRunners(ctx, marketID)
	if err != nil {
		return err
	}
	result := domain.GuessFromMatchOddsWinner(m.EventID, runners, outcome.WinnerRunnerID)
	return c.store.UpsertEventResult(ctx, result)
}

func settlementFrom(b gateway.BookResult, now time.Time) domain.SettlementOutcome {
	outcome := domain.SettlementOutcome{SettledAt: now}
	for runnerID, status := range b.RunnerStatuses {
		if status == domain.RunnerWinner {
			outcome.WinnerRunnerID = runnerID
			return outcome
		}
	}
	outcome.Void = true
	return outcome
}
