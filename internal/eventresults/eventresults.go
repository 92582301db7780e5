// Package eventresults implements the standalone "Event results" task
// named in §4.11's cadence table, distinct from the Closing Capturer's
// inline derivation (§4.6): it backfills EventResult rows for events whose
// Match Odds market has already settled but whose result was missed, e.g.
// because a different market on the same event settled first and the
// Match Odds market only closed afterwards. Grounded on the same
// fetch-then-persist shape as internal/closing.
package eventresults

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

type store interface {
	EventsNeedingResult(ctx context.Context) ([]domain.SettledMatchOddsWinner, error)
	ListRunners(ctx context.Context, marketID string) ([]domain.Runner, error)
	UpsertEventResult(ctx context.Context, r domain.EventResult) error
}

// Backfiller runs the Event Results task.
type Backfiller struct {
	store store
}

// New builds a Backfiller.
func New(store store) *Backfiller {
	return &Backfiller{store: store}
}

// Run derives and upserts an EventResult for every settled Match Odds
// market whose event has none yet (§4.11, §9).
func (b *Backfiller) Run(ctx context.Context) (int, error) {
	candidates, err := b.store.EventsNeedingResult(ctx)
	if err != nil {
		return 0, fmt.Errorf("eventresults.Run: list candidates: %w", err)
	}

	written := 0
	for _, c := range candidates {
		if c.Void || c.WinnerRunnerID == "" {
			continue
		}
		runners, err := b.store.ListRunners(ctx, c.MarketID)
		if err != nil {
			slog.Warn("eventresults: runner list lookup failed", "market", c.MarketID, "err", err)
			continue
		}
		if len(runners) == 0 {
			continue
		}
		result := domain.GuessFromMatchOddsWinner(c.EventID, runners, c.WinnerRunnerID)
		if err := b.store.UpsertEventResult(ctx, result); err != nil {
			slog.Warn("eventresults: upsert failed", "event", c.EventID, "err", err)
			continue
		}
		written++
	}
	return written, nil
}
