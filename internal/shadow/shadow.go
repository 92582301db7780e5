// Package shadow implements the Shadow Settler (C10): it captures each
// paper decision's closing mid price around kickoff, then settles
// PENDING decisions once their event has been over long enough for the
// market to close, computing CLV, P&L, and return-on-risk. Never touches
// the exchange — settlement is sourced entirely from the Closing
// Capturer's own record of the winning runner (§4.10, §6 safety
// invariant).
package shadow

import (
	"context"
	"fmt"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

// settlementEligibleAfter is how long ago a decision's event must have
// started before the decision is considered for settlement (§4.10).
const settlementEligibleAfter = 2 * time.Hour

// kickoffCaptureBefore and kickoffCaptureAfter bound the events eligible
// for closing-mid capture:
// starting within the next 5 minutes, or up to 2h in the past (§4.10).
const (
	kickoffCaptureBefore = 5 * time.Minute
	kickoffCaptureAfter  = 2 * time.Hour
)

type settlerStore interface {
	PendingDecisionsNearKickoffUnclosed(ctx context.Context) ([]domain.ShadowDecision, error)
	PendingDecisionsPastStart(ctx context.Context, startedAgo time.Duration) ([]domain.ShadowDecision, error)
	UpdateDecision(ctx context.Context, d domain.ShadowDecision) error
	ScheduledStartForMarket(ctx context.Context, marketID string) (time.Time, bool, error)
	LatestSnapshot(ctx context.Context, marketID string) (domain.MarketSnapshot, bool, error)
	GetClosingData(ctx context.Context, marketID string) (domain.MarketClosingData, bool, error)
	ListEnabledHypotheses(ctx context.Context) ([]domain.TradingHypothesis, error)
	UpdateHypothesisCounters(ctx context.Context, h domain.TradingHypothesis) error
}

// Settler runs the closing-mid-capture and settlement passes.
type Settler struct {
	store          settlerStore
	commissionRate float64
}

// New builds a Settler with the configured commission rate (§4.10).
func New(store settlerStore, commissionRate float64) *Settler {
	return &Settler{store: store, commissionRate: commissionRate}
}

// CaptureClosingMids records closing-mid/CLV for decisions whose event is
// around kickoff and have not yet had a closing price captured.
func (s *Settler) CaptureClosingMids(ctx context.Context) (int, error) {
	pending, err := s.store.PendingDecisionsNearKickoffUnclosed(ctx)
	if err != nil {
		return 0, fmt.Errorf("shadow.CaptureClosingMids: list pending: %w", err)
	}

	now := time.Now().UTC()
	captured := 0
	for _, d := range pending {
		start, ok, err := s.store.ScheduledStartForMarket(ctx, d.MarketID)
		if err != nil {
			return captured, fmt.Errorf("shadow.CaptureClosingMids: scheduled start for %s: %w", d.MarketID, err)
		}
		if !ok {
			continue
		}
		untilStart := start.Sub(now)
		if untilStart > kickoffCaptureBefore || untilStart < -kickoffCaptureAfter {
			continue
		}

		snap, ok, err := s.store.LatestSnapshot(ctx, d.MarketID)
		if err != nil {
			return captured, fmt.Errorf("shadow.CaptureClosingMids: latest snapshot for %s: %w", d.MarketID, err)
		}
		if !ok {
			continue
		}
		runner, ok := snap.Ladder.ByExternalID(d.RunnerID)
		if !ok {
			continue
		}
		back, hasBack := runner.BestBack()
		lay, hasLay := runner.BestLay()
		if !hasBack || !hasLay {
			continue
		}

		d.CaptureClosingMid(back.Price, lay.Price)
		if err := s.store.UpdateDecision(ctx, d); err != nil {
			return captured, fmt.Errorf("shadow.CaptureClosingMids: update %s: %w", d.ID, err)
		}
		captured++
	}
	return captured, nil
}

// SettlePending settles every PENDING decision whose event started at
// least settlementEligibleAfter ago, sourcing the winning runner from the
// Closing Capturer's own settlement record, and rolls the result into its
// hypothesis's counters (§4.10).
func (s *Settler) SettlePending(ctx context.Context) (int, error) {
	pending, err := s.store.PendingDecisionsPastStart(ctx, settlementEligibleAfter)
	if err != nil {
		return 0, fmt.Errorf("shadow.SettlePending: list pending: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	hypotheses, err := s.hypothesesByName(ctx)
	if err != nil {
		return 0, fmt.Errorf("shadow.SettlePending: list hypotheses: %w", err)
	}

	now := time.Now().UTC()
	settled := 0
	for _, d := range pending {
		closing, ok, err := s.store.GetClosingData(ctx, d.MarketID)
		if err != nil {
			return settled, fmt.Errorf("shadow.SettlePending: closing data for %s: %w", d.MarketID, err)
		}
		if !ok || closing.Settlement == nil {
			continue // not yet settled by the Closing Capturer
		}

		status := runnerStatusFor(closing.Settlement, d.RunnerID)
		d.Settle(status, s.commissionRate, now)
		if d.Outcome == domain.OutcomePending {
			continue
		}
		if err := s.store.UpdateDecision(ctx, d); err != nil {
			return settled, fmt.Errorf("shadow.SettlePending: update %s: %w", d.ID, err)
		}
		if h, ok := hypotheses[d.HypothesisName]; ok {
			applyResult(&h, d)
			if err := s.store.UpdateHypothesisCounters(ctx, h); err != nil {
				return settled, fmt.Errorf("shadow.SettlePending: update hypothesis %s: %w", h.Name, err)
			}
			hypotheses[d.HypothesisName] = h
		}
		settled++
	}
	return settled, nil
}

func (s *Settler) hypothesesByName(ctx context.Context) (map[string]domain.TradingHypothesis, error) {
	list, err := s.store.ListEnabledHypotheses(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.TradingHypothesis, len(list))
	for _, h := range list {
		out[h.Name] = h
	}
	return out, nil
}

// runnerStatusFor maps a settled MarketClosingData onto a RunnerStatus from
// the perspective of a specific decision runner.
func runnerStatusFor(settlement *domain.SettlementOutcome, runnerID string) domain.RunnerStatus {
	if settlement.Void {
		return domain.RunnerRemoved
	}
	if settlement.WinnerRunnerID == runnerID {
		return domain.RunnerWinner
	}
	return domain.RunnerLoser
}

// applyResult rolls a settled decision's outcome into its hypothesis's
// denormalised counters (§4.9: "Decisions, Wins, Losses, CumulativeNet,
// MeanCLV maintained by the Shadow Settler as decisions resolve").
func applyResult(h *domain.TradingHypothesis, d domain.ShadowDecision) {
	switch d.Outcome {
	case domain.OutcomeWin:
		h.Wins++
	case domain.OutcomeLose:
		h.Losses++
	}
	if d.NetPnL != nil {
		h.CumulativeNet += *d.NetPnL
	}
	if d.CLVPercent != nil {
		n := float64(h.Wins + h.Losses)
		if n <= 0 {
			n = 1
		}
		h.MeanCLV = (h.MeanCLV*(n-1) + *d.CLVPercent) / n
	}
}
