// Package hypothesis implements the Hypothesis Engine (C9): it gathers
// price-movement signals from recent snapshots, matches them against
// every enabled TradingHypothesis, and records a PENDING ShadowDecision
// per match. Runs only when the system is in PHASE2_SHADOW; never touches
// the exchange (§4.9, §6 safety invariant).
package hypothesis

import (
	"context"
	"fmt"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

// lookbackWindows are the historical snapshot windows sampled for price
// movement, from most to least recent (§4.9: "≈ 30 min, ≈ 1 h, ≈ 2 h
// prior"). The primary (first) window's change percentage is what entry
// criteria match against.
var lookbackWindows = []time.Duration{30 * time.Minute, time.Hour, 2 * time.Hour}

const (
	maxChangePctNoiseCap = 100
	minBackPrice         = 1.10
	maxBackPrice         = 50
	lookaheadHorizon     = 24 * time.Hour
)

type engineStore interface {
	ListActiveMarkets(ctx context.Context) ([]domain.Market, error)
	ScheduledStartForMarket(ctx context.Context, marketID string) (time.Time, bool, error)
	CompetitionIDForMarket(ctx context.Context, marketID string) (string, bool, error)
	LatestSnapshot(ctx context.Context, marketID string) (domain.MarketSnapshot, bool, error)
	SnapshotWithinWindow(ctx context.Context, marketID string, before time.Time) (domain.MarketSnapshot, bool, error)
	LatestScore(ctx context.Context, marketID string) (domain.ExploitabilityScore, bool, error)
	ListEnabledHypotheses(ctx context.Context) ([]domain.TradingHypothesis, error)
	HasDecision(ctx context.Context, marketID, hypothesisName string) (bool, error)
	InsertShadowDecision(ctx context.Context, d domain.ShadowDecision) error
	UpdateHypothesisCounters(ctx context.Context, h domain.TradingHypothesis) error
}

// Engine runs the signal-gathering and hypothesis-matching passes.
type Engine struct {
	store        engineStore
	minChangePct float64
	baseStake    float64
}

// New builds a hypothesis Engine. minChangePct is the configured minimum
// primary-window change percentage a signal must clear to be considered
// (§4.9).
func New(store engineStore, minChangePct, baseStake float64) *Engine {
	return &Engine{store: store, minChangePct: minChangePct, baseStake: baseStake}
}

// Run gathers signals across eligible markets, matches them against every
// enabled hypothesis, and inserts one PENDING decision per new match.
// Returns the number of decisions created.
func (e *Engine) Run(ctx context.Context) (int, error) {
	hypotheses, err := e.store.ListEnabledHypotheses(ctx)
	if err != nil {
		return 0, fmt.Errorf("hypothesis.Run: list enabled hypotheses: %w", err)
	}
	if len(hypotheses) == 0 {
		return 0, nil
	}

	signals, err := e.gatherSignals(ctx)
	if err != nil {
		return 0, fmt.Errorf("hypothesis.Run: gather signals: %w", err)
	}

	created := 0
	for _, sig := range signals {
		for i := range hypotheses {
			h := hypotheses[i]
			if !h.Criteria.Matches(sig) {
				continue
			}
			has, err := e.store.HasDecision(ctx, sig.MarketID, h.Name)
			if err != nil {
				return created, fmt.Errorf("hypothesis.Run: has decision: %w", err)
			}
			if has {
				continue
			}
			if err := e.createDecision(ctx, h, sig); err != nil {
				return created, fmt.Errorf("hypothesis.Run: create decision: %w", err)
			}
			created++
		}
	}
	return created, nil
}

// gatherSignals finds runners showing significant recent price movement in
// open, non-in-play, non-handicap markets scheduled within the next 24h
// (§4.9).
func (e *Engine) gatherSignals(ctx context.Context) ([]domain.Signal, error) {
	markets, err := e.store.ListActiveMarkets(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var signals []domain.Signal
	for _, m := range markets {
		if isHandicap(m.MarketType) {
			continue
		}
		start, ok, err := e.store.ScheduledStartForMarket(ctx, m.ExternalID)
		if err != nil {
			return nil, err
		}
		if !ok || start.Before(now) || start.Sub(now) > lookaheadHorizon {
			continue
		}

		current, ok, err := e.store.LatestSnapshot(ctx, m.ExternalID)
		if err != nil || !ok {
			if err != nil {
				return nil, err
			}
			continue
		}

		compID, _, err := e.store.CompetitionIDForMarket(ctx, m.ExternalID)
		if err != nil {
			return nil, err
		}

		score, hasScore, err := e.store.LatestScore(ctx, m.ExternalID)
		if err != nil {
			return nil, err
		}

		marketSignals, err := e.signalsForMarket(ctx, m, compID, start, current, now, hasScore, score)
		if err != nil {
			return nil, err
		}
		signals = append(signals, marketSignals...)
	}
	return signals, nil
}

func (e *Engine) signalsForMarket(ctx context.Context, m domain.Market, compID string, start time.Time, current domain.MarketSnapshot, now time.Time, hasScore bool, score domain.ExploitabilityScore) ([]domain.Signal, error) {
	var out []domain.Signal
	for _, runner := range current.Ladder.Runners {
		back, hasBack := runner.BestBack()
		lay, hasLay := runner.BestLay()
		if !hasBack || !hasLay {
			continue
		}
		if back.Price < minBackPrice || back.Price > maxBackPrice {
			continue
		}

		primaryChange, primaryWindowMins, ok, err := e.primaryChange(ctx, m.ExternalID, runner.RunnerExternalID, back.Price, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if absFloat(primaryChange) < e.minChangePct || absFloat(primaryChange) > maxChangePctNoiseCap {
			continue
		}

		mid, _ := runner.Mid()
		spreadPct := 0.0
		if mid > 0 {
			spreadPct = (lay.Price - back.Price) / mid * 100
		}

		sig := domain.Signal{
			MarketID:      m.ExternalID,
			RunnerID:      runner.RunnerExternalID,
			MarketType:    m.MarketType,
			CompetitionID: compID,

			CurrentBack:    back.Price,
			CurrentLay:     lay.Price,
			MinutesToStart: start.Sub(now).Minutes(),
			TotalMatched:   runner.TotalMatched,
			SpreadPct:      spreadPct,

			ChangePct:     primaryChange,
			Direction:     directionFor(primaryChange),
			WindowMinutes: primaryWindowMins,
		}
		if hasScore {
			total := score.Result.TotalScore
			sig.Score = &total
		}
		out = append(out, sig)
	}
	return out, nil
}

// primaryChange returns the change percentage against the first lookback
// window (≈30 min prior) that actually has a snapshot, along with the
// window's nominal minute count.
func (e *Engine) primaryChange(ctx context.Context, marketID, runnerID string, currentBack float64, now time.Time) (float64, int, bool, error) {
	for _, window := range lookbackWindows {
		snap, ok, err := e.store.SnapshotWithinWindow(ctx, marketID, now.Add(-window))
		if err != nil {
			return 0, 0, false, err
		}
		if !ok {
			continue
		}
		runner, ok := snap.Ladder.ByExternalID(runnerID)
		if !ok {
			continue
		}
		oldBack, ok := runner.BestBack()
		if !ok || oldBack.Price == 0 {
			continue
		}
		change := (currentBack - oldBack.Price) / oldBack.Price * 100
		return change, int(window.Minutes()), true, nil
	}
	return 0, 0, false, nil
}

func directionFor(changePct float64) domain.PriceDirection {
	if changePct < 0 {
		return domain.DirectionSteaming
	}
	return domain.DirectionDrifting
}

func isHandicap(marketType string) bool {
	return marketType == "HANDICAP" || marketType == "ASIAN_HANDICAP"
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// createDecision writes a new PENDING ShadowDecision for a matched
// hypothesis/signal pair and bumps the hypothesis's decision counter
// (§4.9, I3).
func (e *Engine) createDecision(ctx context.Context, h domain.TradingHypothesis, sig domain.Signal) error {
	side := h.ResolveSide(sig)

	var scoreID string
	if score, ok, err := e.store.LatestScore(ctx, sig.MarketID); err != nil {
		return err
	} else if ok {
		scoreID = score.ID
	}

	decision := domain.ShadowDecision{
		ID:             decisionID(sig.MarketID, h.Name),
		MarketID:       sig.MarketID,
		RunnerID:       sig.RunnerID,
		Side:           side,
		ScoreID:        scoreID,
		HypothesisName: h.Name,
		DecidedAt:      time.Now().UTC(),
		MinutesToStart: sig.MinutesToStart,
		EntryBack:      sig.CurrentBack,
		EntryLay:       sig.CurrentLay,
		EntrySpread:    sig.SpreadPct,
		Stake:          e.baseStake,
		Niche:          sig.CompetitionID + "/" + sig.MarketType,
		CompetitionID:  sig.CompetitionID,
		Outcome:        domain.OutcomePending,
	}
	if err := e.store.InsertShadowDecision(ctx, decision); err != nil {
		return err
	}
	h.Decisions++
	now := time.Now().UTC()
	h.LastDecisionAt = &now
	return e.store.UpdateHypothesisCounters(ctx, h)
}

func decisionID(marketID, hypothesisName string) string {
	return marketID + ":" + hypothesisName
}
