// Package phase implements the Phase Gate (C8): a pure readiness check,
// run hourly, that decides whether the system has observed enough
// settled history to activate paper trading (§4.8).
package phase

import (
	"context"
	"fmt"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

// highScoreThreshold is the final-score cutoff a market must clear to
// count toward the Phase Gate's "markets with final-score ≥ 30" signal
// (§4.8). Distinct from the 40/55/70 buckets used by the Competition
// Stats Aggregator.
const highScoreThreshold = 30

type phaseStore interface {
	CountClosingData(ctx context.Context) (int, error)
	CountSettledClosingData(ctx context.Context) (int, error)
	CountMarketsWithScoreAbove(ctx context.Context, threshold float64) (int, error)
	DaysOfClosingDataObserved(ctx context.Context) (int, error)
}

// Gate evaluates the current Phase from stored readiness signals.
type Gate struct {
	store              phaseStore
	thresholds         domain.PhaseThresholds
	shadowEnabled      bool
	autoActivatePhase2 bool
}

// New builds a Gate. The thresholds and enablement flags are taken from
// config.ShadowConfig at startup.
func New(store phaseStore, thresholds domain.PhaseThresholds, shadowEnabled, autoActivatePhase2 bool) *Gate {
	return &Gate{
		store:              store,
		thresholds:         thresholds,
		shadowEnabled:      shadowEnabled,
		autoActivatePhase2: autoActivatePhase2,
	}
}

// Evaluate reads the four readiness signals and computes the current
// Phase.
func (g *Gate) Evaluate(ctx context.Context) (domain.Phase, error) {
	closingRows, err := g.store.CountClosingData(ctx)
	if err != nil {
		return "", fmt.Errorf("phase.Evaluate: closing data count: %w", err)
	}
	settledRows, err := g.store.CountSettledClosingData(ctx)
	if err != nil {
		return "", fmt.Errorf("phase.Evaluate: settled count: %w", err)
	}
	highScore, err := g.store.CountMarketsWithScoreAbove(ctx, highScoreThreshold)
	if err != nil {
		return "", fmt.Errorf("phase.Evaluate: high score count: %w", err)
	}
	days, err := g.store.DaysOfClosingDataObserved(ctx)
	if err != nil {
		return "", fmt.Errorf("phase.Evaluate: days observed: %w", err)
	}

	signals := domain.PhaseSignals{
		ClosingDataRows:        closingRows,
		SettledClosingDataRows: settledRows,
		HighScoreMarkets:       highScore,
		DaysObserved:           days,
	}
	return domain.ComputePhase(signals, g.thresholds, g.shadowEnabled, g.autoActivatePhase2), nil
}
