package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

func newTestEngine() *Engine {
	return New(domain.DefaultConfigVersion())
}

// --- End-to-end scenarios (spec §8) ---

func TestScore_HighVolumeEfficientMarketScoresLow(t *testing.T) {
	e := newTestEngine()
	result := e.Score(domain.ProfileMetrics{
		SpreadTicks: 1, Volatility: 0.015, UpdateRate: 4.0,
		Depth: 12000, Volume: 450000, SnapshotCount: 100,
	})
	assert.Less(t, result.TotalScore, 40.0)
	assert.GreaterOrEqual(t, result.VolumePenalty, 70.0)
}

func TestScore_SecondaryLeagueSweetSpotScoresHigh(t *testing.T) {
	e := newTestEngine()
	result := e.Score(domain.ProfileMetrics{
		SpreadTicks: 5, Volatility: 0.045, UpdateRate: 0.8,
		Depth: 620, Volume: 18000, SnapshotCount: 50,
	})
	assert.Greater(t, result.TotalScore, 50.0)
	assert.Empty(t, result.GuardsFailed)
}

func TestScore_IlliquidMarketGuardFails(t *testing.T) {
	e := newTestEngine()
	result := e.Score(domain.ProfileMetrics{
		SpreadTicks: 8, Volatility: 0.09, UpdateRate: 0.05,
		Depth: 50, Volume: 1000, SnapshotCount: 10,
	})
	assert.Equal(t, 0.0, result.TotalScore)
	assert.Contains(t, result.GuardsFailed, "depth_below_min")
}

// --- Guard invariants (P2, P3) ---

func TestScore_SnapshotCountBelowMinimumZeroesScore(t *testing.T) {
	e := newTestEngine()
	result := e.Score(domain.ProfileMetrics{
		SpreadTicks: 5, Volatility: 0.045, UpdateRate: 0.8,
		Depth: 620, Volume: 18000, SnapshotCount: 4,
	})
	assert.Equal(t, 0.0, result.TotalScore)
	assert.NotEmpty(t, result.GuardsFailed)
}

func TestScore_VolumeHardCapZeroesScore(t *testing.T) {
	e := newTestEngine()
	result := e.Score(domain.ProfileMetrics{
		SpreadTicks: 5, Volatility: 0.045, UpdateRate: 0.8,
		Depth: 620, Volume: 600000, SnapshotCount: 50,
	})
	assert.Equal(t, 0.0, result.TotalScore)
	assert.Contains(t, result.GuardsFailed, "volume_above_hard_cap")
}

// --- P1: bounded output ---

func TestScore_AlwaysBounded(t *testing.T) {
	e := newTestEngine()
	inputs := []domain.ProfileMetrics{
		{SpreadTicks: 0, Volatility: 0, UpdateRate: 0, Depth: 0, Volume: 0, SnapshotCount: 0},
		{SpreadTicks: 1000, Volatility: 5, UpdateRate: 1000, Depth: 100000, Volume: 1000000, SnapshotCount: 1000},
		{SpreadTicks: 6, Volatility: 0.04, UpdateRate: 1.5, Depth: 1500, Volume: 10000, SnapshotCount: 30},
	}
	for _, in := range inputs {
		result := e.Score(in)
		assert.GreaterOrEqual(t, result.TotalScore, 0.0)
		assert.LessOrEqual(t, result.TotalScore, 100.0)
		for _, c := range []float64{result.SpreadScore, result.VolatilityScore, result.UpdateScore, result.DepthScore, result.VolumePenalty} {
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 100.0)
		}
	}
}

// --- P4: purity ---

func TestScore_IsPure(t *testing.T) {
	e := newTestEngine()
	m := domain.ProfileMetrics{SpreadTicks: 5, Volatility: 0.045, UpdateRate: 0.8, Depth: 620, Volume: 18000, SnapshotCount: 50}
	first := e.Score(m)
	second := e.Score(m)
	assert.Equal(t, first, second)
}

func TestFSpread_SweetSpotPeaksAtOne(t *testing.T) {
	n := domain.DefaultConfigVersion().Norm.Spread
	assert.InDelta(t, 1.0, fSpread(n.SweetSpotMax, n), 0.001)
}

func TestFVolumePenalty_BelowThresholdIsZero(t *testing.T) {
	n := domain.DefaultConfigVersion().Norm.Volume
	assert.Equal(t, 0.0, fVolumePenalty(n.Threshold-1, n))
}

func TestFVolumePenalty_AtHardCapIsOne(t *testing.T) {
	n := domain.DefaultConfigVersion().Norm.Volume
	assert.Equal(t, 1.0, fVolumePenalty(n.HardCap, n))
}
