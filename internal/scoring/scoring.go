// Package scoring implements the deterministic, versioned exploitability
// scoring function (C5): it turns a profile's raw metrics into a bounded
// 0-100 score with a five-component breakdown and guard flags.
//
// Design principle carried over from the upstream scoring engine: high
// matched volume means an efficient market, which is a PENALTY here, not a
// bonus — this system hunts inefficiency, not liquidity.
package scoring

import (
	"math"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

// Engine evaluates ProfileMetrics against a single, immutable ConfigVersion.
type Engine struct {
	cfg domain.ConfigVersion
}

// New builds a scoring Engine bound to the given config version.
func New(cfg domain.ConfigVersion) *Engine {
	return &Engine{cfg: cfg}
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// fSpread is the trapezoidal spread-in-ticks scoring function (§4.5): too
// tight is efficient (penalised), too wide is illiquid (penalised), the
// sweet spot sits between min_ticks and sweet_spot_max.
func fSpread(spreadTicks float64, n domain.SpreadNorm) float64 {
	switch {
	case spreadTicks < n.MinTicks:
		if n.MinTicks == 0 {
			return 0
		}
		return spreadTicks / n.MinTicks * 0.3
	case spreadTicks <= n.SweetSpotMax:
		rangeSize := n.SweetSpotMax - n.MinTicks
		if rangeSize <= 0 {
			return 1.0
		}
		position := spreadTicks - n.MinTicks
		return 0.3 + (position/rangeSize)*0.7
	default:
		excess := spreadTicks - n.SweetSpotMax
		maxExcess := n.MaxTicks - n.SweetSpotMax
		if maxExcess <= 0 {
			return 0
		}
		return math.Max(0, 1.0-(excess/maxExcess))
	}
}

// fVolatility is the bell-curve volatility scoring function (§4.5): too low
// means no movement (no opportunity), too high means chaos (risk).
func fVolatility(volatility float64, n domain.VolatilityNorm) float64 {
	if volatility <= 0 {
		return 0
	}
	if volatility < n.Target {
		if n.Target == 0 {
			return 0
		}
		return volatility / n.Target
	}
	excess := volatility - n.Target
	maxExcess := n.Max - n.Target
	if maxExcess <= 0 {
		return 0
	}
	return math.Max(0, 1.0-(excess/maxExcess))
}

// fUpdate is the log-scale diminishing-returns update-rate scoring function
// (§4.5): more activity is better, with diminishing returns past the target.
func fUpdate(updateRate float64, n domain.UpdateRateNorm) float64 {
	if updateRate <= 0 {
		return 0
	}
	if updateRate < n.Min {
		if n.Min == 0 {
			return 0
		}
		return updateRate / n.Min * 0.3
	}
	return clamp(math.Log(1+updateRate)/math.Log(1+n.Max), 0, 1)
}

// fDepth is the linear-rise-then-decay depth scoring function (§4.5): below
// the minimum is unusable, the optimum sits in the middle, very deep books
// suggest an efficient market and decay slightly toward 0.7.
func fDepth(depth float64, n domain.DepthNorm) float64 {
	if depth < n.Min {
		return 0
	}
	if depth <= n.Optimal {
		rangeSize := n.Optimal - n.Min
		if rangeSize <= 0 {
			return 1.0
		}
		return (depth - n.Min) / rangeSize
	}
	excess := depth - n.Optimal
	maxExcess := n.Max - n.Optimal
	if maxExcess <= 0 {
		return 1.0
	}
	return math.Max(0.7, 1.0-(excess/maxExcess)*0.3)
}

// fVolumePenalty is the penalty function for matched volume (§4.5): high
// volume means an efficient market, which is bad for this system.
func fVolumePenalty(volume float64, n domain.VolumeNorm) float64 {
	if volume <= n.Threshold {
		return 0
	}
	if volume >= n.HardCap {
		return 1.0
	}
	maxExcess := n.Max - n.Threshold
	if maxExcess <= 0 {
		return 1.0
	}
	excess := volume - n.Threshold
	return clamp(excess/maxExcess, 0, 1)
}

// checkGuards returns the list of failed guard names, empty if all passed
// (§4.5). Guard names are stable strings used for storage and reporting.
func checkGuards(m domain.ProfileMetrics, g domain.ScoringGuards, vol domain.VolumeNorm) []string {
	var failed []string
	if m.Depth < g.AbsoluteMinDepth {
		failed = append(failed, "depth_below_min")
	}
	if m.SpreadTicks > g.AbsoluteMaxSpreadTicks {
		failed = append(failed, "spread_above_max")
	}
	if m.SnapshotCount < g.MinSnapshotsRequired {
		failed = append(failed, "snapshots_below_min")
	}
	if m.Volume > vol.HardCap {
		failed = append(failed, "volume_above_hard_cap")
	}
	return failed
}

// Score computes the full ScoreResult for a ProfileMetrics row (§4.5). Pure:
// identical input under the same ConfigVersion always yields identical
// output (P4).
func (e *Engine) Score(m domain.ProfileMetrics) domain.ScoreResult {
	guardsFailed := checkGuards(m, e.cfg.Guards, e.cfg.Norm.Volume)
	if len(guardsFailed) > 0 {
		return domain.ScoreResult{GuardsFailed: guardsFailed}
	}

	spreadNorm := fSpread(m.SpreadTicks, e.cfg.Norm.Spread)
	volatilityNorm := fVolatility(m.Volatility, e.cfg.Norm.Volatility)
	updateNorm := fUpdate(m.UpdateRate, e.cfg.Norm.UpdateRate)
	depthNorm := fDepth(m.Depth, e.cfg.Norm.Depth)
	volumePenaltyNorm := fVolumePenalty(m.Volume, e.cfg.Norm.Volume)

	w := e.cfg.Weights
	raw := w.Spread*spreadNorm +
		w.Volatility*volatilityNorm +
		w.UpdateRate*updateNorm +
		w.Depth*depthNorm -
		w.VolumePenalty*volumePenaltyNorm

	total := clamp(raw*100, 0, 100)

	return domain.ScoreResult{
		TotalScore:      round2(total),
		SpreadScore:     round2(spreadNorm * 100),
		VolatilityScore: round2(volatilityNorm * 100),
		UpdateScore:     round2(updateNorm * 100),
		DepthScore:      round2(depthNorm * 100),
		VolumePenalty:   round2(volumePenaltyNorm * 100),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
