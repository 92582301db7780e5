package scoring

import (
	"time"

	"github.com/ridgeradar/ridgeradar/internal/config"
	"github.com/ridgeradar/ridgeradar/internal/domain"
)

// FromConfig builds the active domain.ConfigVersion from loaded
// configuration, timestamped at the instant it's built (I2: every Score
// references the ConfigVersion active at its scored-at instant).
func FromConfig(id string, sc config.ScoringConfig, now time.Time) domain.ConfigVersion {
	return domain.ConfigVersion{
		ID:        id,
		CreatedAt: now,
		Weights: domain.ScoringWeights{
			Spread:        sc.Weights.Spread,
			Volatility:    sc.Weights.Volatility,
			UpdateRate:    sc.Weights.UpdateRate,
			Depth:         sc.Weights.Depth,
			VolumePenalty: sc.Weights.VolumePenalty,
		},
		Norm: domain.ScoringNormalisation{
			Spread: domain.SpreadNorm{
				MinTicks:     sc.Normalisation.Spread.MinTicks,
				SweetSpotMax: sc.Normalisation.Spread.SweetSpotMax,
				MaxTicks:     sc.Normalisation.Spread.MaxTicks,
			},
			Volatility: domain.VolatilityNorm{
				Target: sc.Normalisation.Volatility.Target,
				Max:    sc.Normalisation.Volatility.Max,
			},
			UpdateRate: domain.UpdateRateNorm{
				Min: sc.Normalisation.UpdateRate.Min,
				Max: sc.Normalisation.UpdateRate.Max,
			},
			Depth: domain.DepthNorm{
				Min:     sc.Normalisation.Depth.Min,
				Optimal: sc.Normalisation.Depth.Optimal,
				Max:     sc.Normalisation.Depth.Max,
			},
			Volume: domain.VolumeNorm{
				Threshold: sc.Normalisation.Volume.Threshold,
				Max:       sc.Normalisation.Volume.Max,
				HardCap:   sc.Normalisation.Volume.HardCap,
			},
		},
		Guards: domain.ScoringGuards{
			AbsoluteMinDepth:       sc.Guards.AbsoluteMinDepth,
			AbsoluteMaxSpreadTicks: sc.Guards.AbsoluteMaxSpreadTicks,
			MinSnapshotsRequired:   sc.Guards.MinSnapshotsRequired,
		},
	}
}
