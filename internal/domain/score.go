package domain

import "time"

// ProfileMetrics is the pure input to the Scorer (C5): a projection of a
// MarketProfileDaily row into the raw fields the scoring functions consume.
type ProfileMetrics struct {
	SpreadTicks   float64
	Volatility    float64
	UpdateRate    float64
	Depth         float64
	Volume        float64
	MeanPrice     float64
	SnapshotCount int
}

// OddsBand classifies a market by its mean price (§4.5).
type OddsBand string

const (
	OddsBandHeavyFav  OddsBand = "Heavy Fav"
	OddsBandFavourite OddsBand = "Favourite"
	OddsBandEven      OddsBand = "Even"
	OddsBandUnderdog  OddsBand = "Underdog"
	OddsBandLongshot  OddsBand = "Longshot"
)

// ClassifyOddsBand buckets a mean price into one of the five odds bands.
func ClassifyOddsBand(meanPrice float64) OddsBand {
	switch {
	case meanPrice <= 1.50:
		return OddsBandHeavyFav
	case meanPrice <= 2.00:
		return OddsBandFavourite
	case meanPrice <= 3.00:
		return OddsBandEven
	case meanPrice <= 5.00:
		return OddsBandUnderdog
	default:
		return OddsBandLongshot
	}
}

// ScoreResult is the pure output of the Scorer: a bounded total plus its
// five weighted components and any guards that zeroed it.
type ScoreResult struct {
	TotalScore      float64
	SpreadScore     float64
	VolatilityScore float64
	UpdateScore     float64
	DepthScore      float64
	VolumePenalty   float64
	GuardsFailed    []string
}

// ConfigVersion is an immutable snapshot of the scoring configuration active
// when a batch of scores was produced, kept for reproducibility (I2).
type ConfigVersion struct {
	ID        string
	CreatedAt time.Time
	Weights   ScoringWeights
	Norm      ScoringNormalisation
	Guards    ScoringGuards
}

// ScoringWeights are the per-component weights of the combination formula
// (§4.5). VolumePenalty is subtracted rather than added. In the defaults the
// four positive-term weights sum to 0.85 and all five to 1.00; no sum is
// enforced.
type ScoringWeights struct {
	Spread        float64
	Volatility    float64
	UpdateRate    float64
	Depth         float64
	VolumePenalty float64
}

// ScoringNormalisation holds the per-function shape parameters.
type ScoringNormalisation struct {
	Spread     SpreadNorm
	Volatility VolatilityNorm
	UpdateRate UpdateRateNorm
	Depth      DepthNorm
	Volume     VolumeNorm
}

type SpreadNorm struct {
	MinTicks     float64
	SweetSpotMax float64
	MaxTicks     float64
}

type VolatilityNorm struct {
	Target float64
	Max    float64
}

type UpdateRateNorm struct {
	Min float64
	Max float64
}

type DepthNorm struct {
	Min     float64
	Optimal float64
	Max     float64
}

type VolumeNorm struct {
	Threshold float64
	Max       float64
	HardCap   float64
}

// ScoringGuards are the hard pass/fail thresholds checked before any
// normalisation function runs (§4.5).
type ScoringGuards struct {
	AbsoluteMinDepth        float64
	AbsoluteMaxSpreadTicks  float64
	MinSnapshotsRequired    int
}

// DefaultConfigVersion mirrors the defaults documented in spec §4.5 and the
// original scoring engine's fallback configuration.
func DefaultConfigVersion() ConfigVersion {
	return ConfigVersion{
		Weights: ScoringWeights{
			Spread:        0.25,
			Volatility:    0.25,
			UpdateRate:    0.15,
			Depth:         0.20,
			VolumePenalty: 0.15,
		},
		Norm: ScoringNormalisation{
			Spread:     SpreadNorm{MinTicks: 2, SweetSpotMax: 8, MaxTicks: 12},
			Volatility: VolatilityNorm{Target: 0.04, Max: 0.12},
			UpdateRate: UpdateRateNorm{Min: 0.2, Max: 3.0},
			Depth:      DepthNorm{Min: 150, Optimal: 1500, Max: 8000},
			Volume:     VolumeNorm{Threshold: 30000, Max: 200000, HardCap: 500000},
		},
		Guards: ScoringGuards{
			AbsoluteMinDepth:       100,
			AbsoluteMaxSpreadTicks: 20,
			MinSnapshotsRequired:   5,
		},
	}
}

// ExploitabilityScore is the append-only scored row for a market at an
// instant (§3). Never mutated; the latest score per market is the one with
// the maximum ScoredAt (§5).
type ExploitabilityScore struct {
	ID            string
	MarketID      string
	ScoredAt      time.Time
	Bucket        TimeBucket
	OddsBand      OddsBand
	Result        ScoreResult
	ConfigVersion string
}
