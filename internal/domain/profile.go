package domain

import "time"

// TimeBucket is a coarse time-to-start band used to segment a market's
// pre-match life (§4.4).
type TimeBucket string

const (
	Bucket72hPlus TimeBucket = "72h+"
	Bucket24to72h TimeBucket = "24-72h"
	Bucket6to24h  TimeBucket = "6-24h"
	Bucket2to6h   TimeBucket = "2-6h"
	BucketUnder2h TimeBucket = "<2h"
	// BucketInPlay marks snapshots captured after scheduled-start; these are
	// discarded by the Profiler rather than bucketed (§9 open question:
	// whether they should later feed a separate in-play profile is out of
	// scope here).
	BucketInPlay TimeBucket = "inplay"
)

// BucketFor classifies a snapshot into a TimeBucket from the hours remaining
// between the event's scheduled start and the snapshot's captured-at instant.
func BucketFor(scheduledStart, capturedAt time.Time) TimeBucket {
	hours := scheduledStart.Sub(capturedAt).Hours()
	switch {
	case hours < 0:
		return BucketInPlay
	case hours >= 72:
		return Bucket72hPlus
	case hours >= 24:
		return Bucket24to72h
	case hours >= 6:
		return Bucket6to24h
	case hours >= 2:
		return Bucket2to6h
	default:
		return BucketUnder2h
	}
}

// MarketProfileDaily is the hourly roll-up of a market's snapshots for one
// calendar date and time bucket. Unique per (market, date, bucket); upserted
// with last-writer-wins semantics (§5).
type MarketProfileDaily struct {
	MarketID string
	Date     time.Time // truncated to day, UTC
	Bucket   TimeBucket

	MeanSpreadTicks    float64
	StdDevSpreadTicks  float64
	MeanBestDepth      float64
	MeanDepth5Ticks    float64
	TotalMatchedVolume float64 // max of per-snapshot total-matched in the bucket
	UpdateRatePerMin   float64
	PriceVolatility    float64
	MeanMidPrice       float64
	SnapshotCount      int
}

// ToMetrics projects the profile row into the pure ProfileMetrics input
// consumed by the Scorer (C5).
func (p MarketProfileDaily) ToMetrics() ProfileMetrics {
	return ProfileMetrics{
		SpreadTicks:   p.MeanSpreadTicks,
		Volatility:    p.PriceVolatility,
		UpdateRate:    p.UpdateRatePerMin,
		Depth:         p.MeanDepth5Ticks,
		Volume:        p.TotalMatchedVolume,
		MeanPrice:     p.MeanMidPrice,
		SnapshotCount: p.SnapshotCount,
	}
}
