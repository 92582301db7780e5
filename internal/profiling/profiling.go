// Package profiling implements the Profiler (C4): it rolls up a market's
// raw snapshots for the current day into one MarketProfileDaily row per
// (market, time bucket), computing the mean/stddev/volatility/update-rate
// aggregates the Scorer consumes, using manual mean/stddev rather than a
// stats library.
package profiling

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

type profilingStore interface {
	ListActiveMarkets(ctx context.Context) ([]domain.Market, error)
	MarketsWithSnapshotsOnDate(ctx context.Context, date time.Time) ([]string, error)
	ListSnapshotsForDate(ctx context.Context, marketID string, date time.Time) ([]domain.MarketSnapshot, error)
	UpsertProfile(ctx context.Context, p domain.MarketProfileDaily) error
}

// eventLookup resolves a market's event scheduled start, needed to bucket
// each snapshot by time-to-start (§4.4).
type eventLookup interface {
	ScheduledStartForMarket(ctx context.Context, marketID string) (time.Time, bool, error)
}

// Profiler runs one aggregation pass per invocation.
type Profiler struct {
	store  profilingStore
	events eventLookup
}

// New builds a Profiler.
func New(store profilingStore, events eventLookup) *Profiler {
	return &Profiler{store: store, events: events}
}

// Run aggregates today's snapshots for every market that has at least one,
// grouped by time bucket, and upserts the resulting MarketProfileDaily
// rows. Returns the number of profile rows written.
func (p *Profiler) Run(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	marketIDs, err := p.store.MarketsWithSnapshotsOnDate(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("profiling.Run: list markets with snapshots: %w", err)
	}

	written := 0
	for _, marketID := range marketIDs {
		n, err := p.profileMarket(ctx, marketID, now)
		written += n
		if err != nil {
			return written, fmt.Errorf("profiling.Run: market %s: %w", marketID, err)
		}
	}
	return written, nil
}

func (p *Profiler) profileMarket(ctx context.Context, marketID string, date time.Time) (int, error) {
	scheduledStart, ok, err := p.events.ScheduledStartForMarket(ctx, marketID)
	if err != nil {
		return 0, fmt.Errorf("scheduled start lookup: %w", err)
	}
	if !ok {
		return 0, nil // orphaned market (event row missing); nothing to bucket against
	}

	snaps, err := p.store.ListSnapshotsForDate(ctx, marketID, date)
	if err != nil {
		return 0, fmt.Errorf("list snapshots: %w", err)
	}

	byBucket := make(map[domain.TimeBucket][]domain.MarketSnapshot)
	for _, s := range snaps {
		bucket := domain.BucketFor(scheduledStart, s.CapturedAt)
		if bucket == domain.BucketInPlay {
			continue // in-play snapshots are discarded by the Profiler (§4.4)
		}
		byBucket[bucket] = append(byBucket[bucket], s)
	}

	written := 0
	for bucket, group := range byBucket {
		if len(group) < 2 {
			continue // §4.4: only buckets with >= 2 snapshots get a profile row
		}
		profile := aggregate(marketID, date, bucket, group)
		if err := p.store.UpsertProfile(ctx, profile); err != nil {
			return written, fmt.Errorf("upsert profile %s/%s: %w", marketID, bucket, err)
		}
		written++
	}
	return written, nil
}

// aggregate computes the mean/stddev/volatility/update-rate fields for one
// bucket's snapshots (§4.4).
func aggregate(marketID string, date time.Time, bucket domain.TimeBucket, snaps []domain.MarketSnapshot) domain.MarketProfileDaily {
	n := len(snaps)
	profile := domain.MarketProfileDaily{
		MarketID:      marketID,
		Date:          time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Bucket:        bucket,
		SnapshotCount: n,
	}
	if n < 2 {
		return profile
	}

	spreads := make([]float64, n)
	mids := make([]float64, n)
	var sumSpread, sumDepth5, sumBestDepth, sumMid float64
	var maxMatched float64

	for i, s := range snaps {
		spreads[i] = s.SpreadTicks
		mids[i] = s.MeanMidPrice()
		sumSpread += s.SpreadTicks
		sumDepth5 += s.Depth5Ticks
		sumBestDepth += s.BestDepth
		sumMid += mids[i]
		if s.TotalMatched > maxMatched {
			maxMatched = s.TotalMatched
		}
	}

	profile.MeanSpreadTicks = sumSpread / float64(n)
	profile.StdDevSpreadTicks = stddev(spreads, profile.MeanSpreadTicks)
	profile.MeanDepth5Ticks = sumDepth5 / float64(n)
	profile.MeanBestDepth = sumBestDepth / float64(n)
	profile.MeanMidPrice = sumMid / float64(n)
	profile.TotalMatchedVolume = maxMatched

	meanMid := profile.MeanMidPrice
	if meanMid > 0 {
		profile.PriceVolatility = stddev(mids, meanMid) / meanMid
	}

	windowMinutes := snaps[n-1].CapturedAt.Sub(snaps[0].CapturedAt).Minutes()
	profile.UpdateRatePerMin = float64(n) / math.Max(windowMinutes, 1)

	return profile
}

func stddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
