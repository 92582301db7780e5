package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

func (s *Store) UpsertProfile(ctx context.Context, p domain.MarketProfileDaily) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_profiles_daily
			(market_id, date, bucket, mean_spread_ticks, stddev_spread_ticks,
			 mean_best_depth, mean_depth_5_ticks, total_matched_volume,
			 update_rate_per_min, price_volatility, mean_mid_price, snapshot_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(market_id, date, bucket) DO UPDATE SET
			mean_spread_ticks    = excluded.mean_spread_ticks,
			stddev_spread_ticks  = excluded.stddev_spread_ticks,
			mean_best_depth      = excluded.mean_best_depth,
			mean_depth_5_ticks   = excluded.mean_depth_5_ticks,
			total_matched_volume = excluded.total_matched_volume,
			update_rate_per_min  = excluded.update_rate_per_min,
			price_volatility     = excluded.price_volatility,
			mean_mid_price       = excluded.mean_mid_price,
			snapshot_count       = excluded.snapshot_count
	`, p.MarketID, dateOnly(p.Date), string(p.Bucket), p.MeanSpreadTicks, p.StdDevSpreadTicks,
		p.MeanBestDepth, p.MeanDepth5Ticks, p.TotalMatchedVolume, p.UpdateRatePerMin,
		p.PriceVolatility, p.MeanMidPrice, p.SnapshotCount)
	if err != nil {
		return fmt.Errorf("storage.UpsertProfile: %w", err)
	}
	return nil
}

func (s *Store) ListProfilesForDate(ctx context.Context, date time.Time) ([]domain.MarketProfileDaily, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_id, date, bucket, mean_spread_ticks, stddev_spread_ticks,
		       mean_best_depth, mean_depth_5_ticks, total_matched_volume,
		       update_rate_per_min, price_volatility, mean_mid_price, snapshot_count
		FROM market_profiles_daily WHERE date = ?
	`, dateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("storage.ListProfilesForDate: %w", err)
	}
	defer rows.Close()

	var out []domain.MarketProfileDaily
	for rows.Next() {
		var p domain.MarketProfileDaily
		var bucket string
		if err := rows.Scan(&p.MarketID, &p.Date, &bucket, &p.MeanSpreadTicks, &p.StdDevSpreadTicks,
			&p.MeanBestDepth, &p.MeanDepth5Ticks, &p.TotalMatchedVolume, &p.UpdateRatePerMin,
			&p.PriceVolatility, &p.MeanMidPrice, &p.SnapshotCount); err != nil {
			return nil, fmt.Errorf("storage.ListProfilesForDate: scan: %w", err)
		}
		p.Bucket = domain.TimeBucket(bucket)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) MarketsWithSnapshotsOnDate(ctx context.Context, date time.Time) ([]string, error) {
	start := dateOnly(date)
	end := start.Add(24 * time.Hour)
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT market_id FROM market_snapshots WHERE captured_at >= ? AND captured_at < ?
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("storage.MarketsWithSnapshotsOnDate: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage.MarketsWithSnapshotsOnDate: scan: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
