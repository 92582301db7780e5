package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

func (s *Store) ListActiveMarkets(ctx context.Context) ([]domain.Market, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT external_id, event_id, name, market_type, total_matched, status, in_play
		FROM markets WHERE status = ? AND in_play = 0
	`, string(domain.MarketOpen))
	if err != nil {
		return nil, fmt.Errorf("storage.ListActiveMarkets: %w", err)
	}
	defer rows.Close()

	var out []domain.Market
	for rows.Next() {
		var m domain.Market
		var status string
		var inPlay int
		if err := rows.Scan(&m.ExternalID, &m.EventID, &m.Name, &m.MarketType, &m.TotalMatched, &status, &inPlay); err != nil {
			return nil, fmt.Errorf("storage.ListActiveMarkets: scan: %w", err)
		}
		m.Status = domain.MarketStatus(status)
		m.InPlay = intToBool(int64(inPlay))
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMarketStatus(ctx context.Context, externalID string, status domain.MarketStatus, inPlay bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE markets SET status = ?, in_play = ? WHERE external_id = ?`,
		string(status), boolToInt(inPlay), externalID)
	if err != nil {
		return fmt.Errorf("storage.UpdateMarketStatus: %w", err)
	}
	return nil
}

func (s *Store) CloseMarket(ctx context.Context, externalID string) error {
	return s.UpdateMarketStatus(ctx, externalID, domain.MarketClosed, false)
}

func (s *Store) InsertSnapshot(ctx context.Context, snap domain.MarketSnapshot) error {
	ladderJSON, err := encodeLadder(snap.Ladder)
	if err != nil {
		return fmt.Errorf("storage.InsertSnapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO market_snapshots
			(market_id, captured_at, total_matched, total_available, overround,
			 spread_ticks, best_depth, depth_5_ticks, ladder_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.MarketID, snap.CapturedAt.UTC(), snap.TotalMatched, snap.TotalAvailable,
		snap.Overround, snap.SpreadTicks, snap.BestDepth, snap.Depth5Ticks, ladderJSON)
	if err != nil {
		return fmt.Errorf("storage.InsertSnapshot: %w", err)
	}
	return nil
}

func (s *Store) scanSnapshot(rows interface {
	Scan(dest ...any) error
}) (domain.MarketSnapshot, error) {
	var snap domain.MarketSnapshot
	var ladderJSON string
	if err := rows.Scan(&snap.MarketID, &snap.CapturedAt, &snap.TotalMatched, &snap.TotalAvailable,
		&snap.Overround, &snap.SpreadTicks, &snap.BestDepth, &snap.Depth5Ticks, &ladderJSON); err != nil {
		return domain.MarketSnapshot{}, err
	}
	snap.CapturedAt = snap.CapturedAt.UTC()
	ladder, err := decodeLadder(ladderJSON)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	snap.Ladder = ladder
	return snap, nil
}

const snapshotColumns = `market_id, captured_at, total_matched, total_available, overround, spread_ticks, best_depth, depth_5_ticks, ladder_json`

func (s *Store) ListSnapshotsForDate(ctx context.Context, marketID string, date time.Time) ([]domain.MarketSnapshot, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM market_snapshots
		WHERE market_id = ? AND captured_at >= ? AND captured_at < ?
		ORDER BY captured_at ASC
	`, marketID, start, end)
	if err != nil {
		return nil, fmt.Errorf("storage.ListSnapshotsForDate: %w", err)
	}
	defer rows.Close()

	var out []domain.MarketSnapshot
	for rows.Next() {
		snap, err := s.scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListSnapshotsForDate: scan: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *Store) LatestSnapshot(ctx context.Context, marketID string) (domain.MarketSnapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM market_snapshots WHERE market_id = ? ORDER BY captured_at DESC LIMIT 1
	`, marketID)
	snap, err := s.scanSnapshot(row)
	if err == sql.ErrNoRows {
		return domain.MarketSnapshot{}, false, nil
	}
	if err != nil {
		return domain.MarketSnapshot{}, false, fmt.Errorf("storage.LatestSnapshot: %w", err)
	}
	return snap, true, nil
}

// SnapshotWithinWindow returns the most recent snapshot captured at or
// before the given instant — used by the Hypothesis Engine to sample a
// market's state at a fixed lookback window (§4.9).
func (s *Store) SnapshotWithinWindow(ctx context.Context, marketID string, before time.Time) (domain.MarketSnapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM market_snapshots WHERE market_id = ? AND captured_at <= ?
		ORDER BY captured_at DESC LIMIT 1
	`, marketID, before.UTC())
	snap, err := s.scanSnapshot(row)
	if err == sql.ErrNoRows {
		return domain.MarketSnapshot{}, false, nil
	}
	if err != nil {
		return domain.MarketSnapshot{}, false, fmt.Errorf("storage.SnapshotWithinWindow: %w", err)
	}
	return snap, true, nil
}

// CompetitionIDForMarket resolves a market's event's competition id, joining
// through the event row. Used by the Hypothesis Engine to evaluate a
// hypothesis's competition_filter (§4.9).
func (s *Store) CompetitionIDForMarket(ctx context.Context, marketID string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT e.competition_id FROM markets m
		JOIN events e ON e.external_id = m.event_id
		WHERE m.external_id = ?
	`, marketID)
	var id string
	if err := row.Scan(&id); err == sql.ErrNoRows {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("storage.CompetitionIDForMarket: %w", err)
	}
	return id, true, nil
}

// ScheduledStartForMarket resolves a market's event scheduled-start,
// joining through its event row. Used by the Profiler to bucket snapshots
// by time-to-start (§4.4).
func (s *Store) ScheduledStartForMarket(ctx context.Context, marketID string) (time.Time, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT e.scheduled_start FROM markets m
		JOIN events e ON e.external_id = m.event_id
		WHERE m.external_id = ?
	`, marketID)
	var t time.Time
	if err := row.Scan(&t); err == sql.ErrNoRows {
		return time.Time{}, false, nil
	} else if err != nil {
		return time.Time{}, false, fmt.Errorf("storage.ScheduledStartForMarket: %w", err)
	}
	return t.UTC(), true, nil
}
