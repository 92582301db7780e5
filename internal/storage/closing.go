package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

func (s *Store) UpsertClosingData(ctx context.Context, c domain.MarketClosingData) error {
	var winner any
	var settlementVoid any
	var settlementSettledAt any
	if c.Settlement != nil {
		winner = c.Settlement.WinnerRunnerID
		settlementVoid = boolToInt(c.Settlement.Void)
		settlementSettledAt = c.Settlement.SettledAt.UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_closing_data
			(market_id, snapshot_captured_at, score_id, minutes_to_start,
			 winner_runner_id, settlement_void, settlement_settled_at, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(market_id) DO UPDATE SET
			snapshot_captured_at  = excluded.snapshot_captured_at,
			score_id              = excluded.score_id,
			minutes_to_start      = excluded.minutes_to_start,
			winner_runner_id      = excluded.winner_runner_id,
			settlement_void       = excluded.settlement_void,
			settlement_settled_at = excluded.settlement_settled_at,
			settled_at            = excluded.settled_at
	`, c.MarketID, c.Odds.SnapshotCapturedAt.UTC(), c.Odds.ScoreID, c.Odds.MinutesToStart,
		winner, settlementVoid, settlementSettledAt, nullableTime(c.SettledAt))
	if err != nil {
		return fmt.Errorf("storage.UpsertClosingData: %w", err)
	}
	return nil
}

func scanClosingData(row interface{ Scan(dest ...any) error }) (domain.MarketClosingData, error) {
	var c domain.MarketClosingData
	var winner sql.NullString
	var settlementVoid sql.NullInt64
	var settlementSettledAt, settledAt sql.NullTime
	if err := row.Scan(&c.MarketID, &c.Odds.SnapshotCapturedAt, &c.Odds.ScoreID, &c.Odds.MinutesToStart,
		&winner, &settlementVoid, &settlementSettledAt, &settledAt); err != nil {
		return domain.MarketClosingData{}, err
	}
	c.Odds.SnapshotCapturedAt = c.Odds.SnapshotCapturedAt.UTC()
	if winner.Valid {
		c.Settlement = &domain.SettlementOutcome{
			WinnerRunnerID: winner.String,
			Void:           settlementVoid.Valid && settlementVoid.Int64 != 0,
		}
	}
	if settledAt.Valid {
		t := settledAt.Time.UTC()
		c.SettledAt = &t
		if c.Settlement != nil {
			c.Settlement.SettledAt = t
		}
	}
	return c, nil
}

const closingColumns = `market_id, snapshot_captured_at, score_id, minutes_to_start, winner_runner_id, settlement_void, settlement_settled_at, settled_at`

func (s *Store) GetClosingData(ctx context.Context, marketID string) (domain.MarketClosingData, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+closingColumns+` FROM market_closing_data WHERE market_id = ?`, marketID)
	c, err := scanClosingData(row)
	if err == sql.ErrNoRows {
		return domain.MarketClosingData{}, false, nil
	}
	if err != nil {
		return domain.MarketClosingData{}, false, fmt.Errorf("storage.GetClosingData: %w", err)
	}
	return c, true, nil
}

func (s *Store) UnsettledClosingData(ctx context.Context) ([]domain.MarketClosingData, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+closingColumns+` FROM market_closing_data WHERE settled_at IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("storage.UnsettledClosingData: %w", err)
	}
	defer rows.Close()

	var out []domain.MarketClosingData
	for rows.Next() {
		c, err := scanClosingData(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.UnsettledClosingData: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) MarkSettled(ctx context.Context, marketID string, outcome domain.SettlementOutcome) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE market_closing_data
		SET winner_runner_id = ?, settlement_void = ?, settlement_settled_at = ?, settled_at = ?
		WHERE market_id = ?
	`, outcome.WinnerRunnerID, boolToInt(outcome.Void), outcome.SettledAt.UTC(), outcome.SettledAt.UTC(), marketID)
	if err != nil {
		return fmt.Errorf("storage.MarkSettled: %w", err)
	}
	return nil
}

// EventsNeedingResult lists every event with a settled Match Odds market
// but no event_results row yet.
func (s *Store) EventsNeedingResult(ctx context.Context) ([]domain.SettledMatchOddsWinner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.external_id, m.external_id, mc.winner_runner_id, mc.settlement_void
		FROM events e
		JOIN markets m ON m.event_id = e.external_id AND m.market_type = 'MATCH_ODDS'
		JOIN market_closing_data mc ON mc.market_id = m.external_id AND mc.settled_at IS NOT NULL
		LEFT JOIN event_results er ON er.event_id = e.external_id
		WHERE er.event_id IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.EventsNeedingResult: %w", err)
	}
	defer rows.Close()

	var out []domain.SettledMatchOddsWinner
	for rows.Next() {
		var w domain.SettledMatchOddsWinner
		var winner sql.NullString
		var void sql.NullInt64
		if err := rows.Scan(&w.EventID, &w.MarketID, &winner, &void); err != nil {
			return nil, fmt.Errorf("storage.EventsNeedingResult: scan: %w", err)
		}
		w.WinnerRunnerID = winner.String
		w.Void = void.Valid && void.Int64 != 0
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) UpsertEventResult(ctx context.Context, r domain.EventResult) error {
	var extended string
	if r.Extended != nil {
		b, err := json.Marshal(r.Extended)
		if err != nil {
			return fmt.Errorf("storage.UpsertEventResult: encode extended: %w", err)
		}
		extended = string(b)
	}
	var btts any
	if r.BTTS != nil {
		btts = boolToInt(*r.BTTS)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_results (event_id, home_score, away_score, total_goals, btts, extended_json, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			home_score    = excluded.home_score,
			away_score    = excluded.away_score,
			total_goals   = excluded.total_goals,
			btts          = excluded.btts,
			extended_json = excluded.extended_json,
			source        = excluded.source
	`, r.EventID, nullableTime(r.HomeScore), nullableTime(r.AwayScore), nullableTime(r.TotalGoals), btts, extended, r.Source)
	if err != nil {
		return fmt.Errorf("storage.UpsertEventResult: %w", err)
	}
	return nil
}

// GetEventResult fetches the EventResult row for an event, if one exists.
func (s *Store) GetEventResult(ctx context.Context, eventID string) (domain.EventResult, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT event_id, home_score, away_score, total_goals, btts, source
		FROM event_results WHERE event_id = ?
	`, eventID)

	var r domain.EventResult
	var home, away, total sql.NullInt64
	var btts sql.NullInt64
	if err := row.Scan(&r.EventID, &home, &away, &total, &btts, &r.Source); err == sql.ErrNoRows {
		return domain.EventResult{}, false, nil
	} else if err != nil {
		return domain.EventResult{}, false, fmt.Errorf("storage.GetEventResult: %w", err)
	}
	if home.Valid {
		v := int(home.Int64)
		r.HomeScore = &v
	}
	if away.Valid {
		v := int(away.Int64)
		r.AwayScore = &v
	}
	if total.Valid {
		v := int(total.Int64)
		r.TotalGoals = &v
	}
	if btts.Valid {
		v := btts.Int64 != 0
		r.BTTS = &v
	}
	return r, true, nil
}
