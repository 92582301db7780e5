package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

func (s *Store) UpsertSport(ctx context.Context, sp domain.Sport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sports (external_id, name) VALUES (?, ?)
		ON CONFLICT(external_id) DO UPDATE SET name = excluded.name
	`, sp.ExternalID, sp.Name)
	if err != nil {
		return fmt.Errorf("storage.UpsertSport: %w", err)
	}
	return nil
}

func (s *Store) UpsertCompetition(ctx context.Context, c domain.Competition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO competitions (external_id, sport_id, name, country, enabled)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			sport_id = excluded.sport_id,
			name     = excluded.name,
			country  = excluded.country,
			enabled  = excluded.enabled
	`, c.ExternalID, c.SportID, c.Name, c.Country, boolToInt(c.Enabled))
	if err != nil {
		return fmt.Errorf("storage.UpsertCompetition: %w", err)
	}
	return nil
}

func (s *Store) ListEnabledCompetitions(ctx context.Context) ([]domain.Competition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT external_id, sport_id, name, country, enabled FROM competitions WHERE enabled = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListEnabledCompetitions: %w", err)
	}
	defer rows.Close()

	var out []domain.Competition
	for rows.Next() {
		var c domain.Competition
		var enabled int
		if err := rows.Scan(&c.ExternalID, &c.SportID, &c.Name, &c.Country, &enabled); err != nil {
			return nil, fmt.Errorf("storage.ListEnabledCompetitions: scan: %w", err)
		}
		c.Enabled = intToBool(int64(enabled))
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpsertEvent(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (external_id, competition_id, scheduled_start, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			competition_id  = excluded.competition_id,
			scheduled_start = excluded.scheduled_start,
			status          = excluded.status
	`, e.ExternalID, e.CompetitionID, e.ScheduledStart.UTC(), string(e.Status))
	if err != nil {
		return fmt.Errorf("storage.UpsertEvent: %w", err)
	}
	return nil
}

func (s *Store) ListScheduledEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT external_id, competition_id, scheduled_start, status
		FROM events WHERE status = ?
	`, string(domain.EventScheduled))
	if err != nil {
		return nil, fmt.Errorf("storage.ListScheduledEvents: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		var status string
		if err := rows.Scan(&e.ExternalID, &e.CompetitionID, &e.ScheduledStart, &status); err != nil {
			return nil, fmt.Errorf("storage.ListScheduledEvents: scan: %w", err)
		}
		e.ScheduledStart = e.ScheduledStart.UTC()
		e.Status = domain.EventStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CloseEvent(ctx context.Context, externalID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE events SET status = ? WHERE external_id = ?`,
		string(domain.EventClosed), externalID)
	if err != nil {
		return fmt.Errorf("storage.CloseEvent: %w", err)
	}
	return nil
}

func (s *Store) UpsertMarket(ctx context.Context, m domain.Market) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO markets (external_id, event_id, name, market_type, total_matched, status, in_play)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			event_id      = excluded.event_id,
			name          = excluded.name,
			market_type   = excluded.market_type,
			total_matched = excluded.total_matched,
			status        = excluded.status,
			in_play       = excluded.in_play
	`, m.ExternalID, m.EventID, m.Name, m.MarketType, m.TotalMatched, string(m.Status), boolToInt(m.InPlay))
	if err != nil {
		return fmt.Errorf("storage.UpsertMarket: %w", err)
	}
	return nil
}

// GetMarket fetches a single market by its external ID.
func (s *Store) GetMarket(ctx context.Context, externalID string) (domain.Market, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT external_id, event_id, name, market_type, total_matched, status, in_play
		FROM markets WHERE external_id = ?
	`, externalID)
	var m domain.Market
	var status string
	var inPlay int
	err := row.Scan(&m.ExternalID, &m.EventID, &m.Name, &m.MarketType, &m.TotalMatched, &status, &inPlay)
	if err == sql.ErrNoRows {
		return domain.Market{}, false, nil
	}
	if err != nil {
		return domain.Market{}, false, fmt.Errorf("storage.GetMarket: %w", err)
	}
	m.Status = domain.MarketStatus(status)
	m.InPlay = intToBool(int64(inPlay))
	return m, true, nil
}

// ListRunners returns every Runner of a market in catalogue (insertion)
// order, used to identify home/away/draw roles for event-result derivation
// (§4.6, §9).
func (s *Store) ListRunners(ctx context.Context, marketID string) ([]domain.Runner, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT external_id, name, status FROM runners WHERE market_id = ? ORDER BY rowid`, marketID)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRunners: %w", err)
	}
	defer rows.Close()

	var out []domain.Runner
	for rows.Next() {
		var r domain.Runner
		var status string
		if err := rows.Scan(&r.ExternalID, &r.Name, &status); err != nil {
			return nil, fmt.Errorf("storage.ListRunners: scan: %w", err)
		}
		r.MarketID = marketID
		r.Status = domain.RunnerStatus(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.ListRunners: %w", err)
	}
	return out, nil
}

func (s *Store) UpsertRunner(ctx context.Context, r domain.Runner) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runners (market_id, external_id, name, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(market_id, external_id) DO UPDATE SET
			name   = excluded.name,
			status = excluded.status
	`, r.MarketID, r.ExternalID, r.Name, string(r.Status))
	if err != nil {
		return fmt.Errorf("storage.UpsertRunner: %w", err)
	}
	return nil
}
