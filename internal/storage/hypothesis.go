package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

func (s *Store) ListEnabledHypotheses(ctx context.Context) ([]domain.TradingHypothesis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, display_name, description, enabled, criteria_json, selection_logic,
		       side, decisions, wins, losses, cumulative_net, mean_clv, last_decision_at
		FROM trading_hypotheses WHERE enabled = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListEnabledHypotheses: %w", err)
	}
	defer rows.Close()

	var out []domain.TradingHypothesis
	for rows.Next() {
		h, err := scanHypothesis(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListEnabledHypotheses: scan: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHypothesis(row interface{ Scan(dest ...any) error }) (domain.TradingHypothesis, error) {
	var h domain.TradingHypothesis
	var enabled int
	var criteriaJSON string
	var selectionLogic, side string
	var lastDecisionAt sql.NullTime
	if err := row.Scan(&h.Name, &h.DisplayName, &h.Description, &enabled, &criteriaJSON, &selectionLogic,
		&side, &h.Decisions, &h.Wins, &h.Losses, &h.CumulativeNet, &h.MeanCLV, &lastDecisionAt); err != nil {
		return domain.TradingHypothesis{}, err
	}
	h.Enabled = intToBool(int64(enabled))
	h.SelectionLogic = domain.SelectionLogic(selectionLogic)
	h.Side = domain.Side(side)
	if err := json.Unmarshal([]byte(criteriaJSON), &h.Criteria); err != nil {
		return domain.TradingHypothesis{}, fmt.Errorf("decode criteria: %w", err)
	}
	if lastDecisionAt.Valid {
		t := lastDecisionAt.Time.UTC()
		h.LastDecisionAt = &t
	}
	return h, nil
}

func (s *Store) HasDecision(ctx context.Context, marketID, hypothesisName string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM shadow_decisions WHERE market_id = ? AND hypothesis_name = ?
	`, marketID, hypothesisName)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("storage.HasDecision: %w", err)
	}
	return n > 0, nil
}

func (s *Store) InsertShadowDecision(ctx context.Context, d domain.ShadowDecision) error {
	return insertShadowDecision(ctx, s.db, d)
}

func (s *Store) UpdateHypothesisCounters(ctx context.Context, h domain.TradingHypothesis) error {
	criteria, err := json.Marshal(h.Criteria)
	if err != nil {
		return fmt.Errorf("storage.UpdateHypothesisCounters: encode criteria: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trading_hypotheses
			(name, display_name, description, enabled, criteria_json, selection_logic, side,
			 decisions, wins, losses, cumulative_net, mean_clv, last_decision_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			display_name     = excluded.display_name,
			description      = excluded.description,
			enabled          = excluded.enabled,
			criteria_json    = excluded.criteria_json,
			selection_logic  = excluded.selection_logic,
			side             = excluded.side,
			decisions        = excluded.decisions,
			wins             = excluded.wins,
			losses           = excluded.losses,
			cumulative_net   = excluded.cumulative_net,
			mean_clv         = excluded.mean_clv,
			last_decision_at = excluded.last_decision_at
	`, h.Name, h.DisplayName, h.Description, boolToInt(h.Enabled), string(criteria),
		string(h.SelectionLogic), string(h.Side), h.Decisions, h.Wins, h.Losses,
		h.CumulativeNet, h.MeanCLV, nullableTime(h.LastDecisionAt))
	if err != nil {
		return fmt.Errorf("storage.UpdateHypothesisCounters: %w", err)
	}
	return nil
}
