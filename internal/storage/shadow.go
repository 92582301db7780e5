package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

// dbExecer is satisfied by both *sql.DB and *sql.Tx, letting the same insert
// helper serve a plain call and a future transactional caller alike.
type dbExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertShadowDecision(ctx context.Context, db dbExecer, d domain.ShadowDecision) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO shadow_decisions
			(id, market_id, runner_id, side, score_id, hypothesis_name, decided_at,
			 minutes_to_start, entry_back, entry_lay, entry_spread, available_to_back,
			 available_to_lay, stake, niche, competition_id, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.MarketID, d.RunnerID, string(d.Side), d.ScoreID, d.HypothesisName, d.DecidedAt.UTC(),
		d.MinutesToStart, d.EntryBack, d.EntryLay, d.EntrySpread, d.AvailableToBack,
		d.AvailableToLay, d.Stake, d.Niche, d.CompetitionID, string(domain.OutcomePending))
	if err != nil {
		return fmt.Errorf("storage: insert shadow decision: %w", err)
	}
	return nil
}

const shadowDecisionColumns = `id, market_id, runner_id, side, score_id, hypothesis_name, decided_at,
	minutes_to_start, entry_back, entry_lay, entry_spread, available_to_back, available_to_lay,
	stake, niche, competition_id, closing_back, closing_lay, closing_mid, clv_percent,
	outcome, settled_at, gross_pnl, commission, spread_cost, net_pnl, max_loss, return_on_risk`

func scanShadowDecision(row interface{ Scan(dest ...any) error }) (domain.ShadowDecision, error) {
	var d domain.ShadowDecision
	var side, outcome string
	var closingBack, closingLay, closingMid, clvPercent sql.NullFloat64
	var settledAt sql.NullTime
	var grossPnL, commission, spreadCost, netPnL, maxLoss, returnOnRisk sql.NullFloat64
	if err := row.Scan(&d.ID, &d.MarketID, &d.RunnerID, &side, &d.ScoreID, &d.HypothesisName, &d.DecidedAt,
		&d.MinutesToStart, &d.EntryBack, &d.EntryLay, &d.EntrySpread, &d.AvailableToBack, &d.AvailableToLay,
		&d.Stake, &d.Niche, &d.CompetitionID, &closingBack, &closingLay, &closingMid, &clvPercent,
		&outcome, &settledAt, &grossPnL, &commission, &spreadCost, &netPnL, &maxLoss, &returnOnRisk); err != nil {
		return domain.ShadowDecision{}, err
	}
	d.Side = domain.Side(side)
	d.Outcome = domain.DecisionOutcome(outcome)
	d.DecidedAt = d.DecidedAt.UTC()

	if closingBack.Valid {
		v := closingBack.Float64
		d.ClosingBack = &v
	}
	if closingLay.Valid {
		v := closingLay.Float64
		d.ClosingLay = &v
	}
	if closingMid.Valid {
		v := closingMid.Float64
		d.ClosingMid = &v
	}
	if clvPercent.Valid {
		v := clvPercent.Float64
		d.CLVPercent = &v
	}
	if settledAt.Valid {
		v := settledAt.Time.UTC()
		d.SettledAt = &v
	}
	if grossPnL.Valid {
		v := grossPnL.Float64
		d.GrossPnL = &v
	}
	if commission.Valid {
		v := commission.Float64
		d.Commission = &v
	}
	if spreadCost.Valid {
		v := spreadCost.Float64
		d.SpreadCost = &v
	}
	if netPnL.Valid {
		v := netPnL.Float64
		d.NetPnL = &v
	}
	if maxLoss.Valid {
		v := maxLoss.Float64
		d.MaxLoss = &v
	}
	if returnOnRisk.Valid {
		v := returnOnRisk.Float64
		d.ReturnOnRisk = &v
	}
	return d, nil
}

// PendingDecisionsNearKickoffUnclosed returns PENDING decisions whose
// closing mid has not yet been captured — the Shadow Settler's closing-mid
// capture step reads this (§4.10).
func (s *Store) PendingDecisionsNearKickoffUnclosed(ctx context.Context) ([]domain.ShadowDecision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+shadowDecisionColumns+` FROM shadow_decisions
		WHERE outcome = ? AND closing_mid IS NULL
	`, string(domain.OutcomePending))
	if err != nil {
		return nil, fmt.Errorf("storage.PendingDecisionsNearKickoffUnclosed: %w", err)
	}
	defer rows.Close()

	var out []domain.ShadowDecision
	for rows.Next() {
		d, err := scanShadowDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.PendingDecisionsNearKickoffUnclosed: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// PendingDecisionsPastStart returns PENDING decisions whose market's event
// started at least startedAgo in the past — candidates for settlement.
func (s *Store) PendingDecisionsPastStart(ctx context.Context, startedAgo time.Duration) ([]domain.ShadowDecision, error) {
	cutoff := time.Now().UTC().Add(-startedAgo)
	rows, err := s.db.QueryContext(ctx, `
		SELECT sd.id, sd.market_id, sd.runner_id, sd.side, sd.score_id, sd.hypothesis_name, sd.decided_at,
		       sd.minutes_to_start, sd.entry_back, sd.entry_lay, sd.entry_spread, sd.available_to_back,
		       sd.available_to_lay, sd.stake, sd.niche, sd.competition_id, sd.closing_back, sd.closing_lay,
		       sd.closing_mid, sd.clv_percent, sd.outcome, sd.settled_at, sd.gross_pnl, sd.commission,
		       sd.spread_cost, sd.net_pnl, sd.max_loss, sd.return_on_risk
		FROM shadow_decisions sd
		JOIN markets m ON m.external_id = sd.market_id
		JOIN events e ON e.external_id = m.event_id
		WHERE sd.outcome = ? AND e.scheduled_start <= ?
	`, string(domain.OutcomePending), cutoff)
	if err != nil {
		return nil, fmt.Errorf("storage.PendingDecisionsPastStart: %w", err)
	}
	defer rows.Close()

	var out []domain.ShadowDecision
	for rows.Next() {
		d, err := scanShadowDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.PendingDecisionsPastStart: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) UpdateDecision(ctx context.Context, d domain.ShadowDecision) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE shadow_decisions SET
			closing_back = ?, closing_lay = ?, closing_mid = ?, clv_percent = ?,
			outcome = ?, settled_at = ?, gross_pnl = ?, commission = ?, spread_cost = ?,
			net_pnl = ?, max_loss = ?, return_on_risk = ?
		WHERE id = ?
	`, nullableTime(d.ClosingBack), nullableTime(d.ClosingLay), nullableTime(d.ClosingMid),
		nullableTime(d.CLVPercent), string(d.Outcome), nullableTime(d.SettledAt),
		nullableTime(d.GrossPnL), nullableTime(d.Commission), nullableTime(d.SpreadCost),
		nullableTime(d.NetPnL), nullableTime(d.MaxLoss), nullableTime(d.ReturnOnRisk), d.ID)
	if err != nil {
		return fmt.Errorf("storage.UpdateDecision: %w", err)
	}
	return nil
}
