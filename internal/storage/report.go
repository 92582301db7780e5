package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

// TopScores returns the limit highest-scoring ExploitabilityScore rows from
// today, one per market (its latest), for the console report's digest.
func (s *Store) TopScores(ctx context.Context, limit int) ([]domain.ExploitabilityScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scoreColumns+` FROM exploitability_scores es
		WHERE es.scored_at >= ? AND es.scored_at = (
			SELECT MAX(scored_at) FROM exploitability_scores WHERE market_id = es.market_id
		)
		ORDER BY es.total_score DESC
		LIMIT ?
	`, dateOnly(time.Now().UTC()), limit)
	if err != nil {
		return nil, fmt.Errorf("storage.TopScores: %w", err)
	}
	defer rows.Close()

	var out []domain.ExploitabilityScore
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.TopScores: scan: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// RecentJobRuns returns the limit most recent JobRun rows, newest first,
// for the scheduler audit digest.
func (s *Store) RecentJobRuns(ctx context.Context, limit int) ([]domain.JobRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_name, started_at, completed_at, status, records_processed, error, metadata_json
		FROM job_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentJobRuns: %w", err)
	}
	defer rows.Close()

	var out []domain.JobRun
	for rows.Next() {
		j, err := scanJobRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.RecentJobRuns: scan: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanJobRun(row interface{ Scan(dest ...any) error }) (domain.JobRun, error) {
	var j domain.JobRun
	var status string
	var completedAt sql.NullTime
	var metadataJSON sql.NullString
	if err := row.Scan(&j.ID, &j.TaskName, &j.StartedAt, &completedAt, &status, &j.RecordsProcessed, &j.Error, &metadataJSON); err != nil {
		return domain.JobRun{}, err
	}
	j.StartedAt = j.StartedAt.UTC()
	j.Status = domain.JobStatus(status)
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		j.CompletedAt = &t
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(metadataJSON.String), &meta); err == nil {
			j.Metadata = meta
		}
	}
	return j, nil
}

// RecentShadowDecisions returns the limit most recently decided
// ShadowDecision rows, newest first, for the paper-trading digest.
func (s *Store) RecentShadowDecisions(ctx context.Context, limit int) ([]domain.ShadowDecision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+shadowDecisionColumns+` FROM shadow_decisions
		ORDER BY decided_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentShadowDecisions: %w", err)
	}
	defer rows.Close()

	var out []domain.ShadowDecision
	for rows.Next() {
		d, err := scanShadowDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.RecentShadowDecisions: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListHypotheses returns every TradingHypothesis, enabled or not, for the
// console report's performance-by-hypothesis table.
func (s *Store) ListHypotheses(ctx context.Context) ([]domain.TradingHypothesis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, display_name, description, enabled, criteria_json, selection_logic,
		       side, decisions, wins, losses, cumulative_net, mean_clv, last_decision_at
		FROM trading_hypotheses
		ORDER BY cumulative_net DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListHypotheses: %w", err)
	}
	defer rows.Close()

	var out []domain.TradingHypothesis
	for rows.Next() {
		h, err := scanHypothesis(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListHypotheses: scan: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
