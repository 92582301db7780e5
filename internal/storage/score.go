package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

func (s *Store) InsertConfigVersion(ctx context.Context, cv domain.ConfigVersion) error {
	weights, err := json.Marshal(cv.Weights)
	if err != nil {
		return fmt.Errorf("storage.InsertConfigVersion: encode weights: %w", err)
	}
	norm, err := json.Marshal(cv.Norm)
	if err != nil {
		return fmt.Errorf("storage.InsertConfigVersion: encode norm: %w", err)
	}
	guards, err := json.Marshal(cv.Guards)
	if err != nil {
		return fmt.Errorf("storage.InsertConfigVersion: encode guards: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO config_versions (id, created_at, weights_json, norm_json, guards_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, cv.ID, cv.CreatedAt.UTC(), string(weights), string(norm), string(guards))
	if err != nil {
		return fmt.Errorf("storage.InsertConfigVersion: %w", err)
	}
	return nil
}

func (s *Store) InsertScore(ctx context.Context, sc domain.ExploitabilityScore) error {
	guardsFailed, err := json.Marshal(sc.Result.GuardsFailed)
	if err != nil {
		return fmt.Errorf("storage.InsertScore: encode guards_failed: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exploitability_scores
			(id, market_id, scored_at, bucket, odds_band, total_score, spread_score,
			 volatility_score, update_score, depth_score, volume_penalty,
			 guards_failed_json, config_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sc.ID, sc.MarketID, sc.ScoredAt.UTC(), string(sc.Bucket), string(sc.OddsBand),
		sc.Result.TotalScore, sc.Result.SpreadScore, sc.Result.VolatilityScore,
		sc.Result.UpdateScore, sc.Result.DepthScore, sc.Result.VolumePenalty,
		string(guardsFailed), sc.ConfigVersion)
	if err != nil {
		return fmt.Errorf("storage.InsertScore: %w", err)
	}
	return nil
}

func scanScore(row interface{ Scan(dest ...any) error }) (domain.ExploitabilityScore, error) {
	var sc domain.ExploitabilityScore
	var bucket, oddsBand, guardsFailed string
	if err := row.Scan(&sc.ID, &sc.MarketID, &sc.ScoredAt, &bucket, &oddsBand,
		&sc.Result.TotalScore, &sc.Result.SpreadScore, &sc.Result.VolatilityScore,
		&sc.Result.UpdateScore, &sc.Result.DepthScore, &sc.Result.VolumePenalty,
		&guardsFailed, &sc.ConfigVersion); err != nil {
		return domain.ExploitabilityScore{}, err
	}
	sc.ScoredAt = sc.ScoredAt.UTC()
	sc.Bucket = domain.TimeBucket(bucket)
	sc.OddsBand = domain.OddsBand(oddsBand)
	_ = json.Unmarshal([]byte(guardsFailed), &sc.Result.GuardsFailed)
	return sc, nil
}

const scoreColumns = `id, market_id, scored_at, bucket, odds_band, total_score, spread_score, volatility_score, update_score, depth_score, volume_penalty, guards_failed_json, config_version`

func (s *Store) LatestScore(ctx context.Context, marketID string) (domain.ExploitabilityScore, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+scoreColumns+`
		FROM exploitability_scores WHERE market_id = ? ORDER BY scored_at DESC LIMIT 1
	`, marketID)
	sc, err := scanScore(row)
	if err == sql.ErrNoRows {
		return domain.ExploitabilityScore{}, false, nil
	}
	if err != nil {
		return domain.ExploitabilityScore{}, false, fmt.Errorf("storage.LatestScore: %w", err)
	}
	return sc, true, nil
}

func (s *Store) ScoresForDate(ctx context.Context, competitionID string, date time.Time) ([]domain.ExploitabilityScore, error) {
	start := dateOnly(date)
	end := start.Add(24 * time.Hour)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scoreColumns+`
		FROM exploitability_scores es
		JOIN markets m ON m.external_id = es.market_id
		JOIN events e ON e.external_id = m.event_id
		WHERE e.competition_id = ? AND es.scored_at >= ? AND es.scored_at < ?
	`, competitionID, start, end)
	if err != nil {
		return nil, fmt.Errorf("storage.ScoresForDate: %w", err)
	}
	defer rows.Close()

	var out []domain.ExploitabilityScore
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ScoresForDate: scan: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
