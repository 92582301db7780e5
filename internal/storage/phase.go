package storage

import (
	"context"
	"fmt"
)

// CountClosingData returns the total number of rows ever written to
// market_closing_data — the Phase Gate's first activation signal (§4.8).
func (s *Store) CountClosingData(ctx context.Context) (int, error) {
	return s.scalarCount(ctx, `SELECT COUNT(*) FROM market_closing_data`)
}

// CountSettledClosingData returns rows that have reached settlement.
func (s *Store) CountSettledClosingData(ctx context.Context) (int, error) {
	return s.scalarCount(ctx, `SELECT COUNT(*) FROM market_closing_data WHERE settled_at IS NOT NULL`)
}

// CountMarketsWithScoreAbove returns the number of distinct markets whose
// latest score is at or above the threshold.
func (s *Store) CountMarketsWithScoreAbove(ctx context.Context, threshold float64) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT market_id) FROM (
			SELECT market_id, MAX(scored_at) AS latest, total_score
			FROM exploitability_scores
			GROUP BY market_id
			HAVING total_score >= ?
		)
	`, threshold)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.CountMarketsWithScoreAbove: %w", err)
	}
	return n, nil
}

// DaysOfClosingDataObserved returns the number of distinct calendar days on
// which at least one closing-data capture occurred.
func (s *Store) DaysOfClosingDataObserved(ctx context.Context) (int, error) {
	return s.scalarCount(ctx, `SELECT COUNT(DISTINCT DATE(snapshot_captured_at)) FROM market_closing_data`)
}

func (s *Store) scalarCount(ctx context.Context, query string) (int, error) {
	row := s.db.QueryRowContext(ctx, query)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("storage: scalar count: %w", err)
	}
	return n, nil
}
