package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

func (s *Store) UpsertCompetitionStats(ctx context.Context, st domain.CompetitionStats) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO competition_stats
			(competition_id, date, count, mean, max, min, stddev,
			 count_above_40, count_above_55, count_above_70, rolling_mean_30d)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(competition_id, date) DO UPDATE SET
			count            = excluded.count,
			mean             = excluded.mean,
			max              = excluded.max,
			min              = excluded.min,
			stddev           = excluded.stddev,
			count_above_40   = excluded.count_above_40,
			count_above_55   = excluded.count_above_55,
			count_above_70   = excluded.count_above_70,
			rolling_mean_30d = excluded.rolling_mean_30d
	`, st.CompetitionID, dateOnly(st.Date), st.Count, st.Mean, st.Max, st.Min, st.StdDev,
		st.CountAbove40, st.CountAbove55, st.CountAbove70, st.RollingMean30d)
	if err != nil {
		return fmt.Errorf("storage.UpsertCompetitionStats: %w", err)
	}
	return nil
}

// PreviousRollingMean returns the mean score recorded on the latest date
// strictly before the given date, used to roll the 30-day average forward
// (§4.7) without re-scanning 30 days of rows on every run.
func (s *Store) PreviousRollingMean(ctx context.Context, competitionID string, date time.Time) (float64, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT rolling_mean_30d FROM competition_stats
		WHERE competition_id = ? AND date < ?
		ORDER BY date DESC LIMIT 1
	`, competitionID, dateOnly(date))
	var mean float64
	if err := row.Scan(&mean); err == sql.ErrNoRows {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("storage.PreviousRollingMean: %w", err)
	}
	return mean, true, nil
}
