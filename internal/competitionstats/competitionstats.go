// Package competitionstats implements the Competition Stats Aggregator
// (C7): an hourly roll-up of each enabled competition's exploitability
// scores into a daily CompetitionStats row, carrying forward a 30-day
// rolling mean without re-scanning history (§4.7).
package competitionstats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

type statsStore interface {
	ListEnabledCompetitions(ctx context.Context) ([]domain.Competition, error)
	ScoresForDate(ctx context.Context, competitionID string, date time.Time) ([]domain.ExploitabilityScore, error)
	PreviousRollingMean(ctx context.Context, competitionID string, date time.Time) (float64, bool, error)
	UpsertCompetitionStats(ctx context.Context, st domain.CompetitionStats) error
}

// Aggregator runs the hourly competition-stats roll-up.
type Aggregator struct {
	store statsStore
}

// New builds an Aggregator.
func New(store statsStore) *Aggregator {
	return &Aggregator{store: store}
}

// Run recomputes today's CompetitionStats row for every enabled
// competition with at least one score today. Returns the number of
// competitions updated.
func (a *Aggregator) Run(ctx context.Context) (int, error) {
	comps, err := a.store.ListEnabledCompetitions(ctx)
	if err != nil {
		return 0, fmt.Errorf("competitionstats.Run: list enabled competitions: %w", err)
	}

	now := time.Now().UTC()
	written := 0
	for _, comp := range comps {
		scores, err := a.store.ScoresForDate(ctx, comp.ExternalID, now)
		if err != nil {
			return written, fmt.Errorf("competitionstats.Run: scores for %s: %w", comp.ExternalID, err)
		}
		if len(scores) == 0 {
			continue
		}

		stats := aggregate(comp.ExternalID, now, scores)

		prevMean, ok, err := a.store.PreviousRollingMean(ctx, comp.ExternalID, now)
		if err != nil {
			return written, fmt.Errorf("competitionstats.Run: previous rolling mean for %s: %w", comp.ExternalID, err)
		}
		stats.RollingMean30d = rollForward(prevMean, ok, stats.Mean)

		if err := a.store.UpsertCompetitionStats(ctx, stats); err != nil {
			return written, fmt.Errorf("competitionstats.Run: upsert %s: %w", comp.ExternalID, err)
		}
		written++
	}
	return written, nil
}

// aggregate computes the day's Count/Mean/Max/Min/StdDev and the three
// count-above-threshold buckets from a competition's scored rows (§4.7).
func aggregate(competitionID string, date time.Time, scores []domain.ExploitabilityScore) domain.CompetitionStats {
	st := domain.CompetitionStats{CompetitionID: competitionID, Date: date, Count: len(scores)}
	if len(scores) == 0 {
		return st
	}

	sum := 0.0
	st.Min = scores[0].Result.TotalScore
	for _, sc := range scores {
		v := sc.Result.TotalScore
		sum += v
		if v > st.Max {
			st.Max = v
		}
		if v < st.Min {
			st.Min = v
		}
		switch {
		case v >= 70:
			st.CountAbove70++
			st.CountAbove55++
			st.CountAbove40++
		case v >= 55:
			st.CountAbove55++
			st.CountAbove40++
		case v >= 40:
			st.CountAbove40++
		}
	}
	st.Mean = sum / float64(len(scores))

	variance := 0.0
	for _, sc := range scores {
		d := sc.Result.TotalScore - st.Mean
		variance += d * d
	}
	st.StdDev = math.Sqrt(variance / float64(len(scores)))

	return st
}

// rollForward combines yesterday's rolling 30-day mean with today's mean
// by simple average (§4.7). Without history, the rolling mean simply
// starts at today's mean.
func rollForward(prevMean float64, hadPrev bool, todayMean float64) float64 {
	if !hadPrev {
		return todayMean
	}
	return (prevMean + todayMean) / 2
}
