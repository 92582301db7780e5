package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

type scoreStore interface {
	InsertConfigVersion(ctx context.Context, cv domain.ConfigVersion) error
	InsertScore(ctx context.Context, s domain.ExploitabilityScore) error
}

type profileStore interface {
	ListProfilesForDate(ctx context.Context, date time.Time) ([]domain.MarketProfileDaily, error)
}

// Job wires the pure Engine to storage: it scores every profile row
// produced for today and appends one ExploitabilityScore per market/bucket
// (§4.5, I2).
type Job struct {
	engine   *Engine
	cfg      domain.ConfigVersion
	profiles profileStore
	scores   scoreStore
}

// NewJob builds a scoring Job bound to the given config version, persisting
// that version once on construction so every score it writes can reference
// a row that actually exists (I2).
func NewJob(ctx context.Context, cfg domain.ConfigVersion, profiles profileStore, scores scoreStore) (*Job, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if err := scores.InsertConfigVersion(ctx, cfg); err != nil {
		return nil, fmt.Errorf("scoring.NewJob: persist config version: %w", err)
	}
	return &Job{engine: New(cfg), cfg: cfg, profiles: profiles, scores: scores}, nil
}

// Run scores every profile row captured for today and appends the results.
// Returns the number of scores written.
func (j *Job) Run(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	profiles, err := j.profiles.ListProfilesForDate(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("scoring.Job.Run: list profiles: %w", err)
	}

	written := 0
	for _, p := range profiles {
		result := j.engine.Score(p.ToMetrics())
		score := domain.ExploitabilityScore{
			ID:            uuid.NewString(),
			MarketID:      p.MarketID,
			ScoredAt:      now,
			Bucket:        p.Bucket,
			OddsBand:      domain.ClassifyOddsBand(p.MeanMidPrice),
			Result:        result,
			ConfigVersion: j.cfg.ID,
		}
		if err := j.scores.InsertScore(ctx, score); err != nil {
			return written, fmt.Errorf("scoring.Job.Run: insert score %s: %w", p.MarketID, err)
		}
		written++
	}
	return written, nil
}
