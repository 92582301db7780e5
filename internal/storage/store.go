// Package storage is the sole persistence layer for every entity in §3:
// sqlite-backed, JSON for the dynamic ladder/criteria columns, strongly
// typed at every Go-facing boundary.
package storage

import (
	"context"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

// DiscoveryStore is the port Discovery (C2) writes through.
type DiscoveryStore interface {
	UpsertSport(ctx context.Context, s domain.Sport) error
	UpsertCompetition(ctx context.Context, c domain.Competition) error
	ListEnabledCompetitions(ctx context.Context) ([]domain.Competition, error)
	UpsertEvent(ctx context.Context, e domain.Event) error
	ListScheduledEvents(ctx context.Context) ([]domain.Event, error)
	CloseEvent(ctx context.Context, externalID string) error
	UpsertMarket(ctx context.Context, m domain.Market) error
	UpsertRunner(ctx context.Context, r domain.Runner) error
}

// SnapshotStore is the port Snapshotter (C3) writes through and Profiler
// reads through.
type SnapshotStore interface {
	ListActiveMarkets(ctx context.Context) ([]domain.Market, error)
	UpdateMarketStatus(ctx context.Context, externalID string, status domain.MarketStatus, inPlay bool) error
	CloseMarket(ctx context.Context, externalID string) error
	InsertSnapshot(ctx context.Context, s domain.MarketSnapshot) error
	ListSnapshotsForDate(ctx context.Context, marketID string, date time.Time) ([]domain.MarketSnapshot, error)
	LatestSnapshot(ctx context.Context, marketID string) (domain.MarketSnapshot, bool, error)
	SnapshotWithinWindow(ctx context.Context, marketID string, before time.Time) (domain.MarketSnapshot, bool, error)
}

// ProfileStore is the port Profiler (C4) writes through and Scorer reads
// through.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, p domain.MarketProfileDaily) error
	ListProfilesForDate(ctx context.Context, date time.Time) ([]domain.MarketProfileDaily, error)
	MarketsWithSnapshotsOnDate(ctx context.Context, date time.Time) ([]string, error)
}

// ScoreStore is the port Scorer (C5) writes through and downstream
// components (Closing Capturer, Competition Stats, Hypothesis Engine) read
// through.
type ScoreStore interface {
	InsertConfigVersion(ctx context.Context, cv domain.ConfigVersion) error
	InsertScore(ctx context.Context, s domain.ExploitabilityScore) error
	LatestScore(ctx context.Context, marketID string) (domain.ExploitabilityScore, bool, error)
	ScoresForDate(ctx context.Context, competitionID string, date time.Time) ([]domain.ExploitabilityScore, error)
}

// ClosingStore is the port the Closing Capturer (C6) uses.
type ClosingStore interface {
	ListActiveMarkets(ctx context.Context) ([]domain.Market, error)
	GetMarket(ctx context.Context, externalID string) (domain.Market, bool, error)
	ListRunners(ctx context.Context, marketID string) ([]domain.Runner, error)
	ScheduledStartForMarket(ctx context.Context, marketID string) (time.Time, bool, error)
	LatestSnapshot(ctx context.Context, marketID string) (domain.MarketSnapshot, bool, error)
	LatestScore(ctx context.Context, marketID string) (domain.ExploitabilityScore, bool, error)
	UpsertClosingData(ctx context.Context, c domain.MarketClosingData) error
	GetClosingData(ctx context.Context, marketID string) (domain.MarketClosingData, bool, error)
	UnsettledClosingData(ctx context.Context) ([]domain.MarketClosingData, error)
	MarkSettled(ctx context.Context, marketID string, outcome domain.SettlementOutcome) error
	UpsertEventResult(ctx context.Context, r domain.EventResult) error
	CloseMarket(ctx context.Context, externalID string) error
}

// EventResultsStore is the port the standalone Event Results task (§4.11)
// uses to backfill results the Closing Capturer's inline derivation missed.
type EventResultsStore interface {
	EventsNeedingResult(ctx context.Context) ([]domain.SettledMatchOddsWinner, error)
	ListRunners(ctx context.Context, marketID string) ([]domain.Runner, error)
	UpsertEventResult(ctx context.Context, r domain.EventResult) error
}

// CompetitionStatsStore is the port the Competition Stats Aggregator (C7)
// uses.
type CompetitionStatsStore interface {
	UpsertCompetitionStats(ctx context.Context, s domain.CompetitionStats) error
	PreviousRollingMean(ctx context.Context, competitionID string, date time.Time) (float64, bool, error)
}

// PhaseStore is the port the Phase Gate (C8) reads through.
type PhaseStore interface {
	CountClosingData(ctx context.Context) (int, error)
	CountSettledClosingData(ctx context.Context) (int, error)
	CountMarketsWithScoreAbove(ctx context.Context, threshold float64) (int, error)
	DaysOfClosingDataObserved(ctx context.Context) (int, error)
}

// HypothesisStore is the port the Hypothesis Engine (C9) uses.
type HypothesisStore interface {
	ListActiveMarkets(ctx context.Context) ([]domain.Market, error)
	ScheduledStartForMarket(ctx context.Context, marketID string) (time.Time, bool, error)
	CompetitionIDForMarket(ctx context.Context, marketID string) (string, bool, error)
	LatestSnapshot(ctx context.Context, marketID string) (domain.MarketSnapshot, bool, error)
	SnapshotWithinWindow(ctx context.Context, marketID string, before time.Time) (domain.MarketSnapshot, bool, error)
	LatestScore(ctx context.Context, marketID string) (domain.ExploitabilityScore, bool, error)
	ListEnabledHypotheses(ctx context.Context) ([]domain.TradingHypothesis, error)
	HasDecision(ctx context.Context, marketID, hypothesisName string) (bool, error)
	InsertShadowDecision(ctx context.Context, d domain.ShadowDecision) error
	UpdateHypothesisCounters(ctx context.Context, h domain.TradingHypothesis) error
}

// ShadowStore is the port the Shadow Settler (C10) uses.
type ShadowStore interface {
	PendingDecisionsNearKickoffUnclosed(ctx context.Context) ([]domain.ShadowDecision, error)
	PendingDecisionsPastStart(ctx context.Context, startedAgo time.Duration) ([]domain.ShadowDecision, error)
	UpdateDecision(ctx context.Context, d domain.ShadowDecision) error
	ScheduledStartForMarket(ctx context.Context, marketID string) (time.Time, bool, error)
	LatestSnapshot(ctx context.Context, marketID string) (domain.MarketSnapshot, bool, error)
	GetClosingData(ctx context.Context, marketID string) (domain.MarketClosingData, bool, error)
	ListEnabledHypotheses(ctx context.Context) ([]domain.TradingHypothesis, error)
	UpdateHypothesisCounters(ctx context.Context, h domain.TradingHypothesis) error
}

// JobRunStore is the port the Scheduler (C11) uses for per-task audit rows.
type JobRunStore interface {
	InsertJobRun(ctx context.Context, j domain.JobRun) error
	UpdateJobRun(ctx context.Context, j domain.JobRun) error
}
