// Package discovery implements the Discovery component (C2): it walks the
// exchange's sport/competition/event/market catalogue, applies the
// hard-exclusion competition-name filter, and keeps the local catalogue in
// sync.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ridgeradar/ridgeradar/internal/domain"
	"github.com/ridgeradar/ridgeradar/internal/gateway"
)

// ExchangeCatalogue is the subset of the gateway Client Discovery reads
// from, named exactly as the gateway exposes them.
type ExchangeCatalogue interface {
	ListEventTypes(ctx context.Context) ([]domain.Sport, error)
	ListCompetitions(ctx context.Context, sportIDs, countryCodes []string) ([]domain.Competition, error)
	ListEvents(ctx context.Context, competitionIDs, sportIDs []string, from, to time.Time) ([]domain.Event, error)
	ListMarketCatalogue(ctx context.Context, eventIDs, competitionIDs, marketTypes []string, max int) ([]gateway.MarketCatalogueResult, error)
}

// Config controls exclusion, lookahead and market-type selection (§4.2).
type Config struct {
	ExclusionPatterns []string
	EventLookahead    time.Duration
	MarketTypes       []string
}

const maxMarketCatalogueResults = 200

// Discovery runs one catalogue-sync pass per invocation.
type Discovery struct {
	cfg      Config
	exchange ExchangeCatalogue
	store    discoveryStore
}

type discoveryStore interface {
	UpsertSport(ctx context.Context, s domain.Sport) error
	UpsertCompetition(ctx context.Context, c domain.Competition) error
	ListEnabledCompetitions(ctx context.Context) ([]domain.Competition, error)
	UpsertEvent(ctx context.Context, e domain.Event) error
	ListScheduledEvents(ctx context.Context) ([]domain.Event, error)
	CloseEvent(ctx context.Context, externalID string) error
	UpsertMarket(ctx context.Context, m domain.Market) error
	UpsertRunner(ctx context.Context, r domain.Runner) error
}

// New builds a Discovery pass.
func New(cfg Config, exchange ExchangeCatalogue, store discoveryStore) *Discovery {
	return &Discovery{cfg: cfg, exchange: exchange, store: store}
}

// IsExcluded reports whether a competition name matches one of the
// hard-exclusion substrings, case-insensitively (§4.2: "friendlies and
// youth/reserve/women's competitions are permanently excluded, never
// snapshotted or scored").
func (cfg Config) IsExcluded(competitionName string) bool {
	lower := strings.ToLower(competitionName)
	for _, pattern := range cfg.ExclusionPatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// Run syncs sports, competitions, events and markets/runners for every
// enabled competition, and closes out events whose scheduled start has
// passed the close-after cutoff (I6). Returns the number of catalogue rows
// touched.
func (d *Discovery) Run(ctx context.Context) (int, error) {
	touched := 0

	sports, err := d.exchange.ListEventTypes(ctx)
	if err != nil {
		return touched, fmt.Errorf("discovery.Run: list event types: %w", err)
	}
	for _, sp := range sports {
		if err := d.store.UpsertSport(ctx, sp); err != nil {
			return touched, fmt.Errorf("discovery.Run: upsert sport %s: %w", sp.ExternalID, err)
		}
		touched++

		competitions, err := d.exchange.ListCompetitions(ctx, []string{sp.ExternalID}, nil)
		if err != nil {
			slog.Warn("discovery: list competitions failed", "sport", sp.ExternalID, "err", err)
			continue
		}
		for _, c := range competitions {
			c.SportID = sp.ExternalID
			c.Enabled = !d.cfg.IsExcluded(c.Name)
			if err := d.store.UpsertCompetition(ctx, c); err != nil {
				return touched, fmt.Errorf("discovery.Run: upsert competition %s: %w", c.ExternalID, err)
			}
			touched++
		}
	}

	enabled, err := d.store.ListEnabledCompetitions(ctx)
	if err != nil {
		return touched, fmt.Errorf("discovery.Run: list enabled competitions: %w", err)
	}
	n, err := d.syncEvents(ctx, enabled)
	touched += n
	if err != nil {
		slog.Warn("discovery: event sync failed", "err", err)
	}

	n, err = d.closeStaleEvents(ctx)
	touched += n
	if err != nil {
		return touched, fmt.Errorf("discovery.Run: close stale events: %w", err)
	}

	return touched, nil
}

func (d *Discovery) syncEvents(ctx context.Context, competitions []domain.Competition) (int, error) {
	if len(competitions) == 0 {
		return 0, nil
	}
	touched := 0
	competitionIDs := make([]string, 0, len(competitions))
	for _, c := range competitions {
		competitionIDs = append(competitionIDs, c.ExternalID)
	}

	now := time.Now().UTC()
	events, err := d.exchange.ListEvents(ctx, competitionIDs, nil, now, now.Add(d.cfg.EventLookahead))
	if err != nil {
		return touched, fmt.Errorf("list events: %w", err)
	}
	for _, e := range events {
		if err := d.store.UpsertEvent(ctx, e); err != nil {
			return touched, fmt.Errorf("upsert event %s: %w", e.ExternalID, err)
		}
		touched++

		n, err := d.syncMarkets(ctx, e.ExternalID)
		touched += n
		if err != nil {
			slog.Warn("discovery: market catalogue failed", "event", e.ExternalID, "err", err)
		}
	}
	return touched, nil
}

func (d *Discovery) syncMarkets(ctx context.Context, eventID string) (int, error) {
	touched := 0
	results, err := d.exchange.ListMarketCatalogue(ctx, []string{eventID}, nil, d.cfg.MarketTypes, maxMarketCatalogueResults)
	if err != nil {
		return touched, fmt.Errorf("list market catalogue: %w", err)
	}
	for _, r := range results {
		if err := d.store.UpsertMarket(ctx, r.Market); err != nil {
			return touched, fmt.Errorf("upsert market %s: %w", r.Market.ExternalID, err)
		}
		touched++
		for _, runner := range r.Runners {
			if err := d.store.UpsertRunner(ctx, runner); err != nil {
				return touched, fmt.Errorf("upsert runner %s/%s: %w", runner.MarketID, runner.ExternalID, err)
			}
			touched++
		}
	}
	return touched, nil
}

// closeStaleEvents transitions SCHEDULED events past the close-after cutoff
// to CLOSED, regardless of upstream confirmation (I6).
func (d *Discovery) closeStaleEvents(ctx context.Context) (int, error) {
	scheduled, err := d.store.ListScheduledEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("list scheduled events: %w", err)
	}
	now := time.Now().UTC()
	closed := 0
	for _, e := range scheduled {
		if e.ShouldClose(now) {
			if err := d.store.CloseEvent(ctx, e.ExternalID); err != nil {
				return closed, fmt.Errorf("close event %s: %w", e.ExternalID, err)
			}
			closed++
		}
	}
	return closed, nil
}
