// Package gateway implements the Exchange Gateway (C1): an authenticated,
// rate-limited, retrying client over the upstream betting-exchange API. It
// owns the session-token lifecycle and translates wire DTOs into the
// strongly-typed domain records the rest of the pipeline consumes.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ridgeradar/ridgeradar/internal/domain"
)

const (
	maxRetries    = 3
	baseRetryWait = 1 * time.Second

	defaultRatePerSecond = 5.0
	defaultBurst         = 10
)

// BookResult is the translated per-market order-book snapshot returned by
// ListMarketBook (§3, §6).
type BookResult struct {
	MarketID       string
	Status         domain.MarketStatus
	InPlay         bool
	TotalMatched   float64
	TotalAvailable float64
	Ladder         domain.Ladder
	RunnerStatuses map[string]domain.RunnerStatus
}

// MarketCatalogueResult pairs a translated Market with its Runners, as
// returned by a single market catalogue entry.
type MarketCatalogueResult struct {
	Market  domain.Market
	Runners []domain.Runner
}

// Client is the C1 Exchange Gateway.
type Client struct {
	http        *http.Client
	baseURL     string
	sessions    *sessionStore
	limiter     *RateLimiter
	auth        *authenticator
	appKey      string

	mu sync.Mutex // guards the single-writer re-auth path
}

// Config configures a Client.
type Config struct {
	BaseURL       string
	LoginURL      string
	Credentials   Credentials
	RedisClient   *redis.Client // nil disables the shared store (local fallback only)
	RatePerSecond float64       // default 5 req/s
	Burst         int           // default 10
	HTTPTimeout   time.Duration // default 10s
}

// NewClient builds a Client wired for rate limiting, a shared session cache
// and automatic re-auth, per §4.1 and §9.
func NewClient(cfg Config) (*Client, error) {
	rate := cfg.RatePerSecond
	if rate <= 0 {
		rate = defaultRatePerSecond
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	auth, err := NewAuthenticator(cfg.Credentials, cfg.LoginURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  cfg.BaseURL,
		sessions: newSessionStore(cfg.RedisClient, "ridgeradar:gateway"),
		limiter:  NewRateLimiter(cfg.RedisClient, rate, burst),
		auth:     auth,
		appKey:   cfg.Credentials.AppKey,
	}, nil
}

// ListEventTypes returns every enabled Sport.
func (c *Client) ListEventTypes(ctx context.Context) ([]domain.Sport, error) {
	var out []eventTypeDTO
	if err := c.call(ctx, "listEventTypes", http.MethodGet, "/event-types", nil, &out); err != nil {
		return nil, err
	}
	sports := make([]domain.Sport, 0, len(out))
	for _, e := range out {
		sports = append(sports, domain.Sport{ExternalID: e.ID, Name: e.Name})
	}
	return sports, nil
}

// ListCompetitions returns competitions for the given sports/countries
// (either filter may be nil for "all").
func (c *Client) ListCompetitions(ctx context.Context, sportIDs, countryCodes []string) ([]domain.Competition, error) {
	var out []competitionDTO
	body := map[string]any{"eventTypeIds": sportIDs, "marketCountries": countryCodes}
	if err := c.call(ctx, "listCompetitions", http.MethodPost, "/competitions", body, &out); err != nil {
		return nil, err
	}
	comps := make([]domain.Competition, 0, len(out))
	for _, d := range out {
		comps = append(comps, domain.Competition{
			ExternalID: d.ID,
			Name:       d.Name,
			Country:    d.CountryCode,
			Enabled:    true,
		})
	}
	return comps, nil
}

// ListEvents returns events for the given competitions/sports whose start
// falls within [from, to].
func (c *Client) ListEvents(ctx context.Context, competitionIDs, sportIDs []string, from, to time.Time) ([]domain.Event, error) {
	var out []eventDTO
	body := map[string]any{
		"competitionIds": competitionIDs,
		"eventTypeIds":   sportIDs,
		"marketStartTime": map[string]string{
			"from": from.UTC().Format(time.RFC3339),
			"to":   to.UTC().Format(time.RFC3339),
		},
	}
	if err := c.call(ctx, "listEvents", http.MethodPost, "/events", body, &out); err != nil {
		return nil, err
	}
	events := make([]domain.Event, 0, len(out))
	for _, d := range out {
		events = append(events, domain.Event{
			ExternalID:     d.ID,
			CompetitionID:  d.CompetitionID,
			ScheduledStart: d.OpenDate,
			Status:         domain.EventScheduled,
		})
	}
	return events, nil
}

// ListMarketCatalogue returns market + runner data for the given
// events/competitions and market-type tags, capped at max results.
func (c *Client) ListMarketCatalogue(ctx context.Context, eventIDs, competitionIDs, marketTypes []string, max int) ([]MarketCatalogueResult, error) {
	var out []marketCatalogueDTO
	body := map[string]any{
		"eventIds":       eventIDs,
		"competitionIds": competitionIDs,
		"marketTypeCodes": marketTypes,
		"maxResults":     max,
	}
	if err := c.call(ctx, "listMarketCatalogue", http.MethodPost, "/market-catalogue", body, &out); err != nil {
		return nil, err
	}

	results := make([]MarketCatalogueResult, 0, len(out))
	for _, d := range out {
		runners := make([]domain.Runner, 0, len(d.Runners))
		for _, r := range d.Runners {
			runners = append(runners, domain.Runner{
				ExternalID: r.SelectionID,
				MarketID:   d.MarketID,
				Name:       r.RunnerName,
				Status:     domain.RunnerActive,
			})
		}
		results = append(results, MarketCatalogueResult{
			Market: domain.Market{
				ExternalID:   d.MarketID,
				EventID:      d.EventID,
				Name:         d.MarketName,
				MarketType:   d.MarketType,
				TotalMatched: d.TotalMatched,
				Status:       domain.MarketOpen,
			},
			Runners: runners,
		})
	}
	return results, nil
}

// ListMarketBook returns order-book state for the given market ids at the
// requested price depth (§4.1, §4.3). Callers are responsible for batching
// market ids per the Snapshotter's batching rules (§4.3).
func (c *Client) ListMarketBook(ctx context.Context, marketIDs []string, priceDepth int) ([]BookResult, error) {
	var out []marketBookDTO
	body := map[string]any{
		"marketIds": marketIDs,
		"priceProjection": map[string]any{
			"priceData":      []string{"EX_BEST_OFFERS"},
			"exBestOffersOverrides": map[string]int{"bestPricesDepth": priceDepth},
		},
	}
	if err := c.call(ctx, "listMarketBook", http.MethodPost, "/market-book", body, &out); err != nil {
		return nil, err
	}

	results := make([]BookResult, 0, len(out))
	for _, d := range out {
		runnerLadders := make([]domain.RunnerLadder, 0, len(d.Runners))
		statuses := make(map[string]domain.RunnerStatus, len(d.Runners))
		for _, r := range d.Runners {
			runnerLadders = append(runnerLadders, domain.RunnerLadder{
				RunnerExternalID: r.SelectionID,
				LastTradedPrice:  r.LastPriceTraded,
				TotalMatched:     r.TotalMatched,
				Back:             toPriceLevels(r.AvailableToBack),
				Lay:              toPriceLevels(r.AvailableToLay),
			})
			statuses[r.SelectionID] = domain.RunnerStatus(r.Status)
		}
		results = append(results, BookResult{
			MarketID:       d.MarketID,
			Status:         domain.MarketStatus(d.Status),
			InPlay:         d.InPlay,
			TotalMatched:   d.TotalMatched,
			TotalAvailable: d.TotalAvailable,
			Ladder:         domain.Ladder{Runners: runnerLadders},
			RunnerStatuses: statuses,
		})
	}
	return results, nil
}

// HealthCheck verifies the gateway can reach the upstream API and hold a
// valid session.
func (c *Client) HealthCheck(ctx context.Context) error {
	var out map[string]any
	return c.call(ctx, "healthCheck", http.MethodGet, "/health", nil, &out)
}

func toPriceLevels(in []priceSizeDTO) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(in))
	for _, p := range in {
		out = append(out, domain.PriceLevel{Price: p.Price, Size: p.Size})
	}
	return out
}

// call performs one logical gateway operation: rate-limit acquisition,
// session attach, HTTP call, and up to maxRetries retries on transient errors
// (§4.1). An INVALID_SESSION failure re-authenticates and retries within the
// same retry budget.
func (c *Client) call(ctx context.Context, endpoint, method, path string, body any, out any) error {
	c.limiter.Wait(ctx, endpoint)

	token, err := c.ensureSession(ctx)
	if err != nil {
		return fmt.Errorf("gateway.%s: %w", endpoint, err)
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := c.doOnce(ctx, method, path, token, body, out)
		if err == nil {
			return nil
		}

		gwErr, ok := err.(*Error)
		if !ok {
			return fmt.Errorf("gateway.%s: %w", endpoint, err)
		}

		if gwErr.Kind == ErrInvalidSession {
			c.sessions.Invalidate(ctx)
			token, err = c.ensureSession(ctx)
			if err != nil {
				return fmt.Errorf("gateway.%s: re-auth: %w", endpoint, err)
			}
			continue
		}

		if !gwErr.Kind.Retryable() || attempt == maxRetries {
			return fmt.Errorf("gateway.%s: %w", endpoint, gwErr)
		}

		slog.Warn("gateway call retrying", "endpoint", endpoint, "attempt", attempt+1, "kind", gwErr.Kind)
		c.sleepBackoff(ctx, attempt)
	}
	return fmt.Errorf("gateway.%s: exhausted %d retries", endpoint, maxRetries)
}

func (c *Client) doOnce(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: ErrUnknown, Op: path, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Application", c.appKey)
	req.Header.Set("X-Authentication", token)

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: ErrTimeout, Op: path, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &Error{Kind: ErrInvalidSession, Op: path}
	}
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		var errDTO errorResponseDTO
		_ = json.Unmarshal(raw, &errDTO)
		kind := classifyStatus(resp.StatusCode)
		if errDTO.ErrorCode == string(ErrTooMuchData) {
			kind = ErrTooMuchData
		}
		return &Error{Kind: kind, Op: path, Cause: fmt.Errorf("%s", string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: ErrUnknown, Op: path, Cause: err}
	}
	return nil
}

// ensureSession returns the cached token, logging in if none is cached. Only
// one goroutine performs the actual login at a time (§5: "single writer at a
// time per process (guarded by a lock)").
func (c *Client) ensureSession(ctx context.Context) (string, error) {
	if token, ok := c.sessions.Get(ctx); ok {
		return token, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check: another goroutine may have refreshed it while we waited.
	if token, ok := c.sessions.Get(ctx); ok {
		return token, nil
	}

	token, err := c.auth.Login(ctx)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	c.sessions.Set(ctx, token)
	return token, nil
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
