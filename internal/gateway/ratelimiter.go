package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// tokenBucketScript is a Redis Lua script implementing an atomic token
// bucket, grounded directly on the upstream rate limiter's algorithm
// (BetfairRateLimiter in the original source): refill by elapsed time *
// rate, cap at burst, consume one token if available.
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local refill_interval = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_update')
local tokens = tonumber(state[1]) or burst
local last_update = tonumber(state[2]) or now

local elapsed = now - last_update
local tokens_to_add = elapsed * rate
tokens = math.min(burst, tokens + tokens_to_add)

if tokens >= 1 then
    tokens = tokens - 1
    redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
    redis.call('EXPIRE', key, 60)
    return {1, 0}
else
    local wait_time = refill_interval - (elapsed % refill_interval)
    return {0, wait_time}
end
`

const (
	maxWait       = 10 * time.Second
	pollInterval  = 100 * time.Millisecond
	keyPrefixRL   = "ratelimit:ridgeradar"
)

// RateLimiter is the token-bucket acquirer described in §4.1/§9: per-logical
// endpoint, atomic and shared across all callers via Redis when a client is
// configured. Without a Redis client it uses an in-process
// golang.org/x/time/rate limiter per endpoint; when Redis is configured but
// cannot be reached, it fails open and lets the request proceed.
type RateLimiter struct {
	redis          *redis.Client
	ratePerSecond  float64
	burst          int
	refillInterval float64

	mu       sync.Mutex
	fallback map[string]*rate.Limiter
}

// NewRateLimiter builds a RateLimiter at the configured rate/burst. redisClient
// may be nil, in which case only the in-process fallback is used.
func NewRateLimiter(redisClient *redis.Client, ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		redis:          redisClient,
		ratePerSecond:  ratePerSecond,
		burst:          burst,
		refillInterval: 1.0 / ratePerSecond,
		fallback:       make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a token is available for endpoint, or until the bounded
// maximum wait (10s) elapses, whichever comes first — it never returns an
// error, mirroring the upstream's wait_if_needed, which proceeds with the
// request either way after logging a warning (§4.1).
func (r *RateLimiter) Wait(ctx context.Context, endpoint string) {
	if r.redis == nil {
		waitCtx, cancel := context.WithTimeout(ctx, maxWait)
		defer cancel()
		r.fallbackLimiter(endpoint).Wait(waitCtx)
		return
	}

	deadline := time.Now().Add(maxWait)
	for {
		ok, err := r.acquire(ctx, endpoint)
		if err != nil {
			slog.Warn("rate limiter store unreachable, failing open", "endpoint", endpoint, "err", err)
			return
		}
		if ok {
			return
		}
		if time.Now().After(deadline) {
			slog.Warn("rate limiter max wait exceeded, proceeding anyway", "endpoint", endpoint)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
}

func (r *RateLimiter) acquire(ctx context.Context, endpoint string) (bool, error) {
	key := keyPrefixRL + ":" + endpoint
	now := float64(time.Now().UnixNano()) / 1e9
	res, err := r.redis.Eval(ctx, tokenBucketScript, []string{key},
		r.ratePerSecond, r.burst, now, r.refillInterval,
	).Result()
	if err != nil {
		return false, err
	}
	pair, ok := res.([]interface{})
	if !ok || len(pair) != 2 {
		return false, nil
	}
	success, _ := pair[0].(int64)
	return success == 1, nil
}

func (r *RateLimiter) fallbackLimiter(endpoint string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	lim, ok := r.fallback[endpoint]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(r.ratePerSecond), r.burst)
		r.fallback[endpoint] = lim
	}
	return lim
}
