package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionTTL is the in-process and shared-cache lifetime of a session token
// (§4.1, §9).
const sessionTTL = 4 * time.Hour

// sessionStore is the process-shared session-token cache (§9: "global
// state... process-shared with atomic mutation"). A single writer at a time
// refreshes it; readers see the cached value. Backed by Redis when
// configured, with an in-process fallback so the gateway still works
// without a shared store (at the cost of each process re-authenticating
// independently).
type sessionStore struct {
	redis *redis.Client
	key   string

	mu        sync.Mutex
	local     string
	localExp  time.Time
}

func newSessionStore(redisClient *redis.Client, keyPrefix string) *sessionStore {
	return &sessionStore{redis: redisClient, key: keyPrefix + ":session_token"}
}

// Get returns the cached token and whether it is present and unexpired.
func (s *sessionStore) Get(ctx context.Context) (string, bool) {
	if s.redis != nil {
		token, err := s.redis.Get(ctx, s.key).Result()
		if err == nil && token != "" {
			return token, true
		}
		if err != nil && err != redis.Nil {
			slog.Warn("session store unreachable, falling back to in-process cache", "err", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local == "" || time.Now().After(s.localExp) {
		return "", false
	}
	return s.local, true
}

// Set stores a freshly obtained token with the standard TTL.
func (s *sessionStore) Set(ctx context.Context, token string) {
	s.mu.Lock()
	s.local = token
	s.localExp = time.Now().Add(sessionTTL)
	s.mu.Unlock()

	if s.redis != nil {
		if err := s.redis.Set(ctx, s.key, token, sessionTTL).Err(); err != nil {
			slog.Warn("failed to write session token to shared store", "err", err)
		}
	}
}

// Invalidate clears the cached token, forcing the next Get to miss and the
// caller to re-authenticate (§4.1: "on receipt of a session-invalid error,
// the gateway logs out, re-authenticates").
func (s *sessionStore) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.local = ""
	s.mu.Unlock()

	if s.redis != nil {
		if err := s.redis.Del(ctx, s.key).Err(); err != nil {
			slog.Warn("failed to invalidate shared session token", "err", err)
		}
	}
}
