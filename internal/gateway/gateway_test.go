package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, ErrInvalidInput, classifyStatus(400))
	assert.Equal(t, ErrRateLimited, classifyStatus(429))
	assert.Equal(t, ErrServiceUnavailable, classifyStatus(500))
	assert.Equal(t, ErrServiceUnavailable, classifyStatus(503))
	assert.Equal(t, ErrUnknown, classifyStatus(418))
}

func TestErrorKind_Retryable(t *testing.T) {
	assert.True(t, ErrTimeout.Retryable())
	assert.True(t, ErrRateLimited.Retryable())
	assert.True(t, ErrServiceUnavailable.Retryable())
	assert.True(t, ErrInvalidSession.Retryable())
	assert.False(t, ErrInvalidInput.Retryable())
	assert.False(t, ErrTooMuchData.Retryable())
}

// fakeExchange serves a minimal login endpoint plus a list-event-types
// endpoint so Client's session+rate-limit+translation plumbing can be
// exercised end to end without a real upstream.
func newFakeExchange(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sessionResponseDTO{SessionToken: "tok-123", LoginStatus: "SUCCESS"})
	})
	mux.HandleFunc("/event-types", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("X-Authentication") != "tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode([]eventTypeDTO{{ID: "1", Name: "Soccer"}})
	})
	return httptest.NewServer(mux), &calls
}

func TestClient_ListEventTypes(t *testing.T) {
	srv, calls := newFakeExchange(t)
	defer srv.Close()

	c, err := NewClient(Config{
		BaseURL:     srv.URL,
		LoginURL:    srv.URL + "/login",
		Credentials: Credentials{Username: "u", Password: "p", AppKey: "key"},
	})
	require.NoError(t, err)

	sports, err := c.ListEventTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, sports, 1)
	assert.Equal(t, "Soccer", sports[0].Name)
	assert.Equal(t, 1, *calls)
}

func TestClient_SessionIsCachedAcrossCalls(t *testing.T) {
	srv, _ := newFakeExchange(t)
	defer srv.Close()

	c, err := NewClient(Config{
		BaseURL:     srv.URL,
		LoginURL:    srv.URL + "/login",
		Credentials: Credentials{Username: "u", Password: "p", AppKey: "key"},
	})
	require.NoError(t, err)

	_, err = c.ListEventTypes(context.Background())
	require.NoError(t, err)

	tok1, ok := c.sessions.Get(context.Background())
	require.True(t, ok)

	_, err = c.ListEventTypes(context.Background())
	require.NoError(t, err)

	tok2, _ := c.sessions.Get(context.Background())
	assert.Equal(t, tok1, tok2)
}
