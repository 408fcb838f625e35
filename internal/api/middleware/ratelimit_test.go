package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatherly/server/internal/config"
)

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{PublicPerMinute: 10})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/events/public", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitBlocksAfterBudgetExhausted(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{PublicPerMinute: 2})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/events/public", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.Equal(t, "60", last.Header().Get("Retry-After"))
}

func TestRateLimitLoginTierUsesLongerRetryAfter(t *testing.T) {
	limited := RateLimit(config.RateLimitConfig{LoginPer15Minutes: 1})
	handler := WithRateLimitTierHandler(TierLogin)(limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	var last *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.Equal(t, "180", last.Header().Get("Retry-After"))
}

func TestRateLimitKeysClientsSeparately(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{PublicPerMinute: 1})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodGet, "/api/events/public", nil)
	first.RemoteAddr = "203.0.113.7:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	other := httptest.NewRequest(http.MethodGet, "/api/events/public", nil)
	other.RemoteAddr = "198.51.100.9:4321"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitExemptsHealth(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{PublicPerMinute: 1})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLimiterStoreEvictsStaleEntriesAndStops(t *testing.T) {
	store := newLimiterStore(config.RateLimitConfig{PublicPerMinute: 10})
	defer store.Stop()

	require.NotNil(t, store.limiter(TierPublic, "203.0.113.7"))

	store.mu.Lock()
	for _, entry := range store.limiters {
		entry.lastSeen = time.Now().Add(-time.Hour)
	}
	store.mu.Unlock()

	store.cleanup()

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Empty(t, store.limiters)
}

func TestClientKeyPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", clientKey(req))

	req.Header.Del("X-Forwarded-For")
	require.Equal(t, "10.0.0.1", clientKey(req))
}
