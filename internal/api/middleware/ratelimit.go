package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gatherly/server/internal/config"
	"golang.org/x/time/rate"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	TierLogin  RateLimitTier = "login"
)

type rateLimitKey string

const rateLimitTierKey rateLimitKey = "rateLimitTier"

// WithRateLimitTierHandler tags all requests passing through it with the
// given tier so RateLimit picks the matching bucket.
func WithRateLimitTierHandler(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), rateLimitTierKey, tier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit enforces per-client token bucket limits. The login tier is
// deliberately aggressive to slow down credential stuffing; everything else
// uses the public per-minute budget. Health checks are exempt.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			tier := TierPublic
			if value, ok := r.Context().Value(rateLimitTierKey).(RateLimitTier); ok {
				tier = value
			}

			limiter := store.limiter(tier, clientKey(r))
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow() {
				retryAfter := "60"
				if tier == TierLogin {
					retryAfter = "180"
				}
				w.Header().Set("Retry-After", retryAfter)
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type limiterStore struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	limits      map[RateLimitTier]int
	stopCleanup chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	store := &limiterStore{
		limiters: make(map[string]*limiterEntry),
		limits: map[RateLimitTier]int{
			TierPublic: cfg.PublicPerMinute,
			TierLogin:  cfg.LoginPer15Minutes,
		},
		stopCleanup: make(chan struct{}),
	}
	go store.cleanupLoop()
	return store
}

func (s *limiterStore) limiter(tier RateLimitTier, key string) *rate.Limiter {
	limit := s.limits[tier]
	if limit <= 0 {
		return nil
	}

	lookup := string(tier) + ":" + key
	if key == "" {
		lookup = string(tier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.limiters[lookup]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	// Login tier refills one token per 3 minutes with a burst of the full
	// budget; other tiers spread the budget evenly over a minute.
	var limiter *rate.Limiter
	if tier == TierLogin {
		limiter = rate.NewLimiter(rate.Every(3*time.Minute), limit)
	} else {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit)), limit)
	}

	s.limiters[lookup] = &limiterEntry{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// cleanupLoop evicts limiters not seen in 15 minutes so the store does not
// grow without bound.
func (s *limiterStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *limiterStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > 15*time.Minute {
			delete(s.limiters, key)
		}
	}
}

// Stop terminates the cleanup goroutine.
func (s *limiterStore) Stop() {
	close(s.stopCleanup)
}

// clientKey identifies the client for bucketing. The first X-Forwarded-For
// hop wins when present, matching a deployment behind a single proxy.
func clientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
