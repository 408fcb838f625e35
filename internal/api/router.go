// Package api wires the HTTP surface: routing, middleware ordering, and the
// handler constructors. Dependencies come in through Deps so tests can swap
// in-memory fakes for the database-backed collaborators.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gatherly/server/internal/api/handlers"
	"github.com/gatherly/server/internal/api/middleware"
	"github.com/gatherly/server/internal/auth"
	"github.com/gatherly/server/internal/config"
	"github.com/gatherly/server/internal/domain/events"
	"github.com/gatherly/server/internal/domain/users"
	"github.com/gatherly/server/internal/media"
	"github.com/gatherly/server/internal/metrics"
)

// Deps carries everything the router needs. Realtime may be nil (no /ws
// route) and DB may be nil (health reports disconnected).
type Deps struct {
	Config   config.Config
	Logger   zerolog.Logger
	Users    *users.Service
	Events   *events.Service
	Tokens   *auth.JWTManager
	Media    media.Store
	Realtime http.Handler
	DB       handlers.Pinger
}

func NewRouter(deps Deps) http.Handler {
	env := deps.Config.Environment

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Events, deps.Tokens, env)
	eventsHandler := handlers.NewEventsHandler(deps.Events, env)
	uploadHandler := handlers.NewUploadHandler(deps.Media, deps.Config.Uploads.MaxBytes, env)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	guard := middleware.Auth(deps.Tokens, deps.Users, env)
	limit := middleware.RateLimit(deps.Config.RateLimit)
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)

	// Tier tagging runs before the limiter so the login bucket applies.
	loginLimited := func(h http.Handler) http.Handler { return loginTier(limit(h)) }
	protected := func(h http.HandlerFunc) http.Handler { return limit(guard(h)) }
	public := func(h http.HandlerFunc) http.Handler { return limit(h) }

	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/register", public(authHandler.Register))
	mux.Handle("POST /api/auth/login", loginLimited(http.HandlerFunc(authHandler.Login)))
	mux.Handle("GET /api/auth/me", protected(authHandler.Me))

	mux.Handle("GET /api/events/public", public(eventsHandler.ListPublic))
	mux.Handle("GET /api/events/public/{id}", public(eventsHandler.GetPublic))
	mux.Handle("GET /api/events", protected(eventsHandler.List))
	mux.Handle("POST /api/events", protected(eventsHandler.Create))
	mux.Handle("GET /api/events/{id}", protected(eventsHandler.Get))
	mux.Handle("PUT /api/events/{id}", protected(eventsHandler.Update))
	mux.Handle("DELETE /api/events/{id}", protected(eventsHandler.Delete))
	mux.Handle("POST /api/events/{id}/attend", protected(eventsHandler.Attend))
	mux.Handle("POST /api/events/{id}/comments", protected(eventsHandler.AddComment))
	mux.Handle("DELETE /api/events/{id}/comments/{commentId}", protected(eventsHandler.DeleteComment))

	mux.Handle("POST /api/upload", protected(uploadHandler.Upload))
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.Config.Uploads.Dir))))

	if deps.Realtime != nil {
		mux.Handle("GET /ws", deps.Realtime)
	}

	mux.Handle("GET /health", http.HandlerFunc(healthHandler.Health))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// Outermost first: CORS answers preflights before routing runs.
	var handler http.Handler = mux
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.CORS(deps.Config.CORS, deps.Logger)(handler)
	return handler
}
