// Package api provides HTTP API server components.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lira-ai/lira/config"
	"github.com/lira-ai/lira/pkg/api/handlers"
	"github.com/lira-ai/lira/pkg/api/middleware"
	"github.com/lira-ai/lira/pkg/api/response"
	"github.com/lira-ai/lira/pkg/logger"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Generate runs conversational turns
	Generate *handlers.GenerateHandler

	// Sessions exposes the short-term session buffer
	Sessions *handlers.SessionHandler

	// Health handles health check endpoints
	Health *handlers.HealthHandler

	// Metrics is the optional metrics recorder
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	// Register global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing(middleware.DefaultTracingOptions()))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	// Add metrics middleware if provided
	if handlers.Metrics != nil {
		r.Use(middleware.Metrics(handlers.Metrics))
	}

	r.Use(middleware.CORS(&cfg.Server.CORS))

	if rl := cfg.Server.RateLimit; rl.Enabled {
		r.Use(middleware.RateLimit(middleware.NewRateLimiter(rl.RequestsPerSecond, rl.Burst)))
	}

	r.Use(middleware.Timeout(cfg.Server.HTTP.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound, "Route not found", middleware.GetRequestID(r.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, response.ErrCodeMethodNotAllowed, "Method not allowed", middleware.GetRequestID(r.Context()))
	})

	// Register routes
	RegisterRoutes(r, handlers)

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, handlers *Handlers) {
	r.Route("/api/lira", func(r chi.Router) {
		if handlers.Generate != nil {
			r.Post("/generate", handlers.Generate.Generate)
		}

		if handlers.Sessions != nil {
			r.Get("/sessions/{sessionID}", handlers.Sessions.GetSession)
			r.Delete("/sessions/{sessionID}", handlers.Sessions.DeleteSession)
		}
	})

	// Health check routes (not versioned)
	if handlers.Health != nil {
		r.Get("/health", handlers.Health.Health)
		r.Get("/ready", handlers.Health.Ready)
	}
}
