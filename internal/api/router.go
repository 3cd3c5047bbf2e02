package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/example/fairway-commerce/internal/api/middleware"
	"github.com/example/fairway-commerce/internal/api/respond"
	"github.com/example/fairway-commerce/internal/apperr"
	"github.com/example/fairway-commerce/internal/auth"
	"github.com/example/fairway-commerce/internal/metrics"
)

// RouterConfig holds the dependencies for the router
type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
	// Limiter may be nil to disable rate limiting.
	Limiter middleware.Limiter
	Logger  *zap.Logger
	// Metrics and Gatherer may be nil to disable /metrics.
	Metrics  *metrics.ServerMetrics
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, apperr.NotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, apperr.MethodNotAllowed(r.Method))
	})

	r.Get("/health", cfg.Handlers.Health)
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Gatherer))
	}

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.Limiter != nil {
		limit = middleware.RateLimit(cfg.Limiter, cfg.Logger)
	}

	r.Route("/api", func(r chi.Router) {
		// Auth routes (public)
		r.With(limit).Post("/auth/login", cfg.AuthHandlers.Login)
		r.Post("/auth/logout", cfg.AuthHandlers.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.JWTService))
			r.Use(limit)

			r.Get("/orders/{id}", cfg.Handlers.GetOrder)
			r.Patch("/orders/{id}/status", cfg.Handlers.UpdateOrderStatus)
			r.With(middleware.RequireRole(auth.RolePlatformAdmin, auth.RoleBrandAdmin)).
				Get("/orders/{id}/audit-logs", cfg.Handlers.GetOrderAuditLogs)
		})
	})

	return r
}
