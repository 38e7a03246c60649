package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/prajwalc1/employee-timeline/internal/adapters/primary/http/middleware"
	wsAdapter "github.com/prajwalc1/employee-timeline/internal/adapters/primary/websocket"
	"github.com/prajwalc1/employee-timeline/internal/auth"
	"github.com/prajwalc1/employee-timeline/internal/config"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/metrics"
)

// RouterDeps collects everything the HTTP surface needs.
type RouterDeps struct {
	Config         *config.Config
	Logger         *slog.Logger
	TokenManager   *auth.TokenManager
	Hub            *wsAdapter.Hub
	Templates      ports.TemplateService
	Registry       ports.EventRegistry
	Dispatcher     ports.Dispatcher
	Previews       ports.PreviewHistory
	ProviderConfig ports.ProviderConfigService
	Notifications  ports.NotificationService
	Metrics        *metrics.Metrics
	HealthChecks   map[string]HealthChecker
}

// NewRouter wires handlers and middleware into a chi router.
func NewRouter(d RouterDeps) http.Handler {
	cfg := d.Config
	logger := d.Logger

	errorHandler := NewErrorHandler(logger)
	templateHandler := NewTemplateHandler(d.Templates, d.Registry, errorHandler, logger)
	notificationHandler := NewNotificationHandler(d.Dispatcher, d.Registry, d.Previews, d.ProviderConfig, errorHandler, logger)
	eventHandler := NewEventHandler(d.Notifications, errorHandler, logger)
	wsHandler := NewWebSocketHandler(d.Hub, d.TokenManager, cfg, logger)
	healthHandler := NewHealthHandler(cfg.App.Version, d.HealthChecks)

	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(mw.CORS(cfg.WebSocket.AllowedOrigins, cfg.IsDevelopment()))

	var eventsLimiter *mw.KeyedLimiter
	if cfg.RateLimit.Enabled {
		general := mw.NewKeyedLimiter(mw.LimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.BurstSize,
			IdleTTL:           cfg.RateLimit.IdleTTL,
		})
		eventsLimiter = mw.NewKeyedLimiter(mw.LimiterConfig{
			RequestsPerSecond: cfg.RateLimit.EventsRPS,
			Burst:             cfg.RateLimit.EventsBurst,
			IdleTTL:           cfg.RateLimit.IdleTTL,
		})

		// Business services publish from a few addresses, so /events is
		// limited per caller instead.
		r.Group(func(r chi.Router) {
			r.Use(general.ByClientIP)
			registerPublicRoutes(r, healthHandler, d.Metrics)
		})
	} else {
		registerPublicRoutes(r, healthHandler, d.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Authentication is handled inside the handler (token query parameter)
		r.Get("/ws", wsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(d.TokenManager))
			r.Use(mw.RequireRole(auth.RoleService, auth.RoleAdmin))
			if eventsLimiter != nil {
				r.Use(eventsLimiter.ByCaller)
			}
			r.Post("/events", eventHandler.HandlePublish)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.JWTMiddleware(d.TokenManager))
			r.Use(mw.RequireRole(auth.RoleAdmin))
			r.Route("/templates", templateHandler.RegisterRoutes)
			r.Route("/notifications", notificationHandler.RegisterRoutes)
		})
	})

	return r
}

func registerPublicRoutes(r chi.Router, health *HealthHandler, m *metrics.Metrics) {
	// Health check endpoints (outside /api/v1 for standard probe paths)
	r.Get("/health", health.HandleHealth)
	r.Get("/health/live", health.HandleLiveness)
	r.Get("/health/ready", health.HandleReadiness)
	r.Handle("/metrics", m.Handler())
}
