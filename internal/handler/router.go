package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/yuvipaste/yuvipaste/internal/metrics"
	"github.com/yuvipaste/yuvipaste/internal/middleware"
	"github.com/yuvipaste/yuvipaste/internal/service"
)

// RouterConfig carries everything the HTTP surface is built from.
type RouterConfig struct {
	Logger   *slog.Logger
	Recorder metrics.Recorder
	Version  string

	Identity *service.IdentityService
	Keys     *service.APIKeyService
	Pastes   *service.PasteService
	Gateway  *service.Gateway
	Health   *HealthHandler

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	RateLimit       middleware.RateLimitConfig
	CORS            middleware.CORSConfig
	Security        middleware.SecurityConfig
	MaxBodySize     int64
	SecureCookie    bool
	AuthMinDuration time.Duration
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	h := New(cfg.Version)
	authHandler := NewAuthHandler(cfg.Identity, logger, cfg.SecureCookie)
	keyHandler := NewAPIKeyHandler(cfg.Keys, logger)
	pasteHandler := NewPasteHandler(cfg.Gateway, cfg.Pastes, logger)

	healthHandler := cfg.Health
	if healthHandler == nil {
		healthHandler = NewHealthHandler()
	}

	rateLimitCfg := cfg.RateLimit
	rateLimitCfg.Logger = logger

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger, cfg.Recorder))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
	}

	// Health and metrics endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Get("/", h.Hello)

	sessionMW := middleware.Session(middleware.SessionConfig{
		Logger:   logger,
		Sessions: cfg.Identity,
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(sessionMW).Post("/verify", authHandler.Verify)
		r.With(sessionMW).Get("/session", authHandler.Session)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(sessionMW)
		r.Use(middleware.RequireVerified)
		r.Use(middleware.RateLimitSession(rateLimitCfg))

		r.Get("/keys", keyHandler.List)
		r.Post("/keys", keyHandler.Create)
		r.Delete("/keys/{keyID}", keyHandler.Revoke)
		r.Get("/pastes", pasteHandler.ListDashboard)
	})

	// Ingestion (API key required)
	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKey(middleware.APIKeyConfig{
			Logger:        logger,
			Authenticator: cfg.Gateway,
			MinDuration:   cfg.AuthMinDuration,
		}))
		r.Use(middleware.RateLimitAPI(rateLimitCfg))

		r.Post("/api/paste", pasteHandler.Create)
		r.Post("/api/v1/pastes", pasteHandler.Create)
		r.Get("/api/v1/pastes", pasteHandler.ListOwn)
	})

	// Public reads, shareable by ID
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitIP(rateLimitCfg))

		r.Get("/p/{id}", pasteHandler.Get)
		r.Get("/raw/{id}", pasteHandler.Raw)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
