// Package main is the entrypoint for the YUVI Paste API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/yuvipaste/yuvipaste/internal/auth"
	"github.com/yuvipaste/yuvipaste/internal/cache"
	"github.com/yuvipaste/yuvipaste/internal/config"
	"github.com/yuvipaste/yuvipaste/internal/handler"
	"github.com/yuvipaste/yuvipaste/internal/metrics"
	"github.com/yuvipaste/yuvipaste/internal/middleware"
	"github.com/yuvipaste/yuvipaste/internal/repository"
	"github.com/yuvipaste/yuvipaste/internal/repository/memory"
	"github.com/yuvipaste/yuvipaste/internal/server"
	"github.com/yuvipaste/yuvipaste/internal/service"
)

const version = "0.1.0"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Storage
	var (
		store   service.Store
		health  []handler.HealthCheck
		closers []namedCloser
	)
	switch cfg.StoreBackend {
	case config.StoreMemory:
		mem := memory.New()
		store = mem
		health = append(health, handler.HealthCheck{Name: "store", Checker: mem})
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		if cfg.AutoMigrate {
			if err := repository.Migrate(cfg.DatabaseURL, logger); err != nil {
				logger.Error("failed to migrate database",
					slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				)
				os.Exit(1)
			}
		}

		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		closers = append(closers, namedCloser{"postgres", func(context.Context) error {
			repo.Close()
			return nil
		}})
		store = repo
		health = append(health, handler.HealthCheck{Name: "postgres", Checker: repo})
		logger.Info("connected to database")
	}

	// Cache (optional)
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		closers = append(closers, namedCloser{"redis", func(context.Context) error {
			return cacheClient.Close()
		}})
		health = append(health, handler.HealthCheck{Name: "redis", Checker: cacheClient})
		logger.Info("connected to Redis")
	} else {
		health = append(health, handler.HealthCheck{Name: "redis"})
		logger.Warn("REDIS_URL not set; caching, view counts and rate limiting are disabled")
	}

	// Services
	recorder := metrics.NewPrometheus()
	hasher := auth.NewHasher(auth.DefaultParams)

	var sessions service.SessionStore = store
	if cacheClient != nil {
		sessions = cacheClient.Sessions()
	}

	identity := service.NewIdentityService(store, sessions, service.IdentityConfig{
		AllowedDomains:    cfg.EmailDomains(),
		SessionTTL:        cfg.SessionTTL,
		Hasher:            hasher,
		MinPasswordLength: cfg.MinPasswordLength,
	}, recorder)
	keys := service.NewAPIKeyService(store, hasher, cfg.MaxActiveKeys, recorder)
	gateway := service.NewGateway(store, store, service.GatewayConfig{
		MaxPastes:     cfg.MaxPastesPerAccount,
		MaxPasteBytes: cfg.MaxPasteBytes,
		Hasher:        hasher,
	}, recorder)

	var pastes *service.PasteService
	rateLimitCfg := middleware.RateLimitConfig{
		APIEnabled:       cfg.RateLimitAPIEnabled,
		APIPerMinute:     cfg.RateLimitAPIPerMinute,
		APIBurst:         cfg.RateLimitAPIBurst,
		PublicEnabled:    cfg.RateLimitPublicEnabled,
		PublicRPS:        cfg.RateLimitPublicRPS,
		PublicBurst:      cfg.RateLimitPublicBurst,
		SessionEnabled:   cfg.RateLimitSessionEnabled,
		SessionPerMinute: cfg.RateLimitSessionPerMinute,
		SessionBurst:     cfg.RateLimitSessionBurst,
	}
	if cacheClient != nil {
		gateway.WithAuthCache(cacheClient).WithPasteCache(cacheClient)
		pastes = service.NewPasteService(store, cacheClient, recorder)
		rateLimitCfg.Limiter = cacheClient
	} else {
		pastes = service.NewPasteService(store, nil, recorder)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := handler.NewRouter(handler.RouterConfig{
		Logger:         logger,
		Recorder:       recorder,
		Version:        version,
		Identity:       identity,
		Keys:           keys,
		Pastes:         pastes,
		Gateway:        gateway,
		Health:         handler.NewHealthHandler(health...),
		MetricsHandler: recorder.Handler(),
		RateLimit:      rateLimitCfg,
		CORS:           corsCfg,
		Security:       middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		MaxBodySize:    cfg.MaxRequestBodySize,
		SecureCookie:   cfg.SessionCookieSecure,
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	for _, c := range closers {
		srv.OnShutdown(c.name, c.fn)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"store", cfg.StoreBackend,
		"version", version,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type namedCloser struct {
	name string
	fn   server.ShutdownFunc
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
