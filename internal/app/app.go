// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the claim resolution server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aurelianware/hipaa-attachments-sub007/config"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/auditlog"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/phi"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/ratelimit"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/resolver"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/server"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/suggest"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config *config.Config
	engine *resolver.Engine
	audit  *auditlog.Result
	server *server.Server
	rollup *cron.Cron

	shutdownMu sync.Mutex
	shutdown   bool
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg *config.LoadResult) (*App, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, fmt.Errorf("app config is required")
	}
	appCfg := cfg.Config

	app := &App{config: appCfg}

	detector, err := BuildDetector(appCfg.PHI)
	if err != nil {
		return nil, fmt.Errorf("failed to build PHI detector: %w", err)
	}

	limiter, err := buildLimiter(appCfg.Engine.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	app.engine = resolver.New(
		resolver.WithDetector(detector),
		resolver.WithLimiter(limiter),
		resolver.WithMock(suggest.NewMock(time.Duration(appCfg.Engine.MockLatencyMs)*time.Millisecond)),
		resolver.WithLogger(slog.Default()),
	)

	auditResult, err := auditlog.New(ctx, appCfg, detector)
	if err != nil {
		closeErr := app.engine.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("failed to initialize audit logging: %w (also: engine close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize audit logging: %w", err)
	}
	app.audit = auditResult

	if err := app.startRollup(appCfg.Metrics.RollupSchedule); err != nil {
		closeErr := errors.Join(app.audit.Close(), app.engine.Close())
		if closeErr != nil {
			return nil, fmt.Errorf("failed to schedule metrics rollup: %w (also: close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to schedule metrics rollup: %w", err)
	}

	bodySizeLimit, err := config.ParseBodySizeLimit(appCfg.Server.BodySizeLimit)
	if err != nil {
		_ = app.Shutdown(ctx)
		return nil, fmt.Errorf("invalid body size limit: %w", err)
	}

	app.logStartupInfo(cfg.Path)

	app.server = server.New(app.engine, auditResult.Logger, auditResult.Reader, &server.Config{
		MasterKey:       appCfg.Server.MasterKey,
		MetricsEnabled:  appCfg.Metrics.Enabled,
		MetricsEndpoint: appCfg.Metrics.Endpoint,
		BodySizeLimit:   bodySizeLimit,
		SwaggerEnabled:  appCfg.Server.SwaggerEnabled,
		DefaultMode:     appCfg.Engine.Mode,
		Live:            LiveConfig(appCfg),
		Logger:          slog.Default(),
		Aggregator:      app.engine.Aggregator(),
	})

	return app, nil
}

// BuildDetector loads the configured vocabulary file, if any, and adds the
// extra field names to it.
func BuildDetector(cfg config.PHIConfig) (*phi.Detector, error) {
	vocab := phi.DefaultVocabulary()
	if cfg.VocabularyFile != "" {
		loaded, err := phi.LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return nil, err
		}
		vocab = loaded
	}
	if len(cfg.ExtraFieldNames) > 0 {
		vocab = vocab.With(cfg.ExtraFieldNames...)
	}
	return phi.NewDetector(vocab), nil
}

// LiveConfig maps the backend, engine and http sections onto the per-call
// live settings.
func LiveConfig(cfg *config.Config) resolver.Config {
	b := cfg.Backend
	return resolver.Config{
		Provider:              b.Provider,
		BaseURL:               b.BaseURL,
		APIKey:                b.APIKey,
		Model:                 b.Model,
		Deployment:            b.Deployment,
		APIVersion:            b.APIVersion,
		MaxTokens:             b.MaxTokens,
		Temperature:           b.Temperature,
		MinInterval:           time.Duration(cfg.Engine.MinIntervalMs) * time.Millisecond,
		AllowedFields:         cfg.PHI.AllowedFields,
		Timeout:               time.Duration(cfg.HTTP.Timeout) * time.Second,
		ResponseHeaderTimeout: time.Duration(cfg.HTTP.ResponseHeaderTimeout) * time.Second,
	}
}

func buildLimiter(cfg config.RedisConfig) (*ratelimit.Limiter, error) {
	if cfg.URL == "" {
		return ratelimit.New(nil), nil
	}
	store, err := ratelimit.NewRedisStore(ratelimit.RedisConfig{URL: cfg.URL, Key: cfg.Key})
	if err != nil {
		return nil, err
	}
	return ratelimit.New(store), nil
}

// rollupParser accepts standard five-field specs and descriptors like @hourly.
var rollupParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func (a *App) startRollup(schedule string) error {
	if schedule == "" {
		return nil
	}
	c := cron.New(cron.WithParser(rollupParser))
	if _, err := c.AddFunc(schedule, a.Rollup); err != nil {
		return fmt.Errorf("invalid rollup schedule %q: %w", schedule, err)
	}
	c.Start()
	a.rollup = c
	slog.Info("metrics rollup scheduled", "schedule", schedule)
	return nil
}

// Rollup logs the current metrics window and starts a new one.
func (a *App) Rollup() {
	s := a.engine.ResetMetrics()
	slog.Info("metrics rollup",
		"window_start", s.LastResetAt,
		"total_requests", s.TotalRequests,
		"successful_requests", s.SuccessfulRequests,
		"failed_requests", s.FailedRequests,
		"rate_limit_hits", s.RateLimitHits,
		"mock_requests", s.MockModeRequests,
		"avg_processing_ms", s.AverageProcessingTimeMs,
		"avg_tokens", s.AverageTokenCount,
	)
}

// Engine returns the resolution engine.
func (a *App) Engine() *resolver.Engine {
	return a.engine
}

// AuditLogger returns the audit logger interface.
func (a *App) AuditLogger() auditlog.LoggerInterface {
	if a.audit == nil {
		return nil
	}
	return a.audit.Logger
}

// Handler returns the HTTP handler, for tests and embedding.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully tears down app components in dependency order.
// Order:
// 1. HTTP server shutdown, honoring the passed context timeout/cancellation.
// 2. Rollup scheduler stop (waits for a running job).
// 3. Audit logger close (flushes pending records).
// 4. Engine close (releases the rate limit store).
//
// Shutdown is idempotent; after the first call, subsequent calls are no-ops.
// It attempts every close step and returns a joined error if any step fails.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.rollup != nil {
		select {
		case <-a.rollup.Stop().Done():
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("rollup stop: %w", ctx.Err()))
		}
	}

	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			slog.Error("audit logger close error", "error", err)
			errs = append(errs, fmt.Errorf("audit close: %w", err))
		}
	}

	if a.engine != nil {
		if err := a.engine.Close(); err != nil {
			slog.Error("engine close error", "error", err)
			errs = append(errs, fmt.Errorf("engine close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

// logStartupInfo logs the application configuration on startup. Secrets
// are reported only as present or absent.
func (a *App) logStartupInfo(configPath string) {
	cfg := a.config

	if configPath != "" {
		slog.Info("config file loaded", "path", configPath)
	}

	if cfg.Server.MasterKey == "" {
		slog.Warn("SECURITY WARNING: CLAIMRESOLVER_MASTER_KEY not set - server running in UNSAFE MODE",
			"security_risk", "unauthenticated access allowed",
			"recommendation", "set CLAIMRESOLVER_MASTER_KEY to protect the /v1 routes")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	slog.Info("engine configured",
		"default_mode", cfg.Engine.Mode,
		"min_interval_ms", cfg.Engine.MinIntervalMs,
		"shared_rate_limit", cfg.Engine.RateLimit.URL != "",
		"backend", LiveConfig(cfg).ProviderType(),
		"backend_key_set", cfg.Backend.APIKey != "",
		"allowed_fields", len(cfg.PHI.AllowedFields),
	)

	if cfg.Server.SwaggerEnabled {
		slog.Info("swagger UI enabled", "path", "/swagger/index.html")
	}

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	if cfg.Logging.Enabled {
		slog.Info("audit logging enabled",
			"storage_type", cfg.Storage.Type,
			"store_payloads", cfg.Logging.StorePayloads,
			"retention_days", cfg.Logging.RetentionDays,
		)
	} else {
		slog.Info("audit logging disabled")
	}
}
