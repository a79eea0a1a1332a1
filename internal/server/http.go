package server

import (
	"context"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/auditlog"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/metrics"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/resolver"
)

// DefaultBodySizeLimit applies when Config.BodySizeLimit is zero.
const DefaultBodySizeLimit int64 = 1 << 20

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	MasterKey       string // Optional: Master key for authentication
	MetricsEnabled  bool   // Whether to expose the Prometheus endpoint
	MetricsEndpoint string // HTTP path for metrics endpoint (default: /metrics)
	BodySizeLimit   int64  // Max request body size in bytes (default: 1MB)
	SwaggerEnabled  bool   // Whether to serve the API docs at /swagger/index.html
	DefaultMode     string // Mode used when ?mode= is absent (default: mock)
	Live            resolver.Config
	Logger          *slog.Logger
	// Aggregator backs the Prometheus collector. Nil disables the engine
	// series but keeps the Go runtime collectors.
	Aggregator *metrics.Aggregator
}

// New creates a new HTTP server. reader may be nil, in which case the audit
// query routes are not registered.
func New(engine Resolver, audit auditlog.LoggerInterface, reader auditlog.Reader, cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	handler := NewHandler(engine, audit, reader, cfg)

	authSkipPaths := []string{"/health"}

	metricsPath := "/metrics"
	if cfg.MetricsEnabled {
		if cfg.MetricsEndpoint != "" {
			// Normalize path to prevent traversal attacks
			metricsPath = path.Clean(cfg.MetricsEndpoint)
		}
		authSkipPaths = append(authSkipPaths, metricsPath)
	}
	if cfg.SwaggerEnabled {
		authSkipPaths = append(authSkipPaths, "/swagger/*")
	}

	// Global middleware stack (order matters)
	e.Use(RequestIDMiddleware())
	e.Use(RequestLogger(cfg.Logger))
	e.Use(middleware.Recover())
	e.Use(SecurityHeaders())

	bodySizeLimit := DefaultBodySizeLimit
	if cfg.BodySizeLimit > 0 {
		bodySizeLimit = cfg.BodySizeLimit
	}
	e.Use(middleware.BodyLimit(strconv.FormatInt(bodySizeLimit, 10)))

	if cfg.MasterKey != "" {
		e.Use(AuthMiddleware(cfg.MasterKey, authSkipPaths...))
	}

	// Public routes
	e.GET("/health", handler.Health)
	if cfg.MetricsEnabled {
		e.GET(metricsPath, echo.WrapHandler(metricsHandler(cfg.Aggregator)))
	}
	if cfg.SwaggerEnabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// API routes
	v1 := e.Group("/v1")
	v1.POST("/resolve", handler.Resolve)
	v1.POST("/redact", handler.Redact)
	v1.POST("/validate", handler.Validate)
	v1.POST("/classify", handler.Classify)
	v1.GET("/metrics", handler.Metrics)
	v1.POST("/metrics/reset", handler.ResetMetrics)
	if reader != nil {
		v1.GET("/audit", handler.ListAudit)
		v1.GET("/audit/:id", handler.GetAudit)
	}

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// metricsHandler serves a private registry so that tests and multiple
// servers in one process never collide on registration.
func metricsHandler(agg *metrics.Aggregator) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if agg != nil {
		reg.MustRegister(metrics.NewCollector(agg))
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
