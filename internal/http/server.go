// Package http provides the JSON HTTP API for projectindex.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectindex/internal/catalog"
	"github.com/fyrsmithlabs/projectindex/internal/logging"
	"github.com/fyrsmithlabs/projectindex/internal/project"
)

const instrumentationName = "github.com/fyrsmithlabs/projectindex/internal/http"

// Hydrator loads the project document. *catalog.Accessor implements it.
type Hydrator interface {
	Hydrate(ctx context.Context) catalog.Hydration
}

// FieldUpdater commits single-field changes. *catalog.Updater implements it.
type FieldUpdater interface {
	UpdateTitle(ctx context.Context, name string, title *string) (catalog.Update, error)
	UpdateField(ctx context.Context, name, field string, value *string) (catalog.Update, error)
	Configured() bool
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// UpdateRateLimit is the sustained update requests per second allowed
	// per client address, with bursts up to UpdateBurst. Zero disables
	// limiting.
	UpdateRateLimit float64
	UpdateBurst     int

	// Meter records HTTP metrics. Nil uses the global meter provider.
	Meter metric.Meter
}

// Server serves the project listing and the update operations.
type Server struct {
	echo     *echo.Echo
	listing  *project.Listing
	accessor Hydrator
	updater  FieldUpdater
	logger   *logging.Logger
	config   *Config
	limiter  *clientLimiter
	refresh  *clientLimiter
	now      func() time.Time
}

// NewServer creates a new HTTP server. The listing should already be
// hydrated; the server only refreshes it on request.
func NewServer(cfg *Config, listing *project.Listing, accessor Hydrator, updater FieldUpdater, logger *logging.Logger) (*Server, error) {
	if listing == nil {
		return nil, fmt.Errorf("listing cannot be nil")
	}
	if accessor == nil {
		return nil, fmt.Errorf("accessor cannot be nil")
	}
	if updater == nil {
		return nil, fmt.Errorf("updater cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host:            "localhost",
			Port:            3000,
			UpdateRateLimit: 1,
			UpdateBurst:     10,
		}
	}
	meter := cfg.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		listing:  listing,
		accessor: accessor,
		updater:  updater,
		logger:   logger.Named("http"),
		config:   cfg,
		limiter:  newClientLimiter(cfg.UpdateRateLimit, cfg.UpdateBurst),
		refresh:  newClientLimiter(cfg.UpdateRateLimit, cfg.UpdateBurst),
		now:      time.Now,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:        uuid.NewString,
		RequestIDHandler: attachRequestID,
	}))
	e.Use(tracing())
	e.Use(NewHTTPMetrics(meter, s.logger).MetricsMiddleware())
	e.Use(s.requestLogger())

	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/projects", s.handleList)
	v1.POST("/projects/refresh", s.handleRefresh, s.refresh.middleware(s.logger))

	// Method checks run before the limiter so rejected requests cost nothing.
	writes := []echo.MiddlewareFunc{middleware.BodyLimit("1M"), s.limiter.middleware(s.logger)}
	v1.Any("/projects/update", s.handleUpdateTitle, append([]echo.MiddlewareFunc{allowMethod(http.MethodPost)}, writes...)...)
	v1.PUT("/projects/:name/fields/:field", s.handleUpdateField, writes...)

	v1.GET("/projects/:name", s.handleGet)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
