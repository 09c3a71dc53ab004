// Package rest provides the HTTP surfaces of the broker and the worker.
package rest

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"yqhp/matrix-engine/internal/logger"
	"yqhp/matrix-engine/internal/metrics"
	"yqhp/matrix-engine/pkg/types"
)

// Config holds the configuration for an HTTP server.
type Config struct {
	// Address is the address to listen on (e.g., ":8000").
	Address string `yaml:"address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// EnableCORS enables Cross-Origin Resource Sharing.
	EnableCORS bool `yaml:"enable_cors"`

	// MaxConnections caps concurrent connections. 0 means unlimited.
	MaxConnections int `yaml:"max_connections"`

	// MetricsPath serves Prometheus metrics when a collector is set.
	MetricsPath string `yaml:"metrics_path"`
}

// DefaultConfig returns a default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      ":8000",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		EnableCORS:   true,
		MetricsPath:  "/metrics",
	}
}

// server holds what the broker and worker surfaces share.
type server struct {
	app     *fiber.App
	config  *Config
	metrics *metrics.Collector
	logger  *zap.Logger
}

func newServer(name string, config *Config, log *zap.Logger, collector *metrics.Collector) *server {
	if config == nil {
		config = DefaultConfig()
	}
	log = logger.OrNop(log)

	app := fiber.New(fiber.Config{
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		ErrorHandler:          errorHandler,
		AppName:               name,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
	})

	s := &server{
		app:     app,
		config:  config,
		metrics: collector,
		logger:  log,
	}
	s.setupMiddleware()
	s.setupCommonRoutes()
	return s
}

func (s *server) setupMiddleware() {
	s.app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	if s.metrics != nil {
		s.app.Use(s.metrics.Middleware())
	}

	s.app.Use(logger.Middleware(s.logger))

	if s.config.EnableCORS {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: "POST,OPTIONS",
			AllowHeaders: "Content-Type",
		}))
	}
}

func (s *server) setupCommonRoutes() {
	s.app.Get("/health", s.healthCheck)
	s.app.Get("/ready", s.readyCheck)

	api := s.app.Group("/api/v1")
	api.Get("/health", s.healthCheck)
	api.Get("/ready", s.readyCheck)

	if s.metrics != nil && s.config.MetricsPath != "" {
		s.app.Get(s.config.MetricsPath, s.metrics.Handler())
	}
}

// healthCheck handles GET /health
func (s *server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(types.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// readyCheck handles GET /ready
func (s *server) readyCheck(c *fiber.Ctx) error {
	return c.JSON(types.ReadyResponse{
		Ready:     true,
		Status:    "ready",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// App returns the underlying Fiber app.
func (s *server) App() *fiber.App {
	return s.app
}

// Start listens on the configured address and serves until shutdown.
func (s *server) Start() error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln, capping concurrent connections when configured.
func (s *server) Serve(ln net.Listener) error {
	if s.config.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.config.MaxConnections)
	}
	s.logger.Info("http server listening",
		zap.String("app", s.app.Config().AppName),
		zap.String("address", ln.Addr().String()),
		zap.Int("max_connections", s.config.MaxConnections),
	)
	return s.app.Listener(ln)
}

// StartWithContext serves until ctx is done, then shuts down gracefully
// within timeout.
func (s *server) StartWithContext(ctx context.Context, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(timeout)
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the server, letting in-flight requests
// finish within timeout.
func (s *server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}
