// Package server exposes the Workers KV proxy API over echo. Every route
// forwards to Cloudflare through a Store and answers with the standard
// {status, message, data} envelope.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-fetch/cloudflare"
	"github.com/gaborage/go-fetch/config"
	"github.com/gaborage/go-fetch/logger"
)

// HealthRoute answers liveness probes and is excluded from request logs.
const HealthRoute = "/health"

// Store is the KV backend the proxy forwards to. *cloudflare.KV satisfies it.
type Store interface {
	VerifyToken(ctx context.Context) (cloudflare.TokenStatus, error)
	ListNamespaces(ctx context.Context) ([]cloudflare.KVNamespace, error)
	GetNamespace(ctx context.Context, namespaceID string) (cloudflare.KVNamespace, error)
	CreateNamespace(ctx context.Context, title string) (cloudflare.KVNamespace, error)
	RenameNamespace(ctx context.Context, namespaceID, title string) error
	RemoveNamespace(ctx context.Context, namespaceID string) error
	ListKeys(ctx context.Context, namespaceID string) ([]cloudflare.Key, error)
	GetValue(ctx context.Context, namespaceID, key string) ([]byte, error)
	GetValues(ctx context.Context, namespaceID string, keys []string) (map[string][]byte, error)
	PutValue(ctx context.Context, namespaceID, key string, value []byte) error
	DeleteValue(ctx context.Context, namespaceID, key string) error
	BulkWrite(ctx context.Context, namespaceID string, pairs []cloudflare.Pair) error
	BulkDelete(ctx context.Context, namespaceID string, keys []string) error
}

// Server is the proxy HTTP server.
type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger logger.Logger
	store  Store
}

// New creates the echo instance, installs the middleware chain and
// registers the health probe and every proxy route.
func New(cfg *config.Config, log logger.Logger, store Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		errorHandler(err, c, cfg, log)
	}

	SetupMiddlewares(e, log, cfg)

	s := &Server{
		echo:   e,
		cfg:    cfg,
		logger: log,
		store:  store,
	}

	e.GET(HealthRoute, s.healthCheck)
	s.registerRoutes()

	log.Debug().
		Str("health_path", HealthRoute).
		Int("routes", len(e.Routes())).
		Msg("Server routes configured")

	return s
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.logger.Info().
		Str("service", s.cfg.App.Name).
		Str("version", s.cfg.App.Version).
		Str("env", s.cfg.App.Env).
		Str("address", addr).
		Msg("Starting server...")

	server := &http.Server{
		Addr:         addr,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	return s.echo.StartServer(server)
}

// Shutdown waits for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Run serves until ctx is done or the listener fails, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown requested")
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Server stopped unexpectedly")
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("shutdown: %w", err))
	}
	s.logger.Info().Msg("Graceful shutdown completed")
	return runErr
}
