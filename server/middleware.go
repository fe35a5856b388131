package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/gaborage/go-fetch/config"
	"github.com/gaborage/go-fetch/ipmatch"
	"github.com/gaborage/go-fetch/logger"
	"github.com/gaborage/go-fetch/trace"
)

// HeaderXResponseTime carries the handler latency on every response.
const HeaderXResponseTime = "X-Response-Time"

// SetupMiddlewares registers the proxy middleware chain in order: request
// id, server span, trace context, request logging, recovery, security
// headers, the IP guard, body limit, deadline and timing.
func SetupMiddlewares(e *echo.Echo, log logger.Logger, cfg *config.Config) {
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: trace.NewTraceID,
	}))

	e.Use(otelecho.Middleware(cfg.App.Name))

	e.Use(TraceContext())

	e.Use(Logger(log, LoggerConfig{
		SkipPaths:            []string{HealthRoute},
		SlowRequestThreshold: time.Second,
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Bytes("stack", stack).
				Msg("Panic recovered")
			return err
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))

	e.Use(ipmatch.Middleware(cfg.Guard)...)

	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	if cfg.Server.Timeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout:      cfg.Server.Timeout,
			ErrorHandler: deadlineError,
		}))
	}

	e.Use(Timing())
}

// deadlineError turns a failure caused by the request deadline into a 504.
// Upstream timeouts that fired first keep their own classification.
func deadlineError(err error, c echo.Context) error {
	if errors.Is(c.Request().Context().Err(), context.DeadlineExceeded) {
		return echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out").SetInternal(err)
	}
	return err
}

// Timing sets X-Response-Time, measured from entry to the moment the
// response header is written.
func Timing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			c.Response().Before(func() {
				c.Response().Header().Set(HeaderXResponseTime, time.Since(start).String())
			})
			return next(c)
		}
	}
}

// TraceContext copies the request id and inbound W3C headers into the
// request context so outbound fetch calls propagate them.
func TraceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			ctx := req.Context()
			if id != "" {
				ctx = trace.WithTraceID(ctx, id)
			}
			if tp := req.Header.Get(trace.HeaderTraceParent); tp != "" {
				ctx = trace.WithTraceParent(ctx, tp)
			}
			if ts := req.Header.Get(trace.HeaderTraceState); ts != "" {
				ctx = trace.WithTraceState(ctx, ts)
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
