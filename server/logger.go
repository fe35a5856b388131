package server

import (
	"slices"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-fetch/logger"
	"github.com/gaborage/go-fetch/trace"
)

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	// SkipPaths are routes that never produce a request log.
	SkipPaths []string

	// SlowRequestThreshold marks successful requests slower than this with
	// result_code WARN. Zero disables the check.
	SlowRequestThreshold time.Duration
}

// Logger returns a middleware that emits one action log per request,
// including how many upstream fetch calls the request made.
func Logger(log logger.Logger, cfg LoggerConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			if slices.Contains(cfg.SkipPaths, path) {
				return next(c)
			}

			ctx := logger.WithHTTPCounter(c.Request().Context())
			c.SetRequest(c.Request().WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				// resolve the final status before logging it
				c.Error(err)
			}
			latency := time.Since(start)
			status := c.Response().Status

			level, resultCode := determineSeverity(status, latency, cfg.SlowRequestThreshold, err)
			event := createLogEvent(log.WithContext(ctx), level)
			if err != nil {
				event = event.Err(err)
			}

			traceID, _ := trace.IDFromContext(c.Request().Context())
			req := c.Request()
			event.
				Str("log.type", "action").
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("correlation_id", traceID).
				Str("http.request.method", req.Method).
				Int("http.response.status_code", status).
				Int64("http.server.request.duration", latency.Nanoseconds()).
				Str("url.path", req.URL.Path).
				Str("http.route", c.Path()).
				Str("client.address", c.RealIP()).
				Str("user_agent.original", req.UserAgent()).
				Str("result_code", resultCode).
				Int64("http_calls", logger.GetHTTPCounter(ctx)).
				Dur("http_elapsed", logger.GetHTTPElapsed(ctx)).
				Msg(createActionMessage(req.Method, req.URL.Path, latency, status))

			return nil
		}
	}
}

// determineSeverity maps status, latency and error to a log level and
// result code.
func determineSeverity(status int, latency, threshold time.Duration, err error) (level, resultCode string) {
	switch {
	case status >= 500 || (err != nil && status == 0):
		return "error", "ERROR"
	case status >= 400:
		return "warn", "WARN"
	case threshold > 0 && latency > threshold:
		return "info", "WARN"
	default:
		return "info", "INFO"
	}
}

func createLogEvent(log logger.Logger, level string) logger.LogEvent {
	switch level {
	case "error":
		return log.Error()
	case "warn":
		return log.Warn()
	default:
		return log.Info()
	}
}

// createActionMessage renders e.g. "GET /api/user/verify_token completed in 12ms with status 2xx".
func createActionMessage(method, path string, latency time.Duration, status int) string {
	return method + " " + path + " completed in " + latency.String() + " with status " + strconv.Itoa(status/100) + "xx"
}
