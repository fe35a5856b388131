package ipmatch

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/gaborage/go-fetch/config"
	"github.com/gaborage/go-fetch/response"
)

const (
	// ThrottleCleanup defines how long to keep IP buckets in memory after last use
	ThrottleCleanup = time.Minute * 5

	// ForbiddenMessage is the envelope message for rejected addresses
	ForbiddenMessage = "forbidden"
)

// Guard returns middleware that rejects requests whose client address is
// not admitted by v with 403.
func Guard(v *Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !v.ValidateRequest(c.Request()) {
				return response.Error(c, http.StatusForbidden, ForbiddenMessage)
			}
			return next(c)
		}
	}
}

// Throttle returns per-client-IP rate limiting middleware allowing
// requestsPerSecond with bursts of twice that. A threshold of 0 or less
// disables it.
func Throttle(requestsPerSecond int) echo.MiddlewareFunc {
	if requestsPerSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(requestsPerSecond),
				Burst:     requestsPerSecond * 2,
				ExpiresIn: ThrottleCleanup,
			},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return ClientIP(c.Request()), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return response.Error(c, http.StatusTooManyRequests, "IP rate limit exceeded")
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return response.Error(c, http.StatusTooManyRequests, "Too many requests from this IP")
		},
	})
}

// Middleware builds the throttle and allow-list guard from configuration,
// in the order they should be registered.
func Middleware(cfg config.GuardConfig) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		Throttle(cfg.Rate),
		Guard(NewValidator(cfg.Allow...)),
	}
}
