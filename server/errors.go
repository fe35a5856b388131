package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/go-fetch/cloudflare"
	"github.com/gaborage/go-fetch/config"
	"github.com/gaborage/go-fetch/fetch"
	"github.com/gaborage/go-fetch/logger"
	"github.com/gaborage/go-fetch/response"
)

const hiddenServerError = "an error occurred while processing your request"

// errorHandler writes every unhandled handler error as an envelope.
func errorHandler(err error, c echo.Context, cfg *config.Config, log logger.Logger) {
	if c.Response().Committed {
		return
	}

	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		log.WithContext(c.Request().Context()).Error().
			Err(err).
			Str("url.path", c.Request().URL.Path).
			Msg("request failed")
		if status == http.StatusInternalServerError && cfg.App.Env != config.EnvDevelopment {
			message = hiddenServerError
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = response.Error(c, status, message)
}

// classify maps a handler error to a status and client-facing message.
func classify(err error) (int, string) {
	var (
		validationErr *ValidationError
		apiErr        *cloudflare.APIError
		httpErr       *echo.HTTPError
		clientErr     fetch.ClientError
	)

	switch {
	case errors.Is(err, cloudflare.ErrKeyNotFound):
		return http.StatusNotFound, "key not found"
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Error()
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		return status, apiErr.Error()
	case errors.As(err, &httpErr):
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, msg
		}
		return httpErr.Code, http.StatusText(httpErr.Code)
	case errors.As(err, &clientErr):
		return upstreamStatus(clientErr), clientErr.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func upstreamStatus(err fetch.ClientError) int {
	switch err.Type() {
	case fetch.TimeoutError:
		return http.StatusGatewayTimeout
	case fetch.CancellationError:
		return http.StatusServiceUnavailable
	case fetch.TransportError, fetch.DecodeError, fetch.HTTPError:
		return http.StatusBadGateway
	case fetch.ConfigError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
