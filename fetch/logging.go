package fetch

import (
	"errors"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gaborage/go-fetch/logger"
)

// DefaultMaxPayloadLogBytes caps logged body previews when no limit is set
const DefaultMaxPayloadLogBytes = 1024

// logRequest logs the outgoing request
func (c *client) logRequest(req *nethttp.Request, target string, body []byte, traceID string) {
	logEvent := c.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", target).
		Str("request_id", traceID)

	if len(req.Header) > 0 {
		logEvent = logEvent.Int("header_count", len(req.Header))
	}
	if len(body) > 0 {
		logEvent = logEvent.Int("body_size", len(body))
	}
	logEvent.Msg("REST client request")

	if !c.config.LogPayloads {
		return
	}
	preview, truncated := c.preview(body)
	c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("request_id", traceID).
		Interface("headers", req.Header).
		Int("body_size", len(body)).
		Str("body_truncated", strconv.FormatBool(truncated)).
		Bytes("body_preview", preview).
		Msg("REST client request")
}

// logResponse logs the incoming response
func (c *client) logResponse(resp *Response, traceID string) {
	logEvent := c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount).
		Str("request_id", traceID)

	if resp.Attempt > 0 {
		logEvent = logEvent.Int("attempt", resp.Attempt)
	}
	if len(resp.Body) > 0 {
		logEvent = logEvent.Int("body_size", len(resp.Body))
	}
	logEvent.Msg("REST client response")

	if !c.config.LogPayloads {
		return
	}
	preview, truncated := c.preview(resp.Body)
	c.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Str("request_id", traceID).
		Interface("headers", resp.Headers).
		Int("body_size", len(resp.Body)).
		Str("body_truncated", strconv.FormatBool(truncated)).
		Bytes("body_preview", preview).
		Msg("REST client response")
}

// logRetry logs a scheduled retry
func (c *client) logRetry(event RetryEvent, traceID string) {
	logEvent := c.logger.Warn().
		Str("direction", "outbound").
		Str("request_id", traceID).
		Int("attempt", event.Attempt).
		Dur("delay", event.Delay)

	if event.Err != nil {
		logEvent = logEvent.Err(event.Err)
	} else {
		logEvent = logEvent.Int("status", event.StatusCode)
	}
	logEvent.Msg("REST client retry")
}

// logFailure logs a terminal error
func (c *client) logFailure(err error, traceID string) {
	c.logger.Error().
		Err(err).
		Str("direction", "outbound").
		Str("request_id", traceID).
		Str("error_type", errorType(err)).
		Msg("REST client request failed")
}

func (c *client) preview(body []byte) ([]byte, bool) {
	limit := c.config.MaxPayloadLogBytes
	if limit <= 0 {
		limit = DefaultMaxPayloadLogBytes
	}
	if len(body) > limit {
		return body[:limit], true
	}
	return body, false
}

func errorType(err error) string {
	if err == nil {
		return ""
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return string(clientErr.Type())
	}
	return "error"
}

// redact masks each secret in s, also in its path and query escaped forms.
func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		for _, form := range []string{secret, url.PathEscape(secret), url.QueryEscape(secret)} {
			s = strings.ReplaceAll(s, form, logger.DefaultMaskValue)
		}
	}
	return s
}

// redactError masks secrets in the URL that net/http embeds in its errors.
func redactError(err error, secrets []string) error {
	if len(secrets) == 0 {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redact(urlErr.URL, secrets)
	}
	return err
}
