package fetch

import (
	"github.com/gaborage/go-fetch/config"
	"github.com/gaborage/go-fetch/logger"
)

// NewFromConfig builds a client from the fetch configuration section.
func NewFromConfig(cfg config.FetchConfig, log logger.Logger) Client {
	return builderFromConfig(cfg, log).Build()
}

func builderFromConfig(cfg config.FetchConfig, log logger.Logger) *Builder {
	b := NewBuilder(log).
		WithTimeout(cfg.Timeout).
		WithRetries(cfg.Retry.Max, cfg.Retry.Delay).
		WithExponentialBackoff(cfg.Retry.Exponential).
		WithJitter(cfg.Retry.Jitter).
		WithPayloadLogging(cfg.Log.Payloads, cfg.Log.MaxBytes).
		WithW3CTrace(cfg.Trace.W3C)

	if cfg.Retry.MaxDelay > 0 {
		b.WithMaxRetryDelay(cfg.Retry.MaxDelay)
	}
	if cfg.Retry.Ceiling > 0 {
		b.WithRetryCeiling(cfg.Retry.Ceiling)
	}
	if len(cfg.Retry.On) > 0 {
		b.WithRetryOn(cfg.Retry.On...)
	}
	if cfg.Decoding != "" {
		b.WithDecoding(Decoding(cfg.Decoding))
	}
	if cfg.Trace.Header != "" {
		b.WithTraceIDHeader(cfg.Trace.Header)
	}
	for k, v := range cfg.Headers {
		b.WithDefaultHeader(k, v)
	}
	return b
}
