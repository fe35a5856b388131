package fetch

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-fetch/config"
)

func TestBuilderFromConfig(t *testing.T) {
	cfg := config.FetchConfig{
		Timeout: 3 * time.Second,
		Retry: config.RetryConfig{
			Max:         4,
			Delay:       200 * time.Millisecond,
			MaxDelay:    5 * time.Second,
			Exponential: false,
			Jitter:      0.25,
			On:          []int{429, 503},
			Ceiling:     6,
		},
		Decoding: "text",
		Headers:  map[string]string{"X-Service": "billing"},
		Log:      config.PayloadLogConfig{Payloads: true, MaxBytes: 256},
		Trace:    config.TraceConfig{Header: "X-Correlation-ID", W3C: true},
	}

	c := builderFromConfig(cfg, &fakeLogger{}).build()

	assert.Equal(t, 3*time.Second, c.config.Timeout)
	assert.Equal(t, 4, c.config.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, c.config.RetryDelay)
	assert.Equal(t, 5*time.Second, c.config.MaxRetryDelay)
	assert.False(t, c.config.Exponential)
	assert.InDelta(t, 0.25, c.config.JitterFactor, 1e-9)
	assert.Equal(t, StatusCodes{429, 503}, c.config.RetryOn)
	assert.Equal(t, 6, c.config.RetryCeiling)
	assert.Equal(t, DecodeText, c.config.Decoding)
	assert.Equal(t, "billing", c.config.DefaultHeaders["X-Service"])
	assert.True(t, c.config.LogPayloads)
	assert.Equal(t, 256, c.config.MaxPayloadLogBytes)
	assert.Equal(t, "X-Correlation-ID", c.config.TraceIDHeader)
	assert.True(t, c.config.EnableW3CTrace)
}

func TestBuilderFromEmptyConfigKeepsDefaults(t *testing.T) {
	c := builderFromConfig(config.FetchConfig{Retry: config.RetryConfig{Exponential: true}}, nil).build()

	assert.Equal(t, DefaultRetryOn(), c.config.RetryOn)
	assert.Equal(t, DefaultRetryCeiling, c.config.RetryCeiling)
	assert.Equal(t, DefaultMaxRetryDelay, c.config.MaxRetryDelay)
	assert.Equal(t, DecodeJSON, c.config.Decoding)
	assert.Equal(t, HeaderXRequestID, c.config.TraceIDHeader)
}

func TestNewFromLoadedConfig(t *testing.T) {
	cfg, err := config.LoadBytes([]byte(`
fetch:
  timeout: 1s
  decoding: text
  retry:
    max: 1
    delay: 5ms
  headers:
    x-tenant: acme
`))
	require.NoError(t, err)

	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(nethttp.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(r.Header.Get("X-Tenant")))
	}))
	defer srv.Close()

	c := NewFromConfig(cfg.Fetch, &fakeLogger{})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "acme", resp.Data)
}
