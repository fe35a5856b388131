package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace/noop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-fetch/cloudflare"
	"github.com/gaborage/go-fetch/config"
	"github.com/gaborage/go-fetch/fetch"
	"github.com/gaborage/go-fetch/observability"
)

// newUpstream fakes the Cloudflare API for a single namespace and records
// the request ids it receives.
func newUpstream(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu  sync.Mutex
		ids []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ids = append(ids, r.Header.Get(fetch.HeaderXRequestID))
		mu.Unlock()

		w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		switch r.URL.Path {
		case "/accounts/acc/storage/kv/namespaces":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"result":  []map[string]string{{"id": testNamespace, "title": "cache"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"errors":  []map[string]any{{"code": 10009, "message": "key not found"}},
			})
		}
	}))
	t.Cleanup(srv.Close)

	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), ids...)
	}
}

func TestProxyThroughKVClient(t *testing.T) {
	upstream, ids := newUpstream(t)

	kv, err := cloudflare.NewKV(config.CloudflareConfig{
		BaseURL:   upstream.URL,
		AccountID: "acc",
		Token:     "token",
	}, fetch.NewBuilder(nil).WithRetries(0, 0).Build())
	require.NoError(t, err)

	s, logs := newTestServer(t, newTestConfig(t), kv)

	req := httptest.NewRequest(http.MethodGet, cloudflare.RouteNamespaceList, nil)
	req.Header.Set(echo.HeaderXRequestID, "proxy-req-1")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"success","data":[{"id":"ns1","title":"cache"}]}`, rec.Body.String())
	assert.Equal(t, []string{"proxy-req-1"}, ids())
	assert.Contains(t, logs.String(), `"http_calls":1`)

	rec = do(s, http.MethodGet, cloudflare.RouteNamespaceValue+"?namespace_id=ns1&key_name=missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "key not found", decodeEnvelope(t, rec).Message)
}

func TestProxyPropagatesInboundTrace(t *testing.T) {
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	})
	provider, err := observability.NewProvider(config.OtelConfig{Enabled: true}, config.AppConfig{Name: "kvproxy"},
		observability.WithWriter(io.Discard))
	require.NoError(t, err)
	defer func() { _ = observability.Shutdown(provider, 0) }()

	var (
		mu          sync.Mutex
		traceParent string
	)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		traceParent = r.Header.Get(fetch.HeaderTraceParent)
		mu.Unlock()
		w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		_, _ = w.Write([]byte(`{"success":true,"result":{"id":"tok","status":"active"}}`))
	}))
	defer upstream.Close()

	kv, err := cloudflare.NewKV(config.CloudflareConfig{BaseURL: upstream.URL, AccountID: "acc", Token: "token"},
		fetch.NewBuilder(nil).WithRetries(0, 0).WithW3CTrace(true).Build())
	require.NoError(t, err)
	s, _ := newTestServer(t, newTestConfig(t), kv)

	const inboundTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, cloudflare.RouteVerifyToken, nil)
	req.Header.Set("traceparent", "00-"+inboundTraceID+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, traceParent)
	assert.True(t, strings.HasPrefix(traceParent, "00-"+inboundTraceID+"-"), traceParent)
	assert.NotContains(t, traceParent, "00f067aa0ba902b7")
}
