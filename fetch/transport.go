package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/gaborage/go-fetch/trace"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
	contentTypeForm   = "application/x-www-form-urlencoded"
)

// call is the per-call state shared by all attempts.
type call struct {
	req         *Request
	body        []byte
	contentType string
	requestID   string
	start       time.Time
	callCount   int64
}

// encodeBody serializes a request body once per call so every attempt can
// resend it. Raw bodies keep their bytes; other values are JSON encoded.
func encodeBody(body any) ([]byte, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return v, "", nil
	case string:
		return []byte(v), "", nil
	case json.RawMessage:
		return v, contentTypeJSON, nil
	case url.Values:
		return []byte(v.Encode()), contentTypeForm, nil
	case io.Reader:
		data, err := io.ReadAll(v)
		if c, ok := v.(io.Closer); ok {
			_ = c.Close()
		}
		if err != nil {
			return nil, "", NewConfigError("failed to read request body", "body", err)
		}
		return data, "", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", NewConfigError("request body cannot be encoded as JSON", "body", err)
		}
		return data, contentTypeJSON, nil
	}
}

// invoke performs exactly one transport round trip and builds the
// response envelope. It never retries.
func (c *client) invoke(ctx context.Context, scope *attemptScope, cl *call, attempt int) (*Response, error) {
	req := cl.req

	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	httpReq, err := nethttp.NewRequestWithContext(ctx, req.Method, req.FullURL(), body)
	if err != nil {
		return nil, NewConfigError("failed to create HTTP request", "url", redactError(err, req.Redact))
	}

	c.applyHeaders(httpReq, cl)
	c.applyAuth(httpReq, req)
	c.applyTrace(ctx, httpReq, cl.requestID)
	c.logRequest(httpReq, req.RedactedURL(), cl.body, cl.requestID)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, scope.classify("request execution failed", redactError(err, req.Redact))
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		StatusText: statusText(httpResp),
		Headers:    httpResp.Header,
		Config:     req,
		Success:    IsSuccessStatus(httpResp.StatusCode),
		Attempt:    attempt,
		Stats: Stats{
			ElapsedTime: time.Since(cl.start),
			CallCount:   cl.callCount,
		},
	}

	if req.Decoding == DecodeStream {
		scope.disarm()
		stream, err := openStream(httpResp, scope.settle)
		if err != nil {
			if resp.Success {
				return nil, err
			}
			// a failed status without a body still yields an envelope
			return resp, nil
		}
		resp.Data = stream
		return resp, nil
	}

	defer httpResp.Body.Close()
	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, scope.classify("failed to read response body", err)
	}
	resp.Body = data
	resp.Stats.ElapsedTime = time.Since(cl.start)

	resp.Data, err = decodeBody(req.Decoding, httpResp.Header, data)
	if err != nil {
		if resp.Success {
			return nil, err
		}
		resp.Data = string(data)
	}
	return resp, nil
}

func statusText(resp *nethttp.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return nethttp.StatusText(resp.StatusCode)
}

// applyHeaders applies the resolved request headers to the HTTP request
func (c *client) applyHeaders(httpReq *nethttp.Request, cl *call) {
	for key, value := range cl.req.Headers {
		httpReq.Header.Set(key, value)
	}

	if cl.contentType != "" && httpReq.Header.Get(headerContentType) == "" {
		httpReq.Header.Set(headerContentType, cl.contentType)
	}
}

// applyAuth applies authentication to the HTTP request
func (c *client) applyAuth(httpReq *nethttp.Request, req *Request) {
	// Request-specific auth takes precedence
	auth := req.Auth
	if auth == nil {
		auth = c.config.BasicAuth
	}

	if auth != nil {
		httpReq.SetBasicAuth(auth.Username, auth.Password)
	}
}

// applyTrace propagates the request ID and, when enabled, W3C trace
// context. The global propagator injects the attempt span and baggage;
// context values and a generated traceparent fill whatever it left out.
// Headers already on the request are never replaced.
func (c *client) applyTrace(ctx context.Context, httpReq *nethttp.Request, requestID string) {
	header := c.traceHeader()
	if requestID != "" && httpReq.Header.Get(header) == "" {
		httpReq.Header.Set(header, requestID)
	}

	if !c.config.EnableW3CTrace {
		return
	}
	carrier := propagation.HeaderCarrier(nethttp.Header{})
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, key := range carrier.Keys() {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, carrier.Get(key))
		}
	}

	if httpReq.Header.Get(HeaderTraceParent) == "" {
		tp, ok := trace.ParentFromContext(ctx)
		if !ok {
			tp = trace.GenerateTraceParent()
		}
		httpReq.Header.Set(HeaderTraceParent, tp)
	}
	if httpReq.Header.Get(HeaderTraceState) == "" {
		if ts, ok := trace.StateFromContext(ctx); ok {
			httpReq.Header.Set(HeaderTraceState, ts)
		}
	}
}

func (c *client) traceHeader() string {
	if c.config.TraceIDHeader != "" {
		return c.config.TraceIDHeader
	}
	return HeaderXRequestID
}

// requestID picks the ID logged and propagated for a call: an explicit
// header, then the context, then a generated one.
func (c *client) requestID(ctx context.Context, req *Request) string {
	if v, ok := lookupHeader(req.Headers, c.traceHeader()); ok && v != "" {
		return v
	}
	if id, ok := trace.IDFromContext(ctx); ok {
		return id
	}
	if c.config.NewTraceID != nil {
		return c.config.NewTraceID()
	}
	return trace.NewTraceID()
}

func lookupHeader(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
