package fetch

import (
	"context"
	"maps"
	nethttp "net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gaborage/go-fetch/trace"
)

const (
	// HeaderXRequestID is the default header used for request ID propagation
	HeaderXRequestID = trace.HeaderXRequestID
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = trace.HeaderTraceParent
	// HeaderTraceState is the W3C trace context "tracestate" header name
	HeaderTraceState = trace.HeaderTraceState
)

// Client defines the fetch client interface.
//
// Do accepts a URL string, *url.URL, RequestConfig, *RequestConfig,
// *http.Request or *Request. Options are applied on top of the input.
type Client interface {
	Get(ctx context.Context, url string, opts ...Option) (*Response, error)
	Post(ctx context.Context, url string, body any, opts ...Option) (*Response, error)
	Put(ctx context.Context, url string, body any, opts ...Option) (*Response, error)
	Patch(ctx context.Context, url string, body any, opts ...Option) (*Response, error)
	Delete(ctx context.Context, url string, opts ...Option) (*Response, error)
	Do(ctx context.Context, input any, opts ...Option) (*Response, error)

	UseRequestInterceptor(interceptor RequestInterceptor)
	UseResponseInterceptor(interceptor ResponseInterceptor)
	UseErrorInterceptor(interceptor ErrorInterceptor)
}

// Decoding selects how a response body is turned into Response.Data.
type Decoding string

const (
	DecodeJSON        Decoding = "json"
	DecodeText        Decoding = "text"
	DecodeBlob        Decoding = "blob"
	DecodeArrayBuffer Decoding = "arrayBuffer"
	DecodeFormData    Decoding = "formData"
	DecodeStream      Decoding = "stream"
)

// Request is a fully resolved request descriptor. Every attempt of a call
// is sent from the same descriptor. Redact lists values masked wherever
// the URL is logged or recorded.
type Request struct {
	URL        string
	Method     string
	Headers    map[string]string
	Body       any
	Params     map[string]string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	RetryOn    RetryCondition
	Decoding   Decoding
	Signal     context.Context
	Auth       *BasicAuth
	Redact     []string
}

// FullURL returns URL with Params appended as a query string, sorted by key.
func (r *Request) FullURL() string {
	if len(r.Params) == 0 {
		return r.URL
	}
	q := url.Values{}
	for k, v := range r.Params {
		q.Set(k, v)
	}
	sep := "?"
	if strings.Contains(r.URL, "?") {
		sep = "&"
	}
	return r.URL + sep + q.Encode()
}

// RedactedURL returns FullURL with every Redact value masked, raw or
// escaped.
func (r *Request) RedactedURL() string {
	return redact(r.FullURL(), r.Redact)
}

func (r *Request) clone() *Request {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Headers = maps.Clone(r.Headers)
	cp.Params = maps.Clone(r.Params)
	cp.Redact = slices.Clone(r.Redact)
	if r.Auth != nil {
		auth := *r.Auth
		cp.Auth = &auth
	}
	if codes, ok := r.RetryOn.(StatusCodes); ok {
		cp.RetryOn = slices.Clone(codes)
	}
	return &cp
}

// RequestConfig is a partial request. Nil pointer fields and empty values
// are filled from the client defaults; explicit zeros are kept.
type RequestConfig struct {
	URL        string
	Method     string
	Headers    map[string]string
	Body       any
	Params     map[string]string
	Timeout    *time.Duration
	Retries    *int
	RetryDelay *time.Duration
	RetryOn    RetryCondition
	Decoding   Decoding
	Signal     context.Context
	Auth       *BasicAuth
	Redact     []string
}

// Response is the envelope produced by every completed attempt.
type Response struct {
	// Data holds the body decoded per Request.Decoding. For DecodeStream it
	// is an io.ReadCloser the caller must close.
	Data       any
	Body       []byte
	StatusCode int
	StatusText string
	Headers    nethttp.Header
	Config     *Request
	Success    bool
	Attempt    int
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
}

// BasicAuth contains basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// Blob is the result of DecodeBlob.
type Blob struct {
	Type string
	Data []byte
}

// RetryEvent describes a retry about to happen.
type RetryEvent struct {
	Request    *Request
	Attempt    int
	Delay      time.Duration
	StatusCode int
	Err        error
}

// Config holds the client configuration.
type Config struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	RetryOn        RetryCondition
	Exponential    bool
	JitterFactor   float64
	MaxRetryDelay  time.Duration
	RetryCeiling   int
	Decoding       Decoding
	BasicAuth      *BasicAuth
	DefaultHeaders map[string]string

	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	ErrorInterceptors    []ErrorInterceptor

	// LogPayloads enables debug-level logging of headers and body payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
	// TraceIDHeader configures the header name used for trace ID propagation (default: X-Request-ID)
	TraceIDHeader string
	// NewTraceID generates a new trace ID when none is present (default: uuid)
	NewTraceID func() string
	// EnableW3CTrace adds traceparent/tracestate headers when missing
	EnableW3CTrace bool

	OnRetry   func(ctx context.Context, event RetryEvent)
	OnTimeout func(ctx context.Context, req *Request, attempt int)
}
