package fetch

import (
	"context"
	"io"
	"maps"
	nethttp "net/http"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gaborage/go-fetch/fetch/internal/tracking"
	"github.com/gaborage/go-fetch/logger"
)

const (
	// DefaultTimeout is the default per-attempt timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default retry budget
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default base delay between retries
	DefaultRetryDelay = 1 * time.Second
)

// client implements the Client interface
type client struct {
	httpClient *nethttp.Client
	logger     logger.Logger
	config     *Config
	defaults   Defaults
	backoff    backoff
	pipeline   pipeline
	callCount  int64
}

var _ Client = (*client)(nil)

// NewClient creates a new client with default configuration
func NewClient(log logger.Logger) Client {
	return NewBuilder(log).Build()
}

func defaultConfig() *Config {
	return &Config{
		Timeout:            DefaultTimeout,
		MaxRetries:         DefaultMaxRetries,
		RetryDelay:         DefaultRetryDelay,
		RetryOn:            DefaultRetryOn(),
		Exponential:        true,
		MaxRetryDelay:      DefaultMaxRetryDelay,
		RetryCeiling:       DefaultRetryCeiling,
		Decoding:           DecodeJSON,
		DefaultHeaders:     make(map[string]string),
		MaxPayloadLogBytes: DefaultMaxPayloadLogBytes,
		TraceIDHeader:      HeaderXRequestID,
	}
}

// newClient builds a client from a private copy of cfg.
func newClient(cfg *Config, log logger.Logger, httpClient *nethttp.Client) *client {
	cp := *cfg
	cp.DefaultHeaders = maps.Clone(cfg.DefaultHeaders)
	cp.RequestInterceptors = slices.Clone(cfg.RequestInterceptors)
	cp.ResponseInterceptors = slices.Clone(cfg.ResponseInterceptors)
	cp.ErrorInterceptors = slices.Clone(cfg.ErrorInterceptors)
	if cp.RetryCeiling <= 0 {
		cp.RetryCeiling = DefaultRetryCeiling
	}

	if log == nil {
		log = logger.NewWithWriter(io.Discard, "disabled")
	}
	if httpClient == nil {
		httpClient = &nethttp.Client{}
	}

	return &client{
		httpClient: httpClient,
		logger:     log,
		config:     &cp,
		defaults: Defaults{
			Method:     nethttp.MethodGet,
			Timeout:    max(cp.Timeout, 0),
			Retries:    max(cp.MaxRetries, 0),
			RetryDelay: max(cp.RetryDelay, 0),
			RetryOn:    cp.RetryOn,
			Decoding:   cp.Decoding,
			Headers:    cp.DefaultHeaders,
		},
		backoff: backoff{
			exponential: cp.Exponential,
			jitter:      cp.JitterFactor,
			maxDelay:    cp.MaxRetryDelay,
		},
		pipeline: pipeline{
			request:  cp.RequestInterceptors,
			response: cp.ResponseInterceptors,
			errors:   cp.ErrorInterceptors,
		},
	}
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Do(ctx, url, prepend(opts, WithMethod(nethttp.MethodGet))...)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, url string, body any, opts ...Option) (*Response, error) {
	return c.Do(ctx, url, prepend(opts, WithMethod(nethttp.MethodPost), WithBody(body))...)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, url string, body any, opts ...Option) (*Response, error) {
	return c.Do(ctx, url, prepend(opts, WithMethod(nethttp.MethodPut), WithBody(body))...)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, url string, body any, opts ...Option) (*Response, error) {
	return c.Do(ctx, url, prepend(opts, WithMethod(nethttp.MethodPatch), WithBody(body))...)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Do(ctx, url, prepend(opts, WithMethod(nethttp.MethodDelete))...)
}

func prepend(opts []Option, first ...Option) []Option {
	return append(first, opts...)
}

// UseRequestInterceptor registers a request interceptor. Not safe to call
// while requests are in flight.
func (c *client) UseRequestInterceptor(interceptor RequestInterceptor) {
	if interceptor != nil {
		c.pipeline.request = append(c.pipeline.request, interceptor)
	}
}

// UseResponseInterceptor registers a response interceptor. Not safe to
// call while requests are in flight.
func (c *client) UseResponseInterceptor(interceptor ResponseInterceptor) {
	if interceptor != nil {
		c.pipeline.response = append(c.pipeline.response, interceptor)
	}
}

// UseErrorInterceptor registers an error interceptor. Not safe to call
// while requests are in flight.
func (c *client) UseErrorInterceptor(interceptor ErrorInterceptor) {
	if interceptor != nil {
		c.pipeline.errors = append(c.pipeline.errors, interceptor)
	}
}

// Do resolves input into a request and executes it with retries
func (c *client) Do(ctx context.Context, input any, opts ...Option) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p := c.pipeline.snapshot()

	resp, err := c.execute(ctx, p, input, opts)
	if err != nil {
		return nil, p.applyError(ctx, err)
	}
	return resp, nil
}

func (c *client) execute(ctx context.Context, p pipeline, input any, opts []Option) (*Response, error) {
	req, err := normalize(input, c.defaults, opts...)
	if err != nil {
		return nil, err
	}
	req, err = p.applyRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	cl := &call{
		req:         req,
		body:        body,
		contentType: contentType,
		requestID:   c.requestID(ctx, req),
		start:       time.Now(),
		callCount:   atomic.AddInt64(&c.callCount, 1),
	}
	retries := min(max(req.Retries, 0), c.config.RetryCeiling)

	for attempt := 1; ; attempt++ {
		if err := callerDone(ctx, req.Signal); err != nil {
			return nil, err
		}

		resp, err := c.attempt(ctx, p, cl, attempt)
		event := RetryEvent{Request: req, Attempt: attempt}
		if err != nil {
			if attempt > retries || !retryableError(err) {
				c.logFailure(err, cl.requestID)
				return nil, err
			}
			event.Err = err
		} else {
			if attempt > retries || req.RetryOn == nil || !req.RetryOn.ShouldRetry(resp) {
				return resp, nil
			}
			event.StatusCode = resp.StatusCode
			closeStream(resp)
		}

		event.Delay = c.backoff.delay(req.RetryDelay, attempt)
		c.retrying(ctx, cl, event)
		if err := sleepCtx(ctx, req.Signal, event.Delay); err != nil {
			return nil, err
		}
	}
}

// attempt runs one attempt inside its own cancellation scope.
func (c *client) attempt(ctx context.Context, p pipeline, cl *call, attempt int) (*Response, error) {
	req := cl.req
	scope := newAttemptScope(ctx, req.Signal, req.Timeout, func() {
		c.timedOut(ctx, req, attempt)
	})
	spanCtx, span := tracking.StartAttempt(scope.ctx, req.Method, req.RedactedURL(), attempt)
	started := time.Now()

	resp, err := c.invoke(spanCtx, scope, cl, attempt)

	elapsed := time.Since(started)
	logger.IncrementHTTPCounter(ctx)
	logger.AddHTTPElapsed(ctx, elapsed)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	errType := errorType(err)
	tracking.EndAttempt(span, status, err, errType)
	tracking.RecordAttempt(ctx, req.Method, status, elapsed, attempt, errType)

	if err != nil || req.Decoding != DecodeStream {
		scope.settle()
	}
	if err != nil {
		return nil, err
	}

	c.logResponse(resp, cl.requestID)
	out, err := p.applyResponse(ctx, resp)
	if err != nil {
		closeStream(resp)
		return nil, err
	}
	releaseReplaced(resp, out)
	return out, nil
}

func (c *client) retrying(ctx context.Context, cl *call, event RetryEvent) {
	reason := errorType(event.Err)
	if event.Err == nil {
		reason = strconv.Itoa(event.StatusCode)
	}
	tracking.RecordRetry(ctx, cl.req.Method, reason)
	c.logRetry(event, cl.requestID)
	if c.config.OnRetry != nil {
		c.config.OnRetry(ctx, event)
	}
}

func (c *client) timedOut(ctx context.Context, req *Request, attempt int) {
	c.logger.Warn().
		Str("method", req.Method).
		Str("url", req.RedactedURL()).
		Int("attempt", attempt).
		Dur("timeout", req.Timeout).
		Msg("REST client attempt timed out")
	if c.config.OnTimeout != nil {
		c.config.OnTimeout(ctx, req, attempt)
	}
}
