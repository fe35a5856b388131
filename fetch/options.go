package fetch

import (
	"context"
	"time"
)

// Option adjusts a single call. Options are applied on top of the call
// input: headers and params are merged (the option wins), everything else
// replaces the input value.
type Option func(*RequestConfig)

// WithHeader sets one request header.
func WithHeader(key, value string) Option {
	return func(c *RequestConfig) {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		c.Headers[key] = value
	}
}

// WithHeaders merges headers into the request.
func WithHeaders(headers map[string]string) Option {
	return func(c *RequestConfig) {
		for k, v := range headers {
			WithHeader(k, v)(c)
		}
	}
}

// WithParam sets one query parameter.
func WithParam(key, value string) Option {
	return func(c *RequestConfig) {
		if c.Params == nil {
			c.Params = make(map[string]string)
		}
		c.Params[key] = value
	}
}

// WithParams merges query parameters into the request.
func WithParams(params map[string]string) Option {
	return func(c *RequestConfig) {
		for k, v := range params {
			WithParam(k, v)(c)
		}
	}
}

// WithBody sets the request body.
func WithBody(body any) Option {
	return func(c *RequestConfig) { c.Body = body }
}

// WithMethod sets the HTTP method.
func WithMethod(method string) Option {
	return func(c *RequestConfig) { c.Method = method }
}

// WithTimeout sets the per-attempt timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *RequestConfig) { c.Timeout = &timeout }
}

// WithRetries sets the retry budget. Zero disables retries.
func WithRetries(retries int) Option {
	return func(c *RequestConfig) { c.Retries = &retries }
}

// WithRetryDelay sets the base backoff delay.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *RequestConfig) { c.RetryDelay = &delay }
}

// WithRetryOn retries responses whose status is one of codes.
func WithRetryOn(codes ...int) Option {
	return func(c *RequestConfig) { c.RetryOn = StatusCodes(codes) }
}

// WithRetryIf retries responses for which fn returns true.
func WithRetryIf(fn func(*Response) bool) Option {
	return func(c *RequestConfig) { c.RetryOn = RetryFunc(fn) }
}

// WithDecoding selects how the response body is decoded.
func WithDecoding(decoding Decoding) Option {
	return func(c *RequestConfig) { c.Decoding = decoding }
}

// WithSignal adds a cancellation handle on top of the call context.
func WithSignal(signal context.Context) Option {
	return func(c *RequestConfig) { c.Signal = signal }
}

// WithRedacted masks secrets, such as a token carried in the URL path, in
// logs, spans and transport errors of the call.
func WithRedacted(secrets ...string) Option {
	return func(c *RequestConfig) { c.Redact = append(c.Redact, secrets...) }
}

// WithBasicAuth sets per-request basic auth credentials.
func WithBasicAuth(username, password string) Option {
	return func(c *RequestConfig) { c.Auth = &BasicAuth{Username: username, Password: password} }
}
