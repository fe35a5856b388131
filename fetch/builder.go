package fetch

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/gaborage/go-fetch/logger"
)

// Builder provides a fluent interface for configuring the client
type Builder struct {
	config     *Config
	logger     logger.Logger
	httpClient *nethttp.Client
	transport  nethttp.RoundTripper
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: log,
	}
}

// WithTimeout sets the default per-attempt timeout. Zero disables it.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetries sets the default retry budget and base delay
func (b *Builder) WithRetries(maxRetries int, retryDelay time.Duration) *Builder {
	b.config.MaxRetries = maxRetries
	b.config.RetryDelay = retryDelay
	return b
}

// WithRetryOn sets the default retryable status codes
func (b *Builder) WithRetryOn(codes ...int) *Builder {
	b.config.RetryOn = StatusCodes(codes)
	return b
}

// WithRetryCondition sets the default retry condition
func (b *Builder) WithRetryCondition(cond RetryCondition) *Builder {
	b.config.RetryOn = cond
	return b
}

// WithExponentialBackoff toggles doubling the delay on every attempt
func (b *Builder) WithExponentialBackoff(enabled bool) *Builder {
	b.config.Exponential = enabled
	return b
}

// WithJitter stretches each delay by a random factor in [1, 1+factor)
func (b *Builder) WithJitter(factor float64) *Builder {
	b.config.JitterFactor = max(factor, 0)
	return b
}

// WithMaxRetryDelay caps a single backoff sleep
func (b *Builder) WithMaxRetryDelay(d time.Duration) *Builder {
	b.config.MaxRetryDelay = d
	return b
}

// WithRetryCeiling caps any retry budget, including per-request ones
func (b *Builder) WithRetryCeiling(n int) *Builder {
	b.config.RetryCeiling = n
	return b
}

// WithDecoding sets the default response decoding
func (b *Builder) WithDecoding(decoding Decoding) *Builder {
	b.config.Decoding = decoding
	return b
}

// WithBasicAuth sets basic authentication credentials
func (b *Builder) WithBasicAuth(username, password string) *Builder {
	b.config.BasicAuth = &BasicAuth{
		Username: username,
		Password: password,
	}
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithHTTPClient uses a custom *http.Client. Its Timeout should be zero
// (or longer than any attempt) since attempts carry their own deadline.
func (b *Builder) WithHTTPClient(httpClient *nethttp.Client) *Builder {
	b.httpClient = httpClient
	return b
}

// WithTransport sets the round tripper used by the HTTP client
func (b *Builder) WithTransport(rt nethttp.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithTraceIDHeader sets the header carrying the request ID
func (b *Builder) WithTraceIDHeader(header string) *Builder {
	b.config.TraceIDHeader = header
	return b
}

// WithTraceIDGenerator sets the generator used when no request ID exists
func (b *Builder) WithTraceIDGenerator(gen func() string) *Builder {
	b.config.NewTraceID = gen
	return b
}

// WithW3CTrace enables traceparent/tracestate propagation
func (b *Builder) WithW3CTrace(enabled bool) *Builder {
	b.config.EnableW3CTrace = enabled
	return b
}

// WithPayloadLogging enables debug logging of headers and bodies
func (b *Builder) WithPayloadLogging(enabled bool, maxBytes int) *Builder {
	b.config.LogPayloads = enabled
	b.config.MaxPayloadLogBytes = maxBytes
	return b
}

// WithOnRetry registers a callback invoked before every backoff sleep
func (b *Builder) WithOnRetry(fn func(ctx context.Context, event RetryEvent)) *Builder {
	b.config.OnRetry = fn
	return b
}

// WithOnTimeout registers a callback invoked when an attempt times out
func (b *Builder) WithOnTimeout(fn func(ctx context.Context, req *Request, attempt int)) *Builder {
	b.config.OnTimeout = fn
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	if interceptor != nil {
		b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	}
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	if interceptor != nil {
		b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	}
	return b
}

// WithErrorInterceptor adds an error interceptor
func (b *Builder) WithErrorInterceptor(interceptor ErrorInterceptor) *Builder {
	if interceptor != nil {
		b.config.ErrorInterceptors = append(b.config.ErrorInterceptors, interceptor)
	}
	return b
}

// Build creates the client with the configured options
func (b *Builder) Build() Client {
	return b.build()
}

func (b *Builder) build() *client {
	httpClient := b.httpClient
	if b.transport != nil {
		if httpClient == nil {
			httpClient = &nethttp.Client{Transport: b.transport}
		} else {
			cp := *httpClient
			cp.Transport = b.transport
			httpClient = &cp
		}
	}
	return newClient(b.config, b.logger, httpClient)
}
