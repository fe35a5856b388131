package logger

import (
	"context"
	"sync/atomic"
	"time"
)

type counterKey struct{}

type httpCounters struct {
	calls   atomic.Int64
	elapsed atomic.Int64
}

// WithHTTPCounter attaches outbound call counters to ctx. Calls that
// already carry counters keep them.
func WithHTTPCounter(ctx context.Context) context.Context {
	if _, ok := ctx.Value(counterKey{}).(*httpCounters); ok {
		return ctx
	}
	return context.WithValue(ctx, counterKey{}, &httpCounters{})
}

func countersFrom(ctx context.Context) *httpCounters {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(counterKey{}).(*httpCounters)
	return c
}

// IncrementHTTPCounter bumps the outbound call counter, if present.
func IncrementHTTPCounter(ctx context.Context) {
	if c := countersFrom(ctx); c != nil {
		c.calls.Add(1)
	}
}

// GetHTTPCounter returns the number of outbound calls recorded on ctx.
func GetHTTPCounter(ctx context.Context) int64 {
	if c := countersFrom(ctx); c != nil {
		return c.calls.Load()
	}
	return 0
}

// AddHTTPElapsed accumulates time spent in outbound calls.
func AddHTTPElapsed(ctx context.Context, d time.Duration) {
	if c := countersFrom(ctx); c != nil {
		c.elapsed.Add(int64(d))
	}
}

// GetHTTPElapsed returns the accumulated outbound call time.
func GetHTTPElapsed(ctx context.Context) time.Duration {
	if c := countersFrom(ctx); c != nil {
		return time.Duration(c.elapsed.Load())
	}
	return 0
}
