package fetch

import (
	"context"
	crand "crypto/rand"
	"math/big"
	"slices"
	"time"
)

const (
	// DefaultRetryCeiling caps any retry budget
	DefaultRetryCeiling = 10

	// DefaultMaxRetryDelay caps a single backoff sleep
	DefaultMaxRetryDelay = 30 * time.Second
)

// RetryCondition decides whether a completed response should be retried.
type RetryCondition interface {
	ShouldRetry(resp *Response) bool
}

// StatusCodes retries responses with one of the listed status codes.
type StatusCodes []int

// ShouldRetry implements RetryCondition.
func (s StatusCodes) ShouldRetry(resp *Response) bool {
	return resp != nil && slices.Contains(s, resp.StatusCode)
}

// RetryFunc adapts a predicate to RetryCondition.
type RetryFunc func(resp *Response) bool

// ShouldRetry implements RetryCondition.
func (f RetryFunc) ShouldRetry(resp *Response) bool {
	return f != nil && resp != nil && f(resp)
}

// DefaultRetryOn returns the status codes retried when nothing else is set.
func DefaultRetryOn() StatusCodes {
	return StatusCodes{500, 502, 503, 504}
}

// backoff computes the sleep before the next attempt.
type backoff struct {
	exponential bool
	jitter      float64
	maxDelay    time.Duration
	random      func() float64
}

// delay returns the sleep after the given (1-based) attempt.
func (b backoff) delay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	maxDelay := b.maxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxRetryDelay
	}

	d := base
	if b.exponential && attempt > 1 {
		shift := min(attempt-1, 20)
		d = base << shift
		if d <= 0 || d/base != 1<<shift {
			d = maxDelay
		}
	}
	if b.jitter > 0 {
		rnd := b.random
		if rnd == nil {
			rnd = secureFloat64
		}
		d += time.Duration(float64(d) * rnd() * b.jitter)
	}
	if d > maxDelay || d < 0 {
		d = maxDelay
	}
	return d
}

// secureFloat64 returns a value in [0, 1).
func secureFloat64() float64 {
	n, err := crand.Int(crand.Reader, big.NewInt(1<<53))
	if err != nil {
		return 0
	}
	return float64(n.Int64()) / (1 << 53)
}

// retryableError reports whether a failed attempt may be retried. Every
// failure is, except caller cancellation and interceptor errors.
func retryableError(err error) bool {
	return err != nil && !IsErrorType(err, CancellationError) && !IsErrorType(err, InterceptorError)
}

// sleepCtx waits for d unless the caller context or signal finishes first.
func sleepCtx(ctx, signal context.Context, d time.Duration) error {
	if err := callerDone(ctx, signal); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	var signalDone <-chan struct{}
	if signal != nil {
		signalDone = signal.Done()
	}
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return NewCancellationError("request canceled during backoff", context.Cause(ctx))
	case <-signalDone:
		return NewCancellationError("request aborted by signal during backoff", context.Cause(signal))
	}
}

// callerDone returns a CancellationError when the call has been cancelled.
func callerDone(ctx, signal context.Context) error {
	if ctx.Err() != nil {
		return NewCancellationError("request canceled", context.Cause(ctx))
	}
	if signal != nil && signal.Err() != nil {
		return NewCancellationError("request aborted by signal", context.Cause(signal))
	}
	return nil
}
