// Package tracking records OpenTelemetry metrics and spans for fetch
// attempts using the global meter and tracer providers.
package tracking

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Instrumentation scope for fetch metrics and spans
	scopeName = "go-fetch/fetch"

	// Metric names following OpenTelemetry semantic conventions
	metricRequestDuration = "http.client.request.duration" // Histogram in seconds
	metricAttempts        = "http.client.attempts"
	metricRetries         = "http.client.retries"

	attrMethod     = "http.request.method"
	attrStatusCode = "http.response.status_code"
	attrErrorType  = "error.type"
	attrAttempt    = "fetch.attempt"
	attrURL        = "url.full"
)

var (
	meter       metric.Meter
	meterOnce   sync.Once
	meterInitMu sync.Mutex

	requestDuration metric.Float64Histogram
	attemptCounter  metric.Int64Counter
	retryCounter    metric.Int64Counter
)

func logMetricError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize fetch metric %s: %v\n", name, err)
	}
}

func initMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if meter != nil {
		return
	}
	meter = otel.Meter(scopeName)

	var err error
	requestDuration, err = meter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("Duration of outbound HTTP attempts"),
		metric.WithUnit("s"),
	)
	logMetricError(metricRequestDuration, err)

	attemptCounter, err = meter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of outbound HTTP attempts"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)

	retryCounter, err = meter.Int64Counter(
		metricRetries,
		metric.WithDescription("Number of retries scheduled after a failed attempt"),
		metric.WithUnit("{retry}"),
	)
	logMetricError(metricRetries, err)
}

func ensureMeter() {
	meterOnce.Do(initMeter)
}

// RecordAttempt records the duration and count of one attempt. status is 0
// when no response was received; errorType is empty on success.
func RecordAttempt(ctx context.Context, method string, status int, duration time.Duration, attempt int, errorType string) {
	ensureMeter()

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.Int(attrAttempt, attempt),
	}
	if status > 0 {
		attrs = append(attrs, attribute.Int(attrStatusCode, status))
	}
	if errorType != "" {
		attrs = append(attrs, attribute.String(attrErrorType, errorType))
	}

	if requestDuration != nil {
		requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if attemptCounter != nil {
		attemptCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordRetry counts a scheduled retry. reason is a status code or an
// error type.
func RecordRetry(ctx context.Context, method, reason string) {
	ensureMeter()
	if retryCounter != nil {
		retryCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrMethod, method),
			attribute.String(attrErrorType, reason),
		))
	}
}

// StartAttempt starts a client span for one attempt.
func StartAttempt(ctx context.Context, method, url string, attempt int) (context.Context, trace.Span) {
	return otel.Tracer(scopeName).Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrMethod, method),
			attribute.String(attrURL, url),
			attribute.Int(attrAttempt, attempt),
		),
	)
}

// EndAttempt finishes an attempt span.
func EndAttempt(span trace.Span, status int, err error, errorType string) {
	if status > 0 {
		span.SetAttributes(attribute.Int(attrStatusCode, status))
	}
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetAttributes(attribute.String(attrErrorType, errorType))
		span.SetStatus(codes.Error, err.Error())
	case status >= 500:
		span.SetAttributes(attribute.String(attrErrorType, strconv.Itoa(status)))
		span.SetStatus(codes.Error, "server error")
	}
	span.End()
}

// ResetForTesting resets the metric state for testing purposes.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	meter = nil
	requestDuration = nil
	attemptCounter = nil
	retryCounter = nil
	meterOnce = sync.Once{}
}
