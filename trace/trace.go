// Package trace carries request correlation values (X-Request-ID and the W3C
// traceparent/tracestate pair) through a context.Context so outbound calls can
// propagate them.
package trace

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey   contextKey = "request_id"
	traceParentKey contextKey = "traceparent"
	traceStateKey  contextKey = "tracestate"
)

const (
	// HeaderXRequestID is the default header used to propagate the request ID
	HeaderXRequestID = "X-Request-ID"
	// HeaderTraceParent is the W3C trace context header
	HeaderTraceParent = "traceparent"
	// HeaderTraceState is the W3C vendor state header
	HeaderTraceState = "tracestate"
)

// WithTraceID stores a trace ID in ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, requestIDKey, traceID)
}

// IDFromContext returns the trace ID stored in ctx, if any.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// NewTraceID returns a fresh random trace ID.
func NewTraceID() string {
	return uuid.NewString()
}

// EnsureTraceID returns the trace ID from ctx or a freshly generated one.
func EnsureTraceID(ctx context.Context) string {
	if id, ok := IDFromContext(ctx); ok {
		return id
	}
	return NewTraceID()
}

// WithTraceParent stores a traceparent header value in ctx.
func WithTraceParent(ctx context.Context, traceParent string) context.Context {
	return context.WithValue(ctx, traceParentKey, traceParent)
}

// ParentFromContext returns the traceparent stored in ctx, if any.
func ParentFromContext(ctx context.Context) (string, bool) {
	tp, ok := ctx.Value(traceParentKey).(string)
	return tp, ok && tp != ""
}

// WithTraceState stores a tracestate header value in ctx.
func WithTraceState(ctx context.Context, traceState string) context.Context {
	return context.WithValue(ctx, traceStateKey, traceState)
}

// StateFromContext returns the tracestate stored in ctx, if any.
func StateFromContext(ctx context.Context) (string, bool) {
	ts, ok := ctx.Value(traceStateKey).(string)
	return ts, ok && ts != ""
}

// GenerateTraceParent builds a sampled version-00 traceparent with random IDs.
// Format: 00-<32 hex trace id>-<16 hex span id>-01
func GenerateTraceParent() string {
	traceID := randomID(16)
	spanID := randomID(8)
	return "00-" + hex.EncodeToString(traceID) + "-" + hex.EncodeToString(spanID) + "-01"
}

// ParseTraceParent splits a version-00 traceparent into its trace and span IDs.
// All-zero IDs are invalid per the W3C spec.
func ParseTraceParent(traceParent string) (traceID, spanID string, ok bool) {
	parts := strings.Split(strings.TrimSpace(traceParent), "-")
	if len(parts) != 4 || parts[0] != "00" || len(parts[1]) != 32 || len(parts[2]) != 16 || len(parts[3]) != 2 {
		return "", "", false
	}
	for _, p := range parts[1:] {
		if _, err := hex.DecodeString(p); err != nil {
			return "", "", false
		}
	}
	if isZeroHex(parts[1]) || isZeroHex(parts[2]) {
		return "", "", false
	}
	return strings.ToLower(parts[1]), strings.ToLower(parts[2]), true
}

func randomID(n int) []byte {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		clear(b)
	}
	// an all-zero ID is invalid, force the last byte
	if isZeroHex(hex.EncodeToString(b)) {
		b[n-1] = 0x01
	}
	return b
}

func isZeroHex(s string) bool {
	return strings.Trim(s, "0") == ""
}
