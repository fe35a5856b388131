package fetch

import (
	"context"
	nethttp "net/http"

	"github.com/gaborage/go-fetch/trace"
)

// NewTraceIDInterceptor returns a request interceptor that sets
// X-Request-ID from the context, or a new ID, unless already present.
func NewTraceIDInterceptor() RequestInterceptor {
	return NewTraceIDInterceptorFor(HeaderXRequestID)
}

// NewTraceIDInterceptorFor is NewTraceIDInterceptor for a custom header.
func NewTraceIDInterceptorFor(header string) RequestInterceptor {
	if header == "" {
		header = HeaderXRequestID
	}
	return func(ctx context.Context, req *Request) (*Request, error) {
		if v, ok := lookupHeader(req.Headers, header); ok && v != "" {
			return req, nil
		}
		return withHeader(req, header, trace.EnsureTraceID(ctx)), nil
	}
}

// NewTraceParentInterceptor returns a request interceptor that propagates
// the W3C traceparent (and tracestate) stored in the context, generating a
// traceparent when none exists.
func NewTraceParentInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *Request) (*Request, error) {
		if v, ok := lookupHeader(req.Headers, HeaderTraceParent); ok && v != "" {
			return req, nil
		}
		tp, ok := trace.ParentFromContext(ctx)
		if !ok {
			tp = trace.GenerateTraceParent()
		}
		next := withHeader(req, HeaderTraceParent, tp)
		if ts, ok := trace.StateFromContext(ctx); ok {
			next.Headers[nethttp.CanonicalHeaderKey(HeaderTraceState)] = ts
		}
		return next, nil
	}
}

func withHeader(req *Request, key, value string) *Request {
	next := req.clone()
	if next.Headers == nil {
		next.Headers = make(map[string]string, 1)
	}
	next.Headers[nethttp.CanonicalHeaderKey(key)] = value
	return next
}
