package fetch

import (
	"context"
	"slices"
)

// RequestInterceptor transforms the request descriptor before the first
// attempt. Returning a nil request keeps the one passed in.
type RequestInterceptor func(ctx context.Context, req *Request) (*Request, error)

// ResponseInterceptor transforms each completed attempt's response.
// Returning a nil response keeps the one passed in. With DecodeStream, a
// replacement response must carry Data forward or the stream is closed.
type ResponseInterceptor func(ctx context.Context, resp *Response) (*Response, error)

// ErrorInterceptor transforms the terminal error of a call. Returning nil
// keeps the error passed in.
type ErrorInterceptor func(ctx context.Context, err error) error

// pipeline holds the registered interceptors in registration order.
type pipeline struct {
	request  []RequestInterceptor
	response []ResponseInterceptor
	errors   []ErrorInterceptor
}

// snapshot returns a copy that later registrations cannot affect.
func (p *pipeline) snapshot() pipeline {
	return pipeline{
		request:  slices.Clone(p.request),
		response: slices.Clone(p.response),
		errors:   slices.Clone(p.errors),
	}
}

func (p pipeline) applyRequest(ctx context.Context, req *Request) (*Request, error) {
	for i, interceptor := range p.request {
		next, err := interceptor(ctx, req)
		if err != nil {
			return nil, NewInterceptorError("request interceptor failed", StageRequest, i, err)
		}
		if next != nil {
			req = next
		}
	}
	return req, nil
}

func (p pipeline) applyResponse(ctx context.Context, resp *Response) (*Response, error) {
	for i, interceptor := range p.response {
		next, err := interceptor(ctx, resp)
		if err != nil {
			return nil, NewInterceptorError("response interceptor failed", StageResponse, i, err)
		}
		if next != nil {
			resp = next
		}
	}
	return resp, nil
}

func (p pipeline) applyError(ctx context.Context, err error) error {
	for _, interceptor := range p.errors {
		if next := interceptor(ctx, err); next != nil {
			err = next
		}
	}
	return err
}
