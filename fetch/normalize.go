package fetch

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	nethttp "net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// supportedMethods are the verbs a request may use.
var supportedMethods = []string{
	nethttp.MethodGet,
	nethttp.MethodPost,
	nethttp.MethodPut,
	nethttp.MethodDelete,
	nethttp.MethodPatch,
}

// Defaults are the client-wide values used for anything a call leaves
// unset. They are fixed when the client is built.
type Defaults struct {
	Method     string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	RetryOn    RetryCondition
	Decoding   Decoding
	Headers    map[string]string
}

// normalize resolves a call input and its options into a fresh Request.
func normalize(input any, d Defaults, opts ...Option) (*Request, error) {
	base, literal, err := toConfig(input)
	if err != nil {
		return nil, err
	}

	var overlay RequestConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&overlay)
		}
	}

	req := &Request{
		URL:      firstString(overlay.URL, base.URL),
		Method:   strings.ToUpper(firstString(overlay.Method, base.Method, d.Method, nethttp.MethodGet)),
		Headers:  mergeHeaders(d.Headers, base.Headers, overlay.Headers),
		Params:   mergeMaps(nil, base.Params, overlay.Params),
		Body:     base.Body,
		RetryOn:  base.RetryOn,
		Decoding: Decoding(firstString(string(overlay.Decoding), string(base.Decoding), string(d.Decoding), string(DecodeJSON))),
		Signal:   base.Signal,
		Auth:     base.Auth,
		Redact:   slices.Concat(base.Redact, overlay.Redact),
	}
	if req.URL == "" {
		return nil, NewConfigError("request URL is required", "url", nil)
	}
	if !slices.Contains(supportedMethods, req.Method) {
		return nil, NewConfigError(fmt.Sprintf("unsupported method %q", req.Method), "method", nil)
	}

	if overlay.Body != nil {
		req.Body = overlay.Body
	}
	if overlay.RetryOn != nil {
		req.RetryOn = overlay.RetryOn
	}
	if req.RetryOn == nil {
		req.RetryOn = d.RetryOn
	}
	if overlay.Signal != nil {
		req.Signal = overlay.Signal
	}
	if overlay.Auth != nil {
		req.Auth = overlay.Auth
	}

	if literal {
		req.Timeout = *base.Timeout
		req.Retries = *base.Retries
		req.RetryDelay = *base.RetryDelay
	} else {
		req.Timeout = pick(base.Timeout, d.Timeout)
		req.Retries = pick(base.Retries, d.Retries)
		req.RetryDelay = pick(base.RetryDelay, d.RetryDelay)
	}
	req.Timeout = max(pick(overlay.Timeout, req.Timeout), 0)
	req.Retries = max(pick(overlay.Retries, req.Retries), 0)
	req.RetryDelay = max(pick(overlay.RetryDelay, req.RetryDelay), 0)

	return req, nil
}

// toConfig converts the accepted input kinds into a RequestConfig. literal
// reports that the numeric fields are set and must not be defaulted.
func toConfig(input any) (cfg RequestConfig, literal bool, err error) {
	switch v := input.(type) {
	case string:
		cfg.URL = v
	case *url.URL:
		if v != nil {
			cfg.URL = v.String()
		}
	case url.URL:
		cfg.URL = v.String()
	case RequestConfig:
		cfg = v
	case *RequestConfig:
		if v != nil {
			cfg = *v
		}
	case *nethttp.Request:
		if v != nil {
			cfg, err = fromHTTPRequest(v)
		}
	case Request:
		cfg, literal = fromRequest(&v), true
	case *Request:
		if v != nil {
			cfg, literal = fromRequest(v), true
		}
	case nil:
	default:
		err = NewConfigError(fmt.Sprintf("unsupported request input %T", input), "input", nil)
	}
	return cfg, literal, err
}

func fromRequest(r *Request) RequestConfig {
	cp := r.clone()
	return RequestConfig{
		URL:        cp.URL,
		Method:     cp.Method,
		Headers:    cp.Headers,
		Body:       cp.Body,
		Params:     cp.Params,
		Timeout:    &cp.Timeout,
		Retries:    &cp.Retries,
		RetryDelay: &cp.RetryDelay,
		RetryOn:    cp.RetryOn,
		Decoding:   cp.Decoding,
		Signal:     cp.Signal,
		Auth:       cp.Auth,
		Redact:     cp.Redact,
	}
}

func fromHTTPRequest(r *nethttp.Request) (RequestConfig, error) {
	cfg := RequestConfig{Method: r.Method}
	if r.URL != nil {
		cfg.URL = r.URL.String()
		if user := r.URL.User; user != nil {
			pass, _ := user.Password()
			cfg.Auth = &BasicAuth{Username: user.Username(), Password: pass}
		}
	}
	if ctx := r.Context(); ctx.Done() != nil {
		cfg.Signal = ctx
	}
	if len(r.Header) > 0 {
		cfg.Headers = make(map[string]string, len(r.Header))
		for k := range r.Header {
			cfg.Headers[k] = r.Header.Get(k)
		}
	}
	if r.Body != nil && r.Body != nethttp.NoBody {
		body, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			return cfg, NewConfigError("failed to read request body", "body", err)
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		cfg.Body = body
	}
	return cfg, nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func pick[T any](v *T, fallback T) T {
	if v != nil {
		return *v
	}
	return fallback
}

// mergeHeaders is mergeMaps with canonical header keys.
func mergeHeaders(layers ...map[string]string) map[string]string {
	var out map[string]string
	for _, layer := range layers {
		for k, v := range layer {
			if out == nil {
				out = make(map[string]string, len(layer))
			}
			out[nethttp.CanonicalHeaderKey(k)] = v
		}
	}
	return out
}

// mergeMaps layers maps left to right; later maps win.
func mergeMaps(layers ...map[string]string) map[string]string {
	var out map[string]string
	for _, layer := range layers {
		if len(layer) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(layer))
		}
		maps.Copy(out, layer)
	}
	return out
}
