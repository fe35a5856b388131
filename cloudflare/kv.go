package cloudflare

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gaborage/go-fetch/config"
	"github.com/gaborage/go-fetch/endpoint"
	"github.com/gaborage/go-fetch/fetch"
	"github.com/gaborage/go-fetch/logger"
)

// DefaultConcurrency bounds GetValues when no limit is configured.
const DefaultConcurrency = 4

// ErrKeyNotFound is returned by GetValue for a missing key.
var ErrKeyNotFound = errors.New("cloudflare: key not found")

// KV is a Workers KV client for one account.
type KV struct {
	client      fetch.Client
	urls        urls
	accountID   string
	concurrency int
}

// BearerToken returns a request interceptor that authorizes requests with
// token unless an Authorization header is already set.
func BearerToken(token string) fetch.RequestInterceptor {
	return func(_ context.Context, req *fetch.Request) (*fetch.Request, error) {
		for k := range req.Headers {
			if strings.EqualFold(k, "Authorization") {
				return req, nil
			}
		}
		next := *req
		next.Headers = maps.Clone(req.Headers)
		if next.Headers == nil {
			next.Headers = make(map[string]string, 1)
		}
		next.Headers["Authorization"] = "Bearer " + token
		return &next, nil
	}
}

// NewKV returns a KV client that sends through client. The bearer token
// interceptor is registered on client, so client should not be shared
// with unrelated APIs.
func NewKV(cfg config.CloudflareConfig, client fetch.Client) (*KV, error) {
	if cfg.Token == "" {
		return nil, config.NewMissingFieldError("cloudflare.token")
	}
	if cfg.AccountID == "" {
		return nil, config.NewMissingFieldError("cloudflare.accountid")
	}
	if client == nil {
		return nil, errors.New("cloudflare: fetch client is required")
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = BaseURL
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	client.UseRequestInterceptor(BearerToken(cfg.Token))
	return &KV{
		client:      client,
		urls:        urls(base),
		accountID:   cfg.AccountID,
		concurrency: concurrency,
	}, nil
}

// NewKVFromConfig builds a dedicated fetch client from the fetch section
// and returns a KV client on top of it.
func NewKVFromConfig(cfg *config.Config, log logger.Logger) (*KV, error) {
	if !config.IsCloudflareConfigured(&cfg.Cloudflare) {
		return nil, config.NewNotConfiguredError("cloudflare")
	}
	return NewKV(cfg.Cloudflare, fetch.NewFromConfig(cfg.Fetch, log))
}

func (k *KV) values(namespaceID, key string) endpoint.Values {
	v := endpoint.Values{KeyAccountID: url.PathEscape(k.accountID)}
	if namespaceID != "" {
		v[KeyNamespaceID] = url.PathEscape(namespaceID)
	}
	if key != "" {
		v[KeyName] = url.PathEscape(key)
	}
	return v
}

// VerifyToken checks the configured API token.
func (k *KV) VerifyToken(ctx context.Context) (TokenStatus, error) {
	env, err := call[TokenStatus](ctx, k.client, k.urls.verifyToken())
	return env.Result, err
}

// ListNamespaces returns the namespaces of the account.
func (k *KV) ListNamespaces(ctx context.Context) ([]KVNamespace, error) {
	env, err := call[[]KVNamespace](ctx, k.client, k.urls.namespaceList(k.values("", "")))
	return env.Result, err
}

// GetNamespace returns one namespace.
func (k *KV) GetNamespace(ctx context.Context, namespaceID string) (KVNamespace, error) {
	env, err := call[KVNamespace](ctx, k.client, k.urls.namespace(k.values(namespaceID, "")))
	return env.Result, err
}

// CreateNamespace creates a namespace titled title.
func (k *KV) CreateNamespace(ctx context.Context, title string) (KVNamespace, error) {
	env, err := call[KVNamespace](ctx, k.client, k.urls.namespaceList(k.values("", "")),
		fetch.WithMethod(http.MethodPost),
		fetch.WithBody(map[string]string{"title": title}))
	return env.Result, err
}

// RenameNamespace changes the title of a namespace.
func (k *KV) RenameNamespace(ctx context.Context, namespaceID, title string) error {
	_, err := call[any](ctx, k.client, k.urls.namespace(k.values(namespaceID, "")),
		fetch.WithMethod(http.MethodPut),
		fetch.WithBody(map[string]string{"title": title}))
	return err
}

// RemoveNamespace deletes a namespace and every key in it.
func (k *KV) RemoveNamespace(ctx context.Context, namespaceID string) error {
	_, err := call[any](ctx, k.client, k.urls.namespace(k.values(namespaceID, "")),
		fetch.WithMethod(http.MethodDelete))
	return err
}

// ListKeys returns every key of a namespace, following cursors.
func (k *KV) ListKeys(ctx context.Context, namespaceID string) ([]Key, error) {
	target := k.urls.keys(k.values(namespaceID, ""))

	var keys []Key
	cursor := ""
	for {
		var opts []fetch.Option
		if cursor != "" {
			opts = append(opts, fetch.WithParam("cursor", cursor))
		}
		env, err := call[[]Key](ctx, k.client, target, opts...)
		if err != nil {
			return nil, err
		}
		keys = append(keys, env.Result...)
		if env.ResultInfo == nil || env.ResultInfo.Cursor == "" || env.ResultInfo.Cursor == cursor {
			return keys, nil
		}
		cursor = env.ResultInfo.Cursor
	}
}

// GetValue reads the raw value stored under key.
func (k *KV) GetValue(ctx context.Context, namespaceID, key string) ([]byte, error) {
	resp, err := k.client.Get(ctx, k.urls.value(k.values(namespaceID, key)),
		fetch.WithDecoding(fetch.DecodeArrayBuffer))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrKeyNotFound
	}
	if !resp.Success {
		return nil, apiError(resp)
	}
	return resp.Body, nil
}

// GetValues reads several keys concurrently. Missing keys are left out of
// the result; any other failure cancels the remaining reads.
func (k *KV) GetValues(ctx context.Context, namespaceID string, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(k.concurrency)
	for _, key := range keys {
		g.Go(func() error {
			value, err := k.GetValue(ctx, namespaceID, key)
			if errors.Is(err, ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			out[key] = value
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// PutValue stores value under key.
func (k *KV) PutValue(ctx context.Context, namespaceID, key string, value []byte) error {
	_, err := call[any](ctx, k.client, k.urls.value(k.values(namespaceID, key)),
		fetch.WithMethod(http.MethodPut),
		fetch.WithBody(value),
		fetch.WithHeader("Content-Type", "application/octet-stream"))
	return err
}

// DeleteValue removes key.
func (k *KV) DeleteValue(ctx context.Context, namespaceID, key string) error {
	_, err := call[any](ctx, k.client, k.urls.value(k.values(namespaceID, key)),
		fetch.WithMethod(http.MethodDelete))
	return err
}

// BulkWrite stores several pairs in one request.
func (k *KV) BulkWrite(ctx context.Context, namespaceID string, pairs []Pair) error {
	_, err := call[any](ctx, k.client, k.urls.bulkWrite(k.values(namespaceID, "")),
		fetch.WithMethod(http.MethodPut),
		fetch.WithBody(pairs))
	return err
}

// BulkDelete removes several keys in one request.
func (k *KV) BulkDelete(ctx context.Context, namespaceID string, keys []string) error {
	_, err := call[any](ctx, k.client, k.urls.bulkDelete(k.values(namespaceID, "")),
		fetch.WithMethod(http.MethodPost),
		fetch.WithBody(keys))
	return err
}

// call performs one API request and unwraps the response envelope.
func call[T any](ctx context.Context, client fetch.Client, target string, opts ...fetch.Option) (envelope[T], error) {
	var env envelope[T]
	resp, err := client.Do(ctx, target, opts...)
	if err != nil {
		return env, err
	}
	if !resp.Success {
		return env, apiError(resp)
	}
	env, err = fetch.DecodeInto[envelope[T]](resp)
	if err != nil {
		return env, err
	}
	if !env.Success {
		return env, &APIError{StatusCode: resp.StatusCode, Errors: env.Errors}
	}
	return env, nil
}

func apiError(resp *fetch.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if env, err := fetch.DecodeInto[envelope[any]](resp); err == nil {
		apiErr.Errors = env.Errors
	}
	return apiErr
}
