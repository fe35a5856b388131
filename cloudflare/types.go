package cloudflare

import (
	"fmt"
	"strings"
)

// envelope is the standard Cloudflare API v4 response body.
type envelope[T any] struct {
	Success    bool         `json:"success"`
	Errors     []APIMessage `json:"errors"`
	Messages   []APIMessage `json:"messages"`
	Result     T            `json:"result"`
	ResultInfo *ResultInfo  `json:"result_info,omitempty"`
}

// APIMessage is an entry of the errors or messages arrays.
type APIMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ResultInfo carries pagination data.
type ResultInfo struct {
	Page       int    `json:"page,omitempty"`
	PerPage    int    `json:"per_page,omitempty"`
	Count      int    `json:"count,omitempty"`
	TotalCount int    `json:"total_count,omitempty"`
	Cursor     string `json:"cursor,omitempty"`
}

// APIError is returned when the API reports failure.
type APIError struct {
	StatusCode int
	Errors     []APIMessage
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("cloudflare: request failed with status %d", e.StatusCode)
	}
	msgs := make([]string, len(e.Errors))
	for i, m := range e.Errors {
		msgs[i] = fmt.Sprintf("%d: %s", m.Code, m.Message)
	}
	return fmt.Sprintf("cloudflare: request failed with status %d (%s)", e.StatusCode, strings.Join(msgs, "; "))
}

// TokenStatus is the result of token verification.
type TokenStatus struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ExpiresOn string `json:"expires_on,omitempty"`
}

// Active reports whether the token can be used.
func (t TokenStatus) Active() bool {
	return t.Status == "active"
}

// KVNamespace is a Workers KV namespace.
type KVNamespace struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	SupportsURLEncoding bool   `json:"supports_url_encoding,omitempty"`
}

// Key is an entry returned by key listing.
type Key struct {
	Name       string         `json:"name"`
	Expiration int64          `json:"expiration,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Pair is a key-value pair for bulk writes.
type Pair struct {
	Key           string         `json:"key" validate:"required,max=512"`
	Value         string         `json:"value"`
	Expiration    int64          `json:"expiration,omitempty"`
	ExpirationTTL int64          `json:"expiration_ttl,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Base64        bool           `json:"base64,omitempty"`
}
