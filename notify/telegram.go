// Package notify sends operator notifications to a Telegram chat.
package notify

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/time/rate"

	"github.com/gaborage/go-fetch/config"
	"github.com/gaborage/go-fetch/endpoint"
	"github.com/gaborage/go-fetch/fetch"
	"github.com/gaborage/go-fetch/logger"
)

// DefaultBaseURL is the Telegram Bot API root.
const DefaultBaseURL = "https://api.telegram.org"

const (
	sendMessagePath = "/bot{{token}}/sendMessage"
	acceptHeader    = "text/html,application/xhtml+xml,application/xml;"
	userAgent       = "Mozilla/5.0 Chrome/90.0.4430.72"
	parseModeHTML   = "HTML"
)

// ErrMissingCredentials is returned by Send when the token or chat id is empty.
var ErrMissingCredentials = errors.New("notify: missing token or chat id")

// Telegram posts messages through the Bot API sendMessage method.
type Telegram struct {
	client  fetch.Client
	token   string
	chatID  string
	baseURL string
	limiter *rate.Limiter
}

// NewTelegram returns a notifier paced at cfg.Rate messages per second.
// A zero rate disables pacing.
func NewTelegram(cfg config.TelegramConfig, client fetch.Client) *Telegram {
	if client == nil {
		client = fetch.NewClient(nil)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := max(cfg.Burst, 1)

	return &Telegram{
		client:  client,
		token:   cfg.Token,
		chatID:  cfg.ChatID,
		baseURL: base,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// NewTelegramFromConfig builds a notifier with its own fetch client.
func NewTelegramFromConfig(cfg *config.Config, log logger.Logger) (*Telegram, error) {
	if !config.IsTelegramConfigured(&cfg.Telegram) {
		return nil, config.NewNotConfiguredError("telegram")
	}
	return NewTelegram(cfg.Telegram, fetch.NewFromConfig(cfg.Fetch, log)), nil
}

// Send joins lines with newlines and sends them as one HTML message.
// Non-2xx replies are returned as an HTTP error alongside the response.
func (t *Telegram) Send(ctx context.Context, lines ...string) (*fetch.Response, error) {
	if t.token == "" || t.chatID == "" {
		return nil, ErrMissingCredentials
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fetch.NewCancellationError("notification rate wait aborted", err)
	}

	target := endpoint.Format(t.baseURL+sendMessagePath, endpoint.Values{"token": t.token})
	resp, err := t.client.Get(ctx, target,
		fetch.WithParams(map[string]string{
			"chat_id":    t.chatID,
			"parse_mode": parseModeHTML,
			"text":       strings.Join(lines, "\n"),
		}),
		fetch.WithHeader("Accept", acceptHeader),
		fetch.WithHeader("User-Agent", userAgent),
		fetch.WithDecoding(fetch.DecodeText),
		fetch.WithRedacted(t.token),
	)
	if err != nil {
		return nil, err
	}
	return resp, resp.Err()
}
