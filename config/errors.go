package config

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by errors.Is against a *ConfigError of the same kind.
var (
	ErrMissing       = errors.New("config value missing")
	ErrInvalid       = errors.New("config value invalid")
	ErrNotConfigured = errors.New("not configured")
)

// Kind classifies a configuration problem.
type Kind string

const (
	KindMissing       Kind = "missing"
	KindInvalid       Kind = "invalid"
	KindNotConfigured Kind = "not_configured"
)

// sectionKeys lists the keys an optional section needs before it can be
// used. They are named in the hint of a not-configured error.
var sectionKeys = map[string][]string{
	"telegram":   {"telegram.token", "telegram.chatid"},
	"cloudflare": {"cloudflare.accountid", "cloudflare.token"},
}

// ConfigError reports a problem with one configuration key, or with a
// whole section for KindNotConfigured.
//
//nolint:revive // exported as config.ConfigError on purpose
type ConfigError struct {
	Kind    Kind
	Key     string // koanf path, e.g. "fetch.retry.max" or "telegram"
	Message string
	Options []string
}

// Section returns the top-level section of Key ("fetch", "telegram", ...).
func (e *ConfigError) Section() string {
	section, _, _ := strings.Cut(e.Key, ".")
	return section
}

// EnvVar returns the environment variable that sets Key.
func (e *ConfigError) EnvVar() string {
	return EnvVar(e.Key)
}

func (e *ConfigError) hint() string {
	switch e.Kind {
	case KindMissing:
		return fmt.Sprintf("set %s or %s in config.yaml", e.EnvVar(), e.Key)
	case KindNotConfigured:
		keys := sectionKeys[e.Key]
		if len(keys) == 0 {
			return fmt.Sprintf("add a %s section to config.yaml to enable it", e.Key)
		}
		vars := make([]string, len(keys))
		for i, k := range keys {
			vars[i] = EnvVar(k)
		}
		return "set " + strings.Join(vars, " and ") + " to enable it"
	case KindInvalid:
		if len(e.Options) > 0 {
			return "must be one of: " + strings.Join(e.Options, ", ")
		}
	}
	return ""
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config: ")
	b.WriteString(e.Key)
	if e.Message != "" {
		b.WriteString(" ")
		b.WriteString(e.Message)
	}
	if h := e.hint(); h != "" {
		b.WriteString(" (")
		b.WriteString(h)
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap exposes the sentinel for the error's kind.
func (e *ConfigError) Unwrap() error {
	switch e.Kind {
	case KindMissing:
		return ErrMissing
	case KindNotConfigured:
		return ErrNotConfigured
	default:
		return ErrInvalid
	}
}

// EnvVar maps a koanf key to its environment variable: "fetch.retry.max"
// becomes "FETCH_RETRY_MAX". It is the inverse of the env provider mapping.
func EnvVar(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// NewMissingFieldError reports a required key without a value.
func NewMissingFieldError(key string) *ConfigError {
	return &ConfigError{Kind: KindMissing, Key: key, Message: "is required"}
}

// NewInvalidFieldError reports a value outside its allowed set or format.
func NewInvalidFieldError(key, message string, options ...string) *ConfigError {
	return &ConfigError{Kind: KindInvalid, Key: key, Message: message, Options: options}
}

// NewNotConfiguredError reports an optional section left empty. Callers
// usually treat it as "feature off" rather than a failure.
func NewNotConfiguredError(section string) *ConfigError {
	return &ConfigError{Kind: KindNotConfigured, Key: section, Message: "is not configured"}
}

// IsNotConfigured reports whether err means an optional section is off.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
