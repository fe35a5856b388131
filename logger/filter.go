package logger

import (
	"net/http"
	"net/url"
	"strings"
)

// DefaultMaskValue replaces the value of any field considered sensitive.
const DefaultMaskValue = "***"

// FilterConfig lists the field names (case-insensitive, substring match)
// whose values are masked.
type FilterConfig struct {
	SensitiveFields []string
	MaskValue       string
}

// DefaultFilterConfig covers credentials commonly found in HTTP traffic.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "secret", "token", "authorization",
			"api_key", "apikey", "x-api-key", "cookie", "credential",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks sensitive values in log fields.
type SensitiveDataFilter struct {
	fields []string
	mask   string
}

// NewSensitiveDataFilter builds a filter; a nil config means DefaultFilterConfig.
func NewSensitiveDataFilter(cfg *FilterConfig) *SensitiveDataFilter {
	if cfg == nil {
		cfg = DefaultFilterConfig()
	}
	mask := cfg.MaskValue
	if mask == "" {
		mask = DefaultMaskValue
	}
	fields := make([]string, 0, len(cfg.SensitiveFields))
	for _, f := range cfg.SensitiveFields {
		fields = append(fields, strings.ToLower(f))
	}
	return &SensitiveDataFilter{fields: fields, mask: mask}
}

func (f *SensitiveDataFilter) isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range f.fields {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// FilterString masks value when key is sensitive. URLs carrying user
// credentials have the password replaced.
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if f.isSensitive(key) {
		return f.mask
	}
	return f.maskURL(value)
}

func (f *SensitiveDataFilter) maskURL(value string) string {
	if !strings.Contains(value, "://") || !strings.Contains(value, "@") {
		return value
	}
	u, err := url.Parse(value)
	if err != nil || u.User == nil {
		return value
	}
	if _, has := u.User.Password(); !has {
		return value
	}
	u.User = url.UserPassword(u.User.Username(), f.mask)
	return u.String()
}

// FilterValue masks structured values: maps and http.Header are filtered
// entry by entry.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	if f.isSensitive(key) {
		return f.mask
	}
	switch v := value.(type) {
	case string:
		return f.maskURL(v)
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, val := range v {
			out[k] = f.FilterString(k, val)
		}
		return out
	case http.Header:
		out := make(map[string]string, len(v))
		for k, vals := range v {
			out[k] = f.FilterString(k, strings.Join(vals, ", "))
		}
		return out
	case map[string]any:
		return f.FilterFields(v)
	default:
		return value
	}
}

// FilterFields returns a filtered copy of fields.
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = f.FilterValue(k, v)
	}
	return out
}
