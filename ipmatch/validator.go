package ipmatch

import (
	"net"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// AllowAll is the rule that admits every address.
const AllowAll = "*"

// Client address headers, in lookup order
const (
	HeaderXRealIP        = "X-Real-IP"
	HeaderCFConnectingIP = "CF-Connecting-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
)

// Validator holds a compiled allow list. Rules are anchored: "192.168.1.*"
// admits 192.168.1.7 but not 192.168.10.7. An empty rule set admits
// nothing. Safe for concurrent use.
type Validator struct {
	mu       sync.RWMutex
	allowAll bool
	patterns []*regexp.Regexp
}

// NewValidator compiles rules.
func NewValidator(rules ...string) *Validator {
	v := &Validator{}
	v.UpdateRules(rules...)
	return v
}

// UpdateRules replaces the allow list.
func (v *Validator) UpdateRules(rules ...string) {
	allowAll := slices.Contains(rules, AllowAll)
	var patterns []*regexp.Regexp
	if !allowAll {
		patterns = make([]*regexp.Regexp, 0, len(rules))
		for _, rule := range rules {
			if rule = strings.TrimSpace(rule); rule != "" {
				patterns = append(patterns, compile(rule, true))
			}
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.allowAll = allowAll
	v.patterns = patterns
}

// Validate reports whether ip is admitted. An empty ip never is.
func (v *Validator) Validate(ip string) bool {
	if ip == "" {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.allowAll {
		return true
	}
	for _, p := range v.patterns {
		if p.MatchString(ip) {
			return true
		}
	}
	return false
}

// ValidateRequest validates the client address of r.
func (v *Validator) ValidateRequest(r *http.Request) bool {
	return v.Validate(ClientIP(r))
}

// ClientIP returns the client address of r from X-Real-IP,
// CF-Connecting-IP or the first X-Forwarded-For hop, falling back to the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if ip := strings.TrimSpace(r.Header.Get(HeaderXRealIP)); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get(HeaderCFConnectingIP)); ip != "" {
		return ip
	}
	if fwd := r.Header.Get(HeaderXForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
