// Package ipmatch matches client addresses against wildcard allow lists
// such as "192.168.*.*" and guards echo routes with them.
package ipmatch

import (
	"regexp"
	"strings"
)

var (
	ipv4Pattern = regexp.MustCompile(`^(?:(?:\d|[1-9]\d|1\d\d|2[0-4]\d|25[0-5])\.){3}(?:\d|[1-9]\d|1\d\d|2[0-4]\d|25[0-5])(?::(?:\d|[1-9]\d{1,3}|[1-5]\d{4}|6[0-4]\d{3}|65[0-4]\d{2}|655[0-2]\d|6553[0-5]))?$`)
	ipv6Pattern = regexp.MustCompile(`(?i)^(?:[0-9a-f]{1,4}:){7}[0-9a-f]{1,4}$`)
)

// IsIPv4 reports whether ip is a dotted IPv4 address, optionally
// followed by a port.
func IsIPv4(ip string) bool {
	return ip != "" && ipv4Pattern.MatchString(ip)
}

// IsIPv6 reports whether ip is an IPv6 address written out in full
// eight-group form. Compressed forms such as "::1" are not accepted.
func IsIPv6(ip string) bool {
	return ip != "" && ipv6Pattern.MatchString(ip)
}

// IsIP reports whether ip passes IsIPv4 or IsIPv6.
func IsIP(ip string) bool {
	return IsIPv4(ip) || IsIPv6(ip)
}

// Check reports whether ip contains a match for any of patterns, where
// "*" stands for a run of digits. Matches are not anchored: "10.0.*.*"
// also matches "110.0.1.1".
func Check(ip string, patterns []string) bool {
	if ip == "" || len(patterns) == 0 || !IsIP(ip) {
		return false
	}
	for _, p := range patterns {
		if compile(p, false).MatchString(ip) {
			return true
		}
	}
	return false
}

// compile turns a wildcard rule into a regular expression.
func compile(rule string, anchored bool) *regexp.Regexp {
	expr := strings.ReplaceAll(regexp.QuoteMeta(rule), `\*`, `\d+`)
	if anchored {
		expr = "^" + expr + "$"
	}
	return regexp.MustCompile(expr)
}
