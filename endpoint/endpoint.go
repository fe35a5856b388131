// Package endpoint formats URL templates with {{key}} placeholders.
package endpoint

import (
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Values maps placeholder names to their substitutions.
type Values map[string]string

// Format replaces every {{key}} in template with values[key]. Placeholders
// without a value are left as they are.
func Format(template string, values Values) string {
	if len(values) == 0 {
		return template
	}
	return placeholder.ReplaceAllStringFunc(template, func(match string) string {
		key := match[2 : len(match)-2]
		if v, ok := values[key]; ok {
			return v
		}
		return match
	})
}

// Join appends path to base with exactly one slash between them.
func Join(base, path string) string {
	switch {
	case path == "":
		return base
	case base == "":
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// Placeholders returns the distinct placeholder names in template in order
// of first appearance.
func Placeholders(template string) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		keys = append(keys, m[1])
	}
	return keys
}
