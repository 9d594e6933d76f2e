package service

import (
	"sort"
	"strings"
)

// CategoryMap assigns categories to document names from static configuration.
type CategoryMap map[string]string

// Category returns the category configured for name.
func (m CategoryMap) Category(name string) (string, bool) {
	c, ok := m[name]
	if !ok || strings.TrimSpace(c) == "" {
		return "", false
	}
	return c, true
}

// Categories returns the distinct configured categories, sorted.
func (m CategoryMap) Categories() []string {
	seen := make(map[string]struct{}, len(m))
	out := make([]string, 0, len(m))
	for _, c := range m {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
