// Package prompt composes the single text request sent to a model.
package prompt

import (
	"sort"
	"strings"
)

// DefaultStyleKey is used when a style key does not resolve.
const DefaultStyleKey = "essay"

// StyleTable maps style keys to their instruction text. Keys are stored lowercase.
type StyleTable map[string]string

// DefaultStyles returns the built-in style table.
func DefaultStyles() StyleTable {
	return StyleTable{
		"sci-fi":       "Continue in a futuristic science fiction style, maintaining the narrative flow.",
		"peer-review":  "Continue in an academic peer-reviewed style, maintaining the analytical flow.",
		"essay":        "Continue in a formal reflective essay style, maintaining the narrative thread.",
		"poetry":       "Continue in contemporary free verse poetry style, maintaining the poetic flow.",
		"journalistic": "Continue in a New York Times feature article style, maintaining the narrative direction.",
	}
}

// NewStyleTable builds a table from user entries layered over the defaults.
// Keys are normalized to lowercase.
func NewStyleTable(overrides map[string]string) StyleTable {
	t := DefaultStyles()
	for k, v := range overrides {
		k = normalizeKey(k)
		if k == "" || strings.TrimSpace(v) == "" {
			continue
		}
		t[k] = strings.TrimSpace(v)
	}
	return t
}

// Has reports whether key resolves, ignoring case.
func (t StyleTable) Has(key string) bool {
	_, ok := t[normalizeKey(key)]
	return ok
}

// Instruction returns the instruction for key, ignoring case.
// Unknown keys resolve to the default style.
func (t StyleTable) Instruction(key string) string {
	if s, ok := t[normalizeKey(key)]; ok {
		return s
	}
	if s, ok := t[DefaultStyleKey]; ok {
		return s
	}
	return DefaultStyles()[DefaultStyleKey]
}

// Keys returns the style keys, sorted.
func (t StyleTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
