// Package shared provides small helpers used across the vss-tools
// packages.
package shared

import (
	"sort"
	"strings"
)

// SortedKeys returns the keys of a string keyed map in ascending order.
func SortedKeys[V any](input map[string]V) []string {
	keys := make([]string, 0, len(input))
	for key := range input {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// CleanList trims every value and drops empty ones, keeping order and
// the first occurrence of duplicates.
func CleanList(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
