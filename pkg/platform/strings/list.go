// Package strings provides string list helpers used when reading configuration.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value, trims each element and drops empty
// and repeated elements. Order of first occurrence is preserved and case is kept.
//
// Example:
//
//	SplitList(" alice.near, bob.near ,,alice.near")
//	// Returns: []string{"alice.near", "bob.near"}
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return Dedupe(strings.Split(raw, ","))
}

// Dedupe trims values and removes empty and duplicate entries, keeping order.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
