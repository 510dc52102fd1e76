// Package strings provides list helpers shared by configuration loaders.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and blank entries from a slice, trimming
// whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  key-a ", "key-b", "key-a", "", "  "})
//	// Returns: []string{"key-a", "key-b"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// SplitList parses a comma-separated value such as API_KEYS="a, b,,a".
// The result is trimmed and deduplicated; an empty input yields nil.
func SplitList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	out := DedupeAndTrim(strings.Split(csv, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
