// Package strings holds small slice helpers shared by record normalization.
package strings

import (
	"strings"
)

// Dedupe trims each value, applies fold, and keeps the first occurrence of
// every non-empty result in input order. A nil fold keeps values as trimmed.
func Dedupe(values []string, fold func(string) string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold != nil {
			v = fold(v)
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// DedupeAndTrim is Dedupe without folding. Status codes keep their case.
func DedupeAndTrim(values []string) []string {
	return Dedupe(values, nil)
}

// HostNames folds host names to lower case without the root dot, so
// "NS1.Example.COM." and "ns1.example.com" collapse to one entry.
func HostNames(values []string) []string {
	return Dedupe(values, func(s string) string {
		return strings.TrimSuffix(strings.ToLower(s), ".")
	})
}
