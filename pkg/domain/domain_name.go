package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	dErrors "domainlens/pkg/domain-errors"
)

const (
	maxDomainLength = 253
	maxLabelLength  = 63
)

// DomainName is a validated, lower-cased domain name.
// Invariant: contains at least one separator and every label is non-empty.
//
// Usage: construct via ParseDomainName at trust boundaries; direct casting
// bypasses validation.
type DomainName string

// ParseDomainName constructs a DomainName from external input.
//
// Surrounding whitespace and a trailing root dot are removed and the name is
// lower-cased before validation.
//
// Errors: returns CodeInvalidInput when the value is empty, has no separator,
// contains an empty or oversized label, or contains characters outside
// letters, digits, '-' and '_'.
func ParseDomainName(s string) (DomainName, error) {
	if !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "domain must be valid UTF-8")
	}
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "domain cannot be empty")
	}
	if len(name) > maxDomainLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "domain is too long")
	}
	if !strings.Contains(name, ".") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "domain must contain a top-level label")
	}
	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return "", dErrors.New(dErrors.CodeInvalidInput, "domain contains an empty label")
		}
		if len(label) > maxLabelLength {
			return "", dErrors.New(dErrors.CodeInvalidInput, "domain label is too long")
		}
		for _, r := range label {
			if !isLabelRune(r) {
				return "", dErrors.New(dErrors.CodeInvalidInput, "domain contains invalid characters")
			}
		}
	}
	return DomainName(name), nil
}

func isLabelRune(r rune) bool {
	return r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// TLD returns the label after the last separator.
func (d DomainName) TLD() string {
	s := string(d)
	return s[strings.LastIndex(s, ".")+1:]
}

// String returns the string representation of the domain.
func (d DomainName) String() string {
	return string(d)
}
