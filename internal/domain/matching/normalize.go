// Package matching holds the pure text functions used to recognise the same
// supplier behind differently typed names.
package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a free-text name for comparison: lower case, no
// diacritics, only [a-z0-9 ] with single spaces, trimmed. It is total and
// idempotent; an empty input yields an empty string.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	lowered := strings.ToLower(raw)
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn))), lowered)
	if err != nil {
		// transform only fails on malformed chains; fall back to the lowered input
		stripped = lowered
	}

	var b strings.Builder
	b.Grow(len(stripped))
	pendingSpace := false
	for _, r := range stripped {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeTaxID reduces a tax identifier to its digits, so that
// "12.345.678/0001-99" and "12345678000199" compare equal.
func NormalizeTaxID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
