// Package textnorm cleans raw feedback text before scoring and detection.
package textnorm

import (
	"strings"
	"unicode"
)

// Clean lower-cases text, drops everything that is not an ASCII letter or
// whitespace, and collapses whitespace runs into single spaces.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	kept := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, strings.ToLower(text))
	return strings.Join(strings.Fields(kept), " ")
}

// CleanNullable is Clean for columns that may be NULL. A nil text yields "".
func CleanNullable(text *string) string {
	if text == nil {
		return ""
	}
	return Clean(*text)
}
