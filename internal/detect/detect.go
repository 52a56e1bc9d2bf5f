// Package detect flags issue categories and feature requests in normalized
// feedback text using fixed keyword tables and patterns.
package detect

import (
	"strings"
	"unicode"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
)

// containsAny reports whether text contains any of the terms as a substring.
func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// level picks high, then medium, then low by the first term set that occurs
// anywhere in text.
func level(text string, high, medium []string) feedback.Level {
	switch {
	case containsAny(text, high):
		return feedback.High
	case containsAny(text, medium):
		return feedback.Medium
	default:
		return feedback.Low
	}
}

// titleCase upper-cases the first letter of every letter run and lower-cases
// the rest, so "ui/ux" becomes "Ui/Ux".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
