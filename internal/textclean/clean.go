// Package textclean prepares transcripts for lexicon scoring.
package textclean

import (
	"strings"
	"unicode"
)

// Normalize drops every rune other than ASCII letters and Unicode whitespace,
// lowercases the remainder and trims it. Whitespace between words is kept
// as-is, so "good day" stays two words.
func Normalize(text string) string {
	text = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		case unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, text)
	return strings.TrimSpace(strings.ToLower(text))
}
