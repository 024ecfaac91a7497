package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize canonicalizes text before embedding: whitespace runs collapse to one space,
// characters other than letters, digits, underscore and whitespace are dropped, the result
// is lowercased and trimmed.
//
// A dropped symbol between two spaces never leaves a double space behind, so the output
// contains no whitespace run longer than one space and Normalize(Normalize(x)) == Normalize(x).
//
// Lowercasing is context-aware (Greek final sigma becomes ς). Combining marks that
// lowercasing itself introduces (İ → i̇) are dropped again.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	pendingSpace := false
	for _, r := range text {
		switch {
		case isSpace(r):
			pendingSpace = true
		case isWord(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}

	// Casers carry state; one per call.
	lower := cases.Lower(language.Und).String(b.String())
	return strings.Map(func(r rune) rune {
		if r == ' ' || isWord(r) {
			return r
		}
		return -1
	}, lower)
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// isSpace also treats the ASCII information separators (0x1C-0x1F) as whitespace.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
