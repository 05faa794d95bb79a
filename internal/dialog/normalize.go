package dialog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentStripper decomposes characters and removes combining marks, so
// "qué" compares equal to "que" and "miércoles" to "miercoles".
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, trims, strips accents and punctuation, and collapses
// internal whitespace. Every matcher compares against normalized text only.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if out, _, err := transform.String(accentStripper, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			// punctuation and symbols are dropped for comparison
		}
	}
	return strings.TrimSpace(b.String())
}

// collapseSpaces trims and reduces runs of whitespace to single spaces
// without touching case or accents.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sentenceCase uppercases the first letter of the text, leaving the rest as-is.
func sentenceCase(s string) string {
	s = collapseSpaces(s)
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
