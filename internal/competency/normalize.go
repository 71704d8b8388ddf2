// Package competency turns raw skill strings and loosely-typed records into
// normalized competency sets.
package competency

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a skill string: lowercase, every rune that is not a
// word character (letter, number, underscore) or whitespace becomes a space,
// whitespace runs collapse to one space, ends are trimmed.
//
// Normalize is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// compose first so accents written as combining marks survive the strip
	text = strings.ToLower(norm.NFC.String(text))

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}

	return norm.NFC.String(strings.Join(strings.Fields(b.String()), " "))
}

// NormalizeValue normalizes a value that is expected to be text. Anything else
// is treated as absent.
func NormalizeValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return Normalize(s)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Words splits a normalized competency into its whitespace-delimited words.
func Words(c string) []string {
	return strings.Fields(c)
}
