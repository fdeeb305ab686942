// Package textnorm folds text into comparison keys shared by every search
// path: accents are stripped, case is folded, a fixed set of punctuation is
// removed and whitespace is collapsed.
//
// The functions are pure and safe for concurrent use. Stored paragraph text
// is normalized once at import time; queries are normalized per call.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripped lists the punctuation removed by Normalize. Hyphens and
// apostrophe-like letters outside this set are kept.
const stripped = ",.;:'\"‘’“”«»?!()"

// Normalize returns the comparison key for text: NFD decomposition, combining
// marks removed, lower-cased, punctuation in the fixed set removed, whitespace
// runs collapsed to a single space and trimmed. Empty input yields "".
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded := Fold(text)

	var b strings.Builder
	b.Grow(len(folded))
	prevSpace := true // swallow leading whitespace
	for _, r := range folded {
		if strings.ContainsRune(stripped, r) {
			continue
		}
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

// Fold strips diacritics and lower-cases text without touching punctuation or
// whitespace. "Évangile" folds to "evangile".
func Fold(text string) string {
	if text == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		// transform only fails on invalid chains; keep the input usable.
		out = text
	}
	return strings.ToLower(out)
}

// Words splits a normalized string into its space-separated words.
func Words(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}
