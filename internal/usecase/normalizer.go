package usecase

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Package-level compiled patterns and transforms for performance
var (
	// \s alone is ASCII-only in Go regexps; \p{Zs} picks up NBSP and
	// the other Unicode space separators scraped pages carry.
	whitespaceRunRegex = regexp.MustCompile(`[\s\p{Zs}]+`)
	nonAlnumRegex      = regexp.MustCompile(`[^A-Z0-9 ]+`)

	// Canonical decomposition followed by removal of combining marks:
	// visually identical strings in different encodings compare equal.
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// nameKeyMinTokenLen is the shortest token kept by NameKey. Tokens at or
// below this length are articles and prepositions in practice.
const nameKeyMinTokenLen = 2

// SKUKey normalizes a raw SKU into its canonical comparison key: trim,
// strip diacritics, uppercase, collapse internal whitespace runs.
// Punctuation is preserved because SKUs may be meaningfully punctuated.
// Returns "" for blank input; callers must treat an empty key as
// unkeyable, never as a valid match target.
func SKUKey(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	upper := strings.ToUpper(stripDiacritics(trimmed))
	return whitespaceRunRegex.ReplaceAllString(upper, " ")
}

// NameKey normalizes a product name into a key that is insensitive to
// accents, case, punctuation, word order and short filler words. It
// applies the same base normalization as SKUKey, then strips everything
// non-alphanumeric, discards tokens of length <= 2 and sorts the rest.
// Returns "" when nothing survives.
func NameKey(raw string) string {
	base := SKUKey(raw)
	if base == "" {
		return ""
	}
	cleaned := nonAlnumRegex.ReplaceAllString(base, " ")

	var kept []string
	for _, token := range strings.Fields(cleaned) {
		if len(token) <= nameKeyMinTokenLen {
			continue
		}
		kept = append(kept, token)
	}
	if len(kept) == 0 {
		return ""
	}
	sort.Strings(kept)
	return strings.Join(kept, " ")
}

// stripDiacritics drops combining marks after canonical decomposition.
func stripDiacritics(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}
