// Package normalize canonicalizes free-text vehicle make and model strings
// for matching. Both Normalize and ExtractBaseModel are deterministic and
// idempotent; empty input yields an empty string.
package normalize

import (
	"regexp"
	"strings"
)

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)

	// trailingNumeric strips a trailing run starting at a space followed by
	// a digit, removing engine-size and trim numerics ("is 300" -> "is").
	trailingNumeric = regexp.MustCompile(`\s+\d.*$`)

	keywordPattern = buildKeywordPattern()
)

// buildKeywordPattern compiles the trim keyword list into a single
// whole-word pattern. Keywords are normalized first so entries such as
// "2.0t" match their normalized form in the input.
func buildKeywordPattern() *regexp.Regexp {
	seen := make(map[string]bool, len(trimKeywords))
	parts := make([]string, 0, len(trimKeywords))
	for _, kw := range trimKeywords {
		n := Normalize(kw)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		parts = append(parts, regexp.QuoteMeta(n))
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(parts, "|") + `)\b`)
}

// Normalize lower-cases the input, strips characters outside [a-z0-9\s-],
// collapses whitespace and trims.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = invalidChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExtractBaseModel derives the base model from a full model string: it
// normalizes, removes every whole-word trim keyword, strips a trailing
// numeric-led run, then re-collapses whitespace.
func ExtractBaseModel(text string) string {
	s := Normalize(text)
	s = keywordPattern.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = trailingNumeric.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
