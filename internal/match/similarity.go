// Package match provides the string similarity metric and the fuzzy
// candidate index built over the reference dataset.
package match

import (
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Similarity scores how alike two strings are, in [0,1] with 1 meaning
// identical. Implementations must be symmetric and deterministic. The
// metric is pluggable so callers are not tied to one library.
type Similarity func(a, b string) float64

// Levenshtein is the default metric: 1 minus the normalized edit distance.
func Levenshtein(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	sim := 1 - float64(dist)/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}
