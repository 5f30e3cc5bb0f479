// Package reconcile merges freshly extracted proposal task lists against a
// user-clarified snapshot so refinements survive a reparse. It is a pure
// library: no I/O, no shared state, deterministic for identical inputs.
package reconcile

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Weights for the combined label similarity. Whole-string edit distance
// dominates; token-sort absorbs word reordering; partial absorbs one label
// being a substring of the other.
const (
	ratioWeight     = 0.5
	tokenSortWeight = 0.3
	partialWeight   = 0.2
)

// normalizeLabel lowercases and trims a task name for comparison.
func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Score computes the combined similarity between two task labels, bounded
// 0..100. Either label normalizing to empty scores 0. The score is used only
// for ranking candidates, never as an exact-match test.
func Score(a, b string) int {
	a = normalizeLabel(a)
	b = normalizeLabel(b)
	if a == "" || b == "" {
		return 0
	}

	ratio := fuzzy.Ratio(a, b)
	tokenSort := fuzzy.TokenSortRatio(a, b)
	partial := fuzzy.PartialRatio(a, b)

	combined := int(ratioWeight*float64(ratio) + tokenSortWeight*float64(tokenSort) + partialWeight*float64(partial))
	if combined < 0 {
		return 0
	}
	if combined > 100 {
		return 100
	}
	return combined
}
