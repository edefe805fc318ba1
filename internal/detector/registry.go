package detector

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	// tokenSimilarityThreshold is the minimum token-set Jaccard similarity
	// for two normalized names to be folded into the same canonical payee
	tokenSimilarityThreshold = 0.90

	// editSimilarityThreshold is the minimum normalized edit-distance
	// similarity for single-token names, where token-set comparison is
	// all-or-nothing and misses near-identical spellings
	editSimilarityThreshold = 0.85
)

// payeeRegistry maps normalized payee names to canonical display names.
// The registry is call-scoped: it is built incrementally while one
// detection pass processes transactions in date order, and is discarded
// afterward. Canonicalization is therefore not guaranteed stable across
// invocations with different transaction sets.
type payeeRegistry struct {
	canonical map[string]string
	keys      []string
}

func newPayeeRegistry() *payeeRegistry {
	return &payeeRegistry{
		canonical: make(map[string]string),
	}
}

// resolve returns the canonical payee for a normalized name. An exact key
// hit reuses its canonical payee; otherwise every existing key is compared
// by token-set similarity (and edit distance for single-token names), and
// a sufficiently similar key's canonical payee is adopted. Unmatched names
// register the original payee string as a new canonical identity.
//
// The linear scan over keys is O(k) per transaction, acceptable for
// per-user volumes of thousands of transactions. A token-based inverted
// index could replace it without changing the contract.
func (r *payeeRegistry) resolve(normalized, original string) string {
	if normalized == "" {
		return original
	}

	if canonical, ok := r.canonical[normalized]; ok {
		return canonical
	}

	for _, key := range r.keys {
		if tokenSetSimilarity(normalized, key) >= tokenSimilarityThreshold {
			canonical := r.canonical[key]
			r.canonical[normalized] = canonical
			r.keys = append(r.keys, normalized)
			return canonical
		}

		if singleToken(normalized) && singleToken(key) &&
			editSimilarity(normalized, key) >= editSimilarityThreshold {
			canonical := r.canonical[key]
			r.canonical[normalized] = canonical
			r.keys = append(r.keys, normalized)
			return canonical
		}
	}

	r.canonical[normalized] = original
	r.keys = append(r.keys, normalized)
	return original
}

// size returns the number of distinct normalized names registered
func (r *payeeRegistry) size() int {
	return len(r.canonical)
}

func singleToken(s string) bool {
	return !strings.Contains(s, " ")
}

// editSimilarity computes 1 - distance/maxLen over two strings
func editSimilarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
