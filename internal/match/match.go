// Package match scores and filters canonical records against noisy
// user-entered text. The registry's queries arrive via SMS and OCR'd paper
// forms, so exact prefix matching is useless; both algorithms here tolerate
// transposition and minor misspelling.
package match

import "strings"

// Algorithm selects the string-distance function used by Filter.
type Algorithm string

const (
	AlgorithmTrigram     Algorithm = "trigram"
	AlgorithmLevenshtein Algorithm = "levenshtein"
)

// Per-call defaults. Trigram similarity is a score (higher is closer);
// levenshtein is a distance (lower is closer).
const (
	DefaultTrigramThreshold     = 0.5
	DefaultLevenshteinThreshold = 2
)

// Config is the per-call matching configuration. Threshold semantics depend
// on the algorithm: minimum similarity for trigram, maximum edit distance for
// levenshtein. A zero Threshold means use the algorithm default.
type Config struct {
	Algorithm Algorithm
	Threshold float64
}

func (c Config) threshold() float64 {
	if c.Threshold != 0 {
		return c.Threshold
	}
	if c.Algorithm == AlgorithmLevenshtein {
		return DefaultLevenshteinThreshold
	}
	return DefaultTrigramThreshold
}

// Matches reports whether a candidate field value matches the query under the
// configured algorithm. Comparison is case-insensitive.
func (c Config) Matches(value, query string) bool {
	value = strings.ToLower(value)
	query = strings.ToLower(query)
	switch c.Algorithm {
	case AlgorithmLevenshtein:
		return float64(Levenshtein(value, query)) <= c.threshold()
	default:
		return TrigramSimilarity(value, query) >= c.threshold()
	}
}

// Filter keeps the candidates whose extracted field matches the query.
// Order is preserved. A nil normalizer skips stop-word stripping.
func Filter[T any](candidates []T, field func(T) string, query string, norm *Normalizer, cfg Config) []T {
	if norm != nil {
		if n := norm.Normalize(query); n != "" {
			query = n
		}
	}
	var out []T
	for _, c := range candidates {
		if cfg.Matches(field(c), query) {
			out = append(out, c)
		}
	}
	return out
}
