package match

import "strings"

// TrigramSimilarity scores two strings by their shared three-character
// substrings, following the pg_trgm convention: each word is lowercased and
// padded with two leading and one trailing space before extraction, and the
// score is |intersection| / |union| of the trigram sets. The result is in
// [0, 1]; identical non-empty strings score 1.
//
// This matches the similarity() function the postgres stores push the same
// predicate down to, so in-memory and SQL filtering agree.
func TrigramSimilarity(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 0
	}

	shared := 0
	for tg := range ta {
		if _, ok := tb[tg]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(s)) {
		padded := "  " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			set[string(runes[i:i+3])] = struct{}{}
		}
	}
	return set
}
