package match

import "strings"

// Normalizer strips administrative noise words from query text before
// matching. District queries and facility queries carry different qualifier
// vocabulary, so each target field gets its own normalizer.
type Normalizer struct {
	stopWords map[string]struct{}
}

// NewNormalizer builds a normalizer from a stop-word list. Words are matched
// whole and case-insensitively.
func NewNormalizer(words ...string) *Normalizer {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &Normalizer{stopWords: set}
}

// Normalize lowercases the query, drops stop words, and collapses whitespace.
// A query made entirely of stop words normalizes to the empty string; callers
// treat that as "no usable query".
func (n *Normalizer) Normalize(query string) string {
	fields := strings.Fields(strings.ToLower(query))
	kept := fields[:0]
	for _, f := range fields {
		if _, drop := n.stopWords[f]; !drop {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// DistrictNormalizer strips the hierarchy-level qualifiers users append to
// district names ("Kinondoni Municipal Council" → "kinondoni").
func DistrictNormalizer() *Normalizer {
	return NewNormalizer(
		"district", "region", "municipal", "council", "rural", "urban", "city", "town",
	)
}

// FacilityNormalizer strips facility-type qualifiers so "Muhimbili National
// Hospital" and "Muhimbili" land on the same canonical record.
func FacilityNormalizer() *Normalizer {
	return NewNormalizer(
		"hospital", "dispensary", "clinic", "health", "centre", "center", "national", "referral",
	)
}
