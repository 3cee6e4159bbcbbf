package memory

import (
	"sort"
	"strings"
)

// TraitCategory is the closed set of trait buckets. Anything unknown folds into TraitOther.
type TraitCategory string

const (
	TraitLifeStage           TraitCategory = "life_stage"
	TraitSpiritualJourney    TraitCategory = "spiritual_journey"
	TraitPrimaryInterests    TraitCategory = "primary_interests"
	TraitSeekingSupportFor   TraitCategory = "seeking_support_for"
	TraitPreferredTraditions TraitCategory = "preferred_traditions"
	TraitConnectionStyle     TraitCategory = "connection_style"
	TraitOther               TraitCategory = "other"
)

var knownCategories = []TraitCategory{
	TraitLifeStage,
	TraitSpiritualJourney,
	TraitPrimaryInterests,
	TraitSeekingSupportFor,
	TraitPreferredTraditions,
	TraitConnectionStyle,
}

// KnownCategories lists every scorable category in a stable order.
func KnownCategories() []TraitCategory {
	out := make([]TraitCategory, len(knownCategories))
	copy(out, knownCategories)
	return out
}

func ParseTraitCategory(raw string) TraitCategory {
	c := TraitCategory(strings.ToLower(strings.TrimSpace(raw)))
	for _, k := range knownCategories {
		if c == k {
			return k
		}
	}
	return TraitOther
}

// TraitSet maps a category to a sorted, deduplicated list of values.
type TraitSet map[TraitCategory][]string

// Add unions values into the category after parsing it.
func (ts TraitSet) Add(category string, values ...string) {
	ts.AddCategory(ParseTraitCategory(category), values...)
}

func (ts TraitSet) AddCategory(c TraitCategory, values ...string) {
	if len(values) == 0 {
		return
	}
	ts[c] = UnionStrings(ts[c], values)
}

// Merge unions every category of other into ts. Merging is idempotent.
func (ts TraitSet) Merge(other TraitSet) {
	for c, vals := range other {
		ts.AddCategory(ParseTraitCategory(string(c)), vals...)
	}
}

func (ts TraitSet) Values(c TraitCategory) []string {
	return ts[c]
}

func (ts TraitSet) Clone() TraitSet {
	out := make(TraitSet, len(ts))
	for c, vals := range ts {
		cp := make([]string, len(vals))
		copy(cp, vals)
		out[c] = cp
	}
	return out
}

// UnionStrings returns the sorted, deduplicated union of a and b.
// Values are lowercased and trimmed; empty values are dropped.
func UnionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
