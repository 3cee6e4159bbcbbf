package matching

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/domain/memory"
)

// Weight is the contribution of one category: Points * min(shared, Cap) / Cap.
type Weight struct {
	Category memory.TraitCategory
	Points   float64
	Cap      int
}

// Weights sum to 100. preferred_traditions is scored from the profile field, not the trait snapshot.
var Weights = []Weight{
	{Category: memory.TraitPreferredTraditions, Points: 30, Cap: 2},
	{Category: memory.TraitSeekingSupportFor, Points: 25, Cap: 3},
	{Category: memory.TraitSpiritualJourney, Points: 15, Cap: 1},
	{Category: memory.TraitPrimaryInterests, Points: 15, Cap: 3},
	{Category: memory.TraitConnectionStyle, Points: 10, Cap: 1},
	{Category: memory.TraitLifeStage, Points: 5, Cap: 1},
}

// Side is one participant as the scorer sees it.
type Side struct {
	UserID       uuid.UUID
	Traditions   []string
	Traits       memory.TraitSet
	LastActiveAt time.Time
}

type Score struct {
	Value   int
	Matched []string
}

// Compute scores b against a. The score is symmetric and never decreases when a shared item is added.
func Compute(a, b Side) Score {
	var total float64
	var matched []string
	for _, w := range Weights {
		var left, right []string
		label := string(w.Category)
		if w.Category == memory.TraitPreferredTraditions {
			left = memory.UnionStrings(a.Traditions, a.Traits[w.Category])
			right = memory.UnionStrings(b.Traditions, b.Traits[w.Category])
			label = "tradition"
		} else {
			left = memory.UnionStrings(nil, a.Traits[w.Category])
			right = memory.UnionStrings(nil, b.Traits[w.Category])
		}
		shared := intersect(left, right)
		if len(shared) == 0 || w.Cap <= 0 {
			continue
		}
		n := len(shared)
		if n > w.Cap {
			n = w.Cap
		}
		total += w.Points * float64(n) / float64(w.Cap)
		for _, v := range shared {
			matched = append(matched, label+":"+v)
		}
	}
	v := int(math.Round(total))
	if v > 100 {
		v = 100
	}
	return Score{Value: v, Matched: matched}
}

// intersect expects sorted, deduplicated inputs.
func intersect(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

type Ranked struct {
	Side
	Score
}

// Rank scores every candidate against self, drops those under minScore and
// orders by score desc, last activity desc, then user id.
func Rank(self Side, candidates []Side, minScore, limit int) []Ranked {
	out := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		if c.UserID == self.UserID {
			continue
		}
		s := Compute(self, c)
		if s.Value < minScore {
			continue
		}
		out = append(out, Ranked{Side: c, Score: s})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		if !out[i].LastActiveAt.Equal(out[j].LastActiveAt) {
			return out[i].LastActiveAt.After(out[j].LastActiveAt)
		}
		return out[i].UserID.String() < out[j].UserID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
