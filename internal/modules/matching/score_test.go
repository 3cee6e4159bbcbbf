package matching

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/domain/memory"
)

func TestWeightsSumTo100(t *testing.T) {
	var sum float64
	for _, w := range Weights {
		sum += w.Points
	}
	if sum != 100 {
		t.Fatalf("weights: want=100 got=%v", sum)
	}
}

func TestComputeSharedTraditionAndSupport(t *testing.T) {
	a := Side{UserID: uuid.New(), Traditions: []string{"buddhism"}, Traits: memory.TraitSet{memory.TraitSeekingSupportFor: {"grief"}}}
	b := Side{UserID: uuid.New(), Traditions: []string{"Buddhism", "taoism"}, Traits: memory.TraitSet{memory.TraitSeekingSupportFor: {"grief", "anxiety"}}}
	got := Compute(a, b)
	// 30*1/2 + 25*1/3
	if got.Value != 23 {
		t.Fatalf("score: want=23 got=%d", got.Value)
	}
	if strings.Join(got.Matched, ",") != "tradition:buddhism,seeking_support_for:grief" {
		t.Fatalf("matched: got=%v", got.Matched)
	}
	if rev := Compute(b, a); rev.Value != got.Value {
		t.Fatalf("score not symmetric: %d vs %d", got.Value, rev.Value)
	}
}

func TestComputeBoundsAndOther(t *testing.T) {
	full := memory.TraitSet{
		memory.TraitSeekingSupportFor: {"a", "b", "c", "d"},
		memory.TraitSpiritualJourney:  {"seeker"},
		memory.TraitPrimaryInterests:  {"prayer", "meditation", "service", "community"},
		memory.TraitConnectionStyle:   {"peer"},
		memory.TraitLifeStage:         {"parent"},
		memory.TraitOther:             {"x"},
	}
	a := Side{UserID: uuid.New(), Traditions: []string{"islam", "sikhism", "judaism"}, Traits: full}
	b := Side{UserID: uuid.New(), Traditions: []string{"islam", "sikhism", "judaism"}, Traits: full.Clone()}
	if got := Compute(a, b).Value; got != 100 {
		t.Fatalf("max score: want=100 got=%d", got)
	}
	onlyOther := Side{UserID: uuid.New(), Traits: memory.TraitSet{memory.TraitOther: {"x"}}}
	if got := Compute(onlyOther, onlyOther).Value; got != 0 {
		t.Fatalf("other must not score: got=%d", got)
	}
}

func TestComputeMonotonic(t *testing.T) {
	a := Side{UserID: uuid.New(), Traits: memory.TraitSet{}}
	b := Side{UserID: uuid.New(), Traits: memory.TraitSet{}}
	prev := Compute(a, b).Value
	additions := []struct {
		c memory.TraitCategory
		v string
	}{
		{memory.TraitPrimaryInterests, "prayer"},
		{memory.TraitSeekingSupportFor, "grief"},
		{memory.TraitPreferredTraditions, "hinduism"},
		{memory.TraitPrimaryInterests, "meditation"},
		{memory.TraitLifeStage, "student"},
		{memory.TraitLifeStage, "parent"},
		{memory.TraitPreferredTraditions, "judaism"},
		{memory.TraitPreferredTraditions, "shinto"},
	}
	for _, add := range additions {
		a.Traits.AddCategory(add.c, add.v)
		b.Traits.AddCategory(add.c, add.v)
		cur := Compute(a, b).Value
		if cur < prev {
			t.Fatalf("adding %s:%s lowered score %d -> %d", add.c, add.v, prev, cur)
		}
		if cur < 0 || cur > 100 {
			t.Fatalf("score out of range: %d", cur)
		}
		prev = cur
	}
}

func TestRankOrder(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	self := Side{UserID: uuid.New(), Traditions: []string{"buddhism"}}
	idLow := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	idHigh := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	strong := Side{UserID: uuid.New(), Traditions: []string{"buddhism"}, LastActiveAt: now.Add(-time.Hour)}
	tieOld := Side{UserID: uuid.New(), LastActiveAt: now.Add(-48 * time.Hour)}
	tieHigh := Side{UserID: idHigh, LastActiveAt: now}
	tieLow := Side{UserID: idLow, LastActiveAt: now}

	got := Rank(self, []Side{tieOld, tieHigh, strong, self, tieLow}, 0, 10)
	want := []uuid.UUID{strong.UserID, idLow, idHigh, tieOld.UserID}
	if len(got) != len(want) {
		t.Fatalf("Rank len: want=%d got=%d", len(want), len(got))
	}
	for i := range want {
		if got[i].UserID != want[i] {
			t.Fatalf("Rank[%d]: want=%s got=%s", i, want[i], got[i].UserID)
		}
	}

	filtered := Rank(self, []Side{tieOld, strong}, 10, 10)
	if len(filtered) != 1 || filtered[0].UserID != strong.UserID {
		t.Fatalf("Rank minScore: got=%d results", len(filtered))
	}
	if limited := Rank(self, []Side{tieOld, tieHigh, strong}, 0, 2); len(limited) != 2 {
		t.Fatalf("Rank limit: want=2 got=%d", len(limited))
	}
}
