package insights

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/domain/memory"
)

const (
	InsightsEvery    = 5
	MilestoneEvery   = 10
	maxConcerns      = 5
	maxGrowthAreas   = 3
	maxMilestones    = 10
	summaryThemes    = 3
	inquirySample    = 5
	detailedAvgChars = 100
	conciseAvgChars  = 30
)

// Input is one extraction run. Texts are the newly processed user-authored texts;
// Recent is a window of the user's latest messages, oldest first.
type Input struct {
	Previous      *memory.UserMemory
	Texts         []string
	Recent        []string
	ExchangeCount int
	Now           time.Time
}

type Result struct {
	Themes        []string
	LastThemes    []string
	Traits        memory.TraitSet
	Insights      memory.Insights
	Summary       string
	Journey       memory.Journey
	ExchangeCount int
	Changed       bool
}

// Extract merges what the texts reveal into the previous memory. Running it twice
// over the same input yields the same result.
func (t *Taxonomy) Extract(in Input) Result {
	prev := in.Previous
	if prev == nil {
		prev = memory.NewUserMemory(uuid.Nil)
	}

	// found is ordered by recency: a theme seen again in a later text moves to the end.
	var found []string
	for _, text := range in.Texts {
		found = moveToEnd(found, t.DetectThemes(text))
	}

	res := Result{
		Themes:        memory.UnionStrings(prev.Themes, found),
		ExchangeCount: in.ExchangeCount,
	}

	res.LastThemes = found
	if len(found) == 0 {
		res.LastThemes = append([]string(nil), prev.LastThemes...)
	}

	traits := prev.TraitSet().Clone()
	traits.Merge(t.DeriveTraits(found, in.Texts))
	res.Traits = traits

	res.Insights = prev.Insights.Data()
	if in.ExchangeCount > 0 && in.ExchangeCount%InsightsEvery == 0 {
		res.Insights = t.ComputeInsights(in.Recent)
	}

	growth := t.TopThemes(in.Recent, maxGrowthAreas)
	res.Journey = updateJourney(prev.Journey.Data(), found, growth, in.ExchangeCount, in.Now)
	res.Summary = Summary(growth, res.Themes)

	res.Changed = !sameStrings(prev.Themes, res.Themes) ||
		!sameStrings(prev.LastThemes, res.LastThemes) ||
		!reflect.DeepEqual(normTraits(prev.TraitSet()), normTraits(res.Traits)) ||
		prev.Insights.Data() != res.Insights ||
		!journeyEqual(prev.Journey.Data(), res.Journey) ||
		prev.Summary != res.Summary ||
		prev.ExchangeCount != res.ExchangeCount
	return res
}

// DeriveTraits maps themes onto seeking_support_for and scans texts for
// primary_interests and life_stage keywords.
func (t *Taxonomy) DeriveTraits(themes []string, texts []string) memory.TraitSet {
	ts := memory.TraitSet{}
	for _, th := range themes {
		if v, ok := t.SupportFromThemes[th]; ok {
			ts.AddCategory(memory.TraitSeekingSupportFor, v)
		}
	}
	lower := strings.ToLower(strings.Join(texts, "\n"))
	if strings.TrimSpace(lower) == "" {
		return ts
	}
	categories := make([]string, 0, len(t.TraitKeywords))
	for c := range t.TraitKeywords {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		for value, kws := range t.TraitKeywords[c] {
			if containsAny(lower, kws) {
				ts.Add(c, value)
			}
		}
	}
	return ts
}

// ComputeInsights derives personality hints from user messages, oldest first.
func (t *Taxonomy) ComputeInsights(texts []string) memory.Insights {
	if len(texts) == 0 {
		return memory.Insights{}
	}
	all := strings.ToLower(strings.Join(texts, " "))

	out := memory.Insights{EmotionalState: t.Insights.DefaultEmotionalState}
	for _, def := range t.Insights.EmotionalState {
		if containsAny(all, def.Keywords) {
			out.EmotionalState = def.Label
			break
		}
	}

	total := 0
	for _, s := range texts {
		total += len([]rune(s))
	}
	avg := total / len(texts)
	switch {
	case avg > detailedAvgChars:
		out.CommunicationStyle = "detailed and expressive"
	case avg < conciseAvgChars:
		out.CommunicationStyle = "concise and direct"
	default:
		out.CommunicationStyle = "balanced"
	}

	sample := texts
	if len(sample) > inquirySample {
		sample = sample[:inquirySample]
	}
	questions := 0
	for _, s := range sample {
		if strings.Contains(s, "?") {
			questions++
		}
	}
	switch {
	case questions >= 3:
		out.InquiryStyle = "asks many questions"
	case questions > 0:
		out.InquiryStyle = "asks thoughtful questions"
	}
	return out
}

// TopThemes ranks themes by how many texts mention them. Ties break by name.
func (t *Taxonomy) TopThemes(texts []string, n int) []string {
	counts := map[string]int{}
	for _, s := range texts {
		for _, th := range t.DetectThemes(s) {
			counts[th]++
		}
	}
	names := make([]string, 0, len(counts))
	for th := range counts {
		names = append(names, th)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// Summary is "Often reflects on: a, b, c" over the leading themes, or "" when none are known.
func Summary(ranked []string, themes []string) string {
	pick := ranked
	if len(pick) == 0 {
		pick = themes
	}
	if len(pick) > summaryThemes {
		pick = pick[:summaryThemes]
	}
	if len(pick) == 0 {
		return ""
	}
	return "Often reflects on: " + strings.Join(pick, ", ")
}

func updateJourney(j memory.Journey, found, growth []string, exchanges int, now time.Time) memory.Journey {
	out := memory.Journey{
		PrimaryConcerns: append([]string(nil), j.PrimaryConcerns...),
		GrowthAreas:     append([]string(nil), j.GrowthAreas...),
		Milestones:      append([]memory.Milestone(nil), j.Milestones...),
	}

	if len(found) > maxConcerns {
		found = found[len(found)-maxConcerns:]
	}
	out.PrimaryConcerns = moveToEnd(out.PrimaryConcerns, found)
	if len(out.PrimaryConcerns) > maxConcerns {
		out.PrimaryConcerns = out.PrimaryConcerns[len(out.PrimaryConcerns)-maxConcerns:]
	}

	if len(growth) > 0 {
		out.GrowthAreas = append([]string(nil), growth...)
	}

	reached := 0
	for _, m := range out.Milestones {
		if m.Exchanges > reached {
			reached = m.Exchanges
		}
	}
	for k := reached + MilestoneEvery - reached%MilestoneEvery; k <= exchanges; k += MilestoneEvery {
		out.Milestones = append(out.Milestones, memory.Milestone{
			Exchanges: k,
			Note:      fmt.Sprintf("Completed %d conversations", k),
			At:        now.UTC(),
		})
	}
	if len(out.Milestones) > maxMilestones {
		out.Milestones = out.Milestones[len(out.Milestones)-maxMilestones:]
	}
	return out
}

// JourneyStage derives the spiritual_journey trait from how much a user has talked.
func JourneyStage(exchanges int) string {
	switch {
	case exchanges > 20:
		return "deepening"
	case exchanges > 10:
		return "devout"
	case exchanges > 5:
		return "exploring"
	default:
		return "seeker"
	}
}

// moveToEnd appends vals to list in order, first removing any earlier copy.
func moveToEnd(list, vals []string) []string {
	out := append([]string(nil), list...)
	for _, v := range vals {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if i := indexOf(out, v); i >= 0 {
			out = append(out[:i], out[i+1:]...)
		}
		out = append(out, v)
	}
	return out
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func journeyEqual(a, b memory.Journey) bool {
	if !sameStrings(a.PrimaryConcerns, b.PrimaryConcerns) || !sameStrings(a.GrowthAreas, b.GrowthAreas) {
		return false
	}
	if len(a.Milestones) != len(b.Milestones) {
		return false
	}
	for i := range a.Milestones {
		x, y := a.Milestones[i], b.Milestones[i]
		if x.Exchanges != y.Exchanges || x.Note != y.Note || !x.At.Equal(y.At) {
			return false
		}
	}
	return true
}

// normTraits drops empty categories so nil and [] compare equal.
func normTraits(ts memory.TraitSet) memory.TraitSet {
	out := memory.TraitSet{}
	for c, v := range ts {
		if len(v) > 0 {
			out[c] = v
		}
	}
	return out
}
