package prompt

import (
	"strings"
	"testing"
)

func TestScriptureSystemListsTraditions(t *testing.T) {
	got := ScriptureSystem([]string{"Islam", "Sikhism"})
	if !strings.Contains(got, "AVAILABLE TRADITIONS:\nIslam, Sikhism\n") {
		t.Fatalf("scripture system should list traditions:\n%s", got)
	}
}

func TestCompassionOmitsEmptyContext(t *testing.T) {
	if got := Compassion("why?", ""); strings.Contains(got, "Context from their history") {
		t.Fatalf("empty context should be omitted:\n%s", got)
	}
	if got := Compassion("why?", "returning seeker"); !strings.Contains(got, "Context from their history: returning seeker") {
		t.Fatalf("context should be included:\n%s", got)
	}
}

func TestSynthesisCarriesEveryAgent(t *testing.T) {
	outs := map[string]string{
		AgentCompassion: "c-out",
		AgentScripture:  "s-out",
		AgentScholar:    "sch-out",
		AgentGuidance:   "g-out",
	}
	got := Synthesis("what now?", outs)
	last := -1
	for _, name := range AgentOrder {
		i := strings.Index(got, outs[name])
		if i < 0 {
			t.Fatalf("synthesis missing %s output:\n%s", name, got)
		}
		if i < last {
			t.Fatalf("synthesis order: %s appears before an earlier agent", name)
		}
		last = i
	}
	if !strings.HasPrefix(got, "SEEKER'S QUESTION:\nwhat now?") {
		t.Fatalf("synthesis should open with the question:\n%s", got)
	}
}
