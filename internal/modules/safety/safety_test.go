package safety

import (
	"strings"
	"testing"
)

func TestDetectCrisis(t *testing.T) {
	cases := []struct {
		text string
		want CrisisKind
	}{
		{"I want to die, nothing matters", CrisisSelfHarm},
		{"I've been thinking about SUICIDE", CrisisSelfHarm},
		{"I can't take it anymore", CrisisSevereDistress},
		{"I feel hopeless about everything", CrisisSevereDistress},
		{"my partner hits me when he drinks", CrisisAbuse},
		{"How do I forgive someone?", CrisisNone},
		{"", CrisisNone},
	}
	for _, tc := range cases {
		ok, kind := DetectCrisis(tc.text)
		if kind != tc.want {
			t.Fatalf("DetectCrisis(%q): want=%q got=%q", tc.text, tc.want, kind)
		}
		if ok != (tc.want != CrisisNone) {
			t.Fatalf("DetectCrisis(%q): flag mismatch got=%v", tc.text, ok)
		}
	}
}

func TestDetectDeityAddress(t *testing.T) {
	if !DetectDeityAddress("Dear Lord, please hear my prayer") {
		t.Fatalf("expected deity address for prayer to the Lord")
	}
	if !DetectDeityAddress("are you god?") {
		t.Fatalf("expected deity address for direct question")
	}
	if DetectDeityAddress("What does the Gita say about duty?") {
		t.Fatalf("did not expect deity address for a plain question")
	}
}

func TestDecorate(t *testing.T) {
	plain := Decorate("reply", false, 3)
	if plain != "reply" {
		t.Fatalf("Decorate plain: want=reply got=%q", plain)
	}
	withBoth := Decorate("reply", true, 10)
	if !strings.HasPrefix(withBoth, DeityClarification) {
		t.Fatalf("Decorate should prefix clarification")
	}
	if !strings.HasSuffix(withBoth, HumilityReminder) {
		t.Fatalf("Decorate should suffix humility reminder on the 10th message")
	}
	if NeedsHumilityReminder(0) || NeedsHumilityReminder(9) || !NeedsHumilityReminder(20) {
		t.Fatalf("NeedsHumilityReminder cadence wrong")
	}
}
