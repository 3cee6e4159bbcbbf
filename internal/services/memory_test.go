package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/data/repos/testutil"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	jobsdomain "github.com/archisdhar8/religiousAI/internal/domain/jobs"
)

func TestExtractIsIdempotent(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	ctx := context.Background()
	u := h.user(t, "alice")
	th := testutil.SeedThread(t, ctx, h.db, u.ID, "Grief", time.Now().UTC())
	m1 := testutil.SeedMessage(t, ctx, h.db, th, types.RoleUser, "My mother passed away and I feel so much grief")
	testutil.SeedMessage(t, ctx, h.db, th, types.RoleAssistant, "I am sorry for your loss. Work and career can wait.")

	p := jobsdomain.MemoryExtractPayload{UserID: u.ID, ThreadID: &th.ID, MessageIDs: []uuid.UUID{m1.ID}}
	first, changed, err := h.memory.Extract(as(u.ID), p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !changed {
		t.Fatalf("first extraction should change memory")
	}
	if !hasString(first.Themes, "grief") || !hasString(first.Themes, "family") {
		t.Fatalf("themes: want grief and family got=%v", first.Themes)
	}
	if hasString(first.Themes, "work") {
		t.Fatalf("assistant text must not feed extraction: %v", first.Themes)
	}
	if first.ExchangeCount != 1 {
		t.Fatalf("exchange_count: want=1 got=%d", first.ExchangeCount)
	}

	second, changed, err := h.memory.Extract(as(u.ID), p)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if changed {
		t.Fatalf("second extraction over the same input should be a no-op")
	}
	if strings.Join(second.Themes, ",") != strings.Join(first.Themes, ",") {
		t.Fatalf("themes drifted: %v -> %v", first.Themes, second.Themes)
	}
	if n := h.notify.count("memory.updated"); n != 1 {
		t.Fatalf("memory.updated events: want=1 got=%d", n)
	}
}

func TestExtractRecomputesExchangeCount(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	ctx := context.Background()
	u := h.user(t, "alice")
	testutil.SeedMemory(t, ctx, h.db, u.ID, []string{"hope"}, nil, 40)
	th := testutil.SeedThread(t, ctx, h.db, u.ID, "t", time.Now().UTC())
	testutil.SeedMessage(t, ctx, h.db, th, types.RoleUser, "I am thankful today")
	testutil.SeedMessage(t, ctx, h.db, th, types.RoleUser, "and I feel calm")

	mem, _, err := h.memory.Extract(as(u.ID), jobsdomain.MemoryExtractPayload{UserID: u.ID, ThreadID: &th.ID})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if mem.ExchangeCount != 2 {
		t.Fatalf("exchange_count should follow stored messages: want=2 got=%d", mem.ExchangeCount)
	}
	for _, want := range []string{"hope", "gratitude", "peace"} {
		if !hasString(mem.Themes, want) {
			t.Fatalf("themes: want %q in %v", want, mem.Themes)
		}
	}
}

func TestExtractIgnoresForeignRows(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	ctx := context.Background()
	u := h.user(t, "alice")
	other := h.user(t, "bob")
	th := testutil.SeedThread(t, ctx, h.db, other.ID, "t", time.Now().UTC())
	m := testutil.SeedMessage(t, ctx, h.db, th, types.RoleUser, "I feel such guilt and shame")

	mem, _, err := h.memory.Extract(as(u.ID), jobsdomain.MemoryExtractPayload{UserID: u.ID, MessageIDs: []uuid.UUID{m.ID}})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if hasString(mem.Themes, "guilt") {
		t.Fatalf("another user's message leaked into memory: %v", mem.Themes)
	}
}

func TestGreetingRecordsVisit(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	u := h.user(t, "alice")
	ms := h.memory.(*memoryService)
	ms.now = stepClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	text, ok, err := h.memory.Greeting(as(u.ID))
	if err != nil {
		t.Fatalf("Greeting: %v", err)
	}
	if ok || text != "" {
		t.Fatalf("first visit should have no greeting, got %q", text)
	}

	text, ok, err = h.memory.Greeting(as(u.ID))
	if err != nil {
		t.Fatalf("Greeting: %v", err)
	}
	if !ok || !strings.Contains(text, "earlier today") {
		t.Fatalf("welcome back: got ok=%v text=%q", ok, text)
	}

	mem, err := h.memory.Get(as(u.ID))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if mem == nil || mem.VisitCount != 2 {
		t.Fatalf("visit_count: want=2 got=%+v", mem)
	}
}

func hasString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
