package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/archisdhar8/religiousAI/internal/data/repos/testutil"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
)

func TestCreateThreadKeepsSingleCurrent(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	u := h.user(t, "alice")
	dbc := as(u.ID)

	var last *types.ChatThread
	for i := 0; i < 3; i++ {
		th, err := h.chat.CreateThread(dbc, "", "", "")
		if err != nil {
			t.Fatalf("CreateThread: %v", err)
		}
		last = th
	}
	if n := h.countRows(t, &types.ChatThread{}, "user_id = ? AND is_current = ?", u.ID, true); n != 1 {
		t.Fatalf("current threads: want=1 got=%d", n)
	}
	cur, err := h.threads.GetCurrent(dbc, u.ID)
	if err != nil || cur == nil {
		t.Fatalf("GetCurrent: %v %v", cur, err)
	}
	if cur.ID != last.ID {
		t.Fatalf("current thread: want=%s got=%s", last.ID, cur.ID)
	}
	if last.Title != "New Chat 3" || !last.AutoTitled {
		t.Fatalf("generated title: want=New Chat 3 auto got=%q auto=%v", last.Title, last.AutoTitled)
	}

	first, err := h.chat.ListThreads(dbc)
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if _, err := h.chat.SetCurrentThread(dbc, first[len(first)-1].ID); err != nil {
		t.Fatalf("SetCurrentThread: %v", err)
	}
	if n := h.countRows(t, &types.ChatThread{}, "user_id = ? AND is_current = ?", u.ID, true); n != 1 {
		t.Fatalf("current threads after switch: want=1 got=%d", n)
	}
}

func TestCreateThreadValidation(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	u := h.user(t, "alice")

	_, err := h.chat.CreateThread(as(u.ID), "Atlantean Mysticism", "", "")
	wantKind(t, err, apierr.KindInvalidArgument)
	_, err = h.chat.CreateThread(as(u.ID), "", "", "shouting")
	wantKind(t, err, apierr.KindInvalidArgument)

	th, err := h.chat.CreateThread(as(u.ID), "Buddhism", "  "+strings.Repeat("t", 150)+"  ", "prayer")
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if len(th.Title) != MaxTitleChars || th.AutoTitled {
		t.Fatalf("title: want %d chars, not auto; got %d auto=%v", MaxTitleChars, len(th.Title), th.AutoTitled)
	}
	if th.Tradition != "buddhism" || th.Mode != "prayer" {
		t.Fatalf("thread fields: tradition=%q mode=%q", th.Tradition, th.Mode)
	}
}

func TestCreateThreadEvictsLeastRecentlyUpdated(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	u := h.user(t, "alice")
	ctx := context.Background()

	base := time.Now().UTC().Add(-100 * time.Hour)
	oldest := testutil.SeedThread(t, ctx, h.db, u.ID, "oldest", base)
	testutil.SeedMessage(t, ctx, h.db, oldest, types.RoleUser, "hello")
	for i := 1; i < MaxThreadsPerUser; i++ {
		testutil.SeedThread(t, ctx, h.db, u.ID, fmt.Sprintf("t%d", i), base.Add(time.Duration(i)*time.Hour))
	}

	if _, err := h.chat.CreateThread(as(u.ID), "", "", ""); err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if n := h.countRows(t, &types.ChatThread{}, "user_id = ?", u.ID); n != MaxThreadsPerUser {
		t.Fatalf("threads: want=%d got=%d", MaxThreadsPerUser, n)
	}
	if n := h.countRows(t, &types.ChatThread{}, "id = ?", oldest.ID); n != 0 {
		t.Fatalf("oldest thread should be evicted")
	}
	if n := h.countRows(t, &types.ChatMessage{}, "thread_id = ?", oldest.ID); n != 0 {
		t.Fatalf("evicted thread messages: want=0 got=%d", n)
	}
}

func TestAppendMessageOrdersByServerTime(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	u := h.user(t, "alice")
	dbc := as(u.ID)
	th, err := h.chat.CreateThread(dbc, "", "", "")
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}

	cs := h.chat.(*chatService)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// the clock runs backwards; stored timestamps must not
	clock := []time.Time{t0, t0.Add(-time.Hour), t0.Add(-2 * time.Hour), t0.Add(time.Minute)}
	for i, now := range clock {
		now := now
		cs.now = func() time.Time { return now }
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		if _, _, err := h.chat.AppendMessage(dbc, th.ID, AppendInput{Role: role, Content: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatalf("AppendMessage %d: %v", i, err)
		}
	}

	_, msgs, err := h.chat.GetThread(dbc, th.ID)
	if err != nil {
		t.Fatalf("GetThread: %v", err)
	}
	if len(msgs) != len(clock) {
		t.Fatalf("messages: want=%d got=%d", len(clock), len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Seq != msgs[i-1].Seq+1 {
			t.Fatalf("seq gap at %d: %d -> %d", i, msgs[i-1].Seq, msgs[i].Seq)
		}
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatalf("timestamps decrease at %d: %v -> %v", i, msgs[i-1].CreatedAt, msgs[i].CreatedAt)
		}
	}
}

func TestAppendMessageAutoTitleAndPreview(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	u := h.user(t, "alice")
	dbc := as(u.ID)
	th, err := h.chat.CreateThread(dbc, "", "", "")
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}

	question := "How do I find peace when my mind keeps racing at night and I cannot rest?"
	_, updated, err := h.chat.AppendMessage(dbc, th.ID, AppendInput{Role: types.RoleUser, Content: question})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if want := question[:AutoTitleChars] + "..."; updated.Title != want {
		t.Fatalf("auto title: want=%q got=%q", want, updated.Title)
	}
	if want := question[:PreviewChars] + "..."; updated.Preview != want {
		t.Fatalf("preview: want=%q got=%q", want, updated.Preview)
	}

	_, updated, err = h.chat.AppendMessage(dbc, th.ID, AppendInput{Role: types.RoleUser, Content: "second question"})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if updated.Title != question[:AutoTitleChars]+"..." {
		t.Fatalf("title should stay after the first user message, got %q", updated.Title)
	}
	if updated.MessageCount != 2 {
		t.Fatalf("message count: want=2 got=%d", updated.MessageCount)
	}

	_, _, err = h.chat.AppendMessage(dbc, th.ID, AppendInput{Role: "system", Content: "x"})
	wantKind(t, err, apierr.KindInvalidArgument)
}

func TestThreadOwnershipCollapsesToNotFound(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	alice := h.user(t, "alice")
	mallory := h.user(t, "mallory")
	th, err := h.chat.CreateThread(as(alice.ID), "", "private", "")
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}

	_, _, err = h.chat.GetThread(as(mallory.ID), th.ID)
	wantKind(t, err, apierr.KindNotFound)
	_, err = h.chat.RenameThread(as(mallory.ID), th.ID, "mine now")
	wantKind(t, err, apierr.KindNotFound)
	wantKind(t, h.chat.DeleteThread(as(mallory.ID), th.ID), apierr.KindNotFound)
	_, _, err = h.chat.AppendMessage(as(mallory.ID), th.ID, AppendInput{Role: types.RoleUser, Content: "hi"})
	wantKind(t, err, apierr.KindNotFound)
}

func TestRenameThread(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	u := h.user(t, "alice")
	dbc := as(u.ID)
	th, err := h.chat.CreateThread(dbc, "", "", "")
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	_, err = h.chat.RenameThread(dbc, th.ID, "   ")
	wantKind(t, err, apierr.KindInvalidArgument)

	for i := 0; i < 2; i++ {
		got, err := h.chat.RenameThread(dbc, th.ID, "  Grief journal ")
		if err != nil {
			t.Fatalf("RenameThread: %v", err)
		}
		if got.Title != "Grief journal" || got.AutoTitled {
			t.Fatalf("rename: want=%q got=%q auto=%v", "Grief journal", got.Title, got.AutoTitled)
		}
	}

	// a renamed thread keeps its title on the first user message
	_, updated, err := h.chat.AppendMessage(dbc, th.ID, AppendInput{Role: types.RoleUser, Content: "hello"})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if updated.Title != "Grief journal" {
		t.Fatalf("title after first message: got %q", updated.Title)
	}
}

func TestDeleteThreadRemovesMessages(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	u := h.user(t, "alice")
	dbc := as(u.ID)
	cs := h.chat.(*chatService)
	cs.now = stepClock(time.Now().UTC())

	older, err := h.chat.CreateThread(dbc, "", "older", "")
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	th, err := h.chat.CreateThread(dbc, "", "doomed", "")
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	for i := 0; i < 10; i++ {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		if _, _, err := h.chat.AppendMessage(dbc, th.ID, AppendInput{Role: role, Content: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	if err := h.chat.DeleteThread(dbc, th.ID); err != nil {
		t.Fatalf("DeleteThread: %v", err)
	}
	_, _, err = h.chat.GetThread(dbc, th.ID)
	wantKind(t, err, apierr.KindNotFound)
	if n := h.countRows(t, &types.ChatMessage{}, "thread_id = ?", th.ID); n != 0 {
		t.Fatalf("orphan messages: want=0 got=%d", n)
	}

	cur, err := h.threads.GetCurrent(dbc, u.ID)
	if err != nil || cur == nil {
		t.Fatalf("GetCurrent after delete: %v %v", cur, err)
	}
	if cur.ID != older.ID {
		t.Fatalf("current after delete: want=%s got=%s", older.ID, cur.ID)
	}
}

func TestGetOrCreateCurrentThread(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	u := h.user(t, "alice")
	dbc := as(u.ID)

	a, err := h.chat.GetOrCreateCurrentThread(dbc, "Islam")
	if err != nil {
		t.Fatalf("GetOrCreateCurrentThread: %v", err)
	}
	b, err := h.chat.GetOrCreateCurrentThread(dbc, "Islam")
	if err != nil {
		t.Fatalf("GetOrCreateCurrentThread: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("second call should return the same thread")
	}
	if a.Tradition != "islam" {
		t.Fatalf("tradition: want=islam got=%q", a.Tradition)
	}
}

func TestListThreadsOrderedByUpdate(t *testing.T) {
	h := newHarness(t, ConnectionOptions{})
	u := h.user(t, "alice")
	dbc := as(u.ID)
	h.chat.(*chatService).now = stepClock(time.Now().UTC())

	empty, err := h.chat.ListThreads(dbc)
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("empty list: want non-nil empty got=%v", empty)
	}

	a, _ := h.chat.CreateThread(dbc, "", "a", "")
	b, _ := h.chat.CreateThread(dbc, "", "b", "")
	if _, _, err := h.chat.AppendMessage(dbc, a.ID, AppendInput{Role: types.RoleUser, Content: "bump"}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	list, err := h.chat.ListThreads(dbc)
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("order: want [a b] got %v", []string{list[0].Title, list[1].Title})
	}
}
