package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/aggregates"
	"github.com/archisdhar8/religiousAI/internal/data/repos"
	"github.com/archisdhar8/religiousAI/internal/data/repos/testutil"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/modules/insights"
	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
	"github.com/archisdhar8/religiousAI/internal/platform/chroma"
	"github.com/archisdhar8/religiousAI/internal/platform/ctxutil"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/llm"
)

type fakeGen struct {
	mu    sync.Mutex
	reply string
	// queued replies are returned first, one per call
	queued  []string
	err     error
	prompts []llm.Prompt
}

func (f *fakeGen) Generate(ctx context.Context, p llm.Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return "", f.err
	}
	if len(f.queued) > 0 {
		r := f.queued[0]
		f.queued = f.queued[1:]
		return r, nil
	}
	return f.reply, nil
}

func (f *fakeGen) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type retrieveCall struct {
	text       string
	traditions []string
	k          int
}

type fakeRetriever struct {
	mu       sync.Mutex
	passages []chroma.Passage
	err      error
	seen     []retrieveCall
}

func (f *fakeRetriever) Retrieve(ctx context.Context, text string, trads []string, k int) ([]chroma.Passage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, retrieveCall{text: text, traditions: trads, k: k})
	if f.err != nil {
		return nil, f.err
	}
	var out []chroma.Passage
	for _, p := range f.passages {
		if len(trads) > 0 && p.Tradition != trads[0] {
			continue
		}
		out = append(out, p)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) add(ev string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) ConnectionRequestCreated(req *types.ConnectionRequest) {
	n.add("connection_request.created")
}

func (n *recordingNotifier) ConnectionRequestResponded(req *types.ConnectionRequest) {
	n.add("connection_request.responded:" + req.Status)
}

func (n *recordingNotifier) ConnectionRemoved(userID, peerID uuid.UUID) {
	n.add("connection.removed")
}

func (n *recordingNotifier) MemoryUpdated(userID uuid.UUID, mem *types.UserMemory) {
	n.add("memory.updated")
}

func (n *recordingNotifier) ThreadUpdated(userID uuid.UUID, thread *types.ChatThread) {
	n.add("thread.updated")
}

func (n *recordingNotifier) count(ev string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == ev {
			c++
		}
	}
	return c
}

type harness struct {
	db        *gorm.DB
	users     repos.UserRepo
	threads   repos.ChatThreadRepo
	messages  repos.ChatMessageRepo
	memories  repos.UserMemoryRepo
	profiles  repos.CommunityProfileRepo
	requests  repos.ConnectionRequestRepo
	conns     repos.ConnectionRepo
	journal   repos.JournalEntryRepo
	jobRuns   repos.JobRunRepo
	notify    *recordingNotifier
	gen       *fakeGen
	retriever *fakeRetriever

	chat      ChatService
	guidance  GuidanceService
	memory    MemoryService
	community CommunityService
	connect   ConnectionService
	journals  JournalService
	search    SearchService
}

func newHarness(t *testing.T, opts ConnectionOptions) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tx := aggregates.NewGormTxRunner(db)

	h := &harness{
		db:       db,
		users:    repos.NewUserRepo(db, log),
		threads:  repos.NewChatThreadRepo(db, log),
		messages: repos.NewChatMessageRepo(db, log),
		memories: repos.NewUserMemoryRepo(db, log),
		profiles: repos.NewCommunityProfileRepo(db, log),
		requests: repos.NewConnectionRequestRepo(db, log),
		conns:    repos.NewConnectionRepo(db, log),
		journal:  repos.NewJournalEntryRepo(db, log),
		jobRuns:  repos.NewJobRunRepo(db, log),
		notify:   &recordingNotifier{},
		gen:      &fakeGen{reply: "Forgiveness frees the one who forgives."},
		retriever: &fakeRetriever{passages: []chroma.Passage{
			{ID: "p1", Content: "Forgive, and you will be forgiven.", Tradition: "Christianity", Scripture: "Luke 6:37"},
			{ID: "p2", Content: "Hatred does not cease by hatred.", Tradition: "Buddhism", Scripture: "Dhammapada 5"},
			{ID: "p3", Content: "The Tao that can be told is not the eternal Tao.", Tradition: "Taoism", Scripture: "Tao Te Ching 1"},
		}},
	}
	jobs := NewJobService(db, log, h.jobRuns)
	h.chat = NewChatService(db, log, tx, h.users, h.threads, h.messages, h.notify)
	h.guidance = NewGuidanceService(db, log, h.chat, h.messages, h.memories, jobs, h.retriever, h.gen, DefaultRetrievalK)
	h.memory = NewMemoryService(db, log, tx, h.memories, h.messages, h.journal, insights.Default(), h.notify)
	h.community = NewCommunityService(db, log, h.profiles, h.memories, h.requests, h.conns, 0)
	h.connect = NewConnectionService(db, log, tx, h.users, h.profiles, h.requests, h.conns, h.notify, opts)
	h.journals = NewJournalService(db, log, tx, h.journal, h.memories, h.guidance, jobs)
	h.search = NewSearchService(db, log, h.messages, h.journal)
	return h
}

// as returns a request context authenticated as userID.
func as(userID uuid.UUID) dbctx.Context {
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
	return dbctx.Context{Ctx: ctx}
}

func (h *harness) user(t *testing.T, name string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), h.db, name)
}

func wantKind(t *testing.T, err error, want apierr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("error kind: want=%s got=nil", want)
	}
	if got := apierr.KindOf(err); got != want {
		t.Fatalf("error kind: want=%s got=%s (%v)", want, got, err)
	}
}

func (h *harness) countRows(t *testing.T, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := h.db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// stepClock returns a clock that advances one second per call from start.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}
