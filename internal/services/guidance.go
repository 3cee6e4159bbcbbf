package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/aggregates"
	"github.com/archisdhar8/religiousAI/internal/data/repos"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/domain/chat"
	jobsdomain "github.com/archisdhar8/religiousAI/internal/domain/jobs"
	"github.com/archisdhar8/religiousAI/internal/modules/prompt"
	"github.com/archisdhar8/religiousAI/internal/modules/safety"
	"github.com/archisdhar8/religiousAI/internal/modules/traditions"
	"github.com/archisdhar8/religiousAI/internal/observability"
	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
	"github.com/archisdhar8/religiousAI/internal/platform/chroma"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/llm"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

const (
	DefaultRetrievalK = 6
	comparePerTrad    = 3
	compareMaxTrads   = 4
	dailyCandidates   = 3
	dailyMaxTokens    = 256
	reflectionTokens  = 512

	DailyFallbackWisdom    = "May this day bring you moments of peace and clarity on your journey."
	DailyFallbackTradition = "Universal Wisdom"
)

var dailyTopics = []string{"hope", "peace", "strength", "wisdom", "love", "patience", "gratitude", "courage"}

// Retriever finds scripture passages for free text. An empty traditions list means unfiltered.
type Retriever interface {
	Retrieve(ctx context.Context, text string, traditions []string, k int) ([]chroma.Passage, error)
}

type chromaRetriever struct {
	embed llm.Embedder
	store *chroma.Client
}

func NewChromaRetriever(embed llm.Embedder, store *chroma.Client) Retriever {
	return &chromaRetriever{embed: embed, store: store}
}

func (r *chromaRetriever) Retrieve(ctx context.Context, text string, trads []string, k int) ([]chroma.Passage, error) {
	vec, err := r.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.store.Query(ctx, chroma.Query{Embedding: vec, K: k, Traditions: trads})
}

type AskInput struct {
	Content string
	Mode    string
	// MultiAgent runs the four specialist agents and a synthesis pass instead of one call.
	MultiAgent bool
}

type AskResult struct {
	ThreadID     uuid.UUID          `json:"thread_id"`
	UserMessage  *types.ChatMessage `json:"user_message"`
	Message      *types.ChatMessage `json:"message"`
	Sources      []types.Source     `json:"sources"`
	IsCrisis     bool               `json:"is_crisis"`
	Thread       *types.ChatThread  `json:"thread"`
	AgentOutputs map[string]string  `json:"agent_outputs,omitempty"`
}

type DailyWisdom struct {
	Wisdom    string `json:"wisdom"`
	Tradition string `json:"tradition"`
	Scripture string `json:"scripture"`
}

type Comparison struct {
	Topic      string                    `json:"topic"`
	Comparison string                    `json:"comparison"`
	Traditions []string                  `json:"traditions"`
	Sources    map[string][]types.Source `json:"sources"`
}

type GuidanceService interface {
	// Ask appends the user's message and the guide's reply to a thread.
	Ask(dbc dbctx.Context, threadID uuid.UUID, in AskInput) (*AskResult, error)
	DailyWisdom(dbc dbctx.Context, tradition string) (*DailyWisdom, error)
	Compare(dbc dbctx.Context, topic string, trads []string) (*Comparison, error)
	// Reflect writes a journal-mode reflection on entry.
	Reflect(ctx context.Context, entry string, mem *types.UserMemory) (string, error)
}

type guidanceService struct {
	db        *gorm.DB
	log       *logger.Logger
	chat      ChatService
	messages  repos.ChatMessageRepo
	memories  repos.UserMemoryRepo
	jobs      JobService
	retriever Retriever
	gen       llm.Generator
	k         int
	now       func() time.Time
}

func NewGuidanceService(
	db *gorm.DB,
	baseLog *logger.Logger,
	chatSvc ChatService,
	messageRepo repos.ChatMessageRepo,
	memoryRepo repos.UserMemoryRepo,
	jobSvc JobService,
	retriever Retriever,
	gen llm.Generator,
	k int,
) GuidanceService {
	if k <= 0 {
		k = DefaultRetrievalK
	}
	return &guidanceService{
		db:        db,
		log:       baseLog.With("service", "GuidanceService"),
		chat:      chatSvc,
		messages:  messageRepo,
		memories:  memoryRepo,
		jobs:      jobSvc,
		retriever: retriever,
		gen:       gen,
		k:         k,
		now:       utcNow,
	}
}

func (s *guidanceService) Ask(dbc dbctx.Context, threadID uuid.UUID, in AskInput) (*AskResult, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apierr.InvalidArgument("content is required")
	}
	mode := strings.ToLower(strings.TrimSpace(in.Mode))
	if mode != "" && !chat.ValidMode(mode) {
		return nil, apierr.InvalidArgument("unknown mode")
	}

	ctx, span := observability.StartSpan(dbc.Ctx, "guidance.ask",
		attribute.String("thread_id", threadID.String()),
		attribute.Bool("multi_agent", in.MultiAgent),
	)
	defer span.End()
	dbc = dbctx.Context{Ctx: ctx, Tx: dbc.Tx}

	userMsg, thread, err := s.chat.AppendMessage(dbc, threadID, AppendInput{Role: types.RoleUser, Content: content})
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = thread.Mode
	}
	out := &AskResult{ThreadID: thread.ID, UserMessage: userMsg, Sources: []types.Source{}}

	if crisis, kind := safety.DetectCrisis(content); crisis {
		s.log.Warn("Crisis language detected", "user_id", userID, "thread_id", thread.ID, "kind", kind)
		span.SetAttributes(attribute.Bool("crisis", true))
		observability.Current().IncCrisis(string(kind))
		reply, th, err := s.chat.AppendMessage(dbc, thread.ID, AppendInput{
			Role:     types.RoleAssistant,
			Content:  safety.CrisisResponse,
			IsCrisis: true,
		})
		if err != nil {
			return nil, err
		}
		out.Message, out.Thread, out.IsCrisis = reply, th, true
		return out, nil
	}

	userCount, err := s.messages.CountUserMessagesByThread(dbc, thread.ID)
	if err != nil {
		return nil, aggregates.MapError("count user messages", err)
	}
	mem, err := s.memories.GetByUserID(dbc, userID)
	if err != nil {
		s.log.Warn("load memory failed", "user_id", userID, "error", err)
		mem = nil
	}
	history, err := s.history(dbc, thread.ID, userMsg.Seq)
	if err != nil {
		return nil, aggregates.MapError("load history", err)
	}

	passages, err := s.retriever.Retrieve(ctx, content, filterFor(thread.Tradition), s.k)
	if err != nil {
		s.log.Warn("retrieval failed", "thread_id", thread.ID, "error", err)
		span.RecordError(err)
		observability.Current().ObserveRetrieval("error")
		return nil, apierr.Unavailable(err)
	}
	observability.Current().ObserveRetrieval("ok")

	var reply string
	if in.MultiAgent {
		reply, out.AgentOutputs, err = s.runAgents(ctx, content, thread.Tradition, passages, mem)
	} else {
		reply, err = s.gen.Generate(ctx, llm.Prompt{
			System: prompt.System(mode, prompt.Traditions(passages)),
			User: prompt.Guidance(mode, content,
				prompt.ContextText(passages, prompt.PassageChars),
				prompt.SeekerContext(mem),
				prompt.History(history)),
		})
	}
	if err != nil {
		s.log.Warn("generation failed", "thread_id", thread.ID, "error", err)
		span.RecordError(err)
		return nil, apierr.Unavailable(err)
	}
	reply = safety.Decorate(reply, safety.DetectDeityAddress(content), int(userCount))

	sources := prompt.Sources(passages)
	assistant, th, err := s.chat.AppendMessage(dbc, thread.ID, AppendInput{
		Role:    types.RoleAssistant,
		Content: reply,
		Sources: sources,
	})
	if err != nil {
		return nil, err
	}
	out.Message, out.Thread, out.Sources = assistant, th, sources

	tid := thread.ID
	if _, err := s.jobs.EnqueueMemoryExtract(dbc, jobsdomain.MemoryExtractPayload{
		UserID:     userID,
		ThreadID:   &tid,
		MessageIDs: []uuid.UUID{userMsg.ID},
	}); err != nil {
		s.log.Warn("enqueue memory extract failed", "user_id", userID, "thread_id", tid, "error", err)
	}
	return out, nil
}

// runAgents asks the compassion, scripture, scholar and guidance agents in turn,
// then synthesizes their outputs into one reply.
func (s *guidanceService) runAgents(ctx context.Context, question, tradition string, passages []chroma.Passage, mem *types.UserMemory) (string, map[string]string, error) {
	trads := filterFor(tradition)
	if len(trads) == 0 {
		for _, t := range traditions.All() {
			trads = append(trads, t.Name)
		}
	}
	steps := []struct {
		name   string
		prompt func(outs map[string]string) llm.Prompt
	}{
		{prompt.AgentCompassion, func(map[string]string) llm.Prompt {
			return llm.Prompt{System: prompt.CompassionSystem(), User: prompt.Compassion(question, prompt.SeekerContext(mem)), MaxTokens: prompt.CompassionTokens}
		}},
		{prompt.AgentScripture, func(map[string]string) llm.Prompt {
			return llm.Prompt{
				System:    prompt.ScriptureSystem(trads),
				User:      prompt.Scripture(question, prompt.ContextText(passages, prompt.PassageChars)),
				MaxTokens: prompt.AgentTokens,
			}
		}},
		{prompt.AgentScholar, func(outs map[string]string) llm.Prompt {
			return llm.Prompt{System: prompt.ScholarSystem(), User: prompt.Scholar(question, outs[prompt.AgentScripture]), MaxTokens: prompt.AgentTokens}
		}},
		{prompt.AgentGuidance, func(outs map[string]string) llm.Prompt {
			return llm.Prompt{
				System: prompt.GuidanceSystem(),
				User: prompt.GuidanceAgent(question,
					outs[prompt.AgentCompassion], outs[prompt.AgentScripture], outs[prompt.AgentScholar]),
				MaxTokens: prompt.AgentTokens,
			}
		}},
	}

	outs := make(map[string]string, len(steps))
	for _, st := range steps {
		text, err := s.gen.Generate(ctx, st.prompt(outs))
		if err != nil {
			return "", nil, fmt.Errorf("%s agent: %w", st.name, err)
		}
		outs[st.name] = strings.TrimSpace(text)
	}
	reply, err := s.gen.Generate(ctx, llm.Prompt{
		System:    prompt.SynthesisSystem(),
		User:      prompt.Synthesis(question, outs),
		MaxTokens: prompt.SynthesisTokens,
	})
	if err != nil {
		return "", nil, fmt.Errorf("synthesize: %w", err)
	}
	return strings.TrimSpace(reply), outs, nil
}

// history returns the completed exchanges before seq, oldest first.
func (s *guidanceService) history(dbc dbctx.Context, threadID uuid.UUID, beforeSeq int64) ([]prompt.Exchange, error) {
	recent, err := s.messages.RecentByThread(dbc, threadID, 2*prompt.HistoryTurns+2)
	if err != nil {
		return nil, err
	}
	// recent is already oldest first
	msgs := make([]types.ChatMessage, 0, len(recent))
	for _, m := range recent {
		if m.Seq < beforeSeq {
			msgs = append(msgs, *m)
		}
	}
	return prompt.Exchanges(msgs), nil
}

func filterFor(tradition string) []string {
	if name := traditions.Filter(tradition); name != "" {
		return []string{name}
	}
	return nil
}

func (s *guidanceService) DailyWisdom(dbc dbctx.Context, tradition string) (*DailyWisdom, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	if _, ok := traditions.Normalize(tradition); !ok {
		return nil, apierr.InvalidArgument("unknown tradition")
	}

	day := s.now().Format("2006-01-02")
	topics := dailyTopics
	query := "wisdom guidance "
	if mem, err := s.memories.GetByUserID(dbc, userID); err == nil && mem != nil && len(mem.Themes) > 0 {
		topics = mem.Themes
		query = "wisdom guidance inspiration "
	}
	seed := daySeed(day, userID)
	query += topics[seed%uint32(len(topics))]

	passages, err := s.retriever.Retrieve(dbc.Ctx, query, filterFor(tradition), dailyCandidates)
	if err != nil {
		return nil, apierr.Unavailable(err)
	}
	if len(passages) == 0 {
		return &DailyWisdom{Wisdom: DailyFallbackWisdom, Tradition: DailyFallbackTradition}, nil
	}
	p := passages[seed%uint32(len(passages))]

	text, err := s.gen.Generate(dbc.Ctx, llm.Prompt{
		System:    prompt.DailySystem(),
		User:      prompt.Daily(p.Tradition, p.Content),
		MaxTokens: dailyMaxTokens,
	})
	if err != nil {
		return nil, apierr.Unavailable(err)
	}
	return &DailyWisdom{Wisdom: strings.TrimSpace(text), Tradition: orDefault(p.Tradition, "Unknown"), Scripture: p.Scripture}, nil
}

// daySeed is stable for one user over one calendar day.
func daySeed(day string, userID uuid.UUID) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(day))
	_, _ = h.Write(userID[:])
	return h.Sum32()
}

func (s *guidanceService) Compare(dbc dbctx.Context, topic string, trads []string) (*Comparison, error) {
	if _, err := requestUser(dbc); err != nil {
		return nil, err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apierr.InvalidArgument("topic is required")
	}
	names, err := compareTraditions(trads)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(dbc.Ctx, "guidance.compare",
		attribute.Int("traditions", len(names)),
	)
	defer span.End()

	groups := make([]prompt.TraditionPassages, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			ps, err := s.retriever.Retrieve(gctx, topic, []string{name}, comparePerTrad)
			if err != nil {
				return fmt.Errorf("retrieve %s: %w", name, err)
			}
			groups[i] = prompt.TraditionPassages{Tradition: name, Passages: ps}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, apierr.Unavailable(err)
	}

	out := &Comparison{Topic: topic, Traditions: []string{}, Sources: map[string][]types.Source{}}
	found := make([]prompt.TraditionPassages, 0, len(groups))
	for _, grp := range groups {
		if len(grp.Passages) == 0 {
			continue
		}
		found = append(found, grp)
		out.Traditions = append(out.Traditions, grp.Tradition)
		out.Sources[grp.Tradition] = prompt.Sources(grp.Passages)
	}
	if len(found) == 0 {
		out.Comparison = "I couldn't find relevant passages on this topic across traditions."
		return out, nil
	}

	text, err := s.gen.Generate(ctx, llm.Prompt{
		System: prompt.CompareSystem(),
		User:   prompt.Compare(topic, found),
	})
	if err != nil {
		span.RecordError(err)
		return nil, apierr.Unavailable(err)
	}
	out.Comparison = strings.TrimSpace(text)
	return out, nil
}

// compareTraditions resolves display names, falling back to the default set when fewer than two are given.
func compareTraditions(raw []string) ([]string, error) {
	var names []string
	seen := map[string]struct{}{}
	for _, r := range raw {
		t, ok := traditions.Lookup(r)
		if !ok {
			return nil, apierr.InvalidArgument(fmt.Sprintf("unknown tradition %q", r))
		}
		if _, dup := seen[t.Key]; dup {
			continue
		}
		seen[t.Key] = struct{}{}
		names = append(names, t.Name)
	}
	if len(names) < 2 {
		return append([]string(nil), traditions.DefaultCompare...), nil
	}
	if len(names) > compareMaxTrads {
		return nil, apierr.InvalidArgument("compare at most 4 traditions")
	}
	return names, nil
}

func (s *guidanceService) Reflect(ctx context.Context, entry string, mem *types.UserMemory) (string, error) {
	passages, err := s.retriever.Retrieve(ctx, entry, nil, dailyCandidates)
	if err != nil {
		s.log.Warn("journal retrieval failed", "error", err)
		passages = nil
	}
	text, err := s.gen.Generate(ctx, llm.Prompt{
		System:    prompt.JournalSystem(),
		User:      prompt.Journal(entry, prompt.ContextText(passages, prompt.PassageChars), prompt.SeekerContext(mem)),
		MaxTokens: reflectionTokens,
	})
	if err != nil {
		return "", apierr.Unavailable(err)
	}
	return strings.TrimSpace(text), nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
