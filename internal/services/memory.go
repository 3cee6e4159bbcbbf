package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/aggregates"
	"github.com/archisdhar8/religiousAI/internal/data/repos"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	jobsdomain "github.com/archisdhar8/religiousAI/internal/domain/jobs"
	memorydomain "github.com/archisdhar8/religiousAI/internal/domain/memory"
	"github.com/archisdhar8/religiousAI/internal/modules/insights"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

// recentWindow is how many of the user's latest messages feed insights and growth areas.
const recentWindow = 20

type MemoryService interface {
	// Extract folds the payload's texts into the user's memory. It reports whether anything changed.
	Extract(dbc dbctx.Context, p jobsdomain.MemoryExtractPayload) (*types.UserMemory, bool, error)
	// Greeting returns the welcome-back line, then records this visit.
	Greeting(dbc dbctx.Context) (string, bool, error)
	Get(dbc dbctx.Context) (*types.UserMemory, error)
}

type memoryService struct {
	db       *gorm.DB
	log      *logger.Logger
	tx       aggregates.TxRunner
	memories repos.UserMemoryRepo
	messages repos.ChatMessageRepo
	journal  repos.JournalEntryRepo
	taxonomy *insights.Taxonomy
	notify   Notifier
	now      func() time.Time
}

func NewMemoryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tx aggregates.TxRunner,
	memoryRepo repos.UserMemoryRepo,
	messageRepo repos.ChatMessageRepo,
	journalRepo repos.JournalEntryRepo,
	taxonomy *insights.Taxonomy,
	notify Notifier,
) MemoryService {
	if taxonomy == nil {
		taxonomy = insights.Default()
	}
	return &memoryService{
		db:       db,
		log:      baseLog.With("service", "MemoryService"),
		tx:       tx,
		memories: memoryRepo,
		messages: messageRepo,
		journal:  journalRepo,
		taxonomy: taxonomy,
		notify:   notify,
		now:      utcNow,
	}
}

func (s *memoryService) Get(dbc dbctx.Context) (*types.UserMemory, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	m, err := s.memories.GetByUserID(dbc, userID)
	if err != nil {
		return nil, aggregates.MapError("get memory", err)
	}
	return m, nil
}

func (s *memoryService) Extract(dbc dbctx.Context, p jobsdomain.MemoryExtractPayload) (*types.UserMemory, bool, error) {
	if p.UserID == uuid.Nil {
		return nil, false, nil
	}
	texts, err := s.payloadTexts(dbc, p)
	if err != nil {
		return nil, false, aggregates.MapError("load extract texts", err)
	}

	var mem *types.UserMemory
	changed := false
	err = s.tx.InTx(dbc, func(txc dbctx.Context) error {
		prev, err := s.memories.LockByUserID(txc, p.UserID)
		if err != nil {
			return err
		}
		if prev == nil {
			prev = memorydomain.NewUserMemory(p.UserID)
		}
		count, err := s.messages.CountUserMessagesByUser(txc, p.UserID)
		if err != nil {
			return err
		}
		latest, err := s.messages.RecentUserMessagesByUser(txc, p.UserID, recentWindow)
		if err != nil {
			return err
		}
		recent := make([]string, 0, len(latest))
		for i := len(latest) - 1; i >= 0; i-- {
			recent = append(recent, latest[i].Content)
		}

		res := s.taxonomy.Extract(insights.Input{
			Previous:      prev,
			Texts:         texts,
			Recent:        recent,
			ExchangeCount: int(count),
			Now:           s.now(),
		})
		mem = prev
		if !res.Changed {
			return nil
		}
		changed = true
		mem.Themes = datatypes.JSONSlice[string](nonNil(res.Themes))
		mem.LastThemes = datatypes.JSONSlice[string](nonNil(res.LastThemes))
		mem.Traits = datatypes.NewJSONType(res.Traits)
		mem.Insights = datatypes.NewJSONType(res.Insights)
		mem.Journey = datatypes.NewJSONType(res.Journey)
		mem.Summary = res.Summary
		mem.ExchangeCount = res.ExchangeCount
		return s.memories.Upsert(txc, mem)
	})
	if err != nil {
		return nil, false, aggregates.MapError("extract memory", err)
	}
	if changed {
		s.log.Debug("Memory updated", "user_id", p.UserID, "themes", len(mem.Themes), "exchanges", mem.ExchangeCount)
		s.notify.MemoryUpdated(p.UserID, mem)
	}
	return mem, changed, nil
}

// payloadTexts loads the user-authored texts named by the payload. Assistant replies are never read.
func (s *memoryService) payloadTexts(dbc dbctx.Context, p jobsdomain.MemoryExtractPayload) ([]string, error) {
	var texts []string
	var msgs []*types.ChatMessage
	var err error
	switch {
	case len(p.MessageIDs) > 0:
		msgs, err = s.messages.GetByIDs(dbc, p.UserID, p.MessageIDs)
	case p.ThreadID != nil:
		msgs, err = s.messages.ListByThread(dbc, *p.ThreadID)
	}
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if m.Role == types.RoleUser && m.UserID == p.UserID {
			texts = append(texts, m.Content)
		}
	}
	if p.JournalEntryID != nil {
		e, err := s.journal.GetByID(dbc, *p.JournalEntryID)
		if err != nil {
			return nil, err
		}
		if e != nil && e.UserID == p.UserID {
			texts = append(texts, e.Entry)
		}
	}
	return texts, nil
}

func (s *memoryService) Greeting(dbc dbctx.Context) (string, bool, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return "", false, err
	}
	m, err := s.memories.GetByUserID(dbc, userID)
	if err != nil {
		return "", false, aggregates.MapError("get memory", err)
	}
	now := s.now()
	text, ok := insights.Greeting(m, now)
	if err := s.memories.RecordVisit(dbc, userID, now); err != nil {
		return "", false, aggregates.MapError("record visit", err)
	}
	return text, ok, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
