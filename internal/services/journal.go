package services

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/aggregates"
	"github.com/archisdhar8/religiousAI/internal/data/repos"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	jobsdomain "github.com/archisdhar8/religiousAI/internal/domain/jobs"
	"github.com/archisdhar8/religiousAI/internal/domain/journal"
	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/platform/textutil"
)

type JournalService interface {
	// Create stores an entry with the guide's reflection. A failed reflection leaves it empty.
	Create(dbc dbctx.Context, entry string) (*types.JournalEntry, error)
	List(dbc dbctx.Context) ([]*types.JournalEntry, error)
}

type journalService struct {
	db       *gorm.DB
	log      *logger.Logger
	tx       aggregates.TxRunner
	entries  repos.JournalEntryRepo
	memories repos.UserMemoryRepo
	guidance GuidanceService
	jobs     JobService
	now      func() time.Time
}

func NewJournalService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tx aggregates.TxRunner,
	entryRepo repos.JournalEntryRepo,
	memoryRepo repos.UserMemoryRepo,
	guidance GuidanceService,
	jobSvc JobService,
) JournalService {
	return &journalService{
		db:       db,
		log:      baseLog.With("service", "JournalService"),
		tx:       tx,
		entries:  entryRepo,
		memories: memoryRepo,
		guidance: guidance,
		jobs:     jobSvc,
		now:      utcNow,
	}
}

func (s *journalService) Create(dbc dbctx.Context, entry string) (*types.JournalEntry, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil, apierr.InvalidArgument("entry is required")
	}
	if utf8.RuneCountInString(entry) > journal.MaxEntryChars {
		return nil, apierr.InvalidArgument("entry is too long")
	}

	mem, err := s.memories.GetByUserID(dbc, userID)
	if err != nil {
		s.log.Warn("load memory failed", "user_id", userID, "error", err)
		mem = nil
	}
	reflection, err := s.guidance.Reflect(dbc.Ctx, entry, mem)
	if err != nil {
		s.log.Warn("journal reflection failed", "user_id", userID, "error", err)
		reflection = ""
	}

	e := &types.JournalEntry{
		ID:         uuid.New(),
		UserID:     userID,
		Entry:      entry,
		Reflection: textutil.Clip(reflection, journal.MaxReflectionChars),
		CreatedAt:  s.now(),
	}
	err = s.tx.InTx(dbc, func(txc dbctx.Context) error {
		if err := s.entries.Create(txc, e); err != nil {
			return err
		}
		pruned, err := s.entries.PruneByUser(txc, userID, journal.KeepEntries)
		if err != nil {
			return err
		}
		if pruned > 0 {
			s.log.Debug("Pruned journal entries", "user_id", userID, "count", pruned)
		}
		return nil
	})
	if err != nil {
		return nil, aggregates.MapError("create journal entry", err)
	}

	eid := e.ID
	if _, err := s.jobs.EnqueueMemoryExtract(dbc, jobsdomain.MemoryExtractPayload{
		UserID:         userID,
		JournalEntryID: &eid,
	}); err != nil {
		s.log.Warn("enqueue memory extract failed", "user_id", userID, "journal_entry_id", eid, "error", err)
	}
	return e, nil
}

func (s *journalService) List(dbc dbctx.Context) ([]*types.JournalEntry, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	out, err := s.entries.ListByUser(dbc, userID, journal.KeepEntries)
	if err != nil {
		return nil, aggregates.MapError("list journal", err)
	}
	return out, nil
}
