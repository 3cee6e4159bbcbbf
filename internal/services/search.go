package services

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/aggregates"
	"github.com/archisdhar8/religiousAI/internal/data/repos"
	"github.com/archisdhar8/religiousAI/internal/platform/apierr"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/platform/textutil"
)

const (
	SearchKindMessage = "message"
	SearchKindJournal = "journal"

	MinQueryChars      = 2
	SnippetChars       = 100
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
)

type SearchResult struct {
	Kind        string     `json:"kind"`
	ID          uuid.UUID  `json:"id"`
	ThreadID    *uuid.UUID `json:"thread_id,omitempty"`
	ThreadTitle string     `json:"thread_title,omitempty"`
	Snippet     string     `json:"snippet"`
	CreatedAt   time.Time  `json:"created_at"`
}

type SearchService interface {
	// Search matches the caller's messages and journal entries case-insensitively, newest first.
	Search(dbc dbctx.Context, query string, limit int) ([]SearchResult, error)
}

type searchService struct {
	db       *gorm.DB
	log      *logger.Logger
	messages repos.ChatMessageRepo
	entries  repos.JournalEntryRepo
}

func NewSearchService(db *gorm.DB, baseLog *logger.Logger, messageRepo repos.ChatMessageRepo, entryRepo repos.JournalEntryRepo) SearchService {
	return &searchService{
		db:       db,
		log:      baseLog.With("service", "SearchService"),
		messages: messageRepo,
		entries:  entryRepo,
	}
}

func (s *searchService) Search(dbc dbctx.Context, query string, limit int) ([]SearchResult, error) {
	userID, err := requestUser(dbc)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryChars {
		return nil, apierr.InvalidArgument("query must be at least 2 characters")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	hits, err := s.messages.SearchByUser(dbc, userID, query, limit)
	if err != nil {
		return nil, aggregates.MapError("search messages", err)
	}
	entries, err := s.entries.SearchByUser(dbc, userID, query, limit)
	if err != nil {
		return nil, aggregates.MapError("search journal", err)
	}

	out := make([]SearchResult, 0, len(hits)+len(entries))
	for _, h := range hits {
		tid := h.ThreadID
		out = append(out, SearchResult{
			Kind:        SearchKindMessage,
			ID:          h.ID,
			ThreadID:    &tid,
			ThreadTitle: h.ThreadTitle,
			Snippet:     textutil.Snippet(h.Content, query, SnippetChars),
			CreatedAt:   h.CreatedAt,
		})
	}
	for _, e := range entries {
		text := e.Entry
		if !strings.Contains(strings.ToLower(text), strings.ToLower(query)) {
			text = e.Reflection
		}
		out = append(out, SearchResult{
			Kind:      SearchKindJournal,
			ID:        e.ID,
			Snippet:   textutil.Snippet(text, query, SnippetChars),
			CreatedAt: e.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
