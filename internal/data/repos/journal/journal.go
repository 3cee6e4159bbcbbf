package journal

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

type JournalEntryRepo interface {
	Create(dbc dbctx.Context, e *types.JournalEntry) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JournalEntry, error)
	// ListByUser returns entries newest first.
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.JournalEntry, error)
	// PruneByUser keeps the newest keep entries and deletes the rest.
	PruneByUser(dbc dbctx.Context, userID uuid.UUID, keep int) (int64, error)
	SearchByUser(dbc dbctx.Context, userID uuid.UUID, query string, limit int) ([]*types.JournalEntry, error)
}

type journalEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJournalEntryRepo(db *gorm.DB, baseLog *logger.Logger) JournalEntryRepo {
	return &journalEntryRepo{db: db, log: baseLog.With("repo", "JournalEntryRepo")}
}

func (r *journalEntryRepo) Create(dbc dbctx.Context, e *types.JournalEntry) error {
	return dbc.Or(r.db).Create(e).Error
}

func (r *journalEntryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JournalEntry, error) {
	var e types.JournalEntry
	if err := dbc.Or(r.db).Where("id = ?", id).Limit(1).Find(&e).Error; err != nil {
		return nil, err
	}
	if e.ID == uuid.Nil {
		return nil, nil
	}
	return &e, nil
}

func (r *journalEntryRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.JournalEntry, error) {
	out := []*types.JournalEntry{}
	q := dbc.Or(r.db).Where("user_id = ?", userID).Order("created_at DESC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *journalEntryRepo) PruneByUser(dbc dbctx.Context, userID uuid.UUID, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	txx := dbc.Or(r.db)
	var keepIDs []uuid.UUID
	err := txx.Model(&types.JournalEntry{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id ASC").
		Limit(keep).
		Pluck("id", &keepIDs).Error
	if err != nil {
		return 0, err
	}
	q := txx.Where("user_id = ?", userID)
	if len(keepIDs) > 0 {
		q = q.Where("id NOT IN ?", keepIDs)
	}
	res := q.Delete(&types.JournalEntry{})
	return res.RowsAffected, res.Error
}

func (r *journalEntryRepo) SearchByUser(dbc dbctx.Context, userID uuid.UUID, query string, limit int) ([]*types.JournalEntry, error) {
	out := []*types.JournalEntry{}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return out, nil
	}
	pattern := "%" + escapeLike(query) + "%"
	err := dbc.Or(r.db).
		Where("user_id = ? AND (LOWER(entry) LIKE ? ESCAPE '\\' OR LOWER(reflection) LIKE ? ESCAPE '\\')", userID, pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
