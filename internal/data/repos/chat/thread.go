package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

type ChatThreadRepo interface {
	Create(dbc dbctx.Context, thread *types.ChatThread) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatThread, error)
	// LockByID reads the thread with a row lock (no-op on SQLite).
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatThread, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.ChatThread, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	// LeastRecentlyUpdated returns the user's stalest threads, oldest first.
	LeastRecentlyUpdated(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ChatThread, error)
	MostRecentlyUpdated(dbc dbctx.Context, userID uuid.UUID) (*types.ChatThread, error)
	GetCurrent(dbc dbctx.Context, userID uuid.UUID) (*types.ChatThread, error)
	ClearCurrent(dbc dbctx.Context, userID uuid.UUID) error
	MarkCurrent(dbc dbctx.Context, id uuid.UUID) error
	TitlesWithPrefix(dbc dbctx.Context, userID uuid.UUID, prefix string) ([]string, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type chatThreadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatThreadRepo(db *gorm.DB, baseLog *logger.Logger) ChatThreadRepo {
	return &chatThreadRepo{db: db, log: baseLog.With("repo", "ChatThreadRepo")}
}

func (r *chatThreadRepo) Create(dbc dbctx.Context, thread *types.ChatThread) error {
	return dbc.Or(r.db).Create(thread).Error
}

func (r *chatThreadRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatThread, error) {
	return r.first(dbc.Or(r.db).Where("id = ?", id))
}

func (r *chatThreadRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatThread, error) {
	return r.first(dbc.Or(r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *chatThreadRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.ChatThread, error) {
	out := []*types.ChatThread{}
	err := dbc.Or(r.db).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("created_at DESC").
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatThreadRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).Model(&types.ChatThread{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *chatThreadRepo) LeastRecentlyUpdated(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ChatThread, error) {
	out := []*types.ChatThread{}
	if limit <= 0 {
		return out, nil
	}
	err := dbc.Or(r.db).
		Where("user_id = ?", userID).
		Order("updated_at ASC").
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *chatThreadRepo) MostRecentlyUpdated(dbc dbctx.Context, userID uuid.UUID) (*types.ChatThread, error) {
	return r.first(dbc.Or(r.db).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("created_at DESC"))
}

func (r *chatThreadRepo) GetCurrent(dbc dbctx.Context, userID uuid.UUID) (*types.ChatThread, error) {
	return r.first(dbc.Or(r.db).Where("user_id = ? AND is_current = ?", userID, true))
}

func (r *chatThreadRepo) ClearCurrent(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.Or(r.db).Model(&types.ChatThread{}).
		Where("user_id = ? AND is_current = ?", userID, true).
		UpdateColumn("is_current", false).Error
}

func (r *chatThreadRepo) MarkCurrent(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.Or(r.db).Model(&types.ChatThread{}).
		Where("id = ?", id).
		UpdateColumn("is_current", true).Error
}

func (r *chatThreadRepo) TitlesWithPrefix(dbc dbctx.Context, userID uuid.UUID, prefix string) ([]string, error) {
	var titles []string
	err := dbc.Or(r.db).Model(&types.ChatThread{}).
		Where("user_id = ? AND title LIKE ? ESCAPE '\\'", userID, escapeLike(prefix)+"%").
		Pluck("title", &titles).Error
	return titles, err
}

func (r *chatThreadRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.Or(r.db).Model(&types.ChatThread{}).Where("id = ?", id).Updates(updates).Error
}

func (r *chatThreadRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	res := dbc.Or(r.db).Where("id = ?", id).Delete(&types.ChatThread{})
	return res.RowsAffected, res.Error
}

func (r *chatThreadRepo) first(q *gorm.DB) (*types.ChatThread, error) {
	var th types.ChatThread
	if err := q.Limit(1).Find(&th).Error; err != nil {
		return nil, err
	}
	if th.ID == uuid.Nil {
		return nil, nil
	}
	return &th, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
