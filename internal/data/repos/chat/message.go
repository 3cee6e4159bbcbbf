package chat

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

// MessageHit is a search result row joined with its thread title.
type MessageHit struct {
	types.ChatMessage
	ThreadTitle string `gorm:"column:thread_title"`
}

type ChatMessageRepo interface {
	Create(dbc dbctx.Context, msgs []*types.ChatMessage) ([]*types.ChatMessage, error)
	ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.ChatMessage, error)
	LastByThread(dbc dbctx.Context, threadID uuid.UUID) (*types.ChatMessage, error)
	// RecentByThread returns up to limit messages, oldest first.
	RecentByThread(dbc dbctx.Context, threadID uuid.UUID, limit int) ([]*types.ChatMessage, error)
	CountByThread(dbc dbctx.Context, threadID uuid.UUID) (int64, error)
	CountUserMessagesByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	CountUserMessagesByThread(dbc dbctx.Context, threadID uuid.UUID) (int64, error)
	GetByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.ChatMessage, error)
	// RecentUserMessagesByUser returns up to limit user-role messages, newest first.
	RecentUserMessagesByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ChatMessage, error)
	SearchByUser(dbc dbctx.Context, userID uuid.UUID, query string, limit int) ([]*MessageHit, error)
	DeleteByThread(dbc dbctx.Context, threadID uuid.UUID) (int64, error)
	DeleteByThreads(dbc dbctx.Context, threadIDs []uuid.UUID) (int64, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Create(dbc dbctx.Context, msgs []*types.ChatMessage) ([]*types.ChatMessage, error) {
	if len(msgs) == 0 {
		return []*types.ChatMessage{}, nil
	}
	if err := dbc.Or(r.db).Create(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *chatMessageRepo) ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.ChatMessage, error) {
	out := []*types.ChatMessage{}
	if threadID == uuid.Nil {
		return out, nil
	}
	err := dbc.Or(r.db).
		Where("thread_id = ?", threadID).
		Order("seq ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatMessageRepo) LastByThread(dbc dbctx.Context, threadID uuid.UUID) (*types.ChatMessage, error) {
	var m types.ChatMessage
	err := dbc.Or(r.db).
		Where("thread_id = ?", threadID).
		Order("seq DESC").
		Limit(1).
		Find(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == uuid.Nil {
		return nil, nil
	}
	return &m, nil
}

func (r *chatMessageRepo) RecentByThread(dbc dbctx.Context, threadID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	out := []*types.ChatMessage{}
	if threadID == uuid.Nil || limit <= 0 {
		return out, nil
	}
	err := dbc.Or(r.db).
		Where("thread_id = ?", threadID).
		Order("seq DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *chatMessageRepo) CountByThread(dbc dbctx.Context, threadID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).Model(&types.ChatMessage{}).Where("thread_id = ?", threadID).Count(&n).Error
	return n, err
}

func (r *chatMessageRepo) CountUserMessagesByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).Model(&types.ChatMessage{}).
		Where("user_id = ? AND role = ?", userID, types.RoleUser).
		Count(&n).Error
	return n, err
}

func (r *chatMessageRepo) CountUserMessagesByThread(dbc dbctx.Context, threadID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).Model(&types.ChatMessage{}).
		Where("thread_id = ? AND role = ?", threadID, types.RoleUser).
		Count(&n).Error
	return n, err
}

func (r *chatMessageRepo) GetByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.ChatMessage, error) {
	out := []*types.ChatMessage{}
	if len(ids) == 0 {
		return out, nil
	}
	err := dbc.Or(r.db).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("created_at ASC").
		Order("seq ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatMessageRepo) RecentUserMessagesByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	out := []*types.ChatMessage{}
	if limit <= 0 {
		return out, nil
	}
	err := dbc.Or(r.db).
		Where("user_id = ? AND role = ?", userID, types.RoleUser).
		Order("created_at DESC").
		Order("seq DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatMessageRepo) SearchByUser(dbc dbctx.Context, userID uuid.UUID, query string, limit int) ([]*MessageHit, error) {
	out := []*MessageHit{}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return out, nil
	}
	err := dbc.Or(r.db).
		Table("chat_message AS m").
		Select("m.*, t.title AS thread_title").
		Joins("JOIN chat_thread AS t ON t.id = m.thread_id").
		Where("m.user_id = ? AND LOWER(m.content) LIKE ? ESCAPE '\\'", userID, "%"+escapeLike(query)+"%").
		Order("m.created_at DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatMessageRepo) DeleteByThread(dbc dbctx.Context, threadID uuid.UUID) (int64, error) {
	res := dbc.Or(r.db).Where("thread_id = ?", threadID).Delete(&types.ChatMessage{})
	return res.RowsAffected, res.Error
}

func (r *chatMessageRepo) DeleteByThreads(dbc dbctx.Context, threadIDs []uuid.UUID) (int64, error) {
	if len(threadIDs) == 0 {
		return 0, nil
	}
	res := dbc.Or(r.db).Where("thread_id IN ?", threadIDs).Delete(&types.ChatMessage{})
	return res.RowsAffected, res.Error
}
