package memory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/archisdhar8/religiousAI/internal/domain"
	memorydomain "github.com/archisdhar8/religiousAI/internal/domain/memory"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

type UserMemoryRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserMemory, error)
	LockByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserMemory, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.UserMemory, error)
	// Upsert writes the whole row keyed by user_id, inserting it on first use.
	Upsert(dbc dbctx.Context, m *types.UserMemory) error
	RecordVisit(dbc dbctx.Context, userID uuid.UUID, at time.Time) error
}

type userMemoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserMemoryRepo(db *gorm.DB, baseLog *logger.Logger) UserMemoryRepo {
	return &userMemoryRepo{db: db, log: baseLog.With("repo", "UserMemoryRepo")}
}

func (r *userMemoryRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserMemory, error) {
	return r.first(dbc.Or(r.db).Where("user_id = ?", userID))
}

func (r *userMemoryRepo) LockByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.UserMemory, error) {
	return r.first(dbc.Or(r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID))
}

func (r *userMemoryRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.UserMemory, error) {
	out := []*types.UserMemory{}
	if len(userIDs) == 0 {
		return out, nil
	}
	if err := dbc.Or(r.db).Where("user_id IN ?", userIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userMemoryRepo) Upsert(dbc dbctx.Context, m *types.UserMemory) error {
	if m == nil || m.UserID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	txx := dbc.Or(r.db)
	res := txx.Model(&types.UserMemory{}).
		Where("user_id = ?", m.UserID).
		Updates(map[string]interface{}{
			"themes":         m.Themes,
			"traits":         m.Traits,
			"insights":       m.Insights,
			"journey":        m.Journey,
			"summary":        m.Summary,
			"exchange_count": m.ExchangeCount,
			"last_themes":    m.LastThemes,
			"visit_count":    m.VisitCount,
			"last_visit_at":  m.LastVisitAt,
			"updated_at":     m.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return txx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"themes",
			"traits",
			"insights",
			"journey",
			"summary",
			"exchange_count",
			"last_themes",
			"visit_count",
			"last_visit_at",
			"updated_at",
		}),
	}).Create(m).Error
}

// RecordVisit bumps the visit counter, creating the row when the user has none.
func (r *userMemoryRepo) RecordVisit(dbc dbctx.Context, userID uuid.UUID, at time.Time) error {
	if userID == uuid.Nil {
		return nil
	}
	txx := dbc.Or(r.db)
	res := txx.Model(&types.UserMemory{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"visit_count":   gorm.Expr("visit_count + 1"),
			"last_visit_at": at,
			"updated_at":    at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	m := memorydomain.NewUserMemory(userID)
	m.VisitCount = 1
	m.LastVisitAt = &at
	return r.Upsert(dbc, m)
}

func (r *userMemoryRepo) first(q *gorm.DB) (*types.UserMemory, error) {
	var m types.UserMemory
	if err := q.Limit(1).Find(&m).Error; err != nil {
		return nil, err
	}
	if m.ID == uuid.Nil {
		return nil, nil
	}
	return &m, nil
}
