package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

type UserRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
	// LockByID takes a row lock on the user, serializing per-user writes (no-op on SQLite).
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	// EnsureUser inserts u when no row with u.ID exists and returns the stored row.
	EnsureUser(dbc dbctx.Context, u *types.User) (*types.User, bool, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// TouchLastSeen bumps last_seen_at unless it was bumped within minInterval.
	TouchLastSeen(dbc dbctx.Context, id uuid.UUID, now time.Time, minInterval time.Duration) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var u types.User
	err := dbc.Or(r.db).Where("id = ?", id).Limit(1).Find(&u).Error
	if err != nil {
		return nil, err
	}
	if u.ID == uuid.Nil {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var u types.User
	err := dbc.Or(r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Limit(1).Find(&u).Error
	if err != nil {
		return nil, err
	}
	if u.ID == uuid.Nil {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Or(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) EnsureUser(dbc dbctx.Context, u *types.User) (*types.User, bool, error) {
	if u == nil || u.ID == uuid.Nil {
		return nil, false, errors.New("user id required")
	}
	txx := dbc.Or(r.db)
	res := txx.Clauses(clause.OnConflict{DoNothing: true}).Create(u)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected > 0
	if created {
		return u, true, nil
	}
	existing, err := r.GetByID(dbc, u.ID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// the conflict was on email, not id
		return nil, false, gorm.ErrDuplicatedKey
	}
	return existing, false, nil
}

func (r *userRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.Or(r.db).Model(&types.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *userRepo) TouchLastSeen(dbc dbctx.Context, id uuid.UUID, now time.Time, minInterval time.Duration) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	res := dbc.Or(r.db).Model(&types.User{}).
		Where("id = ? AND (last_seen_at IS NULL OR last_seen_at < ?)", id, now.Add(-minInterval)).
		UpdateColumn("last_seen_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
