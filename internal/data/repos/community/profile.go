package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

type CommunityProfileRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.CommunityProfile, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.CommunityProfile, error)
	Upsert(dbc dbctx.Context, p *types.CommunityProfile) error
	// ListOptedIn returns opted-in profiles except the excluded users, most recently active first.
	ListOptedIn(dbc dbctx.Context, exclude []uuid.UUID, limit int) ([]*types.CommunityProfile, error)
	UpdateTraits(dbc dbctx.Context, userID uuid.UUID, traits types.TraitSet) error
	TouchActive(dbc dbctx.Context, userID uuid.UUID, at time.Time) error
}

type communityProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommunityProfileRepo(db *gorm.DB, baseLog *logger.Logger) CommunityProfileRepo {
	return &communityProfileRepo{db: db, log: baseLog.With("repo", "CommunityProfileRepo")}
}

func (r *communityProfileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.CommunityProfile, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var p types.CommunityProfile
	if err := dbc.Or(r.db).Where("user_id = ?", userID).Limit(1).Find(&p).Error; err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *communityProfileRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.CommunityProfile, error) {
	out := []*types.CommunityProfile{}
	if len(userIDs) == 0 {
		return out, nil
	}
	if err := dbc.Or(r.db).Where("user_id IN ?", userIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *communityProfileRepo) Upsert(dbc dbctx.Context, p *types.CommunityProfile) error {
	if p == nil || p.UserID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.PreferredTraditions == nil {
		p.PreferredTraditions = datatypes.JSONSlice[string]{}
	}
	txx := dbc.Or(r.db)
	res := txx.Model(&types.CommunityProfile{}).
		Where("user_id = ?", p.UserID).
		Updates(map[string]interface{}{
			"display_name":         p.DisplayName,
			"bio":                  p.Bio,
			"preferred_traditions": p.PreferredTraditions,
			"opt_in":               p.OptIn,
			"traits":               p.Traits,
			"last_active_at":       p.LastActiveAt,
			"updated_at":           p.UpdatedAt,
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
			"display_name",
			"bio",
			"preferred_traditions",
			"opt_in",
			"traits",
			"last_active_at",
			"updated_at",
		}),
	}).Create(p).Error
}

func (r *communityProfileRepo) ListOptedIn(dbc dbctx.Context, exclude []uuid.UUID, limit int) ([]*types.CommunityProfile, error) {
	out := []*types.CommunityProfile{}
	q := dbc.Or(r.db).Where("opt_in = ?", true)
	if len(exclude) > 0 {
		q = q.Where("user_id NOT IN ?", exclude)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("last_active_at DESC").Order("user_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *communityProfileRepo) UpdateTraits(dbc dbctx.Context, userID uuid.UUID, traits types.TraitSet) error {
	if userID == uuid.Nil {
		return nil
	}
	if traits == nil {
		traits = types.TraitSet{}
	}
	return dbc.Or(r.db).Model(&types.CommunityProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"traits":     datatypes.NewJSONType(traits),
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *communityProfileRepo) TouchActive(dbc dbctx.Context, userID uuid.UUID, at time.Time) error {
	if userID == uuid.Nil {
		return nil
	}
	return dbc.Or(r.db).Model(&types.CommunityProfile{}).
		Where("user_id = ?", userID).
		UpdateColumn("last_active_at", at).Error
}
