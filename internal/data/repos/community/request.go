package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

type ConnectionRequestRepo interface {
	Create(dbc dbctx.Context, req *types.ConnectionRequest) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ConnectionRequest, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ConnectionRequest, error)
	// LatestFromTo returns the newest request in the from -> to direction.
	LatestFromTo(dbc dbctx.Context, fromUserID, toUserID uuid.UUID) (*types.ConnectionRequest, error)
	ListPendingIncoming(dbc dbctx.Context, userID uuid.UUID) ([]*types.ConnectionRequest, error)
	ListPendingOutgoing(dbc dbctx.Context, userID uuid.UUID) ([]*types.ConnectionRequest, error)
	CountPendingIncoming(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	// LinkedUserIDs lists everyone with a pending request to or from userID.
	// Live connections are tracked separately, so a removed connection frees the pair.
	LinkedUserIDs(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// Transition moves a pending request to status. It reports false when the row was no longer pending.
	Transition(dbc dbctx.Context, id uuid.UUID, status string, at time.Time) (bool, error)
}

type connectionRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConnectionRequestRepo(db *gorm.DB, baseLog *logger.Logger) ConnectionRequestRepo {
	return &connectionRequestRepo{db: db, log: baseLog.With("repo", "ConnectionRequestRepo")}
}

func (r *connectionRequestRepo) Create(dbc dbctx.Context, req *types.ConnectionRequest) error {
	return dbc.Or(r.db).Create(req).Error
}

func (r *connectionRequestRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ConnectionRequest, error) {
	return r.first(dbc.Or(r.db).Where("id = ?", id))
}

func (r *connectionRequestRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.ConnectionRequest, error) {
	return r.first(dbc.Or(r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *connectionRequestRepo) LatestFromTo(dbc dbctx.Context, fromUserID, toUserID uuid.UUID) (*types.ConnectionRequest, error) {
	return r.first(dbc.Or(r.db).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		Order("created_at DESC"))
}

func (r *connectionRequestRepo) ListPendingIncoming(dbc dbctx.Context, userID uuid.UUID) ([]*types.ConnectionRequest, error) {
	out := []*types.ConnectionRequest{}
	err := dbc.Or(r.db).
		Where("to_user_id = ? AND status = ?", userID, types.RequestPending).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *connectionRequestRepo) ListPendingOutgoing(dbc dbctx.Context, userID uuid.UUID) ([]*types.ConnectionRequest, error) {
	out := []*types.ConnectionRequest{}
	err := dbc.Or(r.db).
		Where("from_user_id = ? AND status = ?", userID, types.RequestPending).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *connectionRequestRepo) CountPendingIncoming(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).Model(&types.ConnectionRequest{}).
		Where("to_user_id = ? AND status = ?", userID, types.RequestPending).
		Count(&n).Error
	return n, err
}

func (r *connectionRequestRepo) LinkedUserIDs(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var rows []*types.ConnectionRequest
	err := dbc.Or(r.db).
		Select("from_user_id", "to_user_id").
		Where("(from_user_id = ? OR to_user_id = ?) AND status = ?", userID, userID, types.RequestPending).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	seen := map[uuid.UUID]struct{}{}
	out := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		other := row.ToUserID
		if other == userID {
			other = row.FromUserID
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		out = append(out, other)
	}
	return out, nil
}

func (r *connectionRequestRepo) Transition(dbc dbctx.Context, id uuid.UUID, status string, at time.Time) (bool, error) {
	res := dbc.Or(r.db).Model(&types.ConnectionRequest{}).
		Where("id = ? AND status = ?", id, types.RequestPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *connectionRequestRepo) first(q *gorm.DB) (*types.ConnectionRequest, error) {
	var req types.ConnectionRequest
	if err := q.Limit(1).Find(&req).Error; err != nil {
		return nil, err
	}
	if req.ID == uuid.Nil {
		return nil, nil
	}
	return &req, nil
}
