package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

// ConnectionRepo stores connections as two directed rows. Callers must run the
// pair operations inside a transaction.
type ConnectionRepo interface {
	CreatePair(dbc dbctx.Context, a, b, requestID uuid.UUID, at time.Time) error
	DeletePair(dbc dbctx.Context, a, b uuid.UUID) (int64, error)
	Exists(dbc dbctx.Context, userID, peerID uuid.UUID) (bool, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Connection, error)
	PeerIDs(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type connectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConnectionRepo(db *gorm.DB, baseLog *logger.Logger) ConnectionRepo {
	return &connectionRepo{db: db, log: baseLog.With("repo", "ConnectionRepo")}
}

func (r *connectionRepo) CreatePair(dbc dbctx.Context, a, b, requestID uuid.UUID, at time.Time) error {
	rows := []*types.Connection{
		{UserID: a, PeerUserID: b, RequestID: requestID, CreatedAt: at},
		{UserID: b, PeerUserID: a, RequestID: requestID, CreatedAt: at},
	}
	return dbc.Or(r.db).Create(&rows).Error
}

func (r *connectionRepo) DeletePair(dbc dbctx.Context, a, b uuid.UUID) (int64, error) {
	res := dbc.Or(r.db).
		Where("(user_id = ? AND peer_user_id = ?) OR (user_id = ? AND peer_user_id = ?)", a, b, b, a).
		Delete(&types.Connection{})
	return res.RowsAffected, res.Error
}

func (r *connectionRepo) Exists(dbc dbctx.Context, userID, peerID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.Or(r.db).Model(&types.Connection{}).
		Where("user_id = ? AND peer_user_id = ?", userID, peerID).
		Count(&n).Error
	return n > 0, err
}

func (r *connectionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Connection, error) {
	out := []*types.Connection{}
	err := dbc.Or(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *connectionRepo) PeerIDs(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbc.Or(r.db).Model(&types.Connection{}).
		Where("user_id = ?", userID).
		Pluck("peer_user_id", &ids).Error
	return ids, err
}

func (r *connectionRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).Model(&types.Connection{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
