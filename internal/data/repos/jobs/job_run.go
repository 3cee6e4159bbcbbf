package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

// ClaimPolicy decides which rows a worker may pick up.
type ClaimPolicy struct {
	MaxAttempts int
	// RetryDelay is the minimum wait after a failure before the row is retried.
	RetryDelay time.Duration
	// StaleRunning reclaims running rows whose heartbeat is older than this.
	StaleRunning time.Duration
}

type JobRunRepo interface {
	Create(dbc dbctx.Context, jobs []*types.JobRun) ([]*types.JobRun, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error)
	// ClaimNextRunnable moves the oldest eligible row to running and returns it, or nil when idle.
	ClaimNextRunnable(dbc dbctx.Context, policy ClaimPolicy) (*types.JobRun, error)
	Heartbeat(dbc dbctx.Context, id uuid.UUID) error
	MarkSucceeded(dbc dbctx.Context, id uuid.UUID, result datatypes.JSON, at time.Time) error
	MarkFailed(dbc dbctx.Context, id uuid.UUID, message string, at time.Time) error
	// CountByStatus backs the queue depth gauge.
	CountByStatus(dbc dbctx.Context) (map[string]int64, error)
	// DeleteFinishedBefore removes succeeded and failed rows last touched before cutoff.
	DeleteFinishedBefore(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type jobRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return &jobRunRepo{
		db:  db,
		log: baseLog.With("repo", "JobRunRepo"),
	}
}

func (r *jobRunRepo) Create(dbc dbctx.Context, jobs []*types.JobRun) ([]*types.JobRun, error) {
	if len(jobs) == 0 {
		return []*types.JobRun{}, nil
	}
	if err := dbc.Or(r.db).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error) {
	var job types.JobRun
	err := dbc.Or(r.db).Where("id = ?", id).Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// runnable matches queued rows, failed rows past their retry delay and
// running rows whose worker stopped heartbeating.
func runnable(policy ClaimPolicy, now time.Time) clause.Expression {
	queued := clause.Eq{Column: "status", Value: types.JobStatusQueued}
	retry := clause.And(
		clause.Eq{Column: "status", Value: types.JobStatusFailed},
		clause.Lt{Column: "attempts", Value: policy.MaxAttempts},
		clause.Or(
			clause.Eq{Column: "last_error_at", Value: nil},
			clause.Lt{Column: "last_error_at", Value: now.Add(-policy.RetryDelay)},
		),
	)
	stale := clause.And(
		clause.Eq{Column: "status", Value: types.JobStatusRunning},
		clause.Lt{Column: "attempts", Value: policy.MaxAttempts},
		clause.Neq{Column: "heartbeat_at", Value: nil},
		clause.Lt{Column: "heartbeat_at", Value: now.Add(-policy.StaleRunning)},
	)
	return clause.Or(queued, retry, stale)
}

func (r *jobRunRepo) ClaimNextRunnable(dbc dbctx.Context, policy ClaimPolicy) (*types.JobRun, error) {
	now := time.Now().UTC()
	var claimed *types.JobRun
	err := dbc.Or(r.db).Transaction(func(tx *gorm.DB) error {
		var job types.JobRun
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Clauses(clause.Where{Exprs: []clause.Expression{runnable(policy, now)}}).
			Order("created_at ASC").
			Take(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&types.JobRun{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":       types.JobStatusRunning,
				"attempts":     gorm.Expr("attempts + 1"),
				"locked_at":    now,
				"heartbeat_at": now,
				"updated_at":   now,
			}).Error; err != nil {
			return err
		}
		job.Status = types.JobStatusRunning
		job.Attempts++
		job.LockedAt = &now
		job.HeartbeatAt = &now
		job.UpdatedAt = now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *jobRunRepo) Heartbeat(dbc dbctx.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return dbc.Or(r.db).
		Model(&types.JobRun{}).
		Where("id = ? AND status = ?", id, types.JobStatusRunning).
		Updates(map[string]interface{}{"heartbeat_at": now, "updated_at": now}).Error
}

func (r *jobRunRepo) MarkSucceeded(dbc dbctx.Context, id uuid.UUID, result datatypes.JSON, at time.Time) error {
	if len(result) == 0 {
		result = datatypes.JSON(`{}`)
	}
	return dbc.Or(r.db).
		Model(&types.JobRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       types.JobStatusSucceeded,
			"error":        "",
			"result":       result,
			"locked_at":    nil,
			"heartbeat_at": at,
			"updated_at":   at,
		}).Error
}

func (r *jobRunRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, message string, at time.Time) error {
	return dbc.Or(r.db).
		Model(&types.JobRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        types.JobStatusFailed,
			"error":         message,
			"last_error_at": at,
			"locked_at":     nil,
			"updated_at":    at,
		}).Error
}

func (r *jobRunRepo) CountByStatus(dbc dbctx.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := dbc.Or(r.db).
		Model(&types.JobRun{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *jobRunRepo) DeleteFinishedBefore(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	res := dbc.Or(r.db).
		Where("status IN ? AND updated_at < ?", []string{types.JobStatusSucceeded, types.JobStatusFailed}, cutoff).
		Delete(&types.JobRun{})
	return res.RowsAffected, res.Error
}
