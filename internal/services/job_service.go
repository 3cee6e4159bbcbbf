package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/repos"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	jobsdomain "github.com/archisdhar8/religiousAI/internal/domain/jobs"
	"github.com/archisdhar8/religiousAI/internal/platform/ctxutil"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

type JobService interface {
	Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload any) (*types.JobRun, error)
	// EnqueueMemoryExtract schedules an extraction run. Callers log and drop its error.
	EnqueueMemoryExtract(dbc dbctx.Context, payload jobsdomain.MemoryExtractPayload) (*types.JobRun, error)
}

type jobService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.JobRunRepo
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo) JobService {
	return &jobService{
		db:   db,
		log:  baseLog.With("service", "JobService"),
		repo: repo,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload any) (*types.JobRun, error) {
	if ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_user_id")
	}
	if jobType == "" {
		return nil, fmt.Errorf("missing job_type")
	}
	raw := []byte(`{}`)
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		raw = b
	}
	raw = withTrace(dbc, raw)

	now := time.Now().UTC()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      types.JobStatusQueued,
		Payload:     datatypes.JSON(raw),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.repo.Create(dbc, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.log.Debug("Enqueued job", "job_id", job.ID, "job_type", jobType, "owner_user_id", ownerUserID)
	return job, nil
}

func (s *jobService) EnqueueMemoryExtract(dbc dbctx.Context, payload jobsdomain.MemoryExtractPayload) (*types.JobRun, error) {
	var entityType string
	var entityID *uuid.UUID
	switch {
	case payload.ThreadID != nil:
		entityType, entityID = "chat_thread", payload.ThreadID
	case payload.JournalEntryID != nil:
		entityType, entityID = "journal_entry", payload.JournalEntryID
	}
	return s.Enqueue(dbc, payload.UserID, jobsdomain.TypeMemoryExtract, entityType, entityID, payload)
}

// withTrace copies the request's trace and request ids into an object payload.
func withTrace(dbc dbctx.Context, raw []byte) []byte {
	td := ctxutil.GetTraceData(dbc.Ctx)
	if td == nil || (td.TraceID == "" && td.RequestID == "") {
		return raw
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return raw
	}
	if _, ok := m["trace_id"]; !ok && td.TraceID != "" {
		m["trace_id"] = td.TraceID
	}
	if _, ok := m["request_id"]; !ok && td.RequestID != "" {
		m["request_id"] = td.RequestID
	}
	b, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	return b
}
