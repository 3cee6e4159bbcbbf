package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/archisdhar8/religiousAI/internal/data/repos/testutil"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
)

func extractRun(owner uuid.UUID, status string, attempts int, created time.Time) *types.JobRun {
	return &types.JobRun{
		OwnerUserID: owner,
		JobType:     "memory_extract",
		Status:      status,
		Attempts:    attempts,
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

var testPolicy = ClaimPolicy{MaxAttempts: 5, RetryDelay: 30 * time.Second, StaleRunning: 30 * time.Minute}

func TestClaimOrderAndEligibility(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	owner := uuid.New()

	queued := extractRun(owner, types.JobStatusQueued, 0, now.Add(-3*time.Hour))
	queued.EntityType = "chat_thread"
	queued.EntityID = testutil.PtrUUID(uuid.New())

	retryable := extractRun(owner, types.JobStatusFailed, 1, now.Add(-2*time.Hour))
	retryable.LastErrorAt = testutil.PtrTime(now.Add(-2 * time.Hour))

	// failed too recently to retry
	cooling := extractRun(owner, types.JobStatusFailed, 1, now.Add(-100*time.Minute))
	cooling.LastErrorAt = testutil.PtrTime(now.Add(-5 * time.Second))

	exhausted := extractRun(owner, types.JobStatusFailed, 5, now.Add(-90*time.Minute))
	exhausted.LastErrorAt = testutil.PtrTime(now.Add(-2 * time.Hour))

	stale := extractRun(owner, types.JobStatusRunning, 1, now.Add(-1*time.Hour))
	stale.HeartbeatAt = testutil.PtrTime(now.Add(-10 * time.Hour))

	live := extractRun(owner, types.JobStatusRunning, 1, now.Add(-50*time.Minute))
	live.HeartbeatAt = testutil.PtrTime(now.Add(-5 * time.Second))

	created, err := repo.Create(dbc, []*types.JobRun{queued, retryable, cooling, exhausted, stale, live})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 6 {
		t.Fatalf("Create: want=6 got=%d", len(created))
	}

	for i, want := range []uuid.UUID{queued.ID, retryable.ID, stale.ID} {
		got, err := repo.ClaimNextRunnable(dbc, testPolicy)
		if err != nil {
			t.Fatalf("ClaimNextRunnable #%d: %v", i, err)
		}
		if got == nil || got.ID != want {
			t.Fatalf("ClaimNextRunnable #%d: want=%s got=%v", i, want, got)
		}
		if got.Status != types.JobStatusRunning || got.LockedAt == nil {
			t.Fatalf("ClaimNextRunnable #%d: want running+locked got=%s", i, got.Status)
		}
	}
	none, err := repo.ClaimNextRunnable(dbc, testPolicy)
	if err != nil || none != nil {
		t.Fatalf("ClaimNextRunnable drained: want nil got=%v err=%v", none, err)
	}

	got, err := repo.GetByID(dbc, retryable.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got.Attempts != 2 {
		t.Fatalf("attempts after reclaim: want=2 got=%d", got.Attempts)
	}
}

func TestFinishAndPrune(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	owner := uuid.New()
	ok := extractRun(owner, types.JobStatusQueued, 0, now.Add(-time.Hour))
	bad := extractRun(owner, types.JobStatusQueued, 0, now.Add(-time.Hour))
	old := extractRun(owner, types.JobStatusSucceeded, 1, now.Add(-10*24*time.Hour))
	if _, err := repo.Create(dbc, []*types.JobRun{ok, bad, old}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.MarkSucceeded(dbc, ok.ID, datatypes.JSON(`{"changed":true}`), now); err != nil {
		t.Fatalf("MarkSucceeded: %v", err)
	}
	if err := repo.MarkFailed(dbc, bad.ID, "extract: boom", now); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	// heartbeats only land on running rows
	if err := repo.Heartbeat(dbc, ok.ID); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	gotOK, _ := repo.GetByID(dbc, ok.ID)
	if gotOK == nil || gotOK.Status != types.JobStatusSucceeded {
		t.Fatalf("succeeded row: %+v", gotOK)
	}
	var result map[string]bool
	if err := json.Unmarshal(gotOK.Result, &result); err != nil || !result["changed"] {
		t.Fatalf("result: want changed=true got=%s err=%v", gotOK.Result, err)
	}
	gotBad, _ := repo.GetByID(dbc, bad.ID)
	if gotBad == nil || gotBad.Status != types.JobStatusFailed || gotBad.Error != "extract: boom" || gotBad.LastErrorAt == nil {
		t.Fatalf("failed row: %+v", gotBad)
	}

	counts, err := repo.CountByStatus(dbc)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[types.JobStatusSucceeded] != 2 || counts[types.JobStatusFailed] != 1 {
		t.Fatalf("CountByStatus: got=%v", counts)
	}

	pruned, err := repo.DeleteFinishedBefore(dbc, now.Add(-7*24*time.Hour))
	if err != nil || pruned != 1 {
		t.Fatalf("DeleteFinishedBefore: want=1 got=%d err=%v", pruned, err)
	}
	if missing, err := repo.GetByID(dbc, old.ID); err != nil || missing != nil {
		t.Fatalf("pruned row should be gone: got=%v err=%v", missing, err)
	}
}
