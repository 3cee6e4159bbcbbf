package memory_extract

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/data/aggregates"
	"github.com/archisdhar8/religiousAI/internal/data/repos"
	"github.com/archisdhar8/religiousAI/internal/data/repos/testutil"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	jobsdomain "github.com/archisdhar8/religiousAI/internal/domain/jobs"
	"github.com/archisdhar8/religiousAI/internal/jobs/runtime"
	"github.com/archisdhar8/religiousAI/internal/modules/insights"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/services"
)

func TestRunExtractsOwnersMemory(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	jobRuns := repos.NewJobRunRepo(db, log)
	memories := repos.NewUserMemoryRepo(db, log)
	memory := services.NewMemoryService(
		db, log, aggregates.NewGormTxRunner(db),
		memories, repos.NewChatMessageRepo(db, log), repos.NewJournalEntryRepo(db, log),
		insights.Default(), services.NewNotifier(nil),
	)
	jobs := services.NewJobService(db, log, jobRuns)
	p := New(db, log, memory)

	u := testutil.SeedUser(t, ctx, db, "alice")
	th := testutil.SeedThread(t, ctx, db, u.ID, "Grief", time.Now().UTC())
	msg := testutil.SeedMessage(t, ctx, db, th, types.RoleUser, "My mother passed away and I feel so much grief")

	if _, err := jobs.EnqueueMemoryExtract(dbctx.Context{Ctx: ctx}, jobsdomain.MemoryExtractPayload{
		UserID: u.ID, ThreadID: &th.ID, MessageIDs: []uuid.UUID{msg.ID},
	}); err != nil {
		t.Fatalf("EnqueueMemoryExtract: %v", err)
	}
	job, err := jobRuns.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, repos.ClaimPolicy{MaxAttempts: 5, RetryDelay: time.Second, StaleRunning: time.Minute})
	if err != nil || job == nil {
		t.Fatalf("ClaimNextRunnable: job=%v err=%v", job, err)
	}

	jc := runtime.NewContext(ctx, db, job, jobRuns)
	if err := p.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.Status != types.JobStatusSucceeded {
		t.Fatalf("status: want=%s got=%s (%s)", types.JobStatusSucceeded, job.Status, job.Error)
	}
	var result map[string]any
	if err := json.Unmarshal(job.Result, &result); err != nil {
		t.Fatalf("result: %v", err)
	}
	if result["changed"] != true {
		t.Fatalf("result changed: want=true got=%v", result["changed"])
	}

	mem, err := memories.GetByUserID(dbctx.Context{Ctx: ctx}, u.ID)
	if err != nil || mem == nil {
		t.Fatalf("GetByUserID: mem=%v err=%v", mem, err)
	}
	found := false
	for _, theme := range mem.Themes {
		if theme == "grief" {
			found = true
		}
	}
	if !found {
		t.Fatalf("themes: want grief in %v", mem.Themes)
	}
}

func TestRunRejectsForeignPayload(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	jobRuns := repos.NewJobRunRepo(db, log)
	p := New(db, log, nil)

	owner := testutil.SeedUser(t, ctx, db, "alice")
	other := testutil.SeedUser(t, ctx, db, "bob")
	raw, _ := json.Marshal(jobsdomain.MemoryExtractPayload{UserID: other.ID})
	job := &types.JobRun{OwnerUserID: owner.ID, JobType: jobsdomain.TypeMemoryExtract, Status: types.JobStatusRunning, Payload: raw}

	jc := runtime.NewContext(ctx, db, job, jobRuns)
	if err := p.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.Status != types.JobStatusFailed {
		t.Fatalf("status: want=%s got=%s", types.JobStatusFailed, job.Status)
	}
}
