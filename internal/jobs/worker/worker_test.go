package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/repos"
	"github.com/archisdhar8/religiousAI/internal/data/repos/testutil"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/jobs/runtime"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
)

func setup(t *testing.T, opts Options, handlers ...runtime.Handler) (*Worker, *gorm.DB, repos.JobRunRepo) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewJobRunRepo(db, log)
	reg, err := runtime.NewRegistry(handlers...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewWorker(db, log, repo, reg, opts), db, repo
}

func enqueue(t *testing.T, db *gorm.DB, repo repos.JobRunRepo, jobType string) *types.JobRun {
	t.Helper()
	u := testutil.SeedUser(t, context.Background(), db, "owner-"+uuid.NewString()[:8])
	now := time.Now().UTC()
	jobs, err := repo.Create(dbctx.Context{Ctx: context.Background()}, []*types.JobRun{{
		OwnerUserID: u.ID,
		JobType:     jobType,
		Status:      types.JobStatusQueued,
		Payload:     []byte(`{"note":"hi"}`),
		CreatedAt:   now,
		UpdatedAt:   now,
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return jobs[0]
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) *types.JobRun {
	t.Helper()
	var j types.JobRun
	if err := db.First(&j, "id = ?", id).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	return &j
}

func TestRunOnceSucceeds(t *testing.T) {
	var seen string
	w, db, repo := setup(t, Options{}, runtime.HandlerFunc{JobType: "noop", Fn: func(jc *runtime.Context) error {
		seen, _ = jc.Payload()["note"].(string)
		return nil
	}})
	job := enqueue(t, db, repo, "noop")

	if !w.RunOnce(context.Background(), 1) {
		t.Fatalf("RunOnce should claim the queued job")
	}
	got := reload(t, db, job.ID)
	if got.Status != types.JobStatusSucceeded {
		t.Fatalf("status: want=%s got=%s", types.JobStatusSucceeded, got.Status)
	}
	if got.Attempts != 1 {
		t.Fatalf("attempts: want=1 got=%d", got.Attempts)
	}
	if seen != "hi" {
		t.Fatalf("payload note: want=hi got=%q", seen)
	}
	if w.RunOnce(context.Background(), 1) {
		t.Fatalf("nothing left to claim")
	}
}

func TestRunOnceFailureIsRetried(t *testing.T) {
	calls := 0
	w, db, repo := setup(t, Options{RetryDelay: time.Nanosecond, MaxAttempts: 2}, runtime.HandlerFunc{JobType: "flaky", Fn: func(jc *runtime.Context) error {
		calls++
		return errors.New("boom")
	}})
	job := enqueue(t, db, repo, "flaky")

	w.RunOnce(context.Background(), 1)
	got := reload(t, db, job.ID)
	if got.Status != types.JobStatusFailed || got.Error != "run: boom" {
		t.Fatalf("after first run: status=%s error=%q", got.Status, got.Error)
	}
	time.Sleep(5 * time.Millisecond)
	if !w.RunOnce(context.Background(), 1) {
		t.Fatalf("failed job should be retried")
	}
	if got := reload(t, db, job.ID); got.Attempts != 2 {
		t.Fatalf("attempts: want=2 got=%d", got.Attempts)
	}
	time.Sleep(5 * time.Millisecond)
	if w.RunOnce(context.Background(), 1) {
		t.Fatalf("exhausted job should not be claimed")
	}
	if calls != 2 {
		t.Fatalf("handler calls: want=2 got=%d", calls)
	}
}

func TestRunOnceRecoversPanics(t *testing.T) {
	w, db, repo := setup(t, Options{}, runtime.HandlerFunc{JobType: "bad", Fn: func(jc *runtime.Context) error {
		panic("kaboom")
	}})
	job := enqueue(t, db, repo, "bad")

	w.RunOnce(context.Background(), 1)
	got := reload(t, db, job.ID)
	if got.Status != types.JobStatusFailed || got.Error != "panic: kaboom" {
		t.Fatalf("status=%s error=%q", got.Status, got.Error)
	}
}

func TestRunOnceUnknownType(t *testing.T) {
	w, db, repo := setup(t, Options{})
	job := enqueue(t, db, repo, "mystery")

	w.RunOnce(context.Background(), 1)
	got := reload(t, db, job.ID)
	if got.Status != types.JobStatusFailed {
		t.Fatalf("status: want=%s got=%s", types.JobStatusFailed, got.Status)
	}
	if got.Error != "dispatch: no handler registered for job_type=mystery" {
		t.Fatalf("error: got %q", got.Error)
	}
}

func TestHandlerFinishingItselfIsNotOverwritten(t *testing.T) {
	w, db, repo := setup(t, Options{}, runtime.HandlerFunc{JobType: "self", Fn: func(jc *runtime.Context) error {
		jc.Fail("validate", errors.New("bad input"))
		return nil
	}})
	job := enqueue(t, db, repo, "self")

	w.RunOnce(context.Background(), 1)
	got := reload(t, db, job.ID)
	if got.Status != types.JobStatusFailed || got.Error != "validate: bad input" {
		t.Fatalf("status=%s error=%q", got.Status, got.Error)
	}
}
