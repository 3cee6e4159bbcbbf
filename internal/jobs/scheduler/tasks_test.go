package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/archisdhar8/religiousAI/internal/data/repos"
	"github.com/archisdhar8/religiousAI/internal/data/repos/testutil"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
)

func TestJobRunPruneKeepsRecentAndRunnable(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewJobRunRepo(db, log)
	u := testutil.SeedUser(t, ctx, db, "alice")

	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	old := now.Add(-8 * 24 * time.Hour)
	recent := now.Add(-24 * time.Hour)
	rows := []*types.JobRun{
		{OwnerUserID: u.ID, JobType: "memory_extract", Status: types.JobStatusSucceeded, CreatedAt: old, UpdatedAt: old},
		{OwnerUserID: u.ID, JobType: "memory_extract", Status: types.JobStatusFailed, CreatedAt: old, UpdatedAt: old},
		{OwnerUserID: u.ID, JobType: "memory_extract", Status: types.JobStatusQueued, CreatedAt: old, UpdatedAt: old},
		{OwnerUserID: u.ID, JobType: "memory_extract", Status: types.JobStatusSucceeded, CreatedAt: recent, UpdatedAt: recent},
	}
	if _, err := repo.Create(dbctx.Context{Ctx: ctx}, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	task := JobRunPrune(log, repo, func() time.Time { return now })
	if task.Name != TaskJobRunPrune || task.Cron == "" {
		t.Fatalf("task definition: %+v", task)
	}
	if err := task.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var left []types.JobRun
	if err := db.Order("created_at ASC").Find(&left).Error; err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(left) != 2 {
		t.Fatalf("remaining rows: want=2 got=%d", len(left))
	}
	if left[0].Status != types.JobStatusQueued || left[1].ID != rows[3].ID {
		t.Fatalf("wrong rows kept: %+v", left)
	}
}

func TestAddRejectsUnscheduledTask(t *testing.T) {
	s, err := New(context.Background(), testutil.Logger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = s.Stop() }()

	if err := s.Add(Task{Name: "nothing", Run: func(context.Context) error { return nil }}); err == nil {
		t.Fatalf("task without schedule should be rejected")
	}
	if err := s.Add(Task{Name: "hourly", Cron: "0 * * * *", Run: func(context.Context) error { return nil }}); err != nil {
		t.Fatalf("Add: %v", err)
	}
}
