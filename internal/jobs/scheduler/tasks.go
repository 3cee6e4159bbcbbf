package scheduler

import (
	"context"
	"time"

	"github.com/archisdhar8/religiousAI/internal/data/repos"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/services"
)

const (
	TaskProfileTraitSync = "profile_trait_sync"
	TaskJobRunPrune      = "job_run_prune"

	JobRunRetention = 7 * 24 * time.Hour
)

// ProfileTraitSync copies each opted-in user's latest memory traits onto their community profile.
func ProfileTraitSync(log *logger.Logger, community services.CommunityService) Task {
	return Task{
		Name: TaskProfileTraitSync,
		Cron: "0 * * * *",
		Run: func(ctx context.Context) error {
			n, err := community.SyncTraits(ctx)
			if err != nil {
				return err
			}
			log.Info("profile traits synced", "profiles", n)
			return nil
		},
	}
}

// JobRunPrune deletes finished job rows older than JobRunRetention.
func JobRunPrune(log *logger.Logger, jobs repos.JobRunRepo, now func() time.Time) Task {
	if now == nil {
		now = time.Now
	}
	return Task{
		Name: TaskJobRunPrune,
		Cron: "30 3 * * *",
		Run: func(ctx context.Context) error {
			cutoff := now().UTC().Add(-JobRunRetention)
			n, err := jobs.DeleteFinishedBefore(dbctx.Context{Ctx: ctx}, cutoff)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Info("pruned finished job runs", "deleted", n, "cutoff", cutoff)
			}
			return nil
		},
	}
}
