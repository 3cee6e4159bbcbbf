package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/jobs/pipeline/memory_extract"
	"github.com/archisdhar8/religiousAI/internal/jobs/runtime"
	"github.com/archisdhar8/religiousAI/internal/jobs/scheduler"
	"github.com/archisdhar8/religiousAI/internal/jobs/worker"
	"github.com/archisdhar8/religiousAI/internal/platform/config"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

// wireWorker returns nil when the worker is disabled for this process.
func wireWorker(db *gorm.DB, log *logger.Logger, cfg *config.Config, reposet Repos, svc Services) (*worker.Worker, error) {
	if !cfg.Worker.Enabled {
		log.Info("Job worker disabled")
		return nil, nil
	}
	registry, err := runtime.NewRegistry(memory_extract.New(db, log, svc.Memory))
	if err != nil {
		return nil, fmt.Errorf("job registry: %w", err)
	}
	return worker.NewWorker(db, log, reposet.JobRun, registry, worker.Options{
		Concurrency: cfg.Worker.Concurrency,
	}), nil
}

func wireScheduler(ctx context.Context, log *logger.Logger, reposet Repos, svc Services) (*scheduler.Scheduler, error) {
	s, err := scheduler.New(ctx, log)
	if err != nil {
		return nil, err
	}
	for _, t := range []scheduler.Task{
		scheduler.ProfileTraitSync(log, svc.Community),
		scheduler.JobRunPrune(log, reposet.JobRun, time.Now),
	} {
		if err := s.Add(t); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", t.Name, err)
		}
	}
	return s, nil
}
