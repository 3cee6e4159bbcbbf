package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/archisdhar8/religiousAI/internal/observability"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

// Task is one recurring unit of maintenance work.
type Task struct {
	Name string
	// Cron takes precedence over Every when both are set.
	Cron  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

type Scheduler struct {
	log   *logger.Logger
	inner gocron.Scheduler
	ctx   context.Context
}

// New builds a UTC scheduler. Tasks run with ctx, so canceling it aborts in-flight work.
func New(ctx context.Context, baseLog *logger.Logger) (*Scheduler, error) {
	log := baseLog.With("component", "Scheduler")
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{log: log, inner: s, ctx: ctx}, nil
}

func (s *Scheduler) Add(t Task) error {
	var def gocron.JobDefinition
	switch {
	case t.Cron != "":
		def = gocron.CronJob(t.Cron, false)
	case t.Every > 0:
		def = gocron.DurationJob(t.Every)
	default:
		return fmt.Errorf("task %q has no schedule", t.Name)
	}
	_, err := s.inner.NewJob(
		def,
		gocron.NewTask(func() { s.run(t) }),
		gocron.WithName(t.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.log.Error("failed to add task", "name", t.Name, "cron", t.Cron, "every", t.Every, "error", err)
		return fmt.Errorf("failed to schedule task %q: %w", t.Name, err)
	}
	s.log.Info("task scheduled", "name", t.Name, "cron", t.Cron, "every", t.Every)
	return nil
}

func (s *Scheduler) run(t Task) {
	start := time.Now()
	status := "ok"
	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			s.log.Error("scheduled task panic", "name", t.Name, "panic", r)
		}
		observability.Current().IncScheduledRun(t.Name, status)
	}()
	if err := t.Run(s.ctx); err != nil {
		status = "error"
		s.log.Warn("scheduled task failed", "name", t.Name, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	s.log.Debug("scheduled task finished", "name", t.Name, "duration_ms", time.Since(start).Milliseconds())
}

func (s *Scheduler) Start() { s.inner.Start() }

func (s *Scheduler) Stop() error {
	if err := s.inner.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}
