package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/repos"
	"github.com/archisdhar8/religiousAI/internal/jobs/runtime"
	"github.com/archisdhar8/religiousAI/internal/observability"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

const (
	DefaultMaxAttempts  = 5
	DefaultRetryDelay   = 30 * time.Second
	DefaultStaleRunning = 30 * time.Minute
	DefaultPoll         = 1 * time.Second
	DefaultHeartbeat    = 15 * time.Second
)

type Options struct {
	Concurrency  int
	Poll         time.Duration
	Heartbeat    time.Duration
	MaxAttempts  int
	RetryDelay   time.Duration
	StaleRunning time.Duration
}

func (o Options) withDefaults() Options {
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.Poll <= 0 {
		o.Poll = DefaultPoll
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = DefaultHeartbeat
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.StaleRunning <= 0 {
		o.StaleRunning = DefaultStaleRunning
	}
	return o
}

type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *runtime.Registry
	opts     Options
	wg       sync.WaitGroup
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, registry *runtime.Registry, opts Options) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		opts:     opts.withDefaults(),
	}
}

// Start launches the pool. Loops exit when ctx is canceled; Wait blocks until they have.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting job worker pool", "concurrency", w.opts.Concurrency, "job_types", w.registry.Types())
	for i := 0; i < w.opts.Concurrency; i++ {
		workerID := i + 1
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runLoop(ctx, workerID)
		}()
	}
}

func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.opts.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			for w.RunOnce(ctx, workerID) {
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// RunOnce claims and runs at most one job. It reports whether a job was claimed.
func (w *Worker) RunOnce(ctx context.Context, workerID int) bool {
	job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, repos.ClaimPolicy{
		MaxAttempts:  w.opts.MaxAttempts,
		RetryDelay:   w.opts.RetryDelay,
		StaleRunning: w.opts.StaleRunning,
	})
	if err != nil {
		w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
		return false
	}
	if job == nil {
		return false
	}

	start := time.Now()
	jc := runtime.NewContext(ctx, w.db, job, w.repo)
	h, ok := w.registry.Get(job.JobType)
	if !ok {
		w.log.Warn("No handler registered for job_type",
			"worker_id", workerID,
			"job_type", job.JobType,
			"job_id", job.ID,
		)
		jc.Fail("dispatch", &missingHandlerError{JobType: job.JobType})
		observability.Current().ObserveJobRun(job.JobType, job.Status, time.Since(start))
		return true
	}

	stopBeat := w.heartbeat(ctx, jc)
	func() {
		defer stopBeat()
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("Job handler panic",
					"worker_id", workerID,
					"job_id", job.ID,
					"job_type", job.JobType,
					"panic", r,
				)
				jc.Fail("panic", errFromRecover(r))
			}
		}()

		if runErr := h.Run(jc); runErr != nil {
			jc.Fail("run", runErr)
		}
		// handlers that return nil without finishing still succeed
		jc.Succeed(nil)
	}()

	w.log.Debug("Job finished",
		"worker_id", workerID,
		"job_id", job.ID,
		"job_type", job.JobType,
		"status", job.Status,
		"attempt", job.Attempts,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	observability.Current().ObserveJobRun(job.JobType, job.Status, time.Since(start))
	return true
}

func (w *Worker) heartbeat(ctx context.Context, jc *runtime.Context) func() {
	beatCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(w.opts.Heartbeat)
		defer t.Stop()
		for {
			select {
			case <-beatCtx.Done():
				return
			case <-t.C:
				jc.Heartbeat()
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

type missingHandlerError struct{ JobType string }

func (e *missingHandlerError) Error() string { return "no handler registered for job_type=" + e.JobType }

func errFromRecover(v any) error { return &panicError{Val: v} }

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprint(e.Val) }
