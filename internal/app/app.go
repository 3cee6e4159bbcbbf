package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/db"
	apphttp "github.com/archisdhar8/religiousAI/internal/http"
	"github.com/archisdhar8/religiousAI/internal/jobs/scheduler"
	"github.com/archisdhar8/religiousAI/internal/jobs/worker"
	"github.com/archisdhar8/religiousAI/internal/observability"
	"github.com/archisdhar8/religiousAI/internal/platform/config"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
	"github.com/archisdhar8/religiousAI/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      *config.Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics
	SSEHub   *realtime.SSEHub
	Server   *apphttp.Server

	pg           *db.PostgresService
	worker       *worker.Worker
	scheduler    *scheduler.Scheduler
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Server.LogMode,
		logger.WithLevel(cfg.Server.LogLevel),
		logger.WithRedaction(cfg.Server.LogRedaction, cfg.Server.LogHashSalt),
	)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Config loaded", "port", cfg.Server.Port, "postgres", cfg.Postgres.Redacted(), "llm_provider", cfg.LLM.Provider)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Server.LogMode,
		Version:     cfg.Server.Version,
		Tracing:     cfg.Tracing,
	})
	metrics := observability.Init(cfg.Metrics.Enabled, cfg.Metrics.ScrapeEvery)

	pg, err := db.NewPostgresService(log, cfg.Postgres)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	theDB := pg.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	hub := realtime.NewSSEHub(log)
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients)

	w, err := wireWorker(theDB, log, cfg, reposet, serviceset)
	if err != nil {
		clients.Close()
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	server := apphttp.NewServer(":"+cfg.Server.Port, wireRouterConfig(theDB, log, cfg, serviceset, hub, metrics))

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		SSEHub:       hub,
		Server:       server,
		pg:           pg,
		worker:       w,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background work: bus forwarding, metrics collection, the job
// worker and scheduled tasks. It does not start the HTTP server.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.Clients.Bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
		return fmt.Errorf("start realtime forwarder: %w", err)
	}

	a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
	a.Metrics.StartCollectors(ctx, a.Log, a.DB, a.Repos.JobRun, a.Cfg.Redis.Addr)

	if a.worker != nil {
		a.worker.Start(ctx)
	}

	s, err := wireScheduler(ctx, a.Log, a.Repos, a.Services)
	if err != nil {
		return err
	}
	s.Start()
	a.scheduler = s
	return nil
}

// Run blocks serving HTTP until Shutdown is called.
func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "port", a.Cfg.Server.Port)
	return a.Server.Run()
}

// Shutdown drains HTTP, stops background work and releases clients.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.scheduler != nil {
		if err := a.scheduler.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
		}
		a.scheduler = nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.worker != nil {
		done := make(chan struct{})
		go func() {
			a.worker.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("job worker did not stop: %w", ctx.Err()))
		}
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		otelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := a.otelShutdown(otelCtx); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
		cancel()
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			errs = append(errs, fmt.Errorf("postgres close: %w", err))
		}
	}
	a.Log.Sync()
	return errors.Join(errs...)
}
