package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
	"github.com/archisdhar8/religiousAI/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqError *Counter
	llmRequests *CounterVec
	llmLatency  *HistogramVec
	retrievals  *CounterVec
	crisis      *CounterVec
	jobRuns     *CounterVec
	jobDuration *HistogramVec
	scheduled   *CounterVec
	queueDepth  *GaugeVec
	sseClients  *Gauge
	pgStats     *GaugeVec
	redisUp     *Gauge
	redisPing   *Gauge
	scrapeEvery time.Duration
	writeSeq    []writer
}

type writer interface {
	WritePrometheus(w io.Writer) error
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current is nil until Init runs with metrics enabled. Every method is nil-safe.
func Current() *Metrics {
	return instance
}

// Init builds the process-wide registry once. It returns nil when disabled.
func Init(enabled bool, scrapeEvery time.Duration) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New(scrapeEvery)
	})
	return instance
}

func New(scrapeEvery time.Duration) *Metrics {
	if scrapeEvery <= 0 {
		scrapeEvery = 10 * time.Second
	}
	m := &Metrics{
		apiRequests: NewCounterVec("rai_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"rai_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 120},
		),
		apiInflight: NewGauge("rai_api_inflight_requests", "In-flight API requests."),
		apiReqError: NewCounter("rai_api_requests_error_total", "API requests answered with a 5xx status."),
		llmRequests: NewCounterVec("rai_llm_requests_total", "LLM calls by provider/operation/status.", []string{"provider", "operation", "status"}),
		llmLatency: NewHistogramVec(
			"rai_llm_request_duration_seconds",
			"LLM call latency in seconds by provider/operation.",
			[]string{"provider", "operation"},
			[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		),
		retrievals:  NewCounterVec("rai_retrievals_total", "Scripture retrievals by status.", []string{"status"}),
		crisis:      NewCounterVec("rai_crisis_detected_total", "Messages routed to crisis resources by kind.", []string{"kind"}),
		jobRuns:     NewCounterVec("rai_job_runs_total", "Job runs by type/outcome.", []string{"job_type", "status"}),
		jobDuration: NewHistogramVec("rai_job_run_duration_seconds", "Job run duration in seconds.", []string{"job_type"}, nil),
		scheduled:   NewCounterVec("rai_scheduled_task_runs_total", "Scheduled task runs by task/outcome.", []string{"task", "status"}),
		queueDepth:  NewGaugeVec("rai_job_queue_depth", "job_run rows by status.", []string{"status"}),
		sseClients:  NewGauge("rai_sse_clients", "Connected event stream clients."),
		pgStats:     NewGaugeVec("rai_postgres_pool", "database/sql pool stats.", []string{"stat"}),
		redisUp:     NewGauge("rai_redis_up", "1 when the last Redis ping succeeded."),
		redisPing:   NewGauge("rai_redis_ping_seconds", "Latency of the last Redis ping."),
		scrapeEvery: scrapeEvery,
	}
	m.writeSeq = []writer{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqError,
		m.llmRequests, m.llmLatency, m.retrievals, m.crisis,
		m.jobRuns, m.jobDuration, m.scheduled, m.queueDepth,
		m.sseClients, m.pgStats, m.redisUp, m.redisPing,
	}
	return m
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, s := range m.writeSeq {
		if err := s.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method = orUnknown(method)
	route = orUnknown(route)
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

// CountAPIStream records a finished long-lived stream without a latency sample.
func (m *Metrics) CountAPIStream(method, route, status string) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(orUnknown(method), orUnknown(route), status)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(provider, operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	provider = orUnknown(provider)
	operation = orUnknown(operation)
	m.llmRequests.Inc(provider, operation, orUnknown(status))
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), provider, operation)
	}
}

func (m *Metrics) ObserveRetrieval(status string) {
	if m == nil {
		return
	}
	m.retrievals.Inc(orUnknown(status))
}

func (m *Metrics) IncCrisis(kind string) {
	if m == nil {
		return
	}
	m.crisis.Inc(orUnknown(kind))
}

func (m *Metrics) ObserveJobRun(jobType, status string, dur time.Duration) {
	if m == nil {
		return
	}
	jobType = orUnknown(jobType)
	m.jobRuns.Inc(jobType, orUnknown(status))
	m.jobDuration.Observe(dur.Seconds(), jobType)
}

func (m *Metrics) IncScheduledRun(task, status string) {
	if m == nil {
		return
	}
	m.scheduled.Inc(orUnknown(task), orUnknown(status))
}

func (m *Metrics) SSEClientsInc() {
	if m == nil {
		return
	}
	m.sseClients.Inc()
}

func (m *Metrics) SSEClientsDec() {
	if m == nil {
		return
	}
	m.sseClients.Dec()
}

// QueueCounter reports job_run rows per status.
type QueueCounter interface {
	CountByStatus(dbc dbctx.Context) (map[string]int64, error)
}

// StartCollectors polls the pool, queue depth and Redis until ctx ends.
func (m *Metrics) StartCollectors(ctx context.Context, log *logger.Logger, db *gorm.DB, queue QueueCounter, redisAddr string) {
	if m == nil {
		return
	}
	if db != nil {
		go m.every(ctx, func() { m.collectPool(log, db) })
	}
	if queue != nil {
		go m.every(ctx, func() { m.collectQueue(ctx, log, queue) })
	}
	if addr := strings.TrimSpace(redisAddr); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		go func() {
			<-ctx.Done()
			_ = rdb.Close()
		}()
		go m.every(ctx, func() { m.pingRedis(ctx, log, rdb) })
	}
}

func (m *Metrics) every(ctx context.Context, fn func()) {
	ticker := time.NewTicker(m.scrapeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func (m *Metrics) collectPool(log *logger.Logger, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: pool stats unavailable", "error", err)
		}
		return
	}
	stats := sqlDB.Stats()
	m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
	m.pgStats.Set(float64(stats.InUse), "in_use")
	m.pgStats.Set(float64(stats.Idle), "idle")
	m.pgStats.Set(float64(stats.WaitCount), "wait_count")
	m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
}

func (m *Metrics) collectQueue(ctx context.Context, log *logger.Logger, queue QueueCounter) {
	counts, err := queue.CountByStatus(dbctx.Context{Ctx: ctx})
	if err != nil {
		if log != nil {
			log.Warn("metrics: job queue depth query failed", "error", err)
		}
		return
	}
	for _, status := range []string{types.JobStatusQueued, types.JobStatusRunning, types.JobStatusSucceeded, types.JobStatusFailed} {
		m.queueDepth.Set(float64(counts[status]), status)
	}
}

func (m *Metrics) pingRedis(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	start := time.Now()
	if err := rdb.Ping(ctx).Err(); err != nil {
		m.redisUp.Set(0)
		if log != nil {
			log.Warn("metrics: redis ping failed", "error", err)
		}
		return
	}
	m.redisUp.Set(1)
	m.redisPing.Set(time.Since(start).Seconds())
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	if len(status) < 3 {
		return false
	}
	return status[0] == '5'
}
