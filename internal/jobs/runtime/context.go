package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/archisdhar8/religiousAI/internal/data/repos"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/ctxutil"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
)

/*
Context is the execution handle for one claimed job run.
Handlers never write job_run directly. They read inputs through Decode and
finish through Succeed or Fail.
*/
type Context struct {
	Ctx  context.Context
	DB   *gorm.DB
	Job  *types.JobRun
	Repo repos.JobRunRepo

	payload map[string]any
	done    bool
}

// NewContext decodes the payload eagerly and restores the enqueuing request's trace ids.
func NewContext(ctx context.Context, db *gorm.DB, job *types.JobRun, repo repos.JobRunRepo) *Context {
	c := &Context{
		Ctx:  ctx,
		DB:   db,
		Job:  job,
		Repo: repo,
	}
	_ = c.decodePayload()
	c.applyTraceData()
	return c
}

func (c *Context) decodePayload() error {
	if c.Job == nil || len(c.Job.Payload) == 0 {
		c.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		c.payload = map[string]any{}
		return err
	}
	c.payload = m
	return nil
}

func (c *Context) applyTraceData() {
	if c.Ctx == nil {
		return
	}
	traceID := payloadString(c.payload, "trace_id")
	reqID := payloadString(c.payload, "request_id")
	if traceID == "" && reqID == "" {
		return
	}
	c.Ctx = ctxutil.WithTraceData(c.Ctx, &ctxutil.TraceData{
		TraceID:   traceID,
		RequestID: reqID,
	})
}

func payloadString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

// Decode unmarshals the raw payload into v.
func (c *Context) Decode(v any) error {
	if c.Job == nil || len(c.Job.Payload) == 0 {
		return fmt.Errorf("job has no payload")
	}
	if err := json.Unmarshal(c.Job.Payload, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// OwnerContext is a request context acting as the job's owner, so services apply
// the same ownership checks they apply to API calls.
func (c *Context) OwnerContext() dbctx.Context {
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if c.Job != nil {
		ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: c.Job.OwnerUserID})
	}
	return dbctx.Context{Ctx: ctx}
}

func (c *Context) Heartbeat() {
	if !c.persistable() {
		return
	}
	_ = c.Repo.Heartbeat(dbctx.Context{Ctx: c.background()}, c.Job.ID)
}

// Done reports whether Succeed or Fail already ran.
func (c *Context) Done() bool { return c.done }

// Fail marks the run failed. The worker retries it until attempts run out.
func (c *Context) Fail(stage string, err error) {
	if c == nil || c.done {
		return
	}
	c.done = true
	msg := stage
	if err != nil {
		msg = stage + ": " + err.Error()
	}
	now := time.Now().UTC()
	if c.persistable() {
		_ = c.Repo.MarkFailed(dbctx.Context{Ctx: c.background()}, c.Job.ID, msg, now)
	}
	if c.Job != nil {
		c.Job.Status = types.JobStatusFailed
		c.Job.Error = msg
		c.Job.LastErrorAt = &now
		c.Job.LockedAt = nil
		c.Job.UpdatedAt = now
	}
}

// Succeed marks the run succeeded and stores result as JSON.
func (c *Context) Succeed(result any) {
	if c == nil || c.done {
		return
	}
	c.done = true
	res := datatypes.JSON(`{}`)
	if result != nil {
		if b, err := json.Marshal(result); err == nil {
			res = datatypes.JSON(b)
		}
	}
	now := time.Now().UTC()
	if c.persistable() {
		_ = c.Repo.MarkSucceeded(dbctx.Context{Ctx: c.background()}, c.Job.ID, res, now)
	}
	if c.Job != nil {
		c.Job.Status = types.JobStatusSucceeded
		c.Job.Error = ""
		c.Job.Result = res
		c.Job.LockedAt = nil
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
}

func (c *Context) persistable() bool {
	return c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil
}

// background survives cancellation of the worker context so a final status still lands.
func (c *Context) background() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(c.Ctx)
}
