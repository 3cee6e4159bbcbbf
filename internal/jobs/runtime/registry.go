package runtime

import (
	"fmt"
	"sort"
	"strings"
)

type Handler interface {
	Type() string
	Run(ctx *Context) error
}

// HandlerFunc adapts a function to Handler under a fixed job type.
type HandlerFunc struct {
	JobType string
	Fn      func(ctx *Context) error
}

func (h HandlerFunc) Type() string { return h.JobType }

func (h HandlerFunc) Run(ctx *Context) error {
	if h.Fn == nil {
		return fmt.Errorf("job_type=%s has no run func", h.JobType)
	}
	return h.Fn(ctx)
}

// Registry maps job types to handlers. It is fixed at construction, so
// lookups need no locking.
type Registry struct {
	handlers map[string]Handler
	types    []string
}

func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for i, h := range handlers {
		if h == nil {
			return nil, fmt.Errorf("handler #%d is nil", i)
		}
		t := strings.TrimSpace(h.Type())
		if t == "" {
			return nil, fmt.Errorf("handler #%d has empty job type", i)
		}
		if _, dup := r.handlers[t]; dup {
			return nil, fmt.Errorf("duplicate handler for job_type=%s", t)
		}
		r.handlers[t] = h
		r.types = append(r.types, t)
	}
	sort.Strings(r.types)
	return r, nil
}

func (r *Registry) Get(jobType string) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.handlers[jobType]
	return h, ok
}

// Types lists the registered job types in sorted order.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.types...)
}
