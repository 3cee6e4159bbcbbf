package chroma

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	chromav2 "github.com/amikos-tech/chroma-go/pkg/api/v2"
	chhttp "github.com/amikos-tech/chroma-go/pkg/commons/http"
)

// Error kinds, matched with errors.Is.
var (
	ErrConfig         = errors.New("chroma: invalid config")
	ErrInvalidRequest = errors.New("chroma: invalid request")
	ErrNotFound       = errors.New("chroma: not found")
	ErrTimeout        = errors.New("chroma: timeout")
	ErrUnavailable    = errors.New("chroma: unavailable")
	ErrBadResponse    = errors.New("chroma: bad response")
)

// Error carries the failed call and, for HTTP failures, the response status.
type Error struct {
	Op     string
	Kind   error
	Status int
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	b.WriteString(" op=" + e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, " status=%d", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": " + e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Cause }

func fail(op string, kind error, detail string, cause error) *Error {
	return &Error{Op: op, Kind: kind, Detail: detail, Cause: cause}
}

const maxErrorDetail = 1024

// classify maps a chroma-go failure onto an error kind. The client flattens
// transport errors into text, so the context decides timeouts first.
func classify(ctx context.Context, op string, err error) *Error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fail(op, ErrTimeout, "", err)
	}
	var chErr *chhttp.ChromaError
	if errors.As(err, &chErr) {
		if chErr.ErrorCode == 0 {
			if isTimeoutText(chErr.Message) {
				return fail(op, ErrTimeout, "", err)
			}
			return fail(op, ErrUnavailable, "", err)
		}
		return statusError(op, chErr.ErrorCode, chErr.Message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fail(op, ErrTimeout, "", err)
	}
	return fail(op, ErrBadResponse, "", err)
}

func statusError(op string, status int, detail string, cause error) *Error {
	kind := ErrUnavailable
	switch {
	case status == 404:
		kind = ErrNotFound
	case status >= 400 && status < 500:
		kind = ErrInvalidRequest
	}
	if len(detail) > maxErrorDetail {
		detail = detail[:maxErrorDetail] + "..."
	}
	return &Error{Op: op, Kind: kind, Status: status, Detail: detail, Cause: cause}
}

func isTimeoutText(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout")
}

type Config struct {
	URL        string
	Collection string
	// Tenant and Database default to Chroma's default_tenant and default_database.
	Tenant   string
	Database string
	Timeout  time.Duration
}

func ValidateConfig(cfg Config) error {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return fmt.Errorf("%w: CHROMA_URL is required", ErrConfig)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: CHROMA_URL=%q must be absolute, like http://chroma:8000", ErrConfig, cfg.URL)
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return fmt.Errorf("%w: CHROMA_COLLECTION is required", ErrConfig)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Tenant) == "" {
		c.Tenant = chromav2.DefaultTenant
	}
	if strings.TrimSpace(c.Database) == "" {
		c.Database = chromav2.DefaultDatabase
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}
