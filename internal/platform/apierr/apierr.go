package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the caller-facing error category. Handlers map it onto HTTP.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindConflict           Kind = "conflict"
	KindInvalidState       Kind = "invalid_state"
	KindPreconditionFailed Kind = "precondition_failed"
	KindInvalidArgument    Kind = "invalid_argument"
	KindUnauthorized       Kind = "unauthorized"
	KindUnavailable        Kind = "unavailable"
	KindInternal           Kind = "internal"
)

// UnavailableMessage is what clients see when the LLM, retriever or database is down.
const UnavailableMessage = "The guide is unavailable right now. Please try again."

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind onto an HTTP status code.
func (e *Error) Status() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	return StatusFor(e.Kind)
}

// PublicMessage is the text safe to return to clients. Causes are never exposed.
func (e *Error) PublicMessage() string {
	if e == nil {
		return "unknown error"
	}
	if e.Kind == KindUnavailable {
		return UnavailableMessage
	}
	if e.Kind == KindInternal {
		return "internal error"
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func StatusFor(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict, KindInvalidState:
		return http.StatusConflict
	case KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func NotFound(msg string) *Error           { return New(KindNotFound, msg, nil) }
func Forbidden(msg string) *Error          { return New(KindForbidden, msg, nil) }
func Conflict(msg string) *Error           { return New(KindConflict, msg, nil) }
func InvalidState(msg string) *Error       { return New(KindInvalidState, msg, nil) }
func PreconditionFailed(msg string) *Error { return New(KindPreconditionFailed, msg, nil) }
func InvalidArgument(msg string) *Error    { return New(KindInvalidArgument, msg, nil) }
func Unauthorized(msg string) *Error       { return New(KindUnauthorized, msg, nil) }

func Unavailable(cause error) *Error {
	return New(KindUnavailable, "downstream unavailable", cause)
}

func Internal(cause error) *Error {
	return New(KindInternal, "", cause)
}

// KindOf returns the kind carried anywhere in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// From coerces any error into *Error, keeping an existing classification.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e
	}
	return Internal(err)
}
