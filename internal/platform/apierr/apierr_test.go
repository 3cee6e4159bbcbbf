package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusFor(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:           http.StatusNotFound,
		KindForbidden:          http.StatusForbidden,
		KindConflict:           http.StatusConflict,
		KindInvalidState:       http.StatusConflict,
		KindPreconditionFailed: http.StatusPreconditionFailed,
		KindInvalidArgument:    http.StatusBadRequest,
		KindUnauthorized:       http.StatusUnauthorized,
		KindUnavailable:        http.StatusServiceUnavailable,
		KindInternal:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := StatusFor(kind); got != want {
			t.Fatalf("StatusFor(%s): want=%d got=%d", kind, want, got)
		}
	}
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	base := NotFound("thread not found")
	wrapped := fmt.Errorf("get thread: %w", base)
	if got := KindOf(wrapped); got != KindNotFound {
		t.Fatalf("KindOf: want=%s got=%s", KindNotFound, got)
	}
	if !Is(wrapped, KindNotFound) {
		t.Fatalf("Is: expected wrapped error to be not_found")
	}
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("KindOf plain: want=%s got=%s", KindInternal, got)
	}
}

func TestPublicMessageHidesCauses(t *testing.T) {
	e := Unavailable(errors.New("dial tcp 127.0.0.1:11434: connection refused"))
	if got := e.PublicMessage(); got != UnavailableMessage {
		t.Fatalf("PublicMessage: want=%q got=%q", UnavailableMessage, got)
	}
	internal := Internal(errors.New("pq: relation does not exist"))
	if got := internal.PublicMessage(); got != "internal error" {
		t.Fatalf("PublicMessage internal: got=%q", got)
	}
	if got := From(errors.New("x")).Kind; got != KindInternal {
		t.Fatalf("From: want=%s got=%s", KindInternal, got)
	}
}
