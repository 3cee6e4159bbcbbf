package logger

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(salt string) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	zl := zap.New(&redactingCore{Core: core, salt: salt})
	return &Logger{SugaredLogger: zl.Sugar()}, logs
}

func TestRedactingCoreScrubsFields(t *testing.T) {
	log, logs := observed("pepper")
	uid := uuid.MustParse("8d1f4c36-1f55-4c1e-9d43-5a3c8a7f0e11")
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"

	log.With("user_id", uid).Info("Message sent",
		"content", "I have been feeling lost",
		"auth_token", "abc",
		"raw", jwt,
		"thread_id", "t-1",
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries: want=1 got=%d", len(entries))
	}
	ctx := entries[0].ContextMap()
	for _, key := range []string{"content", "auth_token", "raw"} {
		if ctx[key] != redacted {
			t.Fatalf("%s: want=%q got=%v", key, redacted, ctx[key])
		}
	}
	if ctx["thread_id"] != "t-1" {
		t.Fatalf("thread_id: want=t-1 got=%v", ctx["thread_id"])
	}
	hashed, _ := ctx["user_id"].(string)
	if !strings.HasPrefix(hashed, "hash:") || strings.Contains(hashed, uid.String()) {
		t.Fatalf("user_id: want hashed got=%v", ctx["user_id"])
	}
}

func TestRedactionHashIsSalted(t *testing.T) {
	a := (&redactingCore{salt: "a"}).hash("u1")
	b := (&redactingCore{salt: "b"}).hash("u1")
	if a == b {
		t.Fatalf("hash should depend on salt: %s", a)
	}
	if again := (&redactingCore{salt: "a"}).hash("u1"); again != a {
		t.Fatalf("hash should be stable: want=%s got=%s", a, again)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("development", WithLevel("loud")); err == nil {
		t.Fatalf("New: want error for unknown level")
	}
	l, err := New("production", WithLevel("warn"), WithRedaction(false, ""))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Desugar().Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}
}
