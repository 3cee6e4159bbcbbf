package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Message bodies, journal text and credentials never reach the sink in clear.
var redactedKeyParts = []string{
	"token", "authorization", "password", "secret", "cookie",
	"api_key", "apikey", "email", "content", "entry", "reflection", "bio",
}

// User ids are hashed so log lines for one user still correlate.
var hashedKeyParts = []string{"user_id", "peer_user_id", "from_user_id", "to_user_id"}

const redacted = "[REDACTED]"

// redactingCore rewrites fields on their way to the wrapped core, both for
// per-entry fields and for fields bound with With.
type redactingCore struct {
	zapcore.Core
	salt string
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(c.scrub(fields)), salt: c.salt}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, c.scrub(fields))
}

func (c *redactingCore) scrub(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = c.scrubField(f)
	}
	return out
}

func (c *redactingCore) scrubField(f zapcore.Field) zapcore.Field {
	key := strings.ToLower(f.Key)
	switch {
	case containsAny(key, redactedKeyParts):
		return zap.String(f.Key, redacted)
	case containsAny(key, hashedKeyParts):
		return zap.String(f.Key, c.hash(fieldText(f)))
	case f.Type == zapcore.StringType && looksLikeJWT(f.String):
		return zap.String(f.Key, redacted)
	}
	return f
}

func (c *redactingCore) hash(raw string) string {
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(c.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func fieldText(f zapcore.Field) string {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.StringerType, zapcore.ReflectType:
		if f.Interface != nil {
			return fmt.Sprint(f.Interface)
		}
	}
	return ""
}

func containsAny(key string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}
