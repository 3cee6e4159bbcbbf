package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

type settings struct {
	level    string
	redact   bool
	hashSalt string
}

type Option func(*settings)

// WithLevel overrides the mode's default level ("debug", "info", ...).
func WithLevel(level string) Option {
	return func(s *settings) { s.level = strings.ToLower(strings.TrimSpace(level)) }
}

// WithRedaction toggles field scrubbing. salt keys the hashed identifiers.
func WithRedaction(enabled bool, salt string) Option {
	return func(s *settings) {
		s.redact = enabled
		s.hashSalt = strings.TrimSpace(salt)
	}
}

// New builds a zap-backed logger: JSON for "production"/"prod", console otherwise.
// Redaction is on unless an option turns it off.
func New(mode string, opts ...Option) (*Logger, error) {
	s := settings{redact: true}
	for _, o := range opts {
		o(&s)
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if s.level != "" {
		lvl, err := zapcore.ParseLevel(s.level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	var buildOpts []zap.Option
	if s.redact {
		salt := s.hashSalt
		buildOpts = append(buildOpts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return &redactingCore{Core: c, salt: salt}
		}))
	}
	zl, err := cfg.Build(buildOpts...)
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zl.Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Desugar exposes the structured zap logger for adapters such as the gorm writer.
func (l *Logger) Desugar() *zap.Logger {
	if l == nil || l.SugaredLogger == nil {
		return zap.NewNop()
	}
	return l.SugaredLogger.Desugar()
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
}
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, keysAndValues...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(keysAndValues...)}
}
