package diagnostics

import (
	"context"
	"log/slog"
)

// Logger is the logging surface components receive at construction.
// Arguments follow slog's alternating key/value convention.
type Logger interface {
	Status(msg string, args ...any)
	Warning(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// SlogLogger forwards to a slog.Logger and mirrors warnings and errors to
// optional append-only files.
type SlogLogger struct {
	log      *slog.Logger
	warnings *slog.Logger
	errors   *slog.Logger
}

// Option configures a SlogLogger.
type Option func(*SlogLogger)

// WithWarningsSink mirrors warnings into sink.
func WithWarningsSink(sink *AppendFile) Option {
	return func(l *SlogLogger) {
		if sink != nil {
			l.warnings = slog.New(slog.NewTextHandler(sink, nil))
		}
	}
}

// WithErrorsSink mirrors errors into sink.
func WithErrorsSink(sink *AppendFile) Option {
	return func(l *SlogLogger) {
		if sink != nil {
			l.errors = slog.New(slog.NewTextHandler(sink, nil))
		}
	}
}

// New wraps log, or slog.Default when log is nil.
func New(log *slog.Logger, opts ...Option) *SlogLogger {
	if log == nil {
		log = slog.Default()
	}
	l := &SlogLogger{log: log}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *SlogLogger) Status(msg string, args ...any) { l.log.Info(msg, args...) }
func (l *SlogLogger) Debug(msg string, args ...any)  { l.log.Debug(msg, args...) }

func (l *SlogLogger) Warning(msg string, args ...any) {
	l.log.Warn(msg, args...)
	if l.warnings != nil {
		l.warnings.Log(context.Background(), slog.LevelWarn, msg, args...)
	}
}

func (l *SlogLogger) Error(msg string, args ...any) {
	l.log.Error(msg, args...)
	if l.errors != nil {
		l.errors.Log(context.Background(), slog.LevelError, msg, args...)
	}
}

// Discard is a Logger that drops everything.
type Discard struct{}

func (Discard) Status(string, ...any)  {}
func (Discard) Warning(string, ...any) {}
func (Discard) Error(string, ...any)   {}
func (Discard) Debug(string, ...any)   {}
