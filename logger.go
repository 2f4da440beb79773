package persist

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/persist/identity"
	"github.com/hupe1980/persist/pool"
)

// Logger wraps slog.Logger with persist-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithType adds the object type name to the logger.
func (l *Logger) WithType(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("type", name),
	}
}

// LogAcquire logs a pool acquisition.
func (l *Logger) LogAcquire(ctx context.Context, id identity.ID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "acquire failed",
			"id", int64(id),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "acquire completed",
			"id", int64(id),
		)
	}
}

// LogRelease logs a slot returned to the pool.
func (l *Logger) LogRelease(ctx context.Context, id identity.ID, err error) {
	if err != nil {
		l.WarnContext(ctx, "release failed",
			"id", int64(id),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "release completed",
			"id", int64(id),
		)
	}
}

// LogRefill logs pool growth.
func (l *Logger) LogRefill(ctx context.Context, ev pool.RefillEvent) {
	l.InfoContext(ctx, "pool refilled",
		"added", ev.Added,
		"pool_size", ev.PoolSize,
		"available", ev.Available,
		"refills", ev.Refills,
	)
}

// LogSave logs a save of count objects.
func (l *Logger) LogSave(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "save completed",
			"count", count,
		)
	}
}

// LogLoad logs a load of count objects.
func (l *Logger) LogLoad(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load completed",
			"count", count,
		)
	}
}

// LogCheckpoint logs a generator checkpoint.
func (l *Logger) LogCheckpoint(ctx context.Context, name string, current identity.ID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "checkpoint failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "checkpoint committed",
			"name", name,
			"current", int64(current),
		)
	}
}

// LogRecovery logs a generator recovery.
func (l *Logger) LogRecovery(ctx context.Context, name string, current identity.ID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recovery failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "recovery completed",
			"name", name,
			"current", int64(current),
		)
	}
}
