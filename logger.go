package chest

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with chest-specific context.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPath adds the store directory field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// LogEvict logs a single entry moving to disk.
func (l *Logger) LogEvict(key any, err error) {
	if err != nil {
		l.Warn("eviction skipped, value not serializable",
			"key", key,
			"error", err,
		)
	} else {
		l.Debug("entry moved to disk",
			"key", key,
		)
	}
}

// LogShrink logs the outcome of a shrink pass.
func (l *Logger) LogShrink(moved int, usage, budget int64) {
	if usage > budget {
		l.Warn("shrink finished over budget",
			"moved", moved,
			"usage", usage,
			"budget", budget,
		)
	} else {
		l.Debug("shrink completed",
			"moved", moved,
			"usage", usage,
			"budget", budget,
		)
	}
}

// LogFlush logs a flush checkpoint.
func (l *Logger) LogFlush(persisted, skipped int, err error) {
	if err != nil {
		l.Error("flush failed",
			"persisted", persisted,
			"skipped", skipped,
			"error", err,
		)
	} else {
		l.Debug("flush completed",
			"persisted", persisted,
			"skipped", skipped,
		)
	}
}

// LogDrop logs removal of the backing directory.
func (l *Logger) LogDrop(path string, err error) {
	if err != nil {
		l.Error("drop failed",
			"path", path,
			"error", err,
		)
	} else {
		l.Debug("directory dropped",
			"path", path,
		)
	}
}
