package vidya

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with tutor-specific context.
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

// WithBundle adds the bundle directory field to the logger.
func (l *Logger) WithBundle(dir string) *Logger {
	return &Logger{
		Logger: l.Logger.With("bundle", dir),
	}
}

// WithMode adds the answer mode field to the logger.
func (l *Logger) WithMode(mode string) *Logger {
	return &Logger{
		Logger: l.Logger.With("mode", mode),
	}
}

// LogRetrieve logs one retrieval operation.
func (l *Logger) LogRetrieve(ctx context.Context, k int, status string, topScore float32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "retrieval failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "retrieval completed",
			"k", k,
			"status", status,
			"top_score", topScore,
		)
	}
}

// LogAsk logs one full question/answer cycle.
func (l *Logger) LogAsk(ctx context.Context, accepted bool, sources int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ask failed", "error", err)
	} else if accepted {
		l.InfoContext(ctx, "answer accepted", "sources", sources)
	} else {
		l.InfoContext(ctx, "answer refused")
	}
}
