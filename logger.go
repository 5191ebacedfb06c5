package algokit

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with algokit-specific context.
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
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithOperation tags every record with the operation name.
func (l *Logger) WithOperation(op string) *Logger {
	return &Logger{
		Logger: l.Logger.With("op", op),
	}
}

// LogPathSearch logs a grid path search.
func (l *Logger) LogPathSearch(ctx context.Context, algorithm string, explored int, found bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "path search failed",
			"algorithm", algorithm,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "path search completed",
		"algorithm", algorithm,
		"explored", explored,
		"found", found,
	)
}

// LogCycleCheck logs a cycle detection query.
func (l *Logger) LogCycleCheck(ctx context.Context, nodes, edges int, hasCycle bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cycle check failed",
			"nodes", nodes,
			"edges", edges,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "cycle check completed",
		"nodes", nodes,
		"edges", edges,
		"has_cycle", hasCycle,
	)
}

// LogSample logs a reservoir sampling run.
func (l *Logger) LogSample(ctx context.Context, n, k int, seeded bool) {
	l.DebugContext(ctx, "reservoir sample completed",
		"n", n,
		"k", k,
		"seeded", seeded,
	)
}

// LogSketch logs a count-min sketch estimation.
func (l *Logger) LogSketch(ctx context.Context, depth, width, adds, queries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sketch estimation failed",
			"depth", depth,
			"width", width,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "sketch estimation completed",
		"depth", depth,
		"width", width,
		"adds", adds,
		"queries", queries,
	)
}

// LogBloom logs a membership filter operation (add, check or reset).
func (l *Logger) LogBloom(ctx context.Context, action string, items int, m, k uint, err error) {
	if err != nil {
		l.ErrorContext(ctx, "bloom "+action+" failed",
			"items", items,
			"m", m,
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "bloom "+action+" completed",
		"items", items,
		"m", m,
		"k", k,
	)
}

// LogDigest logs a digest computation.
func (l *Logger) LogDigest(ctx context.Context, source string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "digest failed",
			"source", source,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "digest completed",
		"source", source,
		"bytes", bytes,
	)
}
