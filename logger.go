package chainmap

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with chainmap-specific helpers.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithTable adds a table field to the logger.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", name),
	}
}

// LogOpen logs opening a database directory.
func (l *Logger) LogOpen(ctx context.Context, dir string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"dir", dir,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "database opened",
			"dir", dir,
			"rows", rows,
		)
	}
}

// LogRemap logs a mapping resize.
func (l *Logger) LogRemap(ctx context.Context, from, to int, err error) {
	if err != nil {
		l.WarnContext(ctx, "remap failed",
			"from", from,
			"to", to,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "remap completed",
			"from", from,
			"to", to,
		)
	}
}

// LogUnlink logs dropping rows above a height.
func (l *Logger) LogUnlink(ctx context.Context, fromHeight uint32, dropped int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "unlink failed",
			"from_height", fromHeight,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "rows unlinked",
			"from_height", fromHeight,
			"dropped", dropped,
		)
	}
}

// LogClose logs closing the database.
func (l *Logger) LogClose(ctx context.Context, dir string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"dir", dir,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "database closed",
			"dir", dir,
		)
	}
}

// LogBackup logs writing a table snapshot.
func (l *Logger) LogBackup(ctx context.Context, name string, size, stored int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "backup failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "backup written",
			"name", name,
			"size", size,
			"stored", stored,
		)
	}
}

// LogRestore logs restoring a table from a snapshot.
func (l *Logger) LogRestore(ctx context.Context, dir, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"dir", dir,
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "database restored",
			"dir", dir,
			"name", name,
		)
	}
}
