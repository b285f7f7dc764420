// Package logger provides structured logging for TableSync.
//
// It wraps log/slog with a process-wide adjustable level and context
// helpers that stamp entries with the request and session IDs carried by
// the HTTP layer. Handlers log through L(ctx) so every entry for a request
// shares the same identifiers.
//
// @design DS-0502
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging interface the rest of the codebase depends on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Config holds logger construction options.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn, or error.
	// Unknown values fall back to info.
	Level string
	// Format selects the encoding: json (default) or text.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource stamps entries with the calling file and line.
	AddSource bool
}

// levelNames maps accepted level strings to slog levels.
var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// levelVar backs every logger created by New, so SetLevel takes effect
// process-wide.
var levelVar = new(slog.LevelVar)

func parseLevel(name string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(name)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// SetLevel adjusts the level of every logger at runtime.
func SetLevel(name string) {
	levelVar.Set(parseLevel(name))
}

// GetLevel reports the current level name.
func GetLevel() string {
	switch lvl := levelVar.Level(); {
	case lvl <= slog.LevelDebug:
		return "debug"
	case lvl <= slog.LevelInfo:
		return "info"
	case lvl <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// slogger adapts *slog.Logger to the Logger interface, carrying the
// context its entries are emitted under.
type slogger struct {
	sl  *slog.Logger
	ctx context.Context
}

// New creates a logger and applies cfg.Level to the process-wide level.
func New(cfg Config) (Logger, error) {
	levelVar.Set(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: cfg.AddSource,
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		h = slog.NewTextHandler(out, opts)
	default:
		h = slog.NewJSONHandler(out, opts)
	}

	return &slogger{sl: slog.New(h), ctx: context.Background()}, nil
}

func (l *slogger) Debug(msg string, args ...any) { l.sl.DebugContext(l.ctx, msg, args...) }
func (l *slogger) Info(msg string, args ...any)  { l.sl.InfoContext(l.ctx, msg, args...) }
func (l *slogger) Warn(msg string, args ...any)  { l.sl.WarnContext(l.ctx, msg, args...) }
func (l *slogger) Error(msg string, args ...any) { l.sl.ErrorContext(l.ctx, msg, args...) }

func (l *slogger) With(args ...any) Logger {
	return &slogger{sl: l.sl.With(args...), ctx: l.ctx}
}

func (l *slogger) WithContext(ctx context.Context) Logger {
	return &slogger{sl: l.sl, ctx: ctx}
}

// defaultLogger serves the package-level functions and FromContext when a
// request carries no logger of its own.
var defaultLogger atomic.Pointer[slogger]

func init() {
	l, _ := New(Config{})
	defaultLogger.Store(l.(*slogger))
}

// SetDefault replaces the process-wide default logger.
func SetDefault(l Logger) {
	if sl, ok := l.(*slogger); ok {
		defaultLogger.Store(sl)
	}
}

// Default returns the process-wide default logger.
func Default() Logger {
	return defaultLogger.Load()
}

// Debug logs through the default logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }

// Info logs through the default logger.
func Info(msg string, args ...any) { Default().Info(msg, args...) }

// Warn logs through the default logger.
func Warn(msg string, args ...any) { Default().Warn(msg, args...) }

// Error logs through the default logger.
func Error(msg string, args ...any) { Default().Error(msg, args...) }
