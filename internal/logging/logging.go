// Package logging provides structured logging using Go's slog package.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// RequestIDKey is the context key for request IDs.
const RequestIDKey ContextKey = "request_id"

var (
	mu            sync.RWMutex
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// Format represents a log output format.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat maps "json" to FormatJSON and anything else to FormatText.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// ParseLevel maps debug/info/warn/error to a slog level. Unknown values are
// info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to w.
func New(level slog.Level, format Format, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}
	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Init builds a logger, installs it as the package and slog default, and
// returns it.
func Init(level slog.Level, format Format, w io.Writer) *slog.Logger {
	l := New(level, format, w)
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	slog.SetDefault(l)
	return l
}

// FileWriter returns a size-rotated log file writer. The TUI logs here since
// stdout belongs to the terminal UI.
func FileWriter(path string, maxSizeMB int) io.WriteCloser {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns the package logger with context values attached.
func FromContext(ctx context.Context) *slog.Logger {
	l := Logger()
	if id := RequestID(ctx); id != "" {
		l = l.With("request_id", id)
	}
	return l
}

func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }
func Info(msg string, args ...any)  { Logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { Logger().Warn(msg, args...) }
func Error(msg string, args ...any) { Logger().Error(msg, args...) }

// HTTPRequest logs a served request with common fields.
func HTTPRequest(ctx context.Context, method, path, remoteAddr string, status int, duration time.Duration, args ...any) {
	all := []any{
		"method", method,
		"path", path,
		"remote_addr", remoteAddr,
		"status_code", status,
		"duration_ms", duration.Milliseconds(),
	}
	all = append(all, args...)
	l := FromContext(ctx)
	switch {
	case status >= 500:
		l.Error("http_request", all...)
	case status >= 400:
		l.Warn("http_request", all...)
	default:
		l.Info("http_request", all...)
	}
}
