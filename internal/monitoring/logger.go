package monitoring

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// Logger provides enhanced structured logging with context
type Logger struct {
	*slog.Logger
	out io.Writer
}

// NewLogger creates a JSON logger at info level writing to stdout
func NewLogger() *Logger {
	return NewLoggerWithLevel(os.Stdout, slog.LevelInfo)
}

// NewLoggerWithLevel creates a JSON logger writing to out at the given level
func NewLoggerWithLevel(out io.Writer, level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(newHandler(out, level)),
		out:    out,
	}
}

func newHandler(out io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(requestID, method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScoreLogger logs a completed scoring pipeline. A nil score means the
// pipeline degraded to null.
func (l *Logger) ScoreLogger(pipeline string, score *float64, duration time.Duration, attrs ...any) {
	args := []any{
		"pipeline", pipeline,
		"scored", score != nil,
		"duration_ms", duration.Milliseconds(),
	}
	if score != nil {
		args = append(args, "score", *score)
	}
	args = append(args, attrs...)
	l.Info("Scoring Completed", args...)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	_, file, line, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		caller = fmt.Sprintf("%s:%d", file, line)
	}

	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"caller", caller,
	)
}

// CollaboratorLogger logs calls to upstream collaborators
func (l *Logger) CollaboratorLogger(name, method, endpoint string, statusCode int, duration time.Duration, success bool) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}

	l.Log(context.Background(), level, "Collaborator Call",
		"collaborator", name,
		"method", method,
		"endpoint", endpoint,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// SecurityLogger logs security-related events
func (l *Logger) SecurityLogger(event, ip, userAgent string, details map[string]interface{}) {
	attrs := []any{
		"event", event,
		"ip", ip,
		"user_agent", userAgent,
	}
	for key, value := range details {
		attrs = append(attrs, key, value)
	}

	l.Warn("Security Event", attrs...)
}

// PerformanceLogger logs performance metrics
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Info("Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
	)
}

// SetLevel swaps the handler for one at the given level
func (l *Logger) SetLevel(level slog.Level) {
	out := l.out
	if out == nil {
		out = os.Stdout
	}
	l.Logger = slog.New(newHandler(out, level))
}

var startTime = time.Now()
