package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// HTTPLogger writes an access log line per request.
// Output goes to HTTP_LOG_PATH when set and is discarded otherwise.
type HTTPLogger struct {
	log *slog.Logger
}

// NewHTTPLogger creates the access logger.
func NewHTTPLogger() *HTTPLogger {
	var w io.Writer = io.Discard
	if path := os.Getenv("HTTP_LOG_PATH"); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				w = f
			}
		}
	}
	return NewHTTPLoggerWithWriter(w)
}

// NewHTTPLoggerWithWriter creates an access logger writing JSON lines to w.
func NewHTTPLoggerWithWriter(w io.Writer) *HTTPLogger {
	return &HTTPLogger{log: slog.New(slog.NewJSONHandler(w, nil))}
}

// LogRequest records a finished request.
func (l *HTTPLogger) LogRequest(ip, method, uri string, status int, latency time.Duration, userAgent, requestID string) {
	l.log.Info("http",
		slog.String("ip", ip),
		slog.String("method", method),
		slog.String("uri", uri),
		slog.Int("status", status),
		slog.Duration("latency", latency),
		slog.String("user_agent", userAgent),
		slog.String("request_id", requestID),
	)
}
