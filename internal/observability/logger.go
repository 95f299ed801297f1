// Package observability holds the process-wide structured logger and the
// request-id plumbing that ties the log lines of one advisory turn
// together.
package observability

import (
	"context"
	"log/slog"
	"os"
)

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

// logger is the process-wide JSON logger. Every line carries the service
// attribute so the advisory core's output can be told apart from the
// host application's in a shared log sink.
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "sakhi-agent")

// Logger returns the base logger, for code running outside any request
// (startup, shutdown, background pumps).
func Logger() *slog.Logger {
	return logger
}

// WithRequestID stores a request id in the context. LoggerFromContext
// picks it up on every log line of that turn.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// LoggerFromContext returns the base logger, tagged with the request id
// when one was stored.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if reqID, ok := ctx.Value(ctxKeyRequestID).(string); ok && reqID != "" {
		return logger.With("request_id", reqID)
	}
	return logger
}
