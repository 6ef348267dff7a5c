package transport

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// NewRequestID generates a random request identifier.
func NewRequestID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "req_unknown"
	}
	return "req_" + hex.EncodeToString(b)
}

// WithRequestID stores a request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestID assigns a request ID when the context carries none.
func RequestID() Middleware {
	return func(next TaskRunner) TaskRunner {
		return TaskRunnerFunc(func(ctx context.Context, task string) (*api.RunResult, error) {
			if RequestIDFromContext(ctx) == "" {
				ctx = WithRequestID(ctx, NewRequestID())
			}
			return next.RunTask(ctx, task)
		})
	}
}
