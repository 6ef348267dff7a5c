package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

// Logging logs every task run with its duration and outcome.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next TaskRunner) TaskRunner {
		return TaskRunnerFunc(func(ctx context.Context, task string) (*api.RunResult, error) {
			start := time.Now()
			logger.InfoContext(ctx, "task started",
				"request_id", RequestIDFromContext(ctx),
				"task_bytes", len(task))

			result, err := next.RunTask(ctx, task)

			attrs := []any{
				"request_id", RequestIDFromContext(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				logger.WarnContext(ctx, "task failed", append(attrs, "error", err)...)
			} else {
				logger.InfoContext(ctx, "task completed", append(attrs, "status", result.Status)...)
			}
			return result, err
		})
	}
}
