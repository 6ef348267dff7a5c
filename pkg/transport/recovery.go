package transport

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

// Recovery converts panics in the pipeline into server errors so one bad
// task cannot take the process down.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next TaskRunner) TaskRunner {
		return TaskRunnerFunc(func(ctx context.Context, task string) (result *api.RunResult, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "panic in task pipeline",
						"request_id", RequestIDFromContext(ctx),
						"panic", r,
						"stack", string(debug.Stack()))
					result = nil
					err = api.NewServerError("internal error")
				}
			}()
			return next.RunTask(ctx, task)
		})
	}
}
