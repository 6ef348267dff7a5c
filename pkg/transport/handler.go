// Package transport defines the protocol-independent handler contracts for
// the gateway and the middleware that wraps them. Concrete protocol
// adapters (HTTP, MCP) live in subpackages.
package transport

import (
	"context"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

// TaskRunner is the core operation: run a natural-language task through the
// generate-execute-retry pipeline.
type TaskRunner interface {
	RunTask(ctx context.Context, task string) (*api.RunResult, error)
}

// TaskRunnerFunc adapts a function to TaskRunner.
type TaskRunnerFunc func(ctx context.Context, task string) (*api.RunResult, error)

func (f TaskRunnerFunc) RunTask(ctx context.Context, task string) (*api.RunResult, error) {
	return f(ctx, task)
}

// FileReader serves sandboxed read-only file access.
type FileReader interface {
	Read(ctx context.Context, path string) (string, error)
}

// RunRecorder is the transport-facing view of the run record store.
type RunRecorder interface {
	LastRunRecord(ctx context.Context) (*api.RunRecord, error)
}
