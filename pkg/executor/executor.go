// Package executor runs generated artifacts as local subprocesses. A
// Dispatcher routes each artifact to the runner registered for its
// application type; runners capture stdout and stderr separately and report
// the exit status.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

// ErrShellUnavailable is returned when the shell backend cannot locate its
// shell executable.
var ErrShellUnavailable = errors.New("shell executable not available")

// Result captures one finished subprocess.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ExecutionError reports a subprocess that ran but exited non-zero. It is
// the only retryable failure in the pipeline.
type ExecutionError struct {
	ExitCode int
	Stderr   string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed with exit status %d: %s", e.ExitCode, e.Stderr)
}

// Runner executes one piece of code for a fixed backend.
type Runner interface {
	// Backend is the application type this runner serves.
	Backend() api.ApplicationType
	// Run executes code to completion. It returns an error only when the
	// process could not be started or was cut off; a non-zero exit is a
	// normal Result.
	Run(ctx context.Context, code string) (*Result, error)
}

// Dispatcher routes artifacts to runners by application type.
type Dispatcher struct {
	runners map[api.ApplicationType]Runner
}

// NewDispatcher registers the given runners. Later runners for the same
// backend replace earlier ones.
func NewDispatcher(runners ...Runner) *Dispatcher {
	d := &Dispatcher{runners: make(map[api.ApplicationType]Runner, len(runners))}
	for _, r := range runners {
		d.runners[r.Backend()] = r
	}
	return d
}

// Dispatch runs the artifact and converts a non-zero exit into an
// *ExecutionError. The Result is returned alongside the error so callers
// keep access to the captured output.
func (d *Dispatcher) Dispatch(ctx context.Context, artifact *api.Artifact) (*Result, error) {
	runner, ok := d.runners[artifact.ApplicationType]
	if !ok {
		return nil, fmt.Errorf("no runner registered for application type %q", artifact.ApplicationType)
	}
	result, err := runner.Run(ctx, artifact.Code)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return result, &ExecutionError{ExitCode: result.ExitCode, Stderr: result.Stderr}
	}
	return result, nil
}
