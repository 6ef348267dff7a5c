package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

// DefaultInterpreter runs script artifacts.
const DefaultInterpreter = "python3"

// ScriptRunner executes script artifacts via an interpreter's -c flag.
type ScriptRunner struct {
	interpreter string
	workDir     string
	timeout     time.Duration
}

// NewScriptRunner creates a runner invoking interpreter -c <code> in
// workDir. A timeout of zero disables the deadline.
func NewScriptRunner(interpreter, workDir string, timeout time.Duration) *ScriptRunner {
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	return &ScriptRunner{interpreter: interpreter, workDir: workDir, timeout: timeout}
}

// Backend implements Runner.
func (r *ScriptRunner) Backend() api.ApplicationType {
	return api.ApplicationTypeScript
}

// Run implements Runner.
func (r *ScriptRunner) Run(ctx context.Context, code string) (*Result, error) {
	return runCommand(ctx, r.timeout, r.workDir, r.interpreter, "-c", code)
}

// runCommand executes a single subprocess with separated output streams.
func runCommand(ctx context.Context, timeout time.Duration, workDir, name string, args ...string) (*Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = workDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("execution timed out: %w", ctx.Err())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("starting %s: %w", name, err)
		}
		return &Result{
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}, nil
	}
	return &Result{ExitCode: 0, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}
