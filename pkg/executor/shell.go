package executor

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

// DefaultShell runs shell artifacts.
const DefaultShell = "bash"

// ShellRunner executes shell artifacts via <shell> -c <code>. The shell is
// looked up on every run so the runner notices when it disappears from the
// environment.
type ShellRunner struct {
	shell   string
	workDir string
	timeout time.Duration
}

// NewShellRunner creates a runner invoking shell -c <code> in workDir.
// A timeout of zero disables the deadline.
func NewShellRunner(shell, workDir string, timeout time.Duration) *ShellRunner {
	if shell == "" {
		shell = DefaultShell
	}
	return &ShellRunner{shell: shell, workDir: workDir, timeout: timeout}
}

// Backend implements Runner.
func (r *ShellRunner) Backend() api.ApplicationType {
	return api.ApplicationTypeShell
}

// Run implements Runner.
func (r *ShellRunner) Run(ctx context.Context, code string) (*Result, error) {
	path, err := exec.LookPath(r.shell)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrShellUnavailable, r.shell)
	}
	return runCommand(ctx, r.timeout, r.workDir, path, "-c", code)
}
