// Package api defines the wire-level types shared by the task gateway:
// generated artifacts, run results, persisted records and the structured
// error model returned to clients.
package api

import (
	"fmt"
	"time"
)

// ApplicationType identifies the execution backend a generated artifact
// targets. The set is closed: adding a backend means adding a constant here
// and a runner in pkg/executor.
type ApplicationType string

const (
	// ApplicationTypeScript runs the artifact through a Python interpreter.
	ApplicationTypeScript ApplicationType = "script"
	// ApplicationTypeShell runs the artifact through a POSIX shell.
	ApplicationTypeShell ApplicationType = "shell"
)

// Valid reports whether t is one of the known application types.
func (t ApplicationType) Valid() bool {
	return t == ApplicationTypeScript || t == ApplicationTypeShell
}

// ParseApplicationType normalizes a wire value into an ApplicationType.
// The model-facing prompt contract names the interpreters directly, so
// "python" and "bash" are accepted as aliases.
func ParseApplicationType(s string) (ApplicationType, error) {
	switch s {
	case "script", "python":
		return ApplicationTypeScript, nil
	case "shell", "bash":
		return ApplicationTypeShell, nil
	default:
		return "", fmt.Errorf("unknown application type %q", s)
	}
}

// Artifact is one generated program: the backend it targets and its code.
type Artifact struct {
	ApplicationType ApplicationType `json:"application_type"`
	Code            string          `json:"code"`
}

// RunResult is the caller-visible outcome of a completed task run.
// Error carries stderr even when the run succeeded; diagnostics on stderr
// with a zero exit status are reported, not fatal.
type RunResult struct {
	Status string `json:"status"`
	Output string `json:"output"`
	Error  string `json:"error"`
}

// RunRecord is the persisted snapshot of the most recent successful run.
// Task holds the prompt text the succeeding attempt was generated from,
// which includes the corrective framing when the run needed a retry.
type RunRecord struct {
	Task            string          `json:"task"`
	ApplicationType ApplicationType `json:"application_type"`
	Code            string          `json:"code"`
	Output          RunResult       `json:"output"`
}

// ErrorCategory classifies an entry in the append-only error record.
type ErrorCategory string

const (
	// ErrorCategorySubprocess marks execution failures after retries ran out.
	ErrorCategorySubprocess ErrorCategory = "subprocess"
	// ErrorCategoryJSONDecode marks unparseable model replies.
	ErrorCategoryJSONDecode ErrorCategory = "json-decode"
	// ErrorCategoryRead marks failed sandbox file reads.
	ErrorCategoryRead ErrorCategory = "read"
	// ErrorCategoryGeneral covers everything else.
	ErrorCategoryGeneral ErrorCategory = "general"
)

// ErrorRecord is one appended failure entry.
type ErrorRecord struct {
	Time     time.Time     `json:"time"`
	Category ErrorCategory `json:"category"`
	Detail   string        `json:"detail"`
}
