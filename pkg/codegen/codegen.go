// Package codegen defines the code-generation contract: a Generator turns a
// natural-language task into a runnable Artifact. Providers live in
// subpackages; parsing of the model's structured reply is shared here.
package codegen

import (
	"context"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

// Request carries one generation attempt. Task is the full prompt text for
// this attempt; on retries it already contains the corrective framing.
// Attempt is zero-based and informational.
type Request struct {
	Task    string
	Attempt int
}

// Generator produces an executable artifact for a task. Implementations do
// not retry; the retry policy belongs to the engine.
type Generator interface {
	// Name identifies the generator for logging and metrics.
	Name() string
	// Generate performs a single generation call.
	Generate(ctx context.Context, req Request) (*api.Artifact, error)
	// Close releases underlying resources.
	Close() error
}
