// Package storage defines persistence for run and error records. The run
// record holds the most recent successful run only and is overwritten on
// each success; error records are append-only.
package storage

import (
	"context"
	"errors"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

// ErrNoRuns indicates that no successful run has been recorded yet.
var ErrNoRuns = errors.New("no successful run recorded")

// RunStore persists run outcomes. Implementations serialize writes;
// concurrent requests may save and append at the same time.
type RunStore interface {
	// SaveRunRecord overwrites the last-run record.
	SaveRunRecord(ctx context.Context, rec *api.RunRecord) error

	// LastRunRecord returns the most recent record or ErrNoRuns.
	LastRunRecord(ctx context.Context) (*api.RunRecord, error)

	// AppendErrorRecord adds one entry to the error record.
	AppendErrorRecord(ctx context.Context, rec api.ErrorRecord) error

	// ListErrorRecords returns up to limit entries, most recent first.
	// A non-positive limit returns all entries.
	ListErrorRecords(ctx context.Context, limit int) ([]api.ErrorRecord, error)

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
