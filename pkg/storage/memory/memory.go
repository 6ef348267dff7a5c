// Package memory implements storage.RunStore in process memory. Intended
// for tests and throwaway deployments; records do not survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
	"github.com/taskpilot-dev/taskpilot/pkg/storage"
)

// DefaultMaxErrors bounds the retained error records.
const DefaultMaxErrors = 1000

// Store is a mutex-guarded in-memory store.
type Store struct {
	mu        sync.RWMutex
	last      *api.RunRecord
	errs      []api.ErrorRecord
	maxErrors int
}

// New creates a store keeping at most maxErrors error records; older
// entries are discarded first. Non-positive means DefaultMaxErrors.
func New(maxErrors int) *Store {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &Store{maxErrors: maxErrors}
}

// SaveRunRecord implements storage.RunStore.
func (s *Store) SaveRunRecord(ctx context.Context, rec *api.RunRecord) error {
	cp := *rec
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &cp
	return nil
}

// LastRunRecord implements storage.RunStore.
func (s *Store) LastRunRecord(ctx context.Context) (*api.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, storage.ErrNoRuns
	}
	cp := *s.last
	return &cp, nil
}

// AppendErrorRecord implements storage.RunStore.
func (s *Store) AppendErrorRecord(ctx context.Context, rec api.ErrorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, rec)
	if len(s.errs) > s.maxErrors {
		s.errs = s.errs[len(s.errs)-s.maxErrors:]
	}
	return nil
}

// ListErrorRecords implements storage.RunStore.
func (s *Store) ListErrorRecords(ctx context.Context, limit int) ([]api.ErrorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.errs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]api.ErrorRecord, 0, n)
	for i := len(s.errs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.errs[i])
	}
	return out, nil
}

// HealthCheck implements storage.RunStore.
func (s *Store) HealthCheck(ctx context.Context) error {
	return nil
}

// Close implements storage.RunStore.
func (s *Store) Close() error {
	return nil
}

var _ storage.RunStore = (*Store)(nil)
