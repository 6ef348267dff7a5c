// Package file implements storage.RunStore on the local filesystem: a JSON
// last-result file overwritten on each success and a plain-text error log
// with one appended line per failure. Files live in a logs directory so the
// records are inspectable through the gateway's own read endpoint.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
	"github.com/taskpilot-dev/taskpilot/pkg/storage"
)

const (
	lastResultFile = "last_result.json"
	errorLogFile   = "error.log"
)

// Store is a mutex-guarded single-writer file store.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates the logs directory if needed and returns a store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SaveRunRecord implements storage.RunStore.
func (s *Store) SaveRunRecord(ctx context.Context, rec *api.RunRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(filepath.Join(s.dir, lastResultFile), data, 0o644); err != nil {
		return fmt.Errorf("writing run record: %w", err)
	}
	return nil
}

// LastRunRecord implements storage.RunStore.
func (s *Store) LastRunRecord(ctx context.Context) (*api.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(filepath.Join(s.dir, lastResultFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNoRuns
		}
		return nil, fmt.Errorf("reading run record: %w", err)
	}
	var rec api.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding run record: %w", err)
	}
	return &rec, nil
}

// AppendErrorRecord implements storage.RunStore. Entries are single lines;
// newlines in the detail are flattened so the log stays line-oriented.
func (s *Store) AppendErrorRecord(ctx context.Context, rec api.ErrorRecord) error {
	line := fmt.Sprintf("%s - %s: %s\n",
		rec.Time.UTC().Format(time.RFC3339),
		rec.Category,
		flatten(rec.Detail))
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(filepath.Join(s.dir, errorLogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening error log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("appending error record: %w", err)
	}
	return nil
}

// ListErrorRecords implements storage.RunStore.
func (s *Store) ListErrorRecords(ctx context.Context, limit int) ([]api.ErrorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(filepath.Join(s.dir, errorLogFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading error log: %w", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	records := make([]api.ErrorRecord, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i] == "" {
			continue
		}
		rec, err := parseLine(lines[i])
		if err != nil {
			continue
		}
		records = append(records, rec)
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

// HealthCheck implements storage.RunStore.
func (s *Store) HealthCheck(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("log directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("log path %s is not a directory", s.dir)
	}
	return nil
}

// Close implements storage.RunStore.
func (s *Store) Close() error {
	return nil
}

// Paths returns the record file locations, relative to dir, for callers
// that expose them through the read endpoint.
func Paths() (lastResult, errorLog string) {
	return lastResultFile, errorLogFile
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func parseLine(line string) (api.ErrorRecord, error) {
	timePart, rest, ok := strings.Cut(line, " - ")
	if !ok {
		return api.ErrorRecord{}, fmt.Errorf("missing timestamp separator")
	}
	ts, err := time.Parse(time.RFC3339, timePart)
	if err != nil {
		return api.ErrorRecord{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	category, detail, ok := strings.Cut(rest, ": ")
	if !ok {
		return api.ErrorRecord{}, fmt.Errorf("missing category separator")
	}
	return api.ErrorRecord{
		Time:     ts,
		Category: api.ErrorCategory(category),
		Detail:   detail,
	}, nil
}

var _ storage.RunStore = (*Store)(nil)
