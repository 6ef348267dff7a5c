// Package files serves read-only access to files inside the sandbox root.
// Every path goes through the containment guard; read failures other than a
// missing file are appended to the error record.
package files

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
	"github.com/taskpilot-dev/taskpilot/pkg/sandbox"
	"github.com/taskpilot-dev/taskpilot/pkg/storage"
)

// Service reads sandboxed files on behalf of gateway clients.
type Service struct {
	root   *sandbox.Root
	store  storage.RunStore
	logger *slog.Logger
}

// NewService creates a read service over the given sandbox root.
func NewService(root *sandbox.Root, store storage.RunStore) *Service {
	return &Service{
		root:   root,
		store:  store,
		logger: slog.Default().With("component", "files"),
	}
}

// Read returns the content of the file at the given sandbox-relative path.
// Escaping paths yield a forbidden error, missing files a not-found error,
// anything else a server error; forbidden and server errors are recorded.
func (s *Service) Read(ctx context.Context, path string) (string, error) {
	resolved, err := s.root.Resolve(path)
	if err != nil {
		if errors.Is(err, sandbox.ErrPathEscape) {
			s.logger.Warn("read rejected by sandbox guard", "path", path)
			s.recordError(ctx, "access denied: "+path)
			return "", api.NewForbiddenError("access denied")
		}
		s.recordError(ctx, err.Error())
		return "", api.NewServerError("resolving path failed")
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", api.NewNotFoundError("file not found")
		}
		s.logger.Error("read failed", "path", path, "error", err)
		s.recordError(ctx, err.Error())
		return "", api.NewServerError("reading file failed")
	}
	return string(data), nil
}

func (s *Service) recordError(ctx context.Context, detail string) {
	err := s.store.AppendErrorRecord(ctx, api.ErrorRecord{
		Time:     time.Now(),
		Category: api.ErrorCategoryRead,
		Detail:   detail,
	})
	if err != nil {
		s.logger.Error("appending error record failed", "error", err)
	}
}
