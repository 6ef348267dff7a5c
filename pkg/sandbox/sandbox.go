// Package sandbox enforces the directory boundary for every file path the
// gateway touches on behalf of a caller. Paths are resolved against a single
// canonicalized root; anything that lands outside it is rejected.
//
// The guard covers gateway file operations only. Generated code runs with
// the process's own filesystem view and is not subject to it.
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a resolved path falls outside the root.
var ErrPathEscape = errors.New("path escapes sandbox root")

// Root is a canonicalized sandbox directory.
type Root struct {
	dir string
}

// New creates the directory if needed and canonicalizes it, resolving
// symlinks so that containment checks compare real paths.
func New(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving sandbox root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating sandbox root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing sandbox root: %w", err)
	}
	return &Root{dir: resolved}, nil
}

// Dir returns the canonical root directory.
func (r *Root) Dir() string {
	return r.dir
}

// Resolve maps a caller-supplied path to an absolute path and verifies it
// stays inside the root. Relative paths are joined against the root;
// absolute paths are accepted only when they already point inside it.
// Symlinks along the existing part of the path are resolved before the
// containment check, so a link pointing outside the root is an escape even
// though its lexical path is contained.
func (r *Root) Resolve(path string) (string, error) {
	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(r.dir, candidate)
	}
	candidate = filepath.Clean(candidate)
	if !r.contains(candidate) {
		return "", ErrPathEscape
	}
	resolved, err := resolveExisting(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	if !r.contains(resolved) {
		return "", ErrPathEscape
	}
	return resolved, nil
}

func (r *Root) contains(abs string) bool {
	return abs == r.dir || strings.HasPrefix(abs, r.dir+string(filepath.Separator))
}

// resolveExisting resolves symlinks over the longest existing prefix of
// path and rejoins the nonexistent remainder lexically. The target itself
// does not have to exist yet.
func resolveExisting(path string) (string, error) {
	p := path
	var trailing []string
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			if len(trailing) == 0 {
				return resolved, nil
			}
			return filepath.Join(append([]string{resolved}, trailing...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return path, nil
		}
		trailing = append([]string{filepath.Base(p)}, trailing...)
		p = parent
	}
}
