package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestRoot(t *testing.T) *Root {
	t.Helper()
	root, err := New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return root
}

func TestResolveRelativeInside(t *testing.T) {
	root := newTestRoot(t)
	got, err := root.Resolve("logs/app.log")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(root.Dir(), "logs", "app.log")
	if got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	root := newTestRoot(t)
	for _, path := range []string{
		"../outside.txt",
		"a/../../outside.txt",
		"../../etc/passwd",
	} {
		if _, err := root.Resolve(path); !errors.Is(err, ErrPathEscape) {
			t.Errorf("Resolve(%q) = %v, want ErrPathEscape", path, err)
		}
	}
}

func TestResolveRejectsAbsoluteOutside(t *testing.T) {
	root := newTestRoot(t)
	if _, err := root.Resolve("/etc/passwd"); !errors.Is(err, ErrPathEscape) {
		t.Errorf("expected ErrPathEscape, got %v", err)
	}
}

func TestResolveAcceptsAbsoluteInside(t *testing.T) {
	root := newTestRoot(t)
	inside := filepath.Join(root.Dir(), "file.txt")
	got, err := root.Resolve(inside)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != inside {
		t.Errorf("Resolve = %q, want %q", got, inside)
	}
}

func TestResolveNonexistentTarget(t *testing.T) {
	root := newTestRoot(t)
	if _, err := root.Resolve("does/not/exist/yet.txt"); err != nil {
		t.Errorf("nonexistent paths inside the root must resolve, got %v", err)
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	root := newTestRoot(t)
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(target, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root.Dir(), "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if _, err := root.Resolve("link.txt"); !errors.Is(err, ErrPathEscape) {
		t.Errorf("Resolve over escaping symlink = %v, want ErrPathEscape", err)
	}
}

func TestResolveSymlinkInsideRoot(t *testing.T) {
	root := newTestRoot(t)
	target := filepath.Join(root.Dir(), "real.txt")
	if err := os.WriteFile(target, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root.Dir(), "alias.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	got, err := root.Resolve("alias.txt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasPrefix(got, root.Dir()) {
		t.Errorf("resolved path %q left root %q", got, root.Dir())
	}
}

func TestNewCreatesMissingRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	root, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	info, err := os.Stat(root.Dir())
	if err != nil || !info.IsDir() {
		t.Errorf("root directory was not created: %v", err)
	}
}
