// Package pathguard confines caller-supplied paths to the shared root.
// Every file operation resolves its path arguments here before any I/O.
package pathguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned for any path that resolves outside the
// shared root. Callers surface it as a forbidden outcome and never retry.
var ErrPathEscape = errors.New("path escapes shared root")

// Guard validates paths against a single canonicalized root.
type Guard struct {
	root string
}

// New creates a Guard for root, creating the directory if needed.
// The root is canonicalized once so later comparisons are against its
// real location even when the configured path contains symlinks.
func New(root string) (*Guard, error) {
	if root == "" {
		return nil, fmt.Errorf("shared root must not be empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve shared root: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create shared root: %w", err)
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("canonicalize shared root: %w", err)
	}

	return &Guard{root: canonical}, nil
}

// Root returns the canonical shared root.
func (g *Guard) Root() string {
	return g.root
}

// Resolve canonicalizes raw and returns it if it stays inside the
// shared root. An empty path resolves to the root itself. Containment
// is checked per path segment, so a sibling directory whose name merely
// starts with the root's name is rejected.
func (g *Guard) Resolve(raw string) (string, error) {
	if raw == "" {
		return g.root, nil
	}

	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, raw)
	}

	canonical, err := resolveSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, raw)
	}

	rel, err := filepath.Rel(g.root, canonical)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, raw)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, raw)
	}

	return canonical, nil
}

// resolveSymlinks evaluates symlinks for paths that may not exist yet
// (upload and folder-create targets) by walking up to the deepest
// existing ancestor and re-joining the missing tail onto its real path.
func resolveSymlinks(abs string) (string, error) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	var tail []string
	current := abs
	for {
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing ancestor for %s", abs)
		}
		tail = append([]string{filepath.Base(current)}, tail...)

		resolved, err = filepath.EvalSymlinks(parent)
		if err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		current = parent
	}
}
