package safeio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// SafeFS resolves every path against a fixed root directory and refuses
// anything that escapes it, symlinks included. Sessions hold one instance
// per project root; there is no process-wide default.
type SafeFS struct {
	absRoot string // absolute root with symlinks resolved
}

// NewSafeFS locks all future operations to the given root directory.
func NewSafeFS(root string) (*SafeFS, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("safeio: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("safeio: root is not a directory")
	}
	return &SafeFS{absRoot: abs}, nil
}

// Root returns the absolute root directory bound to this SafeFS.
func (s *SafeFS) Root() string {
	if s == nil {
		return ""
	}
	return s.absRoot
}

// ReadFile reads a file inside the root.
func (s *SafeFS) ReadFile(userPath string) ([]byte, error) {
	p, err := s.Resolve(userPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("safeio: path is a directory")
	}
	return os.ReadFile(p)
}

// Stat returns metadata for a file or directory inside the root.
func (s *SafeFS) Stat(userPath string) (fs.FileInfo, error) {
	p, err := s.Resolve(userPath)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

// ReadDir lists entries of a directory inside the root.
func (s *SafeFS) ReadDir(userPath string) ([]fs.DirEntry, error) {
	dir, err := s.Resolve(userPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("safeio: path is not a directory")
	}
	return os.ReadDir(dir)
}

// WriteFile writes a file inside the root, creating parent directories as
// needed. The target itself may not exist yet, so containment is checked on
// the nearest existing ancestor after symlink resolution.
func (s *SafeFS) WriteFile(userPath string, data []byte, perm fs.FileMode) error {
	p, err := s.resolveForWrite(userPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, perm)
}

// CheckWrite reports whether a write to userPath would stay inside the root,
// without performing it. Callers applying a batch of edits use this to reject
// the whole batch before the first write.
func (s *SafeFS) CheckWrite(userPath string) error {
	_, err := s.resolveForWrite(userPath)
	return err
}

// Resolve maps a user-supplied path (relative to the root, or absolute) to
// its real filesystem path, erroring if it lies outside the root. The target
// must exist.
func (s *SafeFS) Resolve(userPath string) (string, error) {
	joined, err := s.join(userPath)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", err
	}
	if !hasPathPrefix(resolved, s.absRoot) {
		return "", fmt.Errorf("safeio: resolved outside root (root=%s, path=%s)", s.absRoot, resolved)
	}
	return resolved, nil
}

func (s *SafeFS) resolveForWrite(userPath string) (string, error) {
	joined, err := s.join(userPath)
	if err != nil {
		return "", err
	}
	if !hasPathPrefix(joined, s.absRoot) {
		return "", fmt.Errorf("safeio: target outside root (root=%s, path=%s)", s.absRoot, joined)
	}
	// Resolve the nearest existing ancestor so a symlinked directory cannot
	// smuggle the write outside the root.
	anchor := filepath.Dir(joined)
	rest := filepath.Base(joined)
	for {
		resolved, err := filepath.EvalSymlinks(anchor)
		if err == nil {
			if !hasPathPrefix(resolved, s.absRoot) {
				return "", fmt.Errorf("safeio: target outside root (root=%s, path=%s)", s.absRoot, resolved)
			}
			return filepath.Join(resolved, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(anchor)
		if parent == anchor {
			return "", fmt.Errorf("safeio: no existing ancestor for %s", joined)
		}
		rest = filepath.Join(filepath.Base(anchor), rest)
		anchor = parent
	}
}

func (s *SafeFS) join(userPath string) (string, error) {
	if s == nil {
		return "", errors.New("safeio: filesystem not configured")
	}
	if userPath == "" {
		return "", errors.New("safeio: empty path")
	}
	clean := filepath.Clean(userPath)
	if clean == "." {
		return s.absRoot, nil
	}

	isAbs := filepath.IsAbs(clean) || (runtime.GOOS == "windows" && filepath.VolumeName(clean) != "")
	if !isAbs {
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return "", errors.New("safeio: path traversal not allowed")
		}
		return filepath.Join(s.absRoot, clean), nil
	}
	return clean, nil
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if len(root) == 0 {
		return true
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	if !strings.HasSuffix(path, sep) {
		path += sep
	}
	return strings.HasPrefix(path, root)
}
