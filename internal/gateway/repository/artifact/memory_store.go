package artifact

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore holds artifacts per run. The default backend when neither
// S3 nor postgres is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, runID, path string, content []byte) error {
	runID, path, err := normalizeKey(runID, path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	files, ok := s.runs[runID]
	if !ok {
		files = make(map[string][]byte)
		s.runs[runID] = files
	}
	files[path] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, runID, path string) ([]byte, error) {
	runID, path, err := normalizeKey(runID, path)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	raw, ok := s.runs[runID][path]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) GetURL(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

func (s *MemoryStore) List(_ context.Context, runID string) ([]string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run_id is required")
	}
	s.mu.RLock()
	files := s.runs[runID]
	out := make([]string, 0, len(files))
	for path := range files {
		out = append(out, path)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

func normalizeKey(runID, path string) (string, string, error) {
	runID = strings.TrimSpace(runID)
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if runID == "" {
		return "", "", fmt.Errorf("run_id is required")
	}
	if path == "" {
		return "", "", fmt.Errorf("path is required")
	}
	return runID, path, nil
}
