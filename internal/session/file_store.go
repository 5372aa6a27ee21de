package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore keeps sessions in one JSON file. Loaded once, written back on
// every change. Good enough for the single-process desktop use this
// service grew out of.
type FileStore struct {
	path string

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]Session
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		byID: make(map[string]Session),
	}
}

func (s *FileStore) ensureLoaded() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []Session
		if err := json.Unmarshal(b, &rows); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			id := strings.TrimSpace(row.ID)
			if id == "" {
				continue
			}
			s.byID[id] = row
		}
	})
}

// saveLocked writes the table back to disk. Caller holds mu.
func (s *FileStore) saveLocked() {
	rows := make([]Session, 0, len(s.byID))
	for _, sess := range s.byID {
		rows = append(rows, sess)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, b, 0o644)
}

func (s *FileStore) Put(_ context.Context, sess Session) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id := strings.TrimSpace(sess.ID)
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = sess.Clone()
	s.saveLocked()
	return nil
}

func (s *FileStore) Get(_ context.Context, id string) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("store is nil")
	}
	s.ensureLoaded()
	s.mu.RLock()
	sess, ok := s.byID[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *FileStore) Update(_ context.Context, id string, update func(*Session)) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	sess = sess.Clone()
	update(&sess)
	sess.ID = id
	s.byID[id] = sess
	s.saveLocked()
	return sess.Clone(), nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, strings.TrimSpace(id))
	s.saveLocked()
	return nil
}

func (s *FileStore) List(_ context.Context) ([]Session, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s.ensureLoaded()
	s.mu.RLock()
	out := make([]Session, 0, len(s.byID))
	for _, sess := range s.byID {
		out = append(out, sess.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
