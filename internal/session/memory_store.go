package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Session)}
}

func (s *MemoryStore) Put(_ context.Context, sess Session) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id := strings.TrimSpace(sess.ID)
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	s.mu.Lock()
	s.byID[id] = sess.Clone()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	sess, ok := s.byID[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, update func(*Session)) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
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
	return sess.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	delete(s.byID, strings.TrimSpace(id))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Session, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
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
