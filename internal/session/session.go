// Package session holds the per-conversation state the service works on:
// which project root is open, which files the user has touched and the
// message history. Everything that used to be process-global lives on the
// Session so concurrent sessions never see each other's state.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"codesight/internal/safeio"

	"github.com/google/uuid"
)

// Message is one turn of the session's conversation.
type Message struct {
	Role string    `json:"role"` // "user" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session is the unit of isolation: one open project plus its history.
type Session struct {
	ID          string            `json:"id"`
	ProjectRoot string            `json:"project_root"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	OpenFiles   map[string]string `json:"open_files,omitempty"`
	Messages    []Message         `json:"messages,omitempty"`
}

// Clone returns a deep copy so callers can hold a Session without
// aliasing store-internal maps.
func (s Session) Clone() Session {
	out := s
	if s.OpenFiles != nil {
		out.OpenFiles = make(map[string]string, len(s.OpenFiles))
		for k, v := range s.OpenFiles {
			out.OpenFiles[k] = v
		}
	}
	if s.Messages != nil {
		out.Messages = append([]Message(nil), s.Messages...)
	}
	return out
}

// Manager owns sessions behind a Store. The filesystem jails are runtime
// state, rebuilt on demand after a restart, so only the Session record is
// persisted.
type Manager struct {
	store Store

	fsMu sync.RWMutex
	fs   map[string]*safeio.SafeFS
}

func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		fs:    make(map[string]*safeio.SafeFS),
	}
}

// Create opens a new session on projectRoot. The root must be an existing
// directory; it is stored in absolute form.
func (m *Manager) Create(ctx context.Context, projectRoot string) (Session, error) {
	root := strings.TrimSpace(projectRoot)
	if root == "" {
		return Session{}, fmt.Errorf("session: project_root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Session{}, fmt.Errorf("session: resolve project root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Session{}, fmt.Errorf("session: project root: %w", err)
	}
	if !info.IsDir() {
		return Session{}, fmt.Errorf("session: project root %s is not a directory", abs)
	}

	now := time.Now().UTC()
	s := Session{
		ID:          uuid.NewString(),
		ProjectRoot: abs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.Put(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (m *Manager) Get(ctx context.Context, id string) (Session, error) {
	return m.store.Get(ctx, strings.TrimSpace(id))
}

func (m *Manager) List(ctx context.Context) ([]Session, error) {
	return m.store.List(ctx)
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	m.fsMu.Lock()
	delete(m.fs, id)
	m.fsMu.Unlock()
	return m.store.Delete(ctx, id)
}

// FS returns the session's filesystem jail, building it on first use.
func (m *Manager) FS(ctx context.Context, id string) (*safeio.SafeFS, error) {
	id = strings.TrimSpace(id)
	m.fsMu.RLock()
	cached := m.fs[id]
	m.fsMu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	jail, err := safeio.NewSafeFS(s.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("session: open project root: %w", err)
	}
	m.fsMu.Lock()
	// Another goroutine may have built it meanwhile; keep the first.
	if prior := m.fs[id]; prior != nil {
		jail = prior
	} else {
		m.fs[id] = jail
	}
	m.fsMu.Unlock()
	return jail, nil
}

// AppendMessage records one conversation turn and bumps UpdatedAt.
func (m *Manager) AppendMessage(ctx context.Context, id string, msg Message) (Session, error) {
	if msg.At.IsZero() {
		msg.At = time.Now().UTC()
	}
	return m.store.Update(ctx, strings.TrimSpace(id), func(s *Session) {
		s.Messages = append(s.Messages, msg)
		s.UpdatedAt = time.Now().UTC()
	})
}

// SetOpenFile records the content of a file the session has touched.
func (m *Manager) SetOpenFile(ctx context.Context, id, rel, content string) (Session, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return Session{}, fmt.Errorf("session: file path is required")
	}
	return m.store.Update(ctx, strings.TrimSpace(id), func(s *Session) {
		if s.OpenFiles == nil {
			s.OpenFiles = make(map[string]string)
		}
		s.OpenFiles[rel] = content
		s.UpdatedAt = time.Now().UTC()
	})
}
