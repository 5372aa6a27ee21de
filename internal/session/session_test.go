package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newManager(t *testing.T) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.ts"), []byte("let a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewManager(NewMemoryStore()), root
}

func TestManagerCreateAndGet(t *testing.T) {
	m, root := newManager(t)
	ctx := context.Background()

	s, err := m.Create(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID == "" {
		t.Fatal("empty session id")
	}
	if !filepath.IsAbs(s.ProjectRoot) {
		t.Fatalf("root not absolute: %s", s.ProjectRoot)
	}

	got, err := m.Get(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != s.ProjectRoot {
		t.Fatalf("got=%s want=%s", got.ProjectRoot, s.ProjectRoot)
	}
}

func TestManagerCreateRejectsMissingRoot(t *testing.T) {
	m, root := newManager(t)
	if _, err := m.Create(context.Background(), filepath.Join(root, "nope")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestManagerCreateRejectsFileRoot(t *testing.T) {
	m, root := newManager(t)
	if _, err := m.Create(context.Background(), filepath.Join(root, "a.ts")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestManagerGetUnknownIsNotFound(t *testing.T) {
	m, _ := newManager(t)
	if _, err := m.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestManagerDelete(t *testing.T) {
	m, root := newManager(t)
	ctx := context.Background()
	s, err := m.Create(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestManagerAppendMessage(t *testing.T) {
	m, root := newManager(t)
	ctx := context.Background()
	s, err := m.Create(ctx, root)
	if err != nil {
		t.Fatal(err)
	}

	got, err := m.AppendMessage(ctx, s.ID, Message{Role: "user", Text: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Text != "hi" {
		t.Fatalf("got %+v", got.Messages)
	}
	if got.Messages[0].At.IsZero() {
		t.Fatal("timestamp not filled")
	}
	if !got.UpdatedAt.After(s.UpdatedAt) && !got.UpdatedAt.Equal(s.UpdatedAt) {
		t.Fatalf("UpdatedAt went backwards: %v -> %v", s.UpdatedAt, got.UpdatedAt)
	}
}

func TestManagerSetOpenFile(t *testing.T) {
	m, root := newManager(t)
	ctx := context.Background()
	s, err := m.Create(ctx, root)
	if err != nil {
		t.Fatal(err)
	}

	got, err := m.SetOpenFile(ctx, s.ID, "src/a.ts", "new body")
	if err != nil {
		t.Fatal(err)
	}
	if got.OpenFiles["src/a.ts"] != "new body" {
		t.Fatalf("got %+v", got.OpenFiles)
	}
}

func TestManagerFSIsJailedAndCached(t *testing.T) {
	m, root := newManager(t)
	ctx := context.Background()
	s, err := m.Create(ctx, root)
	if err != nil {
		t.Fatal(err)
	}

	fs1, err := m.FS(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs1.ReadFile("a.ts"); err != nil {
		t.Fatal(err)
	}
	if _, err := fs1.ReadFile("../outside"); err == nil {
		t.Fatal("escape not rejected")
	}

	fs2, err := m.FS(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fs1 != fs2 {
		t.Fatal("jail rebuilt on second call")
	}
}

func TestManagerFSUnknownSession(t *testing.T) {
	m, _ := newManager(t)
	if _, err := m.FS(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}
