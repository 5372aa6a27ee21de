package safeio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeFSAllowsAbsoluteUnderRoot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs, err := NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	got, err := fs.ReadFile(p)
	if err != nil {
		t.Fatalf("ReadFile absolute: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("ReadFile content = %q, want %q", got, "hello")
	}
}

func TestSafeFSRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if _, err := fs.ReadFile(filepath.Join("..", "etc", "passwd")); err == nil {
		t.Fatal("traversal read succeeded, want error")
	}
	if err := fs.WriteFile(filepath.Join("..", "escape.txt"), []byte("x"), 0o644); err == nil {
		t.Fatal("traversal write succeeded, want error")
	}
}

func TestSafeFSRejectsAbsoluteOutsideRoot(t *testing.T) {
	inside := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "b.txt")
	if err := os.WriteFile(target, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs, err := NewSafeFS(inside)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	if _, err := fs.ReadFile(target); err == nil {
		t.Fatal("read outside root succeeded, want error")
	}
}

func TestSafeFSWriteCreatesParents(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	rel := filepath.Join("sub", "deep", "c.txt")
	if err := fs.WriteFile(rel, []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, rel))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "data" {
		t.Fatalf("content = %q, want %q", got, "data")
	}
}

func TestSafeFSCheckWriteDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	rel := filepath.Join("new", "file.txt")
	if err := fs.CheckWrite(rel); err != nil {
		t.Fatalf("CheckWrite inside root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, rel)); !os.IsNotExist(err) {
		t.Fatalf("CheckWrite created something: %v", err)
	}
	if err := fs.CheckWrite(filepath.Join("..", "evil.txt")); err == nil {
		t.Fatal("CheckWrite outside root succeeded, want error")
	}
}
