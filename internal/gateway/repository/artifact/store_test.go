package artifact

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if err := st.Put(ctx, "r1", AnswerPath, []byte("the answer")); err != nil {
		t.Fatal(err)
	}
	got, err := st.Get(ctx, "r1", AnswerPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "the answer" {
		t.Fatalf("got=%q", got)
	}
}

func TestMemoryStoreMissingIsNotFound(t *testing.T) {
	st := NewMemoryStore()
	if _, err := st.Get(context.Background(), "r1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestMemoryStoreListSortsWithinRun(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	for _, p := range []string{BackupPath("src/b.ts"), AnswerPath, BackupPath("src/a.ts")} {
		if err := st.Put(ctx, "r1", p, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.Put(ctx, "r2", AnswerPath, []byte("other run")); err != nil {
		t.Fatal(err)
	}

	got, err := st.List(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{AnswerPath, BackupPath("src/a.ts"), BackupPath("src/b.ts")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestMemoryStoreRejectsEmptyKeyParts(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	if err := st.Put(ctx, "", "p", []byte("x")); err == nil {
		t.Fatal("empty run id accepted")
	}
	if err := st.Put(ctx, "r1", "  ", []byte("x")); err == nil {
		t.Fatal("empty path accepted")
	}
}

func TestMemoryStoreGetReturnsACopy(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	if err := st.Put(ctx, "r1", "a", []byte("abc")); err != nil {
		t.Fatal(err)
	}
	got, err := st.Get(ctx, "r1", "a")
	if err != nil {
		t.Fatal(err)
	}
	got[0] = 'X'
	again, err := st.Get(ctx, "r1", "a")
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != "abc" {
		t.Fatal("stored bytes aliased by a caller copy")
	}
}

func TestDiskStoreRoundTrip(t *testing.T) {
	st := NewDiskStore(t.TempDir())
	ctx := context.Background()

	if err := st.Put(ctx, "r1", BackupPath("src/app.ts"), []byte("old body")); err != nil {
		t.Fatal(err)
	}
	got, err := st.Get(ctx, "r1", BackupPath("src/app.ts"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old body" {
		t.Fatalf("got=%q", got)
	}

	list, err := st.List(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0] != "backup/src/app.ts" {
		t.Fatalf("got=%v", list)
	}
}

func TestDiskStoreMissingIsNotFound(t *testing.T) {
	st := NewDiskStore(t.TempDir())
	if _, err := st.Get(context.Background(), "r1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	st := NewDiskStore(t.TempDir())
	ctx := context.Background()
	if err := st.Put(ctx, "../r1", "a", []byte("x")); err == nil {
		t.Fatal("run id traversal accepted")
	}
	if err := st.Put(ctx, "r1", filepath.Join("..", "a"), []byte("x")); err == nil {
		t.Fatal("path traversal accepted")
	}
	if err := st.Put(ctx, "r1", "/abs", []byte("x")); err == nil {
		t.Fatal("absolute path accepted")
	}
}

func TestDiskStoreListEmptyRun(t *testing.T) {
	st := NewDiskStore(t.TempDir())
	got, err := st.List(context.Background(), "never-wrote")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got=%v", got)
	}
}
