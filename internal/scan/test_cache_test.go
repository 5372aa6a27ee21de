package scan

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_ServesUnchangedRoot(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.ts", "alpha")
	write(t, root, "sub/b.ts", "beta")
	ClearCache()
	t.Cleanup(ClearCache)

	first, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Path != second[i].Path || first[i].Content != second[i].Content {
			t.Fatalf("cached batch diverges at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestCache_InvalidatedByContentChange(t *testing.T) {
	root := t.TempDir()
	p := write(t, root, "a.ts", "before")
	ClearCache()
	t.Cleanup(ClearCache)

	if _, err := Scan(root, Options{}); err != nil {
		t.Fatalf("first scan: %v", err)
	}

	// Backdate-proof: bump both content and mtime so the stamp changes even
	// on coarse filesystem clocks.
	if err := os.WriteFile(p, []byte("after!"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(p, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	files, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if len(files) != 1 || files[0].Content != "after!" {
		t.Fatalf("stale content served: %+v", files)
	}
}

func TestCache_InvalidatedByNewFile(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.ts", "alpha")
	ClearCache()
	t.Cleanup(ClearCache)

	if _, err := Scan(root, Options{}); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	write(t, root, "deep/new.ts", "fresh")

	files, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("new file not picked up: %v", names(files))
	}
}

func TestCache_BypassNeverStores(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.ts", "alpha")
	ClearCache()
	t.Cleanup(ClearCache)

	if _, err := Scan(root, Options{BypassCache: true}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	absRoot, _ := filepath.Abs(root)
	batchCacheMu.Lock()
	_, ok := batchCache.Get(absRoot)
	batchCacheMu.Unlock()
	if ok {
		t.Fatal("bypassed scan populated the cache")
	}
}
