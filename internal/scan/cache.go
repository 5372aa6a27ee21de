package scan

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// The batch cache avoids re-reading file contents for a root whose files
// have not changed since the previous scan. Validation re-walks metadata
// only; a hit skips every content read. Correctness never depends on the
// cache: a miss falls back to plain reads, and Options.BypassCache disables
// it per call.

const batchCacheSize = 32

type fileStamp struct {
	path    string
	size    int64
	modTime time.Time
}

type cacheEntry struct {
	stamps []fileStamp
	files  []ScannedFile
}

var (
	batchCacheMu sync.Mutex
	batchCache   *lru.Cache[string, cacheEntry]
)

func init() {
	batchCache, _ = lru.New[string, cacheEntry](batchCacheSize)
}

// ClearCache drops all cached scan batches.
func ClearCache() {
	batchCacheMu.Lock()
	defer batchCacheMu.Unlock()
	batchCache.Purge()
}

func stampsOf(visits []FileVisit) []fileStamp {
	stamps := make([]fileStamp, len(visits))
	for i, fv := range visits {
		stamps[i] = fileStamp{path: fv.AbsPath, size: fv.Size, modTime: fv.ModTime}
	}
	return stamps
}

func stampsEqual(a, b []fileStamp) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].path != b[i].path || a[i].size != b[i].size || !a[i].modTime.Equal(b[i].modTime) {
			return false
		}
	}
	return true
}

func cachedBatch(absRoot string, visits []FileVisit) ([]ScannedFile, bool) {
	batchCacheMu.Lock()
	defer batchCacheMu.Unlock()
	entry, ok := batchCache.Get(absRoot)
	if !ok {
		return nil, false
	}
	if !stampsEqual(entry.stamps, stampsOf(visits)) {
		batchCache.Remove(absRoot)
		return nil, false
	}
	out := make([]ScannedFile, len(entry.files))
	copy(out, entry.files)
	return out, true
}

func storeBatch(absRoot string, visits []FileVisit, files []ScannedFile) {
	stored := make([]ScannedFile, len(files))
	copy(stored, files)
	batchCacheMu.Lock()
	defer batchCacheMu.Unlock()
	batchCache.Add(absRoot, cacheEntry{stamps: stampsOf(visits), files: stored})
}
