package wordidx

import (
	"context"
	"hash/fnv"
	"runtime"
	"sync"
	"unicode"
	"unicode/utf8"

	"codesight/internal/scan"
)

/*
Package wordidx is a lightweight, word-only indexer over a scanned batch.

Rules:
- Keep only ident-like words: start with Unicode letter or '_' and continue with letter/digit/'_'.
- Ignore numbers and symbols; quotes are delimiters.
- Lines are 1-based.
- The aggregated index builds asynchronously; Find blocks until completion.
*/

// Word is a collected token and the line it appears on.
type Word struct {
	Text string
	Line int
}

// Index holds words from a single file and a hash-based posting map.
type Index struct {
	Words []Word
	post  map[uint64][]int // hash -> indices into Words
}

// Build parses file content and collects words.
func Build(src []byte) *Index {
	idx := &Index{post: make(map[uint64][]int)}
	line := 1

	isStart := func(r rune) bool { return r == '_' || unicode.IsLetter(r) }
	isCont := func(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

	i := 0
	for i < len(src) {
		r, w := utf8.DecodeRune(src[i:])
		if r == '\n' {
			line++
			i += w
			continue
		}
		if r == utf8.RuneError && w == 1 {
			// Treat invalid bytes as delimiters.
			i++
			continue
		}
		if isStart(r) {
			start := i
			i += w
			for i < len(src) {
				rc, wc := utf8.DecodeRune(src[i:])
				if rc == '\n' || !isCont(rc) {
					break
				}
				i += wc
			}
			idx.add(string(src[start:i]), line)
			continue
		}
		i += w
	}
	return idx
}

func (x *Index) add(word string, line int) {
	key := hashWord(word)
	i := len(x.Words)
	x.Words = append(x.Words, Word{Text: word, Line: line})
	if x.post == nil {
		x.post = make(map[uint64][]int)
	}
	x.post[key] = append(x.post[key], i)
}

// Find returns the lines with exact matches of word in this file index.
func (x *Index) Find(word string) []int {
	if x == nil || x.post == nil {
		return nil
	}
	var out []int
	for _, i := range x.post[hashWord(word)] {
		if i >= 0 && i < len(x.Words) && x.Words[i].Text == word {
			out = append(out, x.Words[i].Line)
		}
	}
	return out
}

func hashWord(word string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(word))
	return h.Sum64()
}

// FileIndex ties an Index with the file path it was built from.
type FileIndex struct {
	Path  string
	Index *Index
}

// PosRef ties a word occurrence to a file and line.
type PosRef struct {
	FilePath string
	Line     int
}

// AggIndex aggregates indices across the files of one batch.
// Start begins indexing; Wait and Find synchronize on completion.
type AggIndex struct {
	mu     sync.RWMutex
	byHash map[uint64][]PosRef
	files  []FileIndex

	doneOnce sync.Once
	doneCh   chan struct{}
}

// Start indexes the batch with a worker pool and returns immediately.
// workers <= 0 uses GOMAXPROCS.
func Start(ctx context.Context, batch []scan.ScannedFile, workers int) *AggIndex {
	a := &AggIndex{
		byHash: make(map[uint64][]PosRef),
		doneCh: make(chan struct{}),
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
		if workers <= 0 {
			workers = 1
		}
	}

	tasks := make(chan scan.ScannedFile, 64)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case f, ok := <-tasks:
					if !ok {
						return
					}
					a.indexOne(f)
				}
			}
		}()
	}
	go func() {
		defer func() {
			close(tasks)
			wg.Wait()
			a.doneOnce.Do(func() { close(a.doneCh) })
		}()
		for _, f := range batch {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case tasks <- f:
			}
		}
	}()
	return a
}

// BuildBatch indexes synchronously and returns the completed index.
func BuildBatch(batch []scan.ScannedFile) *AggIndex {
	ctx := context.Background()
	a := Start(ctx, batch, 0)
	_ = a.Wait(ctx)
	return a
}

// Wait blocks until indexing completes or ctx is canceled.
func (a *AggIndex) Wait(ctx context.Context) error {
	select {
	case <-a.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Find waits for completion, then returns postings for exact word matches.
// If ctx is canceled before completion it returns nil.
func (a *AggIndex) Find(ctx context.Context, word string) []PosRef {
	if err := a.Wait(ctx); err != nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]PosRef, len(a.byHash[hashWord(word)]))
	copy(out, a.byHash[hashWord(word)])
	return out
}

// Files returns a snapshot of per-file indices.
func (a *AggIndex) Files(ctx context.Context) []FileIndex {
	_ = a.Wait(ctx)
	a.mu.RLock()
	defer a.mu.RUnlock()
	cp := make([]FileIndex, len(a.files))
	copy(cp, a.files)
	return cp
}

func (a *AggIndex) indexOne(f scan.ScannedFile) {
	idx := Build([]byte(f.Content))

	a.mu.Lock()
	a.files = append(a.files, FileIndex{Path: f.Path, Index: idx})
	for _, w := range idx.Words {
		key := hashWord(w.Text)
		a.byHash[key] = append(a.byHash[key], PosRef{FilePath: f.Path, Line: w.Line})
	}
	a.mu.Unlock()
}
