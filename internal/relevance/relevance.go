package relevance

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"codesight/internal/scan"
)

// ErrNoRelevantFiles reports that the whole cascade produced nothing. It is
// the only selector failure a caller has to handle; every other miss is a
// silent skip.
var ErrNoRelevantFiles = errors.New("relevance: no relevant files found")

const (
	// Upper bound on any selection, keeping model payloads small.
	maxSelected = 5
	// Size of the last-resort slice of an unfiltered scan.
	fallbackCount = 3
)

// Problem is the caller's description of what they need help with.
// Immutable once constructed.
type Problem struct {
	// Free-text description of the problem.
	Description string
	// Optional error log to mine for stack-trace paths.
	ErrorLog string
	// Optional explicit file paths, absolute or relative to BasePath.
	FilePaths []string
	// Project root directory.
	BasePath string
}

// Selector narrows a whole project down to at most five files for one
// Problem. The zero value is ready to use.
type Selector struct {
	// ScanOptions applies to the project scan of the keyword stage.
	ScanOptions scan.Options
}

// Select runs the four-stage cascade in strict order and returns the first
// stage's non-empty result:
//
//  1. explicit paths, in input order
//  2. stack-trace paths mined from the error log (terminal when non-empty)
//  3. keyword scoring over a full project scan
//  4. the first files of the scan, unfiltered
//
// The result never exceeds five files.
func (s *Selector) Select(p Problem) ([]scan.ScannedFile, error) {
	if len(p.FilePaths) > 0 {
		if files := s.explicitFiles(p); len(files) > 0 {
			return files, nil
		}
	}

	if strings.TrimSpace(p.ErrorLog) != "" {
		if files := s.traceFiles(p); len(files) > 0 {
			return files, nil
		}
	}

	batch, err := scan.Scan(p.BasePath, s.ScanOptions)
	if err != nil {
		return nil, fmt.Errorf("relevance: scan project: %w", err)
	}

	if keywords := tokenize(p.Description); len(keywords) > 0 {
		if files := topScored(batch, keywords); len(files) > 0 {
			return files, nil
		}
	}

	if len(batch) > 0 {
		n := fallbackCount
		if len(batch) < n {
			n = len(batch)
		}
		out := make([]scan.ScannedFile, n)
		copy(out, batch[:n])
		return out, nil
	}

	return nil, ErrNoRelevantFiles
}

func (s *Selector) explicitFiles(p Problem) []scan.ScannedFile {
	var out []scan.ScannedFile
	for _, fp := range p.FilePaths {
		if len(out) == maxSelected {
			break
		}
		if f, ok := readCandidate(p.BasePath, fp); ok {
			out = append(out, f)
		}
	}
	return out
}

func (s *Selector) traceFiles(p Problem) []scan.ScannedFile {
	var out []scan.ScannedFile
	for _, cand := range ExtractTracePaths(p.ErrorLog) {
		if len(out) == maxSelected {
			break
		}
		if f, ok := readCandidate(p.BasePath, cand); ok {
			out = append(out, f)
		}
	}
	return out
}

// readCandidate resolves a path against the base, keeping it only when it
// names an existing regular file. A nonexistent path is a silent miss; an
// existing file that cannot be read is logged and skipped.
func readCandidate(basePath, p string) (scan.ScannedFile, bool) {
	resolved := p
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(basePath, resolved)
	}
	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return scan.ScannedFile{}, false
	}
	b, err := os.ReadFile(resolved)
	if err != nil {
		log.Printf("[relevance] skip unreadable file %s: %v", resolved, err)
		return scan.ScannedFile{}, false
	}
	return scan.ScannedFile{
		Name:    filepath.Base(resolved),
		Path:    resolved,
		Content: string(b),
		Ext:     strings.ToLower(filepath.Ext(resolved)),
	}, true
}
