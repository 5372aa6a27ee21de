package scan

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ScannedFile is one file materialized by a scan. Immutable after creation;
// owned by the batch that returned it.
type ScannedFile struct {
	// Base name (e.g., "helper.ts").
	Name string
	// Absolute filesystem path.
	Path string
	// Full file content.
	Content string
	// Lowercased extension including the dot (e.g., ".ts").
	Ext string
}

// FileVisit carries per-entry metadata to walk callbacks.
type FileVisit struct {
	// Root-relative path using forward slashes (e.g., "src/app.ts").
	Path string
	// Absolute filesystem path.
	AbsPath string
	// True when the entry is a directory.
	IsDir bool
	// Lowercased extension; empty for dirs or no-ext files.
	Ext string
	// File size in bytes; 0 for dirs or when stat fails.
	Size int64
	// Last modification time; zero for dirs or when stat fails.
	ModTime time.Time
}

// VisitFunc is invoked for every visited entry (dirs included).
type VisitFunc func(f FileVisit)

// Options tunes a scan. The zero value is the normal mode.
type Options struct {
	// BypassCache forces a fresh walk and fresh content reads.
	BypassCache bool
}

// Directory base names never descended into, at any depth.
var ignoreDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"target":       true,
	".next":        true,
	".cache":       true,
	"coverage":     true,
}

// Extensions the walker reads; everything else is skipped silently.
var allowExts = map[string]bool{
	".js":   true,
	".jsx":  true,
	".ts":   true,
	".tsx":  true,
	".mjs":  true,
	".cjs":  true,
	".json": true,
	".html": true,
	".css":  true,
	".scss": true,
	".md":   true,
	".txt":  true,
	".yml":  true,
	".yaml": true,
}

// AllowedExt reports whether the walker would read a file with the given
// lowercased extension.
func AllowedExt(ext string) bool {
	return allowExts[strings.ToLower(ext)]
}

// Walk visits every entry under root, skipping ignored directories. Entry
// read failures are logged and skipped; they never abort the walk. The root
// itself must be an existing directory.
func Walk(root string, visit VisitFunc) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("scan: resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return fmt.Errorf("scan: stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scan: root is not a directory: %s", absRoot)
	}

	return filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("[scan] skip unreadable entry %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != absRoot && ignoreDirs[d.Name()] {
				return filepath.SkipDir
			}
		}

		rel, _ := filepath.Rel(absRoot, path)
		rel = filepath.ToSlash(rel)
		ext := ""
		size := int64(0)
		var mod time.Time
		if !d.IsDir() {
			ext = strings.ToLower(filepath.Ext(path))
			if fi, e := d.Info(); e == nil {
				size = fi.Size()
				mod = fi.ModTime()
			}
		}
		if visit != nil {
			visit(FileVisit{Path: rel, AbsPath: path, IsDir: d.IsDir(), Ext: ext, Size: size, ModTime: mod})
		}
		return nil
	})
}

// Scan walks root and materializes every allow-listed file into a
// ScannedFile. Order is traversal order, stable within a run. Individual
// read failures are logged and the file skipped. When the cache holds a
// batch for root whose file stamps (path, size, mtime) all still match,
// content reads are skipped and the cached batch is returned; Options.
// BypassCache disables that path entirely.
func Scan(root string, opts Options) ([]ScannedFile, error) {
	var visits []FileVisit
	err := Walk(root, func(fv FileVisit) {
		if fv.IsDir || !allowExts[fv.Ext] {
			return
		}
		visits = append(visits, fv)
	})
	if err != nil {
		return nil, err
	}

	absRoot, _ := filepath.Abs(root)
	if !opts.BypassCache {
		if batch, ok := cachedBatch(absRoot, visits); ok {
			return batch, nil
		}
	}

	files := make([]ScannedFile, 0, len(visits))
	for _, fv := range visits {
		b, err := os.ReadFile(fv.AbsPath)
		if err != nil {
			log.Printf("[scan] skip unreadable file %s: %v", fv.AbsPath, err)
			continue
		}
		files = append(files, ScannedFile{
			Name:    filepath.Base(fv.AbsPath),
			Path:    fv.AbsPath,
			Content: string(b),
			Ext:     fv.Ext,
		})
	}

	if !opts.BypassCache {
		storeBatch(absRoot, visits, files)
	}
	return files, nil
}
