package handler

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"codesight/internal/depgraph"
	"codesight/internal/scan"
	"codesight/internal/wordidx"
)

type scanEntry struct {
	Path      string    `json:"path"`
	Ext       string    `json:"ext"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// handleScan lists the session project's source files without reading
// their content.
func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SessionID string `json:"session_id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	sess, err := h.Sessions.Get(r.Context(), in.SessionID)
	if err != nil {
		writeErr(w, err)
		return
	}

	files := make([]scanEntry, 0, 64)
	err = scan.Walk(sess.ProjectRoot, func(f scan.FileVisit) {
		if f.IsDir || !scan.AllowedExt(f.Ext) {
			return
		}
		files = append(files, scanEntry{Path: f.Path, Ext: f.Ext, SizeBytes: f.Size, ModTime: f.ModTime})
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"root":  sess.ProjectRoot,
		"count": len(files),
		"files": files,
	})
}

// handleDeps reports which files a given file imports and which files
// import it. Lookups are by base name, matching how relative imports
// resolve within a scanned batch.
func (h *Handler) handleDeps(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	file := strings.TrimSpace(q.Get("file"))
	if file == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "file is required")
		return
	}
	sess, err := h.Sessions.Get(r.Context(), q.Get("session_id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	batch, err := scan.Scan(sess.ProjectRoot, h.Scan)
	if err != nil {
		writeErr(w, err)
		return
	}

	g := depgraph.Build(batch)
	name := filepath.Base(file)
	deps := g.DependenciesOf(name)
	dependents := g.DependentsOf(name)
	if deps == nil {
		deps = []string{}
	}
	if dependents == nil {
		dependents = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file":         name,
		"dependencies": deps,
		"dependents":   dependents,
	})
}

// handleSearch finds word occurrences across the session project.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	word := strings.TrimSpace(q.Get("word"))
	if word == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "word is required")
		return
	}
	sess, err := h.Sessions.Get(r.Context(), q.Get("session_id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	batch, err := scan.Scan(sess.ProjectRoot, h.Scan)
	if err != nil {
		writeErr(w, err)
		return
	}

	type match struct {
		Path string `json:"path"`
		Line int    `json:"line"`
	}
	matches := make([]match, 0, 16)
	for _, ref := range wordidx.BuildBatch(batch).Find(r.Context(), word) {
		matches = append(matches, match{Path: ref.FilePath, Line: ref.Line})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"word":    word,
		"matches": matches,
	})
}
