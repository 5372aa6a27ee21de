package handler

import (
	"net/http"
	"strings"
)

func (h *Handler) handleArtifactList(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run_id")
	paths, err := h.Artifacts.List(r.Context(), runID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if paths == nil {
		paths = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": runID,
		"paths":  paths,
	})
}

// handleArtifactGet returns an archived artifact's bytes. With ?url=1 and a
// backend that can presign, the caller is redirected instead.
func (h *Handler) handleArtifactGet(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run_id")
	path := r.PathValue("path")

	if r.URL.Query().Get("url") != "" {
		url, err := h.Artifacts.GetURL(r.Context(), runID, path)
		if err != nil {
			writeErr(w, err)
			return
		}
		if strings.TrimSpace(url) != "" {
			http.Redirect(w, r, url, http.StatusTemporaryRedirect)
			return
		}
		// No presigned URL for this backend; serve the bytes.
	}

	data, err := h.Artifacts.Get(r.Context(), runID, path)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
