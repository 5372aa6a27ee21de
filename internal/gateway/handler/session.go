package handler

import (
	"net/http"
	"strings"
)

func (h *Handler) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ProjectRoot string `json:"project_root"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.ProjectRoot) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "project_root is required")
		return
	}
	sess, err := h.Sessions.Create(r.Context(), in.ProjectRoot)
	if err != nil {
		// Creation only fails on a bad root or a store fault; the former
		// is the caller's input, so report it as such.
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleSessionList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Sessions.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
