// Package handler implements the gateway's JSON API: sessions, project
// scans, analysis runs, edits, search, tool dispatch and archived run
// artifacts. Analysis can also be consumed as an SSE stream and chat runs
// over a websocket.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	artifactrepo "codesight/internal/gateway/repository/artifact"
	"codesight/internal/llm"
	"codesight/internal/mcp"
	"codesight/internal/relevance"
	"codesight/internal/scan"
	"codesight/internal/session"
)

// Handler carries the gateway's dependencies. All routes hang off it.
type Handler struct {
	Sessions  *session.Manager
	Model     llm.Client
	Artifacts artifactrepo.Store
	Tools     *mcp.Registry
	Scan      scan.Options
}

func New(sessions *session.Manager, model llm.Client, artifacts artifactrepo.Store, tools *mcp.Registry) *Handler {
	return &Handler{
		Sessions:  sessions,
		Model:     model,
		Artifacts: artifacts,
		Tools:     tools,
	}
}

// Register attaches every route to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.handleHealth)

	mux.HandleFunc("POST /api/sessions", h.handleSessionCreate)
	mux.HandleFunc("GET /api/sessions", h.handleSessionList)
	mux.HandleFunc("GET /api/sessions/{id}", h.handleSessionGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.handleSessionDelete)

	mux.HandleFunc("POST /api/scan", h.handleScan)
	mux.HandleFunc("GET /api/deps", h.handleDeps)
	mux.HandleFunc("GET /api/search", h.handleSearch)

	mux.HandleFunc("POST /api/analyze", h.handleAnalyze)
	mux.HandleFunc("POST /api/edit", h.handleEdit)
	mux.HandleFunc("GET /api/chat", h.handleChatWS)

	mux.HandleFunc("GET /api/tools", h.handleToolList)
	mux.HandleFunc("POST /api/tools/{name}", h.handleToolCall)

	mux.HandleFunc("GET /api/artifacts/{run_id}", h.handleArtifactList)
	mux.HandleFunc("GET /api/artifacts/{run_id}/{path...}", h.handleArtifactGet)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": errorBody{Code: code, Message: message}})
}

// writeErr maps sentinel errors onto their status and code; anything
// unrecognized is an internal error.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, artifactrepo.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, relevance.ErrNoRelevantFiles):
		writeError(w, http.StatusUnprocessableEntity, "no_relevant_files", err.Error())
	case errors.Is(err, mcp.ErrUnknownTool):
		writeError(w, http.StatusNotFound, "unknown_tool", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body")
		return false
	}
	return true
}
