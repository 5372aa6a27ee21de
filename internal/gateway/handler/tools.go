package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"codesight/internal/mcp"
	"codesight/internal/relevance"
	"codesight/internal/session"
)

func (h *Handler) handleToolList(w http.ResponseWriter, r *http.Request) {
	specs := h.Tools.Specs()
	if specs == nil {
		specs = []mcp.ToolSpec{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": specs})
}

// handleToolCall dispatches the raw JSON body to a registered tool and
// relays its raw JSON reply.
func (h *Handler) handleToolCall(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	out, err := h.Tools.Call(r.Context(), r.PathValue("name"), json.RawMessage(body))
	if err != nil {
		switch {
		case errors.Is(err, mcp.ErrUnknownTool):
			writeError(w, http.StatusNotFound, "unknown_tool", err.Error())
		case errors.Is(err, session.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", err.Error())
		case errors.Is(err, relevance.ErrNoRelevantFiles):
			writeError(w, http.StatusUnprocessableEntity, "no_relevant_files", err.Error())
		default:
			// Tool failures are dominated by bad inputs; report them as such.
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
