package handler

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	artifactrepo "codesight/internal/gateway/repository/artifact"
	"codesight/internal/modes"
	"codesight/internal/relevance"
)

type editRequest struct {
	SessionID   string   `json:"session_id"`
	Description string   `json:"description"`
	ErrorLog    string   `json:"error_log"`
	FilePaths   []string `json:"file_paths"`
}

// handleEdit asks the model for whole-file replacements and applies them
// inside the session's project root. Every returned path is checked against
// the jail before the first write; pre-edit content is archived under the
// run before being overwritten.
func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	var in editRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Description) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "description is required")
		return
	}
	ctx := r.Context()

	jail, err := h.Sessions.FS(ctx, in.SessionID)
	if err != nil {
		writeErr(w, err)
		return
	}
	root := jail.Root()

	sel := relevance.Selector{ScanOptions: h.Scan}
	files, err := sel.Select(relevance.Problem{
		Description: in.Description,
		ErrorLog:    in.ErrorLog,
		FilePaths:   in.FilePaths,
		BasePath:    root,
	})
	if err != nil {
		writeErr(w, err)
		return
	}

	prompt, err := modes.BuildPrompt(modes.Request{
		Mode:        modes.ModeEdit,
		Description: in.Description,
		ErrorLog:    in.ErrorLog,
		Files:       files,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	answer, err := h.Model.Query(ctx, prompt.User, prompt.System)
	if err != nil {
		writeError(w, http.StatusBadGateway, "model_error", err.Error())
		return
	}
	edits, err := modes.ParseEdits(answer)
	if err != nil {
		writeError(w, http.StatusBadGateway, "model_error", err.Error())
		return
	}

	// All paths must clear the jail before anything is touched.
	for _, e := range edits {
		if err := jail.CheckWrite(e.Path); err != nil {
			writeError(w, http.StatusBadRequest, "path_rejected", fmt.Sprintf("edit %s: %v", e.Path, err))
			return
		}
	}

	runID := uuid.NewString()
	if err := h.Artifacts.Put(ctx, runID, artifactrepo.AnswerPath, []byte(answer)); err != nil {
		log.Printf("[edit] archive answer for run %s: %v", runID, err)
	}

	applied := make([]string, 0, len(edits))
	backedUp := make([]string, 0, len(edits))
	for _, e := range edits {
		rel := relProjectPath(root, e.Path)

		old, err := jail.ReadFile(e.Path)
		switch {
		case err == nil:
			if err := h.Artifacts.Put(ctx, runID, artifactrepo.BackupPath(rel), old); err != nil {
				writeError(w, http.StatusInternalServerError, "internal", fmt.Sprintf("backup %s: %v", rel, err))
				return
			}
			backedUp = append(backedUp, rel)
		case errors.Is(err, fs.ErrNotExist):
			// New file, nothing to back up.
		default:
			writeError(w, http.StatusInternalServerError, "internal", fmt.Sprintf("read %s before edit: %v", rel, err))
			return
		}

		if err := jail.WriteFile(e.Path, []byte(e.Content), 0o644); err != nil {
			writeError(w, http.StatusInternalServerError, "internal", fmt.Sprintf("write %s: %v", rel, err))
			return
		}
		applied = append(applied, rel)
		if _, err := h.Sessions.SetOpenFile(ctx, in.SessionID, rel, e.Content); err != nil {
			log.Printf("[edit] record open file %s: %v", rel, err)
		}
	}

	h.recordExchange(ctx, in.SessionID, in.Description, "Edited "+strings.Join(applied, ", "))

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":    runID,
		"mode":      "edit",
		"files":     applied,
		"backed_up": backedUp,
	})
}

// relProjectPath renders a model-returned path root-relative with forward
// slashes, the form backups are keyed by.
func relProjectPath(root, p string) string {
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(root, p); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return path.Clean(filepath.ToSlash(p))
}
