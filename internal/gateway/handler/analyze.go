package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	artifactrepo "codesight/internal/gateway/repository/artifact"
	"codesight/internal/modes"
	"codesight/internal/relevance"
	"codesight/internal/scan"
	"codesight/internal/session"
)

type analyzeRequest struct {
	SessionID   string   `json:"session_id"`
	Mode        string   `json:"mode"`
	Description string   `json:"description"`
	ErrorLog    string   `json:"error_log"`
	FilePaths   []string `json:"file_paths"`
}

type analyzeResult struct {
	RunID  string   `json:"run_id"`
	Mode   string   `json:"mode"`
	Files  []string `json:"files"`
	Answer string   `json:"answer"`
}

// errModelQuery marks provider failures so they map to 502 instead of 500.
var errModelQuery = errors.New("model query failed")

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var in analyzeRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	mode, err := modes.Parse(in.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_mode", err.Error())
		return
	}
	if strings.TrimSpace(in.Description) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "description is required")
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		h.analyzeSSE(w, r, in, mode)
		return
	}
	res, err := h.runAnalysis(r.Context(), in, mode, nil)
	if err != nil {
		writeAnalyzeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeAnalyzeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, errModelQuery) {
		writeError(w, http.StatusBadGateway, "model_error", err.Error())
		return
	}
	writeErr(w, err)
}

// runAnalysis drives one run: select files, build the prompt, query the
// model, archive the answer and record the exchange on the session. emit,
// when non-nil, observes stage progress.
func (h *Handler) runAnalysis(ctx context.Context, in analyzeRequest, mode modes.Mode, emit func(event string, payload any)) (analyzeResult, error) {
	notify := func(event string, payload any) {
		if emit != nil {
			emit(event, payload)
		}
	}

	sess, err := h.Sessions.Get(ctx, in.SessionID)
	if err != nil {
		return analyzeResult{}, err
	}
	root := sess.ProjectRoot

	fileCount := 0
	if err := scan.Walk(root, func(f scan.FileVisit) {
		if !f.IsDir && scan.AllowedExt(f.Ext) {
			fileCount++
		}
	}); err != nil {
		return analyzeResult{}, err
	}
	notify("scan", map[string]any{"files": fileCount})

	sel := relevance.Selector{ScanOptions: h.Scan}
	files, err := sel.Select(relevance.Problem{
		Description: in.Description,
		ErrorLog:    in.ErrorLog,
		FilePaths:   in.FilePaths,
		BasePath:    root,
	})
	if err != nil {
		return analyzeResult{}, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	notify("select", map[string]any{"files": paths})

	var history []modes.Turn
	if mode == modes.ModeChat {
		history = historyTurns(sess.Messages)
	}
	prompt, err := modes.BuildPrompt(modes.Request{
		Mode:        mode,
		Description: in.Description,
		ErrorLog:    in.ErrorLog,
		Files:       files,
		History:     history,
	})
	if err != nil {
		return analyzeResult{}, err
	}

	notify("model", map[string]any{"provider": h.Model.Name()})
	answer, err := h.Model.Query(ctx, prompt.User, prompt.System)
	if err != nil {
		return analyzeResult{}, fmt.Errorf("%w: %v", errModelQuery, err)
	}

	runID := uuid.NewString()
	if err := h.Artifacts.Put(ctx, runID, artifactrepo.AnswerPath, []byte(answer)); err != nil {
		// The answer still reaches the caller; only the archive copy is lost.
		log.Printf("[analyze] archive answer for run %s: %v", runID, err)
	}
	h.recordExchange(ctx, sess.ID, in.Description, answer)

	res := analyzeResult{RunID: runID, Mode: string(mode), Files: paths, Answer: answer}
	notify("done", res)
	return res, nil
}

func historyTurns(msgs []session.Message) []modes.Turn {
	turns := make([]modes.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, modes.Turn{Role: m.Role, Text: m.Text})
	}
	return turns
}

// recordExchange appends the user/assistant pair to the session history.
// History failures don't fail the run.
func (h *Handler) recordExchange(ctx context.Context, sessionID, question, answer string) {
	if _, err := h.Sessions.AppendMessage(ctx, sessionID, session.Message{Role: "user", Text: question}); err != nil {
		log.Printf("[analyze] record user turn: %v", err)
		return
	}
	if _, err := h.Sessions.AppendMessage(ctx, sessionID, session.Message{Role: "assistant", Text: answer}); err != nil {
		log.Printf("[analyze] record assistant turn: %v", err)
	}
}

// analyzeSSE streams stage progress as server-sent events, ending with a
// done event carrying the full result, or an error event.
func (h *Handler) analyzeSSE(w http.ResponseWriter, r *http.Request, in analyzeRequest, mode modes.Mode) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	emit := func(event string, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	if _, err := h.runAnalysis(r.Context(), in, mode, emit); err != nil {
		code := "internal"
		switch {
		case errors.Is(err, session.ErrNotFound):
			code = "not_found"
		case errors.Is(err, relevance.ErrNoRelevantFiles):
			code = "no_relevant_files"
		case errors.Is(err, errModelQuery):
			code = "model_error"
		}
		emit("error", errorBody{Code: code, Message: err.Error()})
	}
}
