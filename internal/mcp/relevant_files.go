package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codesight/internal/relevance"
)

// --------------------- relevant_files ---------------------

type relevantFilesTool struct{ host Host }

func newRelevantFilesTool(h Host) *relevantFilesTool { return &relevantFilesTool{host: h} }

func (t *relevantFilesTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        "relevant_files",
		Description: "Select the project files most relevant to a problem description.",
	}
}

type relevantFilesInput struct {
	SessionID   string   `json:"session_id"`
	Description string   `json:"description"`
	ErrorLog    string   `json:"error_log"`
	FilePaths   []string `json:"file_paths"`
}

type relevantFilesOutput struct {
	Files []string `json:"files"`
}

func (t *relevantFilesTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in relevantFilesInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("relevant_files: description required")
	}
	root, err := t.host.root(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	sel := relevance.Selector{ScanOptions: t.host.Scan}
	files, err := sel.Select(relevance.Problem{
		Description: in.Description,
		ErrorLog:    in.ErrorLog,
		FilePaths:   in.FilePaths,
		BasePath:    root,
	})
	if err != nil {
		return nil, err
	}

	out := relevantFilesOutput{Files: make([]string, 0, len(files))}
	for _, f := range files {
		out.Files = append(out.Files, f.Path)
	}
	return json.Marshal(out)
}
