package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// --------------------- file_read ---------------------

type fileReadTool struct{ host Host }

func newFileReadTool(h Host) *fileReadTool { return &fileReadTool{host: h} }

func (t *fileReadTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        "file_read",
		Description: "Read a file (or a slice of it) from inside the session's project root.",
	}
}

type fileReadInput struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
	Start     int    `json:"start"`
	Length    int    `json:"length"`
}

type fileReadOutput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (t *fileReadTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in fileReadInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Path) == "" {
		return nil, fmt.Errorf("file_read: path required")
	}
	if in.Length <= 0 {
		in.Length = 65536
	}
	if in.Start < 0 {
		in.Start = 0
	}
	jail, err := t.host.jail(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	raw, err := jail.ReadFile(in.Path)
	if err != nil {
		return nil, err
	}
	if in.Start > len(raw) {
		in.Start = len(raw)
	}
	end := in.Start + in.Length
	if end > len(raw) {
		end = len(raw)
	}
	return json.Marshal(fileReadOutput{Path: in.Path, Content: string(raw[in.Start:end])})
}
