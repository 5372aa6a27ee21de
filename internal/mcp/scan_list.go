package mcp

import (
	"context"
	"encoding/json"

	"codesight/internal/scan"
)

// --------------------- scan_list ---------------------

type scanListTool struct{ host Host }

func newScanListTool(h Host) *scanListTool { return &scanListTool{host: h} }

func (t *scanListTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        "scan_list",
		Description: "List the session project's source files with sizes, without content.",
	}
}

type scanListInput struct {
	SessionID string `json:"session_id"`
	MaxFiles  int    `json:"max_files"`
}

type scanListOutput struct {
	Files []scanListFile `json:"files"`
}

type scanListFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Ext       string `json:"ext"`
}

func (t *scanListTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in scanListInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, err
	}
	if in.MaxFiles <= 0 {
		in.MaxFiles = 2000
	}
	root, err := t.host.root(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	out := scanListOutput{Files: make([]scanListFile, 0, 64)}
	err = scan.Walk(root, func(f scan.FileVisit) {
		if f.IsDir || !scan.AllowedExt(f.Ext) {
			return
		}
		if len(out.Files) >= in.MaxFiles {
			return
		}
		out.Files = append(out.Files, scanListFile{Path: f.Path, SizeBytes: f.Size, Ext: f.Ext})
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}
