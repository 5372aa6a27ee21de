package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codesight/internal/imports"
)

// --------------------- imports_of ---------------------

type importsOfTool struct{ host Host }

func newImportsOfTool(h Host) *importsOfTool { return &importsOfTool{host: h} }

func (t *importsOfTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        "imports_of",
		Description: "Extract the import statements of one project file.",
	}
}

type importsOfInput struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
}

type importsOfOutput struct {
	Path    string         `json:"path"`
	Imports []importRecord `json:"imports"`
}

type importRecord struct {
	Raw        string `json:"raw"`
	Module     string `json:"module"`
	IsRelative bool   `json:"is_relative"`
	IsPackage  bool   `json:"is_package"`
}

func (t *importsOfTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in importsOfInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Path) == "" {
		return nil, fmt.Errorf("imports_of: path required")
	}
	jail, err := t.host.jail(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	raw, err := jail.ReadFile(in.Path)
	if err != nil {
		return nil, err
	}

	records := imports.Extract(string(raw))
	out := importsOfOutput{Path: in.Path, Imports: make([]importRecord, 0, len(records))}
	for _, rec := range records {
		out.Imports = append(out.Imports, importRecord{
			Raw:        rec.Raw,
			Module:     rec.Module,
			IsRelative: rec.IsRelative,
			IsPackage:  rec.IsPackage,
		})
	}
	return json.Marshal(out)
}
