package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"codesight/internal/depgraph"
)

// --------------------- dependents_of ---------------------

type dependentsOfTool struct{ host Host }

func newDependentsOfTool(h Host) *dependentsOfTool { return &dependentsOfTool{host: h} }

func (t *dependentsOfTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        "dependents_of",
		Description: "List the project files that import the given file.",
	}
}

type dependentsOfInput struct {
	SessionID string `json:"session_id"`
	File      string `json:"file"`
}

type dependentsOfOutput struct {
	File       string   `json:"file"`
	Dependents []string `json:"dependents"`
}

func (t *dependentsOfTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in dependentsOfInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, err
	}
	name := filepath.Base(strings.TrimSpace(in.File))
	if name == "" || name == "." {
		return nil, fmt.Errorf("dependents_of: file required")
	}
	batch, err := t.host.batch(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	g := depgraph.Build(batch)
	deps := g.DependentsOf(name)
	if deps == nil {
		deps = []string{}
	}
	return json.Marshal(dependentsOfOutput{File: name, Dependents: deps})
}
