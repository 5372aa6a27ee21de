package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codesight/internal/wordidx"
)

// --------------------- word_search ---------------------

type wordSearchTool struct{ host Host }

func newWordSearchTool(h Host) *wordSearchTool { return &wordSearchTool{host: h} }

func (t *wordSearchTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        "word_search",
		Description: "Find exact word occurrences across the session project via the word index.",
	}
}

type wordSearchInput struct {
	SessionID  string `json:"session_id"`
	Word       string `json:"word"`
	MaxResults int    `json:"max_results"`
}

type wordSearchOutput struct {
	Matches []wordSearchMatch `json:"matches"`
}

type wordSearchMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
}

func (t *wordSearchTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in wordSearchInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Word) == "" {
		return nil, fmt.Errorf("word_search: word required")
	}
	if in.MaxResults <= 0 {
		in.MaxResults = 200
	}
	batch, err := t.host.batch(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	idx := wordidx.BuildBatch(batch)
	refs := idx.Find(ctx, strings.TrimSpace(in.Word))
	out := wordSearchOutput{Matches: make([]wordSearchMatch, 0, len(refs))}
	for _, ref := range refs {
		if len(out.Matches) >= in.MaxResults {
			break
		}
		out.Matches = append(out.Matches, wordSearchMatch{Path: ref.FilePath, Line: ref.Line})
	}
	return json.Marshal(out)
}
