package modes

import (
	"fmt"
	"strings"

	"codesight/internal/util/jsonutil"
)

// FileEdit is one whole-file replacement proposed by the model.
type FileEdit struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Reason  string `json:"reason,omitempty"`
}

// ParseEdits extracts the edit list from a model reply. It tolerates
// markdown fences and prose around the JSON, and accepts a bare array or
// an {"edits": [...]} / {"files": [...]} envelope.
func ParseEdits(reply string) ([]FileEdit, error) {
	cleaned := jsonutil.CleanModelJSON(reply)

	var edits []FileEdit
	if err := jsonutil.UnmarshalFlex([]byte(cleaned), &edits); err != nil {
		var envelope struct {
			Edits []FileEdit `json:"edits"`
			Files []FileEdit `json:"files"`
		}
		if err2 := jsonutil.UnmarshalFlex([]byte(cleaned), &envelope); err2 != nil {
			return nil, fmt.Errorf("modes: parse edits: %w", err)
		}
		edits = envelope.Edits
		if len(edits) == 0 {
			edits = envelope.Files
		}
	}

	if len(edits) == 0 {
		return nil, fmt.Errorf("modes: model proposed no edits")
	}
	for i, e := range edits {
		if strings.TrimSpace(e.Path) == "" {
			return nil, fmt.Errorf("modes: edit %d has no path", i)
		}
	}
	return edits, nil
}
