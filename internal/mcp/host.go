package mcp

import (
	"context"
	"fmt"
	"strings"

	"codesight/internal/safeio"
	"codesight/internal/scan"
	"codesight/internal/session"
)

// Host wires session access for tools. Every tool input names a
// session_id; the host resolves it to the project root or its jail.
type Host struct {
	Sessions *session.Manager
	Scan     scan.Options
}

// RegisterDefaultTools installs the default tool set into a registry.
func RegisterDefaultTools(r *Registry, h Host) {
	if r == nil {
		return
	}
	r.Register(newScanListTool(h))
	r.Register(newFileReadTool(h))
	r.Register(newImportsOfTool(h))
	r.Register(newDependentsOfTool(h))
	r.Register(newRelevantFilesTool(h))
	r.Register(newWordSearchTool(h))
}

func (h Host) root(ctx context.Context, sessionID string) (string, error) {
	if h.Sessions == nil {
		return "", fmt.Errorf("mcp: sessions not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("mcp: session_id required")
	}
	s, err := h.Sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return s.ProjectRoot, nil
}

func (h Host) jail(ctx context.Context, sessionID string) (*safeio.SafeFS, error) {
	if h.Sessions == nil {
		return nil, fmt.Errorf("mcp: sessions not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("mcp: session_id required")
	}
	return h.Sessions.FS(ctx, sessionID)
}

func (h Host) batch(ctx context.Context, sessionID string) ([]scan.ScannedFile, error) {
	root, err := h.root(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return scan.Scan(root, h.Scan)
}
