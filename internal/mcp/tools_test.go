package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codesight/internal/scan"
	"codesight/internal/session"
)

func setupHost(t *testing.T, files map[string]string) (Host, string) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mgr := session.NewManager(session.NewMemoryStore())
	s, err := mgr.Create(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	return Host{Sessions: mgr, Scan: scan.Options{BypassCache: true}}, s.ID
}

func callTool(t *testing.T, tool Tool, in, out any) {
	t.Helper()
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	res, err := tool.Call(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(res, out); err != nil {
		t.Fatal(err)
	}
}

func TestScanListTool(t *testing.T) {
	h, sid := setupHost(t, map[string]string{
		"a.ts":       "let a = 1\n",
		"sub/b.ts":   "let b = 2\n",
		"img/x.webp": "binary",
	})

	var out scanListOutput
	callTool(t, newScanListTool(h), scanListInput{SessionID: sid}, &out)

	if len(out.Files) != 2 {
		t.Fatalf("files=%d", len(out.Files))
	}
	paths := map[string]bool{}
	for _, f := range out.Files {
		paths[f.Path] = true
		if f.SizeBytes == 0 {
			t.Fatalf("no size for %s", f.Path)
		}
	}
	if !paths["a.ts"] || !paths["sub/b.ts"] {
		t.Fatalf("got %v", paths)
	}
}

func TestFileReadTool(t *testing.T) {
	h, sid := setupHost(t, map[string]string{"src/a.ts": "0123456789"})
	tool := newFileReadTool(h)

	var out fileReadOutput
	callTool(t, tool, fileReadInput{SessionID: sid, Path: "src/a.ts"}, &out)
	if out.Content != "0123456789" {
		t.Fatalf("got=%q", out.Content)
	}

	callTool(t, tool, fileReadInput{SessionID: sid, Path: "src/a.ts", Start: 2, Length: 3}, &out)
	if out.Content != "234" {
		t.Fatalf("got=%q", out.Content)
	}
}

func TestFileReadToolStaysInJail(t *testing.T) {
	h, sid := setupHost(t, map[string]string{"a.ts": "x"})
	raw, _ := json.Marshal(fileReadInput{SessionID: sid, Path: "../escape"})
	if _, err := newFileReadTool(h).Call(context.Background(), raw); err == nil {
		t.Fatal("escape not rejected")
	}
}

func TestImportsOfTool(t *testing.T) {
	h, sid := setupHost(t, map[string]string{
		"app.ts": "import { x } from './shared'\nconst y = require('react')\n",
	})

	var out importsOfOutput
	callTool(t, newImportsOfTool(h), importsOfInput{SessionID: sid, Path: "app.ts"}, &out)

	if len(out.Imports) != 2 {
		t.Fatalf("imports=%+v", out.Imports)
	}
	if out.Imports[0].Module != "./shared" || !out.Imports[0].IsRelative {
		t.Fatalf("got %+v", out.Imports[0])
	}
	if out.Imports[1].Module != "react" || !out.Imports[1].IsPackage {
		t.Fatalf("got %+v", out.Imports[1])
	}
}

func TestDependentsOfTool(t *testing.T) {
	h, sid := setupHost(t, map[string]string{
		"a.ts": "export const a = 1\n",
		"b.ts": "import { a } from './a'\n",
	})
	tool := newDependentsOfTool(h)

	var out dependentsOfOutput
	callTool(t, tool, dependentsOfInput{SessionID: sid, File: "src/a.ts"}, &out)
	if len(out.Dependents) != 1 || out.Dependents[0] != "b.ts" {
		t.Fatalf("got %+v", out)
	}

	callTool(t, tool, dependentsOfInput{SessionID: sid, File: "b.ts"}, &out)
	if len(out.Dependents) != 0 {
		t.Fatalf("got %+v", out)
	}
}

func TestRelevantFilesTool(t *testing.T) {
	h, sid := setupHost(t, map[string]string{
		"auth.ts":  "function login() {}\n",
		"other.ts": "let x = 1\n",
	})

	var out relevantFilesOutput
	callTool(t, newRelevantFilesTool(h), relevantFilesInput{
		SessionID:   sid,
		Description: "fix it",
		FilePaths:   []string{"auth.ts"},
	}, &out)

	if len(out.Files) != 1 || !strings.HasSuffix(out.Files[0], "auth.ts") {
		t.Fatalf("got %+v", out.Files)
	}
}

func TestWordSearchTool(t *testing.T) {
	h, sid := setupHost(t, map[string]string{
		"a.ts": "let token = 1\nlet other = 2\nuse(token)\n",
	})

	var out wordSearchOutput
	callTool(t, newWordSearchTool(h), wordSearchInput{SessionID: sid, Word: "token"}, &out)

	if len(out.Matches) != 2 {
		t.Fatalf("matches=%+v", out.Matches)
	}
	if out.Matches[0].Line != 1 || out.Matches[1].Line != 3 {
		t.Fatalf("lines=%+v", out.Matches)
	}
}

func TestToolsRequireKnownSession(t *testing.T) {
	h, _ := setupHost(t, map[string]string{"a.ts": "x"})
	raw, _ := json.Marshal(scanListInput{SessionID: "missing"})
	if _, err := newScanListTool(h).Call(context.Background(), raw); err == nil {
		t.Fatal("unknown session accepted")
	}
}

func TestRegistryDispatch(t *testing.T) {
	h, sid := setupHost(t, map[string]string{"a.ts": "let a = 1\n"})
	r := NewRegistry()
	RegisterDefaultTools(r, h)

	raw, _ := json.Marshal(scanListInput{SessionID: sid})
	res, err := r.Call(context.Background(), "scan_list", raw)
	if err != nil {
		t.Fatal(err)
	}
	var out scanListOutput
	if err := json.Unmarshal(res, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Files) != 1 {
		t.Fatalf("files=%d", len(out.Files))
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call(context.Background(), "nope", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("got %v, want ErrUnknownTool", err)
	}
}

func TestRegistrySpecsSorted(t *testing.T) {
	h, _ := setupHost(t, map[string]string{"a.ts": "x"})
	r := NewRegistry()
	RegisterDefaultTools(r, h)

	specs := r.Specs()
	if len(specs) != 6 {
		t.Fatalf("specs=%d", len(specs))
	}
	for i := 1; i < len(specs); i++ {
		if specs[i-1].Name >= specs[i].Name {
			t.Fatalf("unsorted at %d: %s >= %s", i, specs[i-1].Name, specs[i].Name)
		}
	}
}
