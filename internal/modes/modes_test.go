package modes

import (
	"strings"
	"testing"

	"codesight/internal/scan"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "chat", want: ModeChat},
		{in: "", want: ModeChat},
		{in: " Debug ", want: ModeDebug},
		{in: "EDIT", want: ModeEdit},
		{in: "refactor", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("Parse(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildPromptSections(t *testing.T) {
	p, err := BuildPrompt(Request{
		Mode:        ModeDebug,
		Description: "login crashes",
		ErrorLog:    "at doLogin (login.ts:3:1)",
		Files: []scan.ScannedFile{
			{Name: "login.ts", Path: "/proj/login.ts", Content: "export function doLogin() {}\n"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[REQUEST]", "login crashes", "[ERROR_LOG]", "[FILES]", "/proj/login.ts", "export function doLogin"} {
		if !strings.Contains(p.User, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, p.User)
		}
	}
	if !strings.Contains(p.System, "debugging") {
		t.Fatalf("system prompt = %q", p.System)
	}
}

func TestBuildPromptSkipsEmptySections(t *testing.T) {
	p, err := BuildPrompt(Request{Mode: ModeChat, Description: "hi there"})
	if err != nil {
		t.Fatal(err)
	}
	for _, skip := range []string{"[ERROR_LOG]", "[FILES]", "[HISTORY]"} {
		if strings.Contains(p.User, skip) {
			t.Fatalf("user prompt should not contain %q:\n%s", skip, p.User)
		}
	}
}

func TestBuildPromptIncludesHistory(t *testing.T) {
	p, err := BuildPrompt(Request{
		Mode:        ModeChat,
		Description: "and what about tests?",
		History: []Turn{
			{Role: "user", Text: "explain the scanner"},
			{Role: "assistant", Text: "it walks the tree"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.User, "user: explain the scanner") ||
		!strings.Contains(p.User, "assistant: it walks the tree") {
		t.Fatalf("history missing:\n%s", p.User)
	}
}

func TestBuildPromptRejectsEmptyDescription(t *testing.T) {
	if _, err := BuildPrompt(Request{Mode: ModeChat, Description: "  "}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestBuildPromptRejectsUnknownMode(t *testing.T) {
	if _, err := BuildPrompt(Request{Mode: "nope", Description: "x"}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestEditSystemPromptDemandsJSON(t *testing.T) {
	p, err := BuildPrompt(Request{Mode: ModeEdit, Description: "rename the handler"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.System, "JSON") {
		t.Fatalf("edit system prompt must demand JSON: %q", p.System)
	}
}
