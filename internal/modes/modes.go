package modes

import (
	"bytes"
	"fmt"
	"strings"

	"codesight/internal/scan"
	"codesight/internal/utils"
)

// Mode selects the assistant's task framing for one request.
type Mode string

const (
	ModeChat    Mode = "chat"
	ModeExplain Mode = "explain"
	ModeDebug   Mode = "debug"
	ModePlan    Mode = "plan"
	ModeEdit    Mode = "edit"
	ModeReview  Mode = "review"
)

// All lists the supported modes in display order.
func All() []Mode {
	return []Mode{ModeChat, ModeExplain, ModeDebug, ModePlan, ModeEdit, ModeReview}
}

// Parse normalizes a mode string. The empty string means chat.
func Parse(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ModeChat, nil
	case ModeChat:
		return ModeChat, nil
	case ModeExplain:
		return ModeExplain, nil
	case ModeDebug:
		return ModeDebug, nil
	case ModePlan:
		return ModePlan, nil
	case ModeEdit:
		return ModeEdit, nil
	case ModeReview:
		return ModeReview, nil
	default:
		return "", fmt.Errorf("modes: unknown mode %q", s)
	}
}

// Turn is one prior exchange in a conversation.
type Turn struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// Request carries everything a prompt is built from. Files are the
// already-selected project files, in selection order.
type Request struct {
	Mode        Mode
	Description string
	ErrorLog    string
	Files       []scan.ScannedFile
	History     []Turn
}

// Prompt is the rendered pair handed to a model client.
type Prompt struct {
	System string
	User   string
}

var systemPrompts = map[Mode]string{
	ModeChat: "You are a coding assistant with access to files from the user's project. " +
		"Answer their questions using the provided files as context. Be direct and concrete.",
	ModeExplain: "You are a coding assistant. Explain what the provided files do and how they fit together, " +
		"walking through the parts relevant to the user's question. Refer to files by path.",
	ModeDebug: "You are a debugging assistant. Using the provided files and error log, identify the most " +
		"likely root cause, point at the exact file and line when possible, and suggest a fix.",
	ModePlan: "You are a planning assistant. Produce a numbered, step-by-step implementation plan for the " +
		"requested change, naming which of the provided files each step touches.",
	ModeEdit: "You are a code editing assistant. Reply with ONLY a JSON array of edits, no prose and no " +
		"markdown fences. Each element is {\"path\": string, \"content\": string, \"reason\": string} where " +
		"content is the complete new file body. Only include files that change.",
	ModeReview: "You are a code reviewer. Review the provided files for bugs, unclear code and risky " +
		"patterns. Report findings as short bullets, each naming the file and what to change.",
}

// BuildPrompt renders the request into a system and user prompt.
func BuildPrompt(req Request) (Prompt, error) {
	system, ok := systemPrompts[req.Mode]
	if !ok {
		return Prompt{}, fmt.Errorf("modes: unknown mode %q", req.Mode)
	}
	if strings.TrimSpace(req.Description) == "" {
		return Prompt{}, fmt.Errorf("modes: description is empty")
	}

	var buf bytes.Buffer
	writeSection(&buf, "REQUEST", req.Description)
	writeSection(&buf, "ERROR_LOG", req.ErrorLog)
	writeSection(&buf, "HISTORY", formatHistory(req.History))
	writeSection(&buf, "FILES", formatFiles(req.Files))

	return Prompt{System: system, User: strings.TrimSpace(buf.String()) + "\n"}, nil
}

func formatHistory(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var buf strings.Builder
	for _, t := range turns {
		role := t.Role
		if role == "" {
			role = "user"
		}
		fmt.Fprintf(&buf, "%s: %s\n", role, t.Text)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatFiles(files []scan.ScannedFile) string {
	if len(files) == 0 {
		return ""
	}
	var buf strings.Builder
	for _, f := range files {
		content := f.Content
		if f.Ext == ".md" {
			content = utils.MarkDownClean(content)
		}
		text, clipMode := clip(content)
		if clipMode == clipFull {
			fmt.Fprintf(&buf, "--- %s ---\n", f.Path)
		} else {
			fmt.Fprintf(&buf, "--- %s (%s) ---\n", f.Path, clipMode)
		}
		buf.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			buf.WriteString("\n")
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}
