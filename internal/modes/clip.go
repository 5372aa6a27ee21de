package modes

import (
	"regexp"
	"strings"
)

// Clipping keeps prompts inside a model's context window. Small files go
// in whole, medium files lose their tail, and large files are reduced to
// the declaration-looking lines with a little context around each.
const (
	clipFull   = "full"
	clipHead   = "head"
	clipStruct = "struct"

	fullMaxLines = 200
	headMaxLines = 800
	headBytes    = 3000
)

var declRe = regexp.MustCompile(`(?i)\b(export|function|class|interface|type|const|router\.|module\.exports|app\.(get|post|put|delete|use))\b`)

func clip(src string) (string, string) {
	lines := strings.Count(src, "\n") + 1
	switch {
	case lines <= fullMaxLines:
		return src, clipFull
	case lines <= headMaxLines:
		return headN(src, headBytes), clipHead
	default:
		return structural(src), clipStruct
	}
}

func headN(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func structural(s string) string {
	lines := strings.Split(s, "\n")
	var picked []string
	total := 0
	for i, l := range lines {
		if !declRe.MatchString(l) {
			continue
		}
		start := i - 2
		if start < 0 {
			start = 0
		}
		end := i + 3
		if end > len(lines) {
			end = len(lines)
		}
		chunk := strings.Join(lines[start:end], "\n")
		picked = append(picked, chunk)
		total += len(chunk)
		if total > headBytes {
			break
		}
	}
	if len(picked) == 0 {
		return headN(s, headBytes)
	}
	return strings.Join(picked, "\n")
}
