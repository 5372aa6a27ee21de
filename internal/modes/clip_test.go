package modes

import (
	"strings"
	"testing"
)

func TestClipSmallFileIsFull(t *testing.T) {
	src := "let a = 1\nlet b = 2\n"
	got, mode := clip(src)
	if mode != clipFull {
		t.Fatalf("mode=%q", mode)
	}
	if got != src {
		t.Fatalf("got=%q", got)
	}
}

func TestClipMediumFileKeepsHeadOnly(t *testing.T) {
	src := strings.Repeat("0123456789\n", 400) // 401 lines, 4400 bytes
	got, mode := clip(src)
	if mode != clipHead {
		t.Fatalf("mode=%q", mode)
	}
	if len(got) != headBytes {
		t.Fatalf("len=%d", len(got))
	}
	if !strings.HasPrefix(src, got) {
		t.Fatal("head is not a prefix of the source")
	}
}

func TestClipLargeFilePicksDeclarations(t *testing.T) {
	lines := make([]string, 900)
	for i := range lines {
		lines[i] = "x = x + 1"
	}
	lines[100] = "far_away_marker = 1"
	lines[449] = "above_marker = 1"
	lines[450] = "export function makeThing() {"
	lines[451] = "below_marker = 1"
	src := strings.Join(lines, "\n")

	got, mode := clip(src)
	if mode != clipStruct {
		t.Fatalf("mode=%q", mode)
	}
	if !strings.Contains(got, "export function makeThing") {
		t.Fatalf("declaration missing from %q", got)
	}
	if !strings.Contains(got, "above_marker") || !strings.Contains(got, "below_marker") {
		t.Fatal("surrounding context missing")
	}
	if strings.Contains(got, "far_away_marker") {
		t.Fatal("unrelated line leaked into the structural view")
	}
}

func TestClipLargeFileWithoutDeclarationsFallsBackToHead(t *testing.T) {
	src := strings.Repeat("plain filler words\n", 900)
	got, mode := clip(src)
	if mode != clipStruct {
		t.Fatalf("mode=%q", mode)
	}
	if got != src[:headBytes] {
		t.Fatalf("len=%d", len(got))
	}
}
