package relevance

import (
	"sort"
	"strings"
	"unicode"

	"codesight/internal/scan"
)

// tokenize lowercases the description and keeps the words longer than
// three characters. Short words are almost always glue ("fix", "the",
// "bug") and would drown the signal.
func tokenize(description string) []string {
	words := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	var out []string
	for _, w := range words {
		if len(w) > 3 {
			out = append(out, w)
		}
	}
	return out
}

// topScored ranks the batch by keyword hits and returns the best five.
// A keyword found in the content counts 1, in the file name 2. Files that
// score zero are dropped; ties keep their scan order.
func topScored(batch []scan.ScannedFile, keywords []string) []scan.ScannedFile {
	type scored struct {
		file  scan.ScannedFile
		score int
	}
	var ranked []scored
	for _, f := range batch {
		content := strings.ToLower(f.Content)
		name := strings.ToLower(f.Name)
		score := 0
		for _, kw := range keywords {
			if strings.Contains(content, kw) {
				score++
			}
			if strings.Contains(name, kw) {
				score += 2
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{file: f, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > maxSelected {
		ranked = ranked[:maxSelected]
	}
	out := make([]scan.ScannedFile, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.file)
	}
	return out
}
