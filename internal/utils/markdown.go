// Package utils holds small text helpers shared across the prompt path.
package utils

import (
	"regexp"
	"strings"
)

var (
	mdImage     = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	htmlImage   = regexp.MustCompile(`(?is)<img[^>]*>`)
	htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
)

// MarkDownClean strips the parts of a markdown document that waste model
// context: images (markdown and inline HTML), HTML comments, and runs of
// blank lines beyond paragraph spacing.
func MarkDownClean(text string) string {
	text = mdImage.ReplaceAllString(text, "")
	text = htmlImage.ReplaceAllString(text, "")
	text = htmlComment.ReplaceAllString(text, "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
