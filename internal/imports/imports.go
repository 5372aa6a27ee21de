package imports

import (
	"regexp"
	"strings"
)

// Record is one import statement recognized in a file.
type Record struct {
	// Raw is the matched statement text as it appeared on the line.
	Raw string
	// Module is the quoted module string (e.g., "./shared", "react").
	Module string
	// IsRelative is true iff Module starts with "./" or "../".
	IsRelative bool
	// IsPackage is the complement: a bare package reference.
	IsPackage bool
}

// Pattern order is significant: the first matching shape on a line wins.
var patterns = []*regexp.Regexp{
	// import { x } from './shared'  /  import x from "pkg"
	regexp.MustCompile(`import\s+.+?\s+from\s+['"]([^'"]+)['"]`),
	// import './side-effect'
	regexp.MustCompile(`import\s+['"]([^'"]+)['"]`),
	// import('./lazy')
	regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`),
	// require('./legacy')
	regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`),
}

// Extract scans content line by line and returns every recognized import.
// Lines starting with a line comment are skipped. This is pattern matching,
// not a module grammar: statements spanning multiple lines under-extract,
// which is accepted behavior.
func Extract(content string) []Record {
	var records []Record
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		for _, re := range patterns {
			m := re.FindStringSubmatch(trimmed)
			if m == nil {
				continue
			}
			module := m[1]
			rel := IsRelative(module)
			records = append(records, Record{
				Raw:        m[0],
				Module:     module,
				IsRelative: rel,
				IsPackage:  !rel,
			})
			break
		}
	}
	return records
}

// IsRelative reports whether a module string names a relative file import.
func IsRelative(module string) bool {
	return strings.HasPrefix(module, "./") || strings.HasPrefix(module, "../")
}
