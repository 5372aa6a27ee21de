package relevance

import "regexp"

// Patterns for the path shapes that show up in JS and TS runtime traces.
// Matching is approximate on purpose; candidates that do not exist on disk
// are dropped later, so a stray match costs nothing.
var tracePatterns = []*regexp.Regexp{
	// at doLogin (src/auth/login.ts:42:13)
	regexp.MustCompile(`at\s+\S+\s+\((.+?):(\d+):(\d+)\)`),
	// at src/auth/login.ts:42:13
	regexp.MustCompile(`at\s+(.+?):(\d+):(\d+)`),
	// C:\app\src\login.ts
	regexp.MustCompile(`([A-Za-z]:[\\/][^\s:'")]+)`),
	// /app/src/login.ts
	regexp.MustCompile(`(/[^\s:'")]+)`),
}

// ExtractTracePaths mines an error log for file path candidates, in
// pattern order and first-seen order within a pattern, without duplicates.
// Line and column suffixes are not part of the result.
func ExtractTracePaths(errorLog string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, re := range tracePatterns {
		for _, m := range re.FindAllStringSubmatch(errorLog, -1) {
			p := m[1]
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
