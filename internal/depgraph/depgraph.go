package depgraph

import (
	"strings"

	"codesight/internal/imports"
	"codesight/internal/scan"
)

// Resolution candidates are tried in this order after an exact basename
// match fails. The order follows the module resolution of the JS family the
// scanner targets.
var resolveExts = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".json"}

// Graph is the file-to-file dependency structure of one scan batch, keyed
// by file basename. Resolution is by basename only, never the real
// filesystem, so every edge target is a member of the batch.
type Graph struct {
	order      []string
	deps       map[string][]string
	dependents map[string][]string
}

// Build extracts every relative import of every batch file and resolves it
// against the basenames of the same batch: exact name, then name plus each
// known extension, then an index file per extension. First match wins; an
// import that resolves to nothing contributes nothing. Package imports are
// never resolved or recorded.
func Build(batch []scan.ScannedFile) *Graph {
	names := make([]string, len(batch))
	for i, f := range batch {
		names[i] = f.Name
	}

	g := &Graph{
		order:      names,
		deps:       make(map[string][]string, len(batch)),
		dependents: make(map[string][]string),
	}

	for _, f := range batch {
		seen := make(map[string]bool)
		for _, rec := range imports.Extract(f.Content) {
			if !rec.IsRelative {
				continue
			}
			target := resolveAgainst(rec.Module, names)
			if target == "" || seen[target] {
				continue
			}
			seen[target] = true
			g.deps[f.Name] = append(g.deps[f.Name], target)
			g.dependents[target] = append(g.dependents[target], f.Name)
		}
	}
	return g
}

// DependenciesOf returns the resolved dependencies of a file by basename.
func (g *Graph) DependenciesOf(name string) []string {
	if g == nil {
		return nil
	}
	return copyOf(g.deps[name])
}

// DependentsOf is the inverse query: every file whose dependency list
// contains the given basename.
func (g *Graph) DependentsOf(name string) []string {
	if g == nil {
		return nil
	}
	return copyOf(g.dependents[name])
}

// Files returns the batch file basenames in scan order.
func (g *Graph) Files() []string {
	if g == nil {
		return nil
	}
	return copyOf(g.order)
}

func copyOf(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// resolveAgainst maps a relative module string to the first batch basename
// it can stand for. The candidate is the last path segment of the module;
// an empty or dot segment (e.g. "./", "..") goes straight to the index
// fallback.
func resolveAgainst(module string, names []string) string {
	trimmed := strings.TrimSuffix(module, "/")
	segs := strings.Split(trimmed, "/")
	cand := segs[len(segs)-1]
	if cand == "." || cand == ".." {
		cand = ""
	}

	if cand != "" {
		for _, n := range names {
			if n == cand {
				return n
			}
		}
		for _, ext := range resolveExts {
			want := cand + ext
			for _, n := range names {
				if n == want {
					return n
				}
			}
		}
	}
	for _, ext := range resolveExts {
		want := "index" + ext
		for _, n := range names {
			if n == want {
				return n
			}
		}
	}
	return ""
}
