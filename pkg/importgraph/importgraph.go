// Package importgraph implements the IMPORT phase (§4.2): resolving each
// file's `import:` paths relative to its own location, building the
// import DAG, detecting cycles, and producing a deterministic
// compilation order with the root file sorted last so later
// redeclarations (§4.2 "last file wins") see everything imported before
// them.
package importgraph

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/diag"
	"github.com/urdwyrd/urd/pkg/source"
)

// Loader reads and parses one source file on demand, returning its
// File ID and parsed tree. The compiler package supplies an
// implementation backed by pkg/parse and the filesystem; tests can
// supply an in-memory one.
type Loader interface {
	Load(path string) (source.FileID, *ast.File, error)
}

// Graph is the resolved import DAG for one compilation rooted at a
// single entry file.
type Graph struct {
	Root  source.FileID
	Files map[source.FileID]*ast.File
	// Order is every file in compilation order: dependencies before
	// dependents, with Root always last.
	Order []source.FileID
}

// color values for the three-color cycle-detection DFS (§4.2).
type color int

const (
	white color = iota
	gray
	black
)

// Build resolves rootPath's import graph, starting from an already
// parsed rootFile (so the caller only needs one Loader call for files
// it hasn't read yet).
func Build(sm *source.Map, loader Loader, rootID source.FileID, rootFile *ast.File, bag *diag.Bag) *Graph {
	g := &Graph{Root: rootID, Files: map[source.FileID]*ast.File{rootID: rootFile}}
	colors := map[source.FileID]color{rootID: gray}
	var order []source.FileID
	var stack []source.FileID // path trail, for cycle diagnostics

	var visit func(id source.FileID, f *ast.File)
	visit = func(id source.FileID, f *ast.File) {
		stack = append(stack, id)
		for _, raw := range f.Imports {
			depPath := resolveImportPath(sm.Path(id), raw)
			depID, depFile, ok := g.resolve(sm, loader, depPath, bag, f, raw)
			if !ok {
				continue
			}
			switch colors[depID] {
			case white:
				colors[depID] = gray
				visit(depID, depFile)
			case gray:
				bag.Errorf("URD201", fileStartSpan(depID), "import cycle detected: %s", describeCycle(sm, stack, depID))
			case black:
				// already fully processed, nothing to do
			}
		}
		colors[id] = black
		order = append(order, id)
		stack = stack[:len(stack)-1]
	}
	visit(rootID, rootFile)

	// Root must compile last regardless of DFS finish order, so later
	// declarations override earlier ones per §4.2.
	order = moveToEnd(order, rootID)
	g.Order = order
	return g
}

func (g *Graph) resolve(sm *source.Map, loader Loader, path string, bag *diag.Bag, from *ast.File, raw string) (source.FileID, *ast.File, bool) {
	if id, ok := sm.Lookup(path); ok {
		if f, ok := g.Files[id]; ok {
			return id, f, true
		}
	}
	id, f, err := loader.Load(path)
	if err != nil {
		bag.Errorf("URD202", fileStartSpan(from.ID), "cannot resolve import %q: %v", raw, err)
		return 0, nil, false
	}
	g.Files[id] = f
	return id, f, true
}

// resolveImportPath resolves an import path relative to the directory
// of the file that declares it, per §4.2.
func resolveImportPath(fromPath, raw string) string {
	if filepath.IsAbs(raw) {
		return source.Canonicalize(raw)
	}
	dir := filepath.Dir(fromPath)
	return source.Canonicalize(filepath.Join(dir, raw))
}

func moveToEnd(order []source.FileID, id source.FileID) []source.FileID {
	out := make([]source.FileID, 0, len(order))
	for _, o := range order {
		if o != id {
			out = append(out, o)
		}
	}
	out = append(out, id)
	return out
}

func describeCycle(sm *source.Map, stack []source.FileID, closingID source.FileID) string {
	start := 0
	for i, id := range stack {
		if id == closingID {
			start = i
			break
		}
	}
	var parts []string
	for _, id := range stack[start:] {
		parts = append(parts, sm.Path(id))
	}
	parts = append(parts, sm.Path(closingID))
	return strings.Join(parts, " -> ")
}

func fileStartSpan(id source.FileID) source.Span {
	return source.Span{File: id, Start: 0, End: 0}
}

// SortedPaths returns the canonical paths of every file in a Graph:
// the imported files sorted alphabetically, then the root file last.
func SortedPaths(sm *source.Map, g *Graph) []string {
	var deps []string
	for _, id := range g.Order {
		if id != g.Root {
			deps = append(deps, sm.Path(id))
		}
	}
	sort.Strings(deps)
	return append(deps, sm.Path(g.Root))
}
