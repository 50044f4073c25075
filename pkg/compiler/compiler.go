// Package compiler wires PARSE, IMPORT, LINK, ANALYZE, VALIDATE, and
// EMIT into the single pipeline embedders and the CLI both call (§4,
// §6.2): one shared diagnostic Bag threaded through every phase, in
// the order §4 fixes, with no phase re-entering an earlier one.
package compiler

import (
	"fmt"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/diag"
	"github.com/urdwyrd/urd/pkg/emit"
	"github.com/urdwyrd/urd/pkg/facts"
	"github.com/urdwyrd/urd/pkg/importgraph"
	"github.com/urdwyrd/urd/pkg/parse"
	"github.com/urdwyrd/urd/pkg/source"
	"github.com/urdwyrd/urd/pkg/symbols"
	"github.com/urdwyrd/urd/pkg/validate"
)

// Version identifies this build of the compiler. It is stamped into
// every emitted document's meta.compilerVersion field and is settable
// at build time via ldflags, mirroring the teacher's version/commit
// pair.
var Version = "dev"

// Result holds every artifact a compilation produced. Bag is always
// populated; Document is populated once EMIT has run, even if EMIT
// itself reported errors; JSON is populated only when no
// error-severity diagnostic was reported.
type Result struct {
	SourceMap *source.Map
	Bag       *diag.Bag
	Document  *emit.Document
	JSON      []byte
}

// HasErrors reports whether the Bag carries any error-severity
// diagnostic, the condition under which no JSON was produced.
func (r *Result) HasErrors() bool {
	return r.Bag.HasErrors()
}

// Options configures a single Compile/CompileSource call.
type Options struct {
	// ParseOnly stops after IMPORT, returning diagnostics from PARSE
	// and IMPORT only (§6.2 "parse_only").
	ParseOnly bool
}

// Compile reads rootPath from disk and runs the full six-phase
// pipeline over it and everything it imports, resolved relative to
// rootPath's own directory.
func Compile(rootPath string, opts Options) (*Result, error) {
	sm := source.NewMap()
	bag := &diag.Bag{}
	ld := newFileLoader(sm, bag)

	rootID, rootFile, err := ld.Load(rootPath)
	if err != nil {
		return nil, fmt.Errorf("read root file: %w", err)
	}
	return compileFrom(sm, bag, ld, rootID, rootFile, opts)
}

// CompileSource runs the pipeline over in-memory text registered under
// rootPath, resolving any `import:` entries via resolveImport instead
// of the filesystem. Fixtures and tests use this to avoid touching
// disk.
func CompileSource(rootPath, rootText string, resolveImport func(path string) (string, error), opts Options) (*Result, error) {
	sm := source.NewMap()
	bag := &diag.Bag{}
	ld := newMemLoader(sm, bag, resolveImport)

	rootID, err := sm.Add(rootPath, rootText)
	if err != nil {
		return nil, err
	}
	rootFile, parseBag := parse.Parse(sm, rootID)
	bag.Extend(parseBag)

	return compileFrom(sm, bag, ld, rootID, rootFile, opts)
}

// compileFrom runs IMPORT onward; Compile and CompileSource differ
// only in how the root file and its imports reach the SourceMap.
func compileFrom(sm *source.Map, bag *diag.Bag, ld importgraph.Loader, rootID source.FileID, rootFile *ast.File, opts Options) (*Result, error) {
	graph := importgraph.Build(sm, ld, rootID, rootFile, bag)

	if opts.ParseOnly {
		return &Result{SourceMap: sm, Bag: bag}, nil
	}

	files := make([]*ast.File, 0, len(graph.Order))
	for _, id := range graph.Order {
		files = append(files, graph.Files[id])
	}

	tbl := symbols.Build(sm, files, bag)

	set := facts.Build(sm, tbl)
	facts.BuildRules(sm, files, set)

	validate.Static(tbl, bag)
	validate.FactDerived(set, bag)
	validate.Reachability(tbl, set, bag)

	if bag.HasErrors() {
		return &Result{SourceMap: sm, Bag: bag}, nil
	}

	sourceFiles := importgraph.SortedPaths(sm, graph)
	doc := emit.Build(sm, tbl, set, Version, sourceFiles, bag)
	if bag.HasErrors() {
		return &Result{SourceMap: sm, Bag: bag, Document: doc}, nil
	}

	data, err := emit.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	if err := emit.SelfValidate(data); err != nil {
		return nil, fmt.Errorf("self-validation: %w", err)
	}

	return &Result{SourceMap: sm, Bag: bag, Document: doc, JSON: data}, nil
}
