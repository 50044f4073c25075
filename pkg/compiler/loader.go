package compiler

import (
	"fmt"
	"os"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/diag"
	"github.com/urdwyrd/urd/pkg/parse"
	"github.com/urdwyrd/urd/pkg/source"
)

// fileLoader implements importgraph.Loader against the filesystem: an
// import path already canonicalized relative to its importing file is
// read straight off disk.
type fileLoader struct {
	sm  *source.Map
	bag *diag.Bag
}

func newFileLoader(sm *source.Map, bag *diag.Bag) *fileLoader {
	return &fileLoader{sm: sm, bag: bag}
}

func (l *fileLoader) Load(path string) (source.FileID, *ast.File, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", path, err)
	}
	id, err := l.sm.Add(path, string(text))
	if err != nil {
		return 0, nil, err
	}
	f, parseBag := parse.Parse(l.sm, id)
	l.bag.Extend(parseBag)
	return id, f, nil
}

// memLoader implements importgraph.Loader against an in-memory lookup,
// used by fixtures and tests that never touch disk.
type memLoader struct {
	sm      *source.Map
	bag     *diag.Bag
	resolve func(path string) (string, error)
}

func newMemLoader(sm *source.Map, bag *diag.Bag, resolve func(path string) (string, error)) *memLoader {
	return &memLoader{sm: sm, bag: bag, resolve: resolve}
}

func (l *memLoader) Load(path string) (source.FileID, *ast.File, error) {
	text, err := l.resolve(path)
	if err != nil {
		return 0, nil, err
	}
	id, err := l.sm.Add(path, text)
	if err != nil {
		return 0, nil, err
	}
	f, parseBag := parse.Parse(l.sm, id)
	l.bag.Extend(parseBag)
	return id, f, nil
}
