// Package source owns the canonical text of every file in a compilation
// and the span/position bookkeeping that every later phase indexes into.
package source

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// FileID identifies a source file within a SourceMap. FileID zero is never
// assigned to a real file, so a zero-value FileID reliably means "no file".
type FileID int

// Span is a half-open byte range within a single file. Spans never cross
// file boundaries; a reference between files is two Spans, not one.
type Span struct {
	File  FileID
	Start int // inclusive byte offset
	End   int // exclusive byte offset
}

// Position is a 1-based line/column pair resolved from a byte offset.
type Position struct {
	Line   int
	Column int
}

// File is one source file's canonical (LF, UTF-8) text plus its path as
// supplied by the embedder.
type File struct {
	ID    FileID
	Path  string // canonical path, as passed to SourceMap.Add
	Text  string // LF-normalized text
	lines []int  // byte offset of the start of each line (line 0 => lines[0] == 0)
}

// lineStarts returns the byte offset of the start of each line, memoizing
// the scan. Used by Position to do a binary search instead of rescanning.
func (f *File) lineStarts() []int {
	if f.lines != nil {
		return f.lines
	}
	starts := []int{0}
	for i, c := range f.Text {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	f.lines = starts
	return starts
}

// Position resolves a byte offset to a 1-based line/column pair.
func (f *File) Position(offset int) Position {
	starts := f.lineStarts()
	// binary search for the last line start <= offset
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line := lo
	col := offset - starts[line]
	return Position{Line: line + 1, Column: col + 1}
}

// LineText returns the text of a 1-based line number, without its
// terminating newline.
func (f *File) LineText(line int) string {
	starts := f.lineStarts()
	if line < 1 || line > len(starts) {
		return ""
	}
	start := starts[line-1]
	end := len(f.Text)
	if line < len(starts) {
		end = starts[line] - 1 // exclude the '\n'
	}
	if end > len(f.Text) {
		end = len(f.Text)
	}
	if start > end {
		return ""
	}
	return strings.TrimSuffix(f.Text[start:end], "\r")
}

// Map owns every source file in one compilation, keyed by canonical path.
// Nothing in the compiler holds text except through a Map; spans are
// (FileID, byte range) pairs that are resolved back to text lazily.
type Map struct {
	files   []*File
	byPath  map[string]FileID
	nextID  FileID
}

// NewMap creates an empty SourceMap.
func NewMap() *Map {
	return &Map{byPath: make(map[string]FileID), nextID: 1}
}

// Add registers source text under a canonical path, normalizing CRLF to LF
// per §6.3. Re-adding the same path is an error — each file is owned once.
func (m *Map) Add(path string, text string) (FileID, error) {
	canonical := Canonicalize(path)
	if _, ok := m.byPath[canonical]; ok {
		return 0, fmt.Errorf("source: %s already added", canonical)
	}
	id := m.nextID
	m.nextID++
	f := &File{ID: id, Path: canonical, Text: normalizeNewlines(text)}
	m.files = append(m.files, f)
	m.byPath[canonical] = id
	return id, nil
}

// Lookup returns the FileID for a canonical path, if present.
func (m *Map) Lookup(path string) (FileID, bool) {
	id, ok := m.byPath[Canonicalize(path)]
	return id, ok
}

// File returns the File for an ID. Panics on an unknown ID — callers only
// ever hold IDs handed out by this Map, so an unknown ID is a compiler bug.
func (m *Map) File(id FileID) *File {
	for _, f := range m.files {
		if f.ID == id {
			return f
		}
	}
	panic(fmt.Sprintf("source: unknown file id %d", id))
}

// Path is a convenience accessor equivalent to File(id).Path. The zero
// FileID ("no file") yields "".
func (m *Map) Path(id FileID) string {
	if id == 0 {
		return ""
	}
	return m.File(id).Path
}

// Text of the span, resolved against the owning file.
func (m *Map) Text(sp Span) string {
	f := m.File(sp.File)
	if sp.Start < 0 || sp.End > len(f.Text) || sp.Start > sp.End {
		return ""
	}
	return f.Text[sp.Start:sp.End]
}

// Position resolves the start of a span to a line/column. A span with
// the zero FileID ("no file") resolves to the zero Position.
func (m *Map) Position(sp Span) Position {
	if sp.File == 0 {
		return Position{}
	}
	return m.File(sp.File).Position(sp.Start)
}

// Files returns every registered file sorted by canonical path, the
// deterministic iteration order every phase after PARSE depends on.
func (m *Map) Files() []*File {
	out := make([]*File, len(m.files))
	copy(out, m.files)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Canonicalize normalizes a path for use as a SourceMap key: slash
// separators, cleaned of "." and ".." segments.
func Canonicalize(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// Less reports whether a sorts before b under the canonical traversal order
// required by §4.4 and §5: (file path, line, column).
func Less(m *Map, a, b Span) bool {
	fa, fb := m.Path(a.File), m.Path(b.File)
	if fa != fb {
		return fa < fb
	}
	pa, pb := m.Position(a), m.Position(b)
	if pa.Line != pb.Line {
		return pa.Line < pb.Line
	}
	return pa.Column < pb.Column
}
