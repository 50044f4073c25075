// Package diag defines the diagnostic model shared by every compiler phase:
// a Diagnostic is a value, never a panic, carrying a stable code, a
// severity, a source span, and a message (§7).
package diag

import (
	"fmt"
	"sort"

	"github.com/urdwyrd/urd/pkg/source"
)

// Severity classifies how a Diagnostic affects compilation (§7).
type Severity int

const (
	// Info is purely informational and never blocks anything.
	Info Severity = iota
	// Warning surfaces in the diagnostics list but never blocks EMIT.
	Warning
	// Error blocks EMIT success but not a phase's own continuation.
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Phase families, per §6.5.
const (
	PhaseParse    = "parse"    // URD1xx
	PhaseImport   = "import"   // URD2xx
	PhaseLink     = "link"     // URD3xx
	PhaseValidate = "validate" // URD4xx
	PhaseAnalyze  = "analyze"  // URD6xx (FactSet-derived, run after ANALYZE)
)

// Note is a secondary span attached to a Diagnostic, e.g. "first declared
// here" on a duplicate-name error. Notes must add context, never repeat
// the parent message.
type Note struct {
	Span    source.Span
	Message string
}

// Diagnostic is one (code, severity, span, message) quadruple, §4.5/§7.
type Diagnostic struct {
	Code     string
	Severity Severity
	Span     source.Span
	Message  string
	Notes    []Note
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// Format renders the CLI diagnostic line form required by §6.1:
// FILE:LINE:COL: [URDxxx] message
func (d Diagnostic) Format(sm *source.Map) string {
	pos := sm.Position(d.Span)
	return fmt.Sprintf("%s:%d:%d: [%s] %s", sm.Path(d.Span.File), pos.Line, pos.Column, d.Code, d.Message)
}

// Bag accumulates diagnostics monotonically across phases (§5: "Diagnostics
// are appended monotonically"). It is never mutated after being handed off
// except by further Add calls — no phase removes another phase's findings.
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Errorf appends an error-severity diagnostic.
func (b *Bag) Errorf(code string, sp source.Span, format string, args ...any) {
	b.Add(Diagnostic{Code: code, Severity: Error, Span: sp, Message: fmt.Sprintf(format, args...)})
}

// Warningf appends a warning-severity diagnostic.
func (b *Bag) Warningf(code string, sp source.Span, format string, args ...any) {
	b.Add(Diagnostic{Code: code, Severity: Warning, Span: sp, Message: fmt.Sprintf(format, args...)})
}

// Infof appends an info-severity diagnostic.
func (b *Bag) Infof(code string, sp source.Span, format string, args ...any) {
	b.Add(Diagnostic{Code: code, Severity: Info, Span: sp, Message: fmt.Sprintf(format, args...)})
}

// Extend appends every diagnostic from another Bag, preserving order.
func (b *Bag) Extend(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

// All returns every accumulated diagnostic in append order.
func (b *Bag) All() []Diagnostic {
	return b.items
}

// HasErrors reports whether any accumulated diagnostic is error-severity.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Sorted returns diagnostics ordered by (file, line, column) as required
// for the CLI's "source order, grouped by file" presentation (§7).
func (b *Bag) Sorted(sm *source.Map) []Diagnostic {
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	sort.SliceStable(out, func(i, j int) bool {
		return source.Less(sm, out[i].Span, out[j].Span)
	})
	return out
}
