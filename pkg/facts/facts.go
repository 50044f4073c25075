// Package facts implements the ANALYZE phase (§4.4): flattening the
// linked AST into six immutable, deterministically ordered relational
// tables (the FactSet), plus a derived property dependency index.
// Nothing downstream of ANALYZE walks the AST again — every later
// question is answered by scanning or indexing these tables.
package facts

import (
	"fmt"
	"sort"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/source"
	"github.com/urdwyrd/urd/pkg/symbols"
)

// ExitEdge is one Location-to-Location link (§4.4).
type ExitEdge struct {
	SiteID string
	From   string
	Exit   string
	To     string
	Guard  *ast.Condition
	Span   source.Span
}

// JumpEdge is one Section-to-target control transfer (§4.4).
type JumpEdge struct {
	SiteID string
	From   string // section path
	Kind   ast.JumpKind
	Target string
	Span   source.Span
}

// ChoiceFact is one choice site, sticky or one-shot (§4.4).
type ChoiceFact struct {
	SiteID  string
	Section string
	Label   string
	Kind    ast.ChoiceKind
	Guard   *ast.Condition
	Depth   int
	Span    source.Span
}

// RuleFact is one declarative rule application site (§4.4).
type RuleFact struct {
	SiteID       string
	Name         string
	SelectorType string
	Span         source.Span
}

// PropertyRead is one site where `@entity.property` is read by a guard
// condition (§4.4). Op and Value carry the compared operator/operand for
// a CondCompare read (empty/zero for CondIn/CondNotIn membership reads),
// letting URD603/URD604 reason about tested variants and thresholds
// without re-walking the AST.
type PropertyRead struct {
	SiteID   string
	Entity   string
	Property string
	Op       string // comparator, e.g. "==", "<"; empty for a membership read
	Value    ast.Literal
	Rule     string // owning RuleBlock name, empty outside a rule
	Span     source.Span
}

// PropertyWrite is one site where `@entity.property` is written by an
// effect (§4.4). Value carries the assigned operand for a scalar write
// (zero for a move-effect's container write), feeding the same URD603/
// URD604 checks as PropertyRead.Value.
type PropertyWrite struct {
	SiteID   string
	Entity   string
	Property string
	Op       string
	Value    ast.Literal
	Rule     string // owning RuleBlock name, empty outside a rule
	Span     source.Span
}

// Set is the complete, immutable FactSet produced by ANALYZE.
type Set struct {
	Exits   []ExitEdge
	Jumps   []JumpEdge
	Choices []ChoiceFact
	Rules   []RuleFact
	Reads   []PropertyRead
	Writes  []PropertyWrite
}

// builder accumulates facts during the AST walk before builder.sort()
// freezes them into canonical order (§4.4 "flat, not a live view").
type builder struct {
	sm *source.Map
	Set
	seen map[string]int // site_id -> occurrence count, for disambiguation
}

// Build walks every Location, Section, and RuleBlock in a linked table
// and produces the FactSet.
func Build(sm *source.Map, tbl *symbols.Table) *Set {
	b := &builder{sm: sm, seen: map[string]int{}}
	for _, locSym := range sortedLocations(tbl) {
		b.walkLocation(locSym.Decl)
	}
	for _, secSym := range sortedSections(tbl) {
		if secSym.Decl.Level == 0 {
			b.walkSection(secSym.Decl)
		}
	}
	b.sort()
	return &b.Set
}

// BuildRules walks the rule blocks directly — kept as a separate entry
// point because rules live on ast.File, not in the symbol table, and a
// compilation may have several files contributing rules.
func BuildRules(sm *source.Map, files []*ast.File, into *Set) {
	b := &builder{sm: sm, seen: map[string]int{}, Set: *into}
	for _, f := range files {
		for _, r := range f.Rules {
			b.walkRule(r)
		}
	}
	b.sort()
	*into = b.Set
}

func sortedLocations(tbl *symbols.Table) []*symbols.LocationSymbol {
	out := make([]*symbols.LocationSymbol, 0, len(tbl.Locations))
	for _, l := range tbl.Locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedSections(tbl *symbols.Table) []*symbols.SectionSymbol {
	out := make([]*symbols.SectionSymbol, 0, len(tbl.Sections))
	for _, s := range tbl.Sections {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// siteID builds a deterministic, human-readable site identifier from a
// kind tag and a span, disambiguating repeats at the identical position
// (which should not happen but must never collide silently).
func (b *builder) siteID(kind string, sp source.Span) string {
	pos := b.sm.Position(sp)
	path := b.sm.Path(sp.File)
	base := fmt.Sprintf("%s:%s:%d:%d", kind, path, pos.Line, pos.Column)
	n := b.seen[base]
	b.seen[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s#%d", base, n)
}

func (b *builder) walkLocation(loc *ast.Location) {
	for _, ex := range loc.Exits {
		b.Exits = append(b.Exits, ExitEdge{
			SiteID: b.siteID("exit", ex.Span),
			From:   loc.Name,
			Exit:   ex.Name,
			To:     ex.Target,
			Guard:  ex.Guard,
			Span:   ex.Span,
		})
		if ex.Guard != nil {
			b.walkCondition(ex.Guard)
		}
	}
}

func (b *builder) walkSection(sec *ast.Section) {
	for _, stmt := range sec.Body {
		b.walkStmt(sec.Path, stmt)
	}
	for _, child := range sec.Children {
		b.walkSection(child)
	}
}

func (b *builder) walkStmt(sectionPath string, stmt ast.Stmt) {
	switch stmt.Kind {
	case ast.StmtChoice:
		b.walkChoice(sectionPath, stmt.Choice)
	case ast.StmtConditionBlock:
		if stmt.CondBlock.Cond != nil {
			b.walkCondition(stmt.CondBlock.Cond)
		}
		for _, s := range stmt.CondBlock.Body {
			b.walkStmt(sectionPath, s)
		}
	case ast.StmtEffect:
		b.walkEffect(stmt.Effect)
	case ast.StmtJump:
		b.Jumps = append(b.Jumps, JumpEdge{
			SiteID: b.siteID("jump", stmt.Jump.Span),
			From:   sectionPath,
			Kind:   stmt.Jump.Kind,
			Target: stmt.Jump.Target,
			Span:   stmt.Jump.Span,
		})
	case ast.StmtDialogue:
		// dialogue text carries no facts of its own
	}
}

func (b *builder) walkChoice(sectionPath string, c *ast.Choice) {
	b.Choices = append(b.Choices, ChoiceFact{
		SiteID:  b.siteID("choice", c.Span),
		Section: sectionPath,
		Label:   c.Label,
		Kind:    c.Kind,
		Guard:   c.Guard,
		Depth:   c.Depth,
		Span:    c.Span,
	})
	if c.Guard != nil {
		b.walkCondition(c.Guard)
	}
	if c.Target != "" && !c.TargetIsAny {
		b.Jumps = append(b.Jumps, JumpEdge{
			SiteID: b.siteID("choicejump", c.Span),
			From:   sectionPath,
			Kind:   ast.JumpSection,
			Target: c.Target,
			Span:   c.Span,
		})
	}
	for _, s := range c.Body {
		b.walkStmt(sectionPath, s)
	}
}

func (b *builder) walkCondition(c *ast.Condition) {
	b.walkConditionIn(c, "")
}

func (b *builder) walkConditionIn(c *ast.Condition, rule string) {
	switch c.Kind {
	case ast.CondCompare:
		b.Reads = append(b.Reads, PropertyRead{
			SiteID: b.siteID("read", c.Span), Entity: c.Entity, Property: c.Property, Op: c.Op, Value: c.Value, Rule: rule, Span: c.Span,
		})
	case ast.CondIn, ast.CondNotIn:
		b.Reads = append(b.Reads, PropertyRead{
			SiteID: b.siteID("read", c.Span), Entity: c.Entity, Property: containerPropertyName, Rule: rule, Span: c.Span,
		})
	case ast.CondAny, ast.CondAll:
		for _, child := range c.Group {
			b.walkConditionIn(child, rule)
		}
	}
}

const containerPropertyName = "container"

func (b *builder) walkEffect(e *ast.Effect) {
	b.walkEffectIn(e, "")
}

func (b *builder) walkEffectIn(e *ast.Effect, rule string) {
	switch e.Kind {
	case ast.EffectWrite:
		b.Writes = append(b.Writes, PropertyWrite{
			SiteID: b.siteID("write", e.Span), Entity: e.Entity, Property: e.Property, Op: e.Op, Value: e.Value, Rule: rule, Span: e.Span,
		})
	case ast.EffectMove:
		b.Writes = append(b.Writes, PropertyWrite{
			SiteID: b.siteID("write", e.Span), Entity: e.Target, Property: containerPropertyName, Op: "=", Rule: rule, Span: e.Span,
		})
	case ast.EffectDestroy, ast.EffectReveal:
		// no property-level fact; membership is tracked by Location.Presence
	}
}

func (b *builder) walkRule(r *ast.RuleBlock) {
	b.Rules = append(b.Rules, RuleFact{
		SiteID: b.siteID("rule", r.Span), Name: r.Name, SelectorType: r.SelectorType, Span: r.Span,
	})
	for _, c := range r.Where {
		b.walkConditionIn(c, r.Name)
	}
	for i := range r.Effects {
		b.walkEffectIn(&r.Effects[i], r.Name)
	}
}

// sort freezes every table into canonical (file, line, column) order,
// the traversal order every consumer depends on (§4.4, §5).
func (b *builder) sort() {
	sm := b.sm
	sort.SliceStable(b.Exits, func(i, j int) bool { return source.Less(sm, b.Exits[i].Span, b.Exits[j].Span) })
	sort.SliceStable(b.Jumps, func(i, j int) bool { return source.Less(sm, b.Jumps[i].Span, b.Jumps[j].Span) })
	sort.SliceStable(b.Choices, func(i, j int) bool { return source.Less(sm, b.Choices[i].Span, b.Choices[j].Span) })
	sort.SliceStable(b.Rules, func(i, j int) bool { return source.Less(sm, b.Rules[i].Span, b.Rules[j].Span) })
	sort.SliceStable(b.Reads, func(i, j int) bool { return source.Less(sm, b.Reads[i].Span, b.Reads[j].Span) })
	sort.SliceStable(b.Writes, func(i, j int) bool { return source.Less(sm, b.Writes[i].Span, b.Writes[j].Span) })
}

// PropertyDependencyIndex is a derived index over Reads/Writes answering
// "what reads/writes this property" queries without re-scanning the
// FactSet each time (§4.4 "derived index").
type PropertyDependencyIndex struct {
	readBy  map[string][]PropertyRead
	writeBy map[string][]PropertyWrite
}

func key(entity, property string) string { return entity + "." + property }

// NewPropertyDependencyIndex builds the index from a completed FactSet.
func NewPropertyDependencyIndex(s *Set) *PropertyDependencyIndex {
	idx := &PropertyDependencyIndex{readBy: map[string][]PropertyRead{}, writeBy: map[string][]PropertyWrite{}}
	for _, r := range s.Reads {
		k := key(r.Entity, r.Property)
		idx.readBy[k] = append(idx.readBy[k], r)
	}
	for _, w := range s.Writes {
		k := key(w.Entity, w.Property)
		idx.writeBy[k] = append(idx.writeBy[k], w)
	}
	return idx
}

// ReadsOf returns every read site of entity.property.
func (idx *PropertyDependencyIndex) ReadsOf(entity, property string) []PropertyRead {
	return idx.readBy[key(entity, property)]
}

// WritesOf returns every write site of entity.property.
func (idx *PropertyDependencyIndex) WritesOf(entity, property string) []PropertyWrite {
	return idx.writeBy[key(entity, property)]
}

// ReadButNeverWritten returns every (entity, property) pair that is read
// somewhere but has no write site anywhere in the FactSet (§4.4, feeds
// URD601).
func (idx *PropertyDependencyIndex) ReadButNeverWritten() []string {
	var out []string
	for k := range idx.readBy {
		if len(idx.writeBy[k]) == 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// WrittenButNeverRead returns every (entity, property) pair that is
// written somewhere but never read (feeds URD602).
func (idx *PropertyDependencyIndex) WrittenButNeverRead() []string {
	var out []string
	for k := range idx.writeBy {
		if len(idx.readBy[k]) == 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
