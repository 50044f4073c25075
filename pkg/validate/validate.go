// Package validate implements VALIDATE (§4.5): static AST checks
// (URD4xx) plus, once ANALYZE has produced a FactSet, the
// facts-derived semantic checks (URD6xx) and reachability analysis
// (URD43x). Every check here is read-only over the symbol table and
// FactSet — validation never mutates the tree it inspects.
package validate

import (
	"sort"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/diag"
	"github.com/urdwyrd/urd/pkg/facts"
	"github.com/urdwyrd/urd/pkg/source"
	"github.com/urdwyrd/urd/pkg/symbols"
)

const maxNestingDepthWarn = 3
const maxNestingDepthError = 4

// Static runs every AST-level check against a linked symbol table
// (§4.5 "undefined references, duplicate definitions, type mismatches").
func Static(tbl *symbols.Table, bag *diag.Bag) {
	checkWorld(tbl, bag)
	for _, es := range sortedEntities(tbl) {
		checkEntity(tbl, es, bag)
	}
	for _, ls := range sortedLocations(tbl) {
		checkLocationExits(tbl, ls.Decl, bag)
	}
	for _, ss := range sortedSections(tbl) {
		if ss.Decl.Level == 0 {
			checkSectionTree(tbl, ss.Decl, bag, 0)
		}
	}
}

func checkWorld(tbl *symbols.Table, bag *diag.Bag) {
	if tbl.World == nil {
		return
	}
	if tbl.World.Start != "" {
		if _, ok := tbl.Locations[tbl.World.Start]; !ok {
			bag.Errorf("URD401", tbl.World.Span, "world.start references undeclared location %q", tbl.World.Start)
		}
	}
	if tbl.World.Entry != "" {
		if _, ok := tbl.Sections[tbl.World.Entry]; !ok {
			bag.Errorf("URD402", tbl.World.Span, "world.entry references undeclared section %q", tbl.World.Entry)
		}
	}
}

func checkEntity(tbl *symbols.Table, es *symbols.EntitySymbol, bag *diag.Bag) {
	if es.Type == nil {
		return // already reported as URD305 during LINK
	}
	for _, ov := range es.Decl.Overrides {
		spec, ok := es.Type.Properties[ov.Property]
		if !ok {
			bag.Errorf("URD403", ov.Span, "entity %q overrides undeclared property %q", es.Name, ov.Property)
			continue
		}
		checkLiteralType(spec.Type, ov.Value, bag, ov.Span)
	}
}

func checkLiteralType(pt ast.PropertyType, lit ast.Literal, bag *diag.Bag, sp source.Span) {
	switch pt.Kind {
	case ast.PropInteger:
		if lit.Kind != ast.LitInt {
			bag.Errorf("URD404", sp, "expected integer value, found %s", literalKindName(lit.Kind))
			return
		}
		checkRange(pt, float64(lit.Int), bag, sp)
	case ast.PropNumber:
		if lit.Kind != ast.LitInt && lit.Kind != ast.LitNumber {
			bag.Errorf("URD404", sp, "expected number value, found %s", literalKindName(lit.Kind))
			return
		}
		v := lit.Num
		if lit.Kind == ast.LitInt {
			v = float64(lit.Int)
		}
		checkRange(pt, v, bag, sp)
	case ast.PropBool:
		if lit.Kind != ast.LitBool {
			bag.Errorf("URD404", sp, "expected bool value, found %s", literalKindName(lit.Kind))
		}
	case ast.PropString:
		if lit.Kind != ast.LitString {
			bag.Errorf("URD404", sp, "expected string value, found %s", literalKindName(lit.Kind))
		}
	case ast.PropEnum:
		if lit.Kind != ast.LitString {
			bag.Errorf("URD404", sp, "expected enum tag, found %s", literalKindName(lit.Kind))
			return
		}
		if err := symbols.ValidateEnum(pt, lit.Str); err != nil {
			bag.Errorf("URD405", sp, "%v", err)
		}
	case ast.PropRef:
		if lit.Kind != ast.LitRef {
			bag.Errorf("URD404", sp, "expected entity reference, found %s", literalKindName(lit.Kind))
		}
	}
}

func checkRange(pt ast.PropertyType, v float64, bag *diag.Bag, sp source.Span) {
	if pt.Min != nil && v < *pt.Min {
		bag.Errorf("URD406", sp, "value %v is below minimum %v", v, *pt.Min)
	}
	if pt.Max != nil && v > *pt.Max {
		bag.Errorf("URD406", sp, "value %v is above maximum %v", v, *pt.Max)
	}
}

func literalKindName(k ast.LiteralKind) string {
	switch k {
	case ast.LitInt:
		return "integer"
	case ast.LitNumber:
		return "number"
	case ast.LitString:
		return "string"
	case ast.LitBool:
		return "bool"
	case ast.LitEnum:
		return "enum tag"
	case ast.LitList:
		return "list"
	case ast.LitRef:
		return "entity reference"
	default:
		return "none"
	}
}

func checkLocationExits(tbl *symbols.Table, loc *ast.Location, bag *diag.Bag) {
	seen := map[string]source.Span{}
	for _, ex := range loc.Exits {
		if prev, dup := seen[ex.Name]; dup {
			bag.Errorf("URD407", ex.Span, "duplicate exit %q in location %q", ex.Name, loc.Name)
			bag.Add(diag.Diagnostic{Code: "URD407", Severity: diag.Info, Span: prev, Message: "first declared here"})
			continue
		}
		seen[ex.Name] = ex.Span
		if _, ok := tbl.Locations[ex.Target]; !ok {
			bag.Errorf("URD408", ex.Span, "exit %q targets undeclared location %q", ex.Name, ex.Target)
		}
		if ex.Guard != nil {
			checkConditionRefs(tbl, ex.Guard, bag)
		}
	}
}

func checkSectionTree(tbl *symbols.Table, sec *ast.Section, bag *diag.Bag, depth int) {
	choiceLabels := map[string]source.Span{}
	checkStmts(tbl, sec.Body, bag, depth, choiceLabels)
	for _, child := range sec.Children {
		checkSectionTree(tbl, child, bag, depth+1)
	}
}

func checkStmts(tbl *symbols.Table, stmts []ast.Stmt, bag *diag.Bag, depth int, labels map[string]source.Span) {
	for _, stmt := range stmts {
		switch stmt.Kind {
		case ast.StmtChoice:
			c := stmt.Choice
			if prev, dup := labels[c.Label]; dup {
				bag.Errorf("URD409", c.Span, "duplicate choice label %q", c.Label)
				bag.Add(diag.Diagnostic{Code: "URD409", Severity: diag.Info, Span: prev, Message: "first declared here"})
			} else {
				labels[c.Label] = c.Span
			}
			if depth+1 == maxNestingDepthWarn {
				bag.Warningf("URD410", c.Span, "choice nesting depth %d exceeds recommended maximum", depth+1)
			}
			if depth+1 >= maxNestingDepthError {
				bag.Errorf("URD411", c.Span, "choice nesting depth %d exceeds maximum of %d", depth+1, maxNestingDepthError)
			}
			if c.Guard != nil {
				checkConditionRefs(tbl, c.Guard, bag)
			}
			if !c.TargetIsAny && c.Target != "" && c.Target != "end" {
				if _, okSec := tbl.Sections[c.Target]; !okSec {
					bag.Errorf("URD412", c.Span, "choice targets undeclared section %q", c.Target)
				}
			}
			checkStmts(tbl, c.Body, bag, depth+1, map[string]source.Span{})
		case ast.StmtConditionBlock:
			if stmt.CondBlock.Cond != nil {
				checkConditionRefs(tbl, stmt.CondBlock.Cond, bag)
			}
			checkStmts(tbl, stmt.CondBlock.Body, bag, depth, labels)
		case ast.StmtEffect:
			checkEffectRefs(tbl, stmt.Effect, bag)
		case ast.StmtJump:
			checkJumpRef(tbl, stmt.Jump, bag)
		}
	}
}

func checkConditionRefs(tbl *symbols.Table, c *ast.Condition, bag *diag.Bag) {
	switch c.Kind {
	case ast.CondCompare:
		if _, ok := tbl.ResolveEntity(c.Entity); !ok {
			bag.Errorf("URD413", c.Span, "condition references undeclared entity %q", c.Entity)
			return
		}
		if c.Entity != symbols.BindingTarget && c.Entity != symbols.BindingPlayer {
			if _, ok := tbl.ResolveProperty(c.Entity, c.Property); !ok {
				bag.Errorf("URD414", c.Span, "entity %q has no property %q", c.Entity, c.Property)
			}
		}
	case ast.CondIn, ast.CondNotIn:
		if _, ok := tbl.ResolveEntity(c.Entity); !ok {
			bag.Errorf("URD413", c.Span, "condition references undeclared entity %q", c.Entity)
		}
	case ast.CondAny, ast.CondAll:
		for _, child := range c.Group {
			checkConditionRefs(tbl, child, bag)
		}
	}
}

func checkEffectRefs(tbl *symbols.Table, e *ast.Effect, bag *diag.Bag) {
	switch e.Kind {
	case ast.EffectWrite:
		if _, ok := tbl.ResolveEntity(e.Entity); !ok {
			bag.Errorf("URD415", e.Span, "effect references undeclared entity %q", e.Entity)
			return
		}
		if e.Entity != symbols.BindingTarget && e.Entity != symbols.BindingPlayer {
			if _, ok := tbl.ResolveProperty(e.Entity, e.Property); !ok {
				bag.Errorf("URD414", e.Span, "entity %q has no property %q", e.Entity, e.Property)
			}
		}
	case ast.EffectMove, ast.EffectDestroy, ast.EffectReveal:
		if _, ok := tbl.ResolveEntity(e.Target); !ok {
			bag.Errorf("URD415", e.Span, "effect references undeclared entity %q", e.Target)
		}
		if e.Kind == ast.EffectMove && e.Dest != "" {
			if _, ok := tbl.Locations[e.Dest]; !ok {
				if _, ok := tbl.ResolveEntity(e.Dest); !ok {
					bag.Errorf("URD416", e.Span, "move destination %q is neither a location nor an entity", e.Dest)
				}
			}
		}
	}
}

func checkJumpRef(tbl *symbols.Table, j *ast.Jump, bag *diag.Bag) {
	switch j.Kind {
	case ast.JumpBuiltin:
		return
	case ast.JumpEntityType:
		if _, ok := tbl.Types[j.Target]; !ok {
			bag.Errorf("URD417", j.Span, "jump references undeclared type %q", j.Target)
		}
	case ast.JumpSection:
		if _, ok := tbl.Sections[j.Target]; !ok {
			bag.Errorf("URD412", j.Span, "jump targets undeclared section %q", j.Target)
		}
	case ast.JumpExit:
		// resolved against the enclosing location's exits by reachability
		// analysis, which has that context; a bare static check here
		// would need to thread the current location through every call,
		// so exit-jump validity is instead confirmed in Reachability (§4.6).
	}
}

func sortedEntities(tbl *symbols.Table) []*symbols.EntitySymbol {
	out := make([]*symbols.EntitySymbol, 0, len(tbl.Entities))
	for _, e := range tbl.Entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
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

// FactDerived runs the URD6xx checks that need the flattened FactSet
// rather than the tree: unwritten reads, unread writes, untested enum
// variants, unreachable numeric thresholds, and write-cycle detection
// across rule effects (§4.5, §4.4).
func FactDerived(s *facts.Set, bag *diag.Bag) {
	idx := facts.NewPropertyDependencyIndex(s)
	for _, k := range idx.ReadButNeverWritten() {
		reads := idx.ReadsOf(splitKey(k))
		if len(reads) > 0 {
			bag.Warningf("URD601", reads[0].Span, "property %q is read in a condition but never written by any effect", k)
		}
	}
	for _, k := range idx.WrittenButNeverRead() {
		writes := idx.WritesOf(splitKey(k))
		if len(writes) > 0 {
			bag.Warningf("URD602", writes[0].Span, "property %q is written but never read in any condition", k)
		}
	}
	checkEnumVariantCoverage(s, bag)
	checkNumericThresholdReachability(s, bag)
	checkWriteCycles(s, bag)
}

func splitKey(k string) (entity, property string) {
	for i := len(k) - 1; i >= 0; i-- {
		if k[i] == '.' {
			return k[:i], k[i+1:]
		}
	}
	return k, ""
}

// checkEnumVariantCoverage flags a `=` effect that sets a property to a
// string variant no `==` read of that property ever tests (§4.5,
// URD603). Properties with no `==` string read are skipped (one that is
// never read at all is reported by URD602) — this check only refines
// properties already known to be tested.
func checkEnumVariantCoverage(s *facts.Set, bag *diag.Bag) {
	tested := map[string]map[string]bool{}
	for _, r := range s.Reads {
		if r.Op != "==" || r.Value.Kind != ast.LitString {
			continue
		}
		k := key(r.Entity, r.Property)
		if tested[k] == nil {
			tested[k] = map[string]bool{}
		}
		tested[k][r.Value.Str] = true
	}

	flagged := map[string]bool{}
	for _, w := range s.Writes {
		if w.Op != "=" || w.Value.Kind != ast.LitString {
			continue
		}
		k := key(w.Entity, w.Property)
		variants := tested[k]
		if variants == nil || variants[w.Value.Str] {
			continue
		}
		dedupe := k + "=" + w.Value.Str
		if flagged[dedupe] {
			continue
		}
		flagged[dedupe] = true
		bag.Warningf("URD603", w.Span, "effect sets %q to %q, a variant no condition ever tests", k, w.Value.Str)
	}
}

// checkNumericThresholdReachability flags a numeric comparison read whose
// threshold no `=` write of that property can ever satisfy (§4.5,
// URD604). A property with any `+`/`-` write is skipped entirely — a
// relative write can reach any threshold given enough applications, so
// the check is unsound there.
func checkNumericThresholdReachability(s *facts.Set, bag *diag.Bag) {
	values := map[string][]float64{}
	relative := map[string]bool{}
	for _, w := range s.Writes {
		k := key(w.Entity, w.Property)
		switch {
		case w.Op == "+" || w.Op == "-":
			relative[k] = true
		case w.Op == "=" && isNumericLiteral(w.Value):
			values[k] = append(values[k], numericValue(w.Value))
		}
	}

	for _, r := range s.Reads {
		if !isNumericLiteral(r.Value) {
			continue
		}
		k := key(r.Entity, r.Property)
		if relative[k] {
			continue
		}
		threshold := numericValue(r.Value)
		reachable := false
		for _, v := range values[k] {
			if numericCompareHolds(r.Op, v, threshold) {
				reachable = true
				break
			}
		}
		if !reachable {
			bag.Warningf("URD604", r.Span, "condition tests %q %s %v, a threshold no effect can ever reach", k, r.Op, threshold)
		}
	}
}

func isNumericLiteral(lit ast.Literal) bool {
	return lit.Kind == ast.LitInt || lit.Kind == ast.LitNumber
}

func numericValue(lit ast.Literal) float64 {
	if lit.Kind == ast.LitInt {
		return float64(lit.Int)
	}
	return lit.Num
}

func numericCompareHolds(op string, v, threshold float64) bool {
	switch op {
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	case "<":
		return v < threshold
	case ">":
		return v > threshold
	case "<=":
		return v <= threshold
	case ">=":
		return v >= threshold
	default:
		return true
	}
}

// checkWriteCycles builds a directed graph over (entity.property) nodes:
// an edge property A -> property B exists when some rule reads A in its
// `where` clause and writes B in its effects. A strongly connected
// component of size > 1 is a circular dependency — rule X's trigger
// depends on a property that (transitively) depends on rule X's own
// effect (§4.6, URD605).
func checkWriteCycles(s *facts.Set, bag *diag.Bag) {
	readsByRule := map[string][]string{}
	writesByRule := map[string][]string{}
	spanOf := map[string]source.Span{}

	for _, r := range s.Reads {
		if r.Rule == "" {
			continue
		}
		k := key(r.Entity, r.Property)
		readsByRule[r.Rule] = append(readsByRule[r.Rule], k)
		spanOf[k] = r.Span
	}
	for _, w := range s.Writes {
		if w.Rule == "" {
			continue
		}
		k := key(w.Entity, w.Property)
		writesByRule[w.Rule] = append(writesByRule[w.Rule], k)
		if _, ok := spanOf[k]; !ok {
			spanOf[k] = w.Span
		}
	}

	nodes := map[string]bool{}
	edges := map[string][]string{}
	for rule, reads := range readsByRule {
		writes := writesByRule[rule]
		for _, r := range reads {
			nodes[r] = true
			for _, w := range writes {
				nodes[w] = true
				edges[r] = append(edges[r], w)
			}
		}
	}

	sccs := tarjanSCC(nodes, edges)
	for _, scc := range sccs {
		if len(scc) > 1 {
			sort.Strings(scc)
			sp := spanOf[scc[0]]
			bag.Warningf("URD605", sp, "circular property dependency: %v", scc)
		}
	}
}

func key(entity, property string) string { return entity + "." + property }
