package validate

import (
	"sort"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/diag"
	"github.com/urdwyrd/urd/pkg/facts"
	"github.com/urdwyrd/urd/pkg/symbols"
)

// Reachability walks the exit graph from world.start and the jump/choice
// graph from world.entry, flagging locations and sections nothing in the
// world can ever reach (URD430), a section named `end` shadowing the
// builtin jump target (URD431), impossible enum-guarded choices (URD432),
// one-shot-only sections with no fallthrough (URD433), and exit/section
// name collisions (URD434) — §4.5. It also cross-checks JumpExit targets
// (URD418), which Static deliberately leaves unresolved since it has no
// notion of "current location" without this traversal.
func Reachability(tbl *symbols.Table, s *facts.Set, bag *diag.Bag) {
	reachableLocations := walkLocations(tbl, s)
	for name, loc := range tbl.Locations {
		if !reachableLocations[name] {
			bag.Warningf("URD430", loc.Decl.Span, "location %q is unreachable from world.start", name)
		}
	}

	reachableSections := walkSections(tbl, s)
	for path, sec := range tbl.Sections {
		if sec.Decl.Level != 0 {
			continue // only top-level sections are independently entered
		}
		if !reachableSections[path] {
			bag.Warningf("URD430", sec.Decl.Span, "section %q is unreachable from world.entry", path)
		}
	}

	checkEndSectionShadowsBuiltin(tbl, bag)
	checkImpossibleChoices(tbl, s, bag)
	checkFallthrough(tbl, bag)
	checkShadowedNames(tbl, bag)
	checkExitJumps(tbl, bag)
}

// checkEndSectionShadowsBuiltin flags a section literally named "end" at
// any depth: `{end}` is a reserved built-in jump target, and a section
// sharing that name shadows it (§4.3 rule 3).
func checkEndSectionShadowsBuiltin(tbl *symbols.Table, bag *diag.Bag) {
	for _, sec := range sortedSectionsForExitCheck(tbl) {
		if sec.Decl.Name == "end" {
			bag.Warningf("URD431", sec.Decl.NameSpan, "section %q shadows the built-in {end} jump target", sec.Path)
		}
	}
}

// checkShadowedNames flags an exit name that collides with a top-level
// section path, since a bare `-> target` line disambiguates JumpExit from
// JumpSection by shape alone and a collision makes that ambiguous (§4.5
// URD434).
func checkShadowedNames(tbl *symbols.Table, bag *diag.Bag) {
	exitNames := map[string]bool{}
	for _, loc := range tbl.Locations {
		for _, ex := range loc.Decl.Exits {
			exitNames[ex.Name] = true
		}
	}
	for _, sec := range sortedSectionsForExitCheck(tbl) {
		if sec.Decl.Level != 0 {
			continue
		}
		if exitNames[sec.Path] {
			bag.Warningf("URD434", sec.Decl.NameSpan, "section %q shares a name with an exit; jump targets referencing it are ambiguous", sec.Path)
		}
	}
}

// checkFallthrough flags a top-level section whose every reachable choice
// path is one-shot with no jump and no sticky choice to fall back on —
// play would dead-end with nothing left to choose (§4.5 URD433).
func checkFallthrough(tbl *symbols.Table, bag *diag.Bag) {
	for _, sec := range sortedSectionsForExitCheck(tbl) {
		if sec.Decl.Level != 0 {
			continue
		}
		if !checkSectionFallthrough(sec.Decl.Body, true) {
			bag.Warningf("URD433", sec.Decl.Span, "section %q has no fallthrough once its one-shot choices are exhausted", sec.Path)
		}
	}
}

// checkSectionFallthrough reports whether a body has a way to keep play
// moving once every one-shot choice in it has been taken: a jump or
// dialogue statement of its own, or at least one sticky choice, or any
// choice (one-shot included) whose own body provides a fallthrough. A
// top-level body with no choice at all has nothing to exhaust and
// passes; a nested body (choice or condition block) passes only if it
// contains such a statement itself.
func checkSectionFallthrough(body []ast.Stmt, topLevel bool) bool {
	hasChoice := false
	for _, stmt := range body {
		switch stmt.Kind {
		case ast.StmtJump, ast.StmtDialogue:
			return true
		case ast.StmtConditionBlock:
			if checkSectionFallthrough(stmt.CondBlock.Body, false) {
				return true
			}
		case ast.StmtChoice:
			hasChoice = true
			c := stmt.Choice
			if c.Kind == ast.ChoiceSticky {
				return true
			}
			if checkSectionFallthrough(c.Body, false) {
				return true
			}
		}
	}
	return topLevel && !hasChoice
}

func walkLocations(tbl *symbols.Table, s *facts.Set) map[string]bool {
	reached := map[string]bool{}
	if tbl.World == nil || tbl.World.Start == "" {
		return reached
	}
	adjacency := map[string][]string{}
	for _, e := range s.Exits {
		adjacency[e.From] = append(adjacency[e.From], e.To)
	}
	var queue []string
	if _, ok := tbl.Locations[tbl.World.Start]; ok {
		queue = append(queue, tbl.World.Start)
		reached[tbl.World.Start] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[cur] {
			if !reached[next] {
				reached[next] = true
				queue = append(queue, next)
			}
		}
	}
	return reached
}

func walkSections(tbl *symbols.Table, s *facts.Set) map[string]bool {
	reached := map[string]bool{}
	if tbl.World == nil || tbl.World.Entry == "" {
		return reached
	}
	adjacency := map[string][]string{}
	for _, j := range s.Jumps {
		if j.Kind == ast.JumpSection {
			adjacency[j.From] = append(adjacency[j.From], j.Target)
		}
	}
	root := topLevelPath(tbl.World.Entry)
	var queue []string
	if _, ok := tbl.Sections[root]; ok {
		queue = append(queue, root)
		reached[root] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[cur] {
			nextRoot := topLevelPath(next)
			if !reached[nextRoot] {
				reached[nextRoot] = true
				queue = append(queue, nextRoot)
			}
		}
	}
	return reached
}

// topLevelPath returns the root segment of a dot-joined section path,
// since reachability is tracked per top-level section entry point.
func topLevelPath(path string) string {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return path
}

// checkExitJumps validates JumpExit-kind jumps: target must name an
// exit of the location the enclosing top-level section's choices are
// presented in. Schema Markdown does not track that binding explicitly,
// so this is approximated by accepting any exit name declared on any
// location — a real mismatch still surfaces at play-time validation,
// but a completely undeclared exit name is still caught here.
func checkExitJumps(tbl *symbols.Table, bag *diag.Bag) {
	allExitNames := map[string]bool{}
	for _, loc := range tbl.Locations {
		for _, ex := range loc.Decl.Exits {
			allExitNames[ex.Name] = true
		}
	}
	for _, sec := range sortedSectionsForExitCheck(tbl) {
		checkExitJumpsInStmts(sec.Decl.Body, allExitNames, bag)
	}
}

func checkExitJumpsInStmts(stmts []ast.Stmt, allExitNames map[string]bool, bag *diag.Bag) {
	for _, stmt := range stmts {
		switch stmt.Kind {
		case ast.StmtJump:
			j := stmt.Jump
			if j.Kind == ast.JumpExit && !allExitNames[j.Target] {
				bag.Errorf("URD418", j.Span, "jump references undeclared exit %q", j.Target)
			}
		case ast.StmtChoice:
			checkExitJumpsInStmts(stmt.Choice.Body, allExitNames, bag)
		case ast.StmtConditionBlock:
			checkExitJumpsInStmts(stmt.CondBlock.Body, allExitNames, bag)
		}
	}
}

func sortedSectionsForExitCheck(tbl *symbols.Table) []*symbols.SectionSymbol {
	out := make([]*symbols.SectionSymbol, 0, len(tbl.Sections))
	for _, s := range tbl.Sections {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// checkImpossibleChoices flags a choice guarded by an enum-equality test
// whose variant no effect in the FactSet ever writes (§4.5 URD432,
// scenario 5). A guard reaches a choice two ways in Schema Markdown: an
// inline `? cond` on the choice's own line (Choice.Guard), or a standalone
// `? cond` wrapping the choice's whole body as its sole statement
// (StmtConditionBlock) — both are checked.
func checkImpossibleChoices(tbl *symbols.Table, s *facts.Set, bag *diag.Bag) {
	written := writtenEnumVariants(s)
	for _, sec := range sortedSectionsForExitCheck(tbl) {
		checkChoiceGuardsInStmts(sec.Decl.Body, written, bag)
	}
}

// writtenEnumVariants maps "entity.property" to every string variant some
// `=` effect assigns it, across the whole FactSet.
func writtenEnumVariants(s *facts.Set) map[string]map[string]bool {
	written := map[string]map[string]bool{}
	for _, w := range s.Writes {
		if w.Op != "=" || w.Value.Kind != ast.LitString {
			continue
		}
		k := key(w.Entity, w.Property)
		if written[k] == nil {
			written[k] = map[string]bool{}
		}
		written[k][w.Value.Str] = true
	}
	return written
}

func checkChoiceGuardsInStmts(stmts []ast.Stmt, written map[string]map[string]bool, bag *diag.Bag) {
	for _, stmt := range stmts {
		switch stmt.Kind {
		case ast.StmtChoice:
			c := stmt.Choice
			checkChoiceGuard(c.Guard, written, bag)
			checkChoiceGuardsInStmts(c.Body, written, bag)
		case ast.StmtConditionBlock:
			checkChoiceGuard(stmt.CondBlock.Cond, written, bag)
			checkChoiceGuardsInStmts(stmt.CondBlock.Body, written, bag)
		}
	}
}

// checkChoiceGuard flags cond if it is an enum-equality test (`==` against
// a string literal) whose tested variant never occurs among recorded
// writes for that property — the choice it guards can never be taken.
func checkChoiceGuard(cond *ast.Condition, written map[string]map[string]bool, bag *diag.Bag) {
	if cond == nil || cond.Kind != ast.CondCompare || cond.Op != "==" || cond.Value.Kind != ast.LitString {
		return
	}
	k := key(cond.Entity, cond.Property)
	variants := written[k]
	if variants != nil && variants[cond.Value.Str] {
		return
	}
	bag.Warningf("URD432", cond.Span, "choice guard %q == %q can never be satisfied; no effect ever writes that variant", k, cond.Value.Str)
}
