package facts

import (
	"testing"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/diag"
	"github.com/urdwyrd/urd/pkg/source"
	"github.com/urdwyrd/urd/pkg/symbols"
)

func buildTable(t *testing.T, sm *source.Map) (*symbols.Table, *ast.File) {
	t.Helper()
	id, _ := sm.Add("world.urd.md", "")

	guard := &ast.Condition{Kind: ast.CondCompare, Entity: "brass-key", Property: "found", Op: "==", Value: ast.Literal{Kind: ast.LitBool, Bool: true}}
	file := &ast.File{
		ID: id,
		Locations: []*ast.Location{
			{Name: "cell", Exits: []ast.Exit{{Name: "door", Target: "yard", Guard: guard}}},
		},
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtChoice, Choice: &ast.Choice{
					Kind:  ast.ChoiceOneShot,
					Label: "Pick it up",
					Body: []ast.Stmt{
						{Kind: ast.StmtEffect, Effect: &ast.Effect{Kind: ast.EffectWrite, Entity: "brass-key", Property: "found", Op: "=", Value: ast.Literal{Kind: ast.LitBool, Bool: true}}},
						{Kind: ast.StmtJump, Jump: &ast.Jump{Kind: ast.JumpBuiltin, Target: "end"}},
					},
				}},
			}},
		},
	}
	tbl := symbols.Build(sm, []*ast.File{file}, &diag.Bag{})
	return tbl, file
}

func TestBuildProducesExitAndChoiceAndWriteFacts(t *testing.T) {
	sm := source.NewMap()
	tbl, file := buildTable(t, sm)

	set := Build(sm, tbl)
	BuildRules(sm, []*ast.File{file}, set)

	if len(set.Exits) != 1 || set.Exits[0].From != "cell" || set.Exits[0].To != "yard" {
		t.Errorf("Exits = %+v", set.Exits)
	}
	if len(set.Choices) != 1 || set.Choices[0].Label != "Pick it up" {
		t.Errorf("Choices = %+v", set.Choices)
	}
	if len(set.Writes) != 1 || set.Writes[0].Entity != "brass-key" || set.Writes[0].Property != "found" {
		t.Errorf("Writes = %+v", set.Writes)
	}
	if len(set.Reads) != 1 || set.Reads[0].Entity != "brass-key" || set.Reads[0].Property != "found" {
		t.Errorf("Reads = %+v", set.Reads)
	}
	if len(set.Jumps) != 1 || set.Jumps[0].Kind != ast.JumpBuiltin {
		t.Errorf("Jumps = %+v", set.Jumps)
	}
}

func TestSiteIDsAreUniquePerSite(t *testing.T) {
	sm := source.NewMap()
	tbl, _ := buildTable(t, sm)
	set := Build(sm, tbl)

	seen := map[string]bool{}
	for _, e := range set.Exits {
		if seen[e.SiteID] {
			t.Errorf("duplicate site id %q", e.SiteID)
		}
		seen[e.SiteID] = true
	}
}

func TestPropertyDependencyIndex(t *testing.T) {
	sm := source.NewMap()
	tbl, file := buildTable(t, sm)
	set := Build(sm, tbl)
	BuildRules(sm, []*ast.File{file}, set)

	idx := NewPropertyDependencyIndex(set)
	if len(idx.ReadsOf("brass-key", "found")) != 1 {
		t.Errorf("ReadsOf(brass-key.found) = %+v", idx.ReadsOf("brass-key", "found"))
	}
	if len(idx.WritesOf("brass-key", "found")) != 1 {
		t.Errorf("WritesOf(brass-key.found) = %+v", idx.WritesOf("brass-key", "found"))
	}
	// brass-key.found is both read (the exit guard) and written (the
	// choice effect), so it appears in neither orphan list.
	if orphanReads := idx.ReadButNeverWritten(); len(orphanReads) != 0 {
		t.Errorf("ReadButNeverWritten = %+v, want none", orphanReads)
	}
	if orphanWrites := idx.WrittenButNeverRead(); len(orphanWrites) != 0 {
		t.Errorf("WrittenButNeverRead = %+v, want none", orphanWrites)
	}
}

func TestReadButNeverWrittenDetectsOrphanRead(t *testing.T) {
	sm := source.NewMap()
	id, _ := sm.Add("world.urd.md", "")
	guard := &ast.Condition{Kind: ast.CondCompare, Entity: "sentry", Property: "alert", Op: "==", Value: ast.Literal{Kind: ast.LitBool, Bool: true}}
	file := &ast.File{
		ID:        id,
		Locations: []*ast.Location{{Name: "hall", Exits: []ast.Exit{{Name: "door", Target: "vault", Guard: guard}}}},
	}
	tbl := symbols.Build(sm, []*ast.File{file}, &diag.Bag{})
	set := Build(sm, tbl)
	idx := NewPropertyDependencyIndex(set)

	orphans := idx.ReadButNeverWritten()
	if len(orphans) != 1 || orphans[0] != "sentry.alert" {
		t.Errorf("ReadButNeverWritten = %+v, want [sentry.alert]", orphans)
	}
}

func TestWrittenButNeverReadDetectsOrphanWrite(t *testing.T) {
	sm := source.NewMap()
	id, _ := sm.Add("world.urd.md", "")
	file := &ast.File{
		ID: id,
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtEffect, Effect: &ast.Effect{Kind: ast.EffectWrite, Entity: "sentry", Property: "alert", Op: "=", Value: ast.Literal{Kind: ast.LitBool, Bool: true}}},
			}},
		},
	}
	tbl := symbols.Build(sm, []*ast.File{file}, &diag.Bag{})
	set := Build(sm, tbl)
	idx := NewPropertyDependencyIndex(set)

	orphans := idx.WrittenButNeverRead()
	if len(orphans) != 1 || orphans[0] != "sentry.alert" {
		t.Errorf("WrittenButNeverRead = %+v, want [sentry.alert]", orphans)
	}
}
