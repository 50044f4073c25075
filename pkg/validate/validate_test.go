package validate

import (
	"testing"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/diag"
	"github.com/urdwyrd/urd/pkg/source"
	"github.com/urdwyrd/urd/pkg/symbols"
)

func hasCode(bag *diag.Bag, code string) bool {
	for _, d := range bag.All() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func buildTableFor(t *testing.T, file *ast.File) (*source.Map, *symbols.Table) {
	t.Helper()
	sm := source.NewMap()
	id, _ := sm.Add("world.urd.md", "")
	file.ID = id
	bag := &diag.Bag{}
	tbl := symbols.Build(sm, []*ast.File{file}, bag)
	return sm, tbl
}

func TestCheckWorldUndeclaredStartAndEntry(t *testing.T) {
	file := &ast.File{World: &ast.World{Name: "w", Start: "nowhere", Entry: "nosection"}}
	_, tbl := buildTableFor(t, file)

	bag := &diag.Bag{}
	Static(tbl, bag)

	if !hasCode(bag, "URD401") {
		t.Error("expected URD401 for undeclared world.start")
	}
	if !hasCode(bag, "URD402") {
		t.Error("expected URD402 for undeclared world.entry")
	}
}

func TestCheckEntityOverrideTypeMismatchAndRange(t *testing.T) {
	min := 0.0
	max := 10.0
	file := &ast.File{
		Types: []*ast.TypeDecl{
			{Name: "gauge", Properties: []ast.PropertySpec{
				{Name: "level", Type: ast.PropertyType{Kind: ast.PropInteger, Min: &min, Max: &max}},
			}},
		},
		Entities: []*ast.Entity{
			{Name: "meter", TypeName: "gauge", Overrides: []ast.Override{
				{Property: "level", Value: ast.Literal{Kind: ast.LitString, Str: "full"}},
			}},
		},
	}
	_, tbl := buildTableFor(t, file)
	bag := &diag.Bag{}
	Static(tbl, bag)
	if !hasCode(bag, "URD404") {
		t.Errorf("expected URD404 for type-mismatched override, got %+v", bag.All())
	}

	file2 := &ast.File{
		Types: []*ast.TypeDecl{
			{Name: "gauge", Properties: []ast.PropertySpec{
				{Name: "level", Type: ast.PropertyType{Kind: ast.PropInteger, Min: &min, Max: &max}},
			}},
		},
		Entities: []*ast.Entity{
			{Name: "meter", TypeName: "gauge", Overrides: []ast.Override{
				{Property: "level", Value: ast.Literal{Kind: ast.LitInt, Int: 99}},
			}},
		},
	}
	_, tbl2 := buildTableFor(t, file2)
	bag2 := &diag.Bag{}
	Static(tbl2, bag2)
	if !hasCode(bag2, "URD406") {
		t.Errorf("expected URD406 for out-of-range override, got %+v", bag2.All())
	}
}

func TestCheckEntityOverrideUndeclaredProperty(t *testing.T) {
	file := &ast.File{
		Types: []*ast.TypeDecl{{Name: "gauge", Properties: nil}},
		Entities: []*ast.Entity{
			{Name: "meter", TypeName: "gauge", Overrides: []ast.Override{
				{Property: "bogus", Value: ast.Literal{Kind: ast.LitBool, Bool: true}},
			}},
		},
	}
	_, tbl := buildTableFor(t, file)
	bag := &diag.Bag{}
	Static(tbl, bag)
	if !hasCode(bag, "URD403") {
		t.Errorf("expected URD403, got %+v", bag.All())
	}
}

func TestCheckLocationExitsDuplicateAndUndeclaredTarget(t *testing.T) {
	file := &ast.File{
		Locations: []*ast.Location{
			{Name: "cell", Exits: []ast.Exit{
				{Name: "door", Target: "yard"},
				{Name: "door", Target: "cell"},
				{Name: "hatch", Target: "nowhere"},
			}},
			{Name: "yard"},
		},
	}
	_, tbl := buildTableFor(t, file)
	bag := &diag.Bag{}
	Static(tbl, bag)
	if !hasCode(bag, "URD407") {
		t.Errorf("expected URD407 for duplicate exit, got %+v", bag.All())
	}
	if !hasCode(bag, "URD408") {
		t.Errorf("expected URD408 for exit to undeclared location, got %+v", bag.All())
	}
}

func TestCheckSectionTreeDuplicateLabelAndNestingDepth(t *testing.T) {
	// Build a choice nested four levels deep to trip both URD410 (warn at 3)
	// and URD411 (error at 4).
	innermost := ast.Stmt{Kind: ast.StmtChoice, Choice: &ast.Choice{Label: "d4"}}
	level3 := ast.Stmt{Kind: ast.StmtChoice, Choice: &ast.Choice{Label: "d3", Body: []ast.Stmt{innermost}}}
	level2 := ast.Stmt{Kind: ast.StmtChoice, Choice: &ast.Choice{Label: "d2", Body: []ast.Stmt{level3}}}
	level1 := ast.Stmt{Kind: ast.StmtChoice, Choice: &ast.Choice{Label: "d1", Body: []ast.Stmt{level2}}}

	file := &ast.File{
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				level1,
				{Kind: ast.StmtChoice, Choice: &ast.Choice{Label: "dup"}},
				{Kind: ast.StmtChoice, Choice: &ast.Choice{Label: "dup"}},
			}},
		},
	}
	_, tbl := buildTableFor(t, file)
	bag := &diag.Bag{}
	Static(tbl, bag)
	if !hasCode(bag, "URD409") {
		t.Errorf("expected URD409 for duplicate choice label, got %+v", bag.All())
	}
	if !hasCode(bag, "URD410") {
		t.Errorf("expected URD410 nesting-depth warning, got %+v", bag.All())
	}
	if !hasCode(bag, "URD411") {
		t.Errorf("expected URD411 nesting-depth error, got %+v", bag.All())
	}
}

func TestCheckSectionChoiceTargetUndeclared(t *testing.T) {
	file := &ast.File{
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtChoice, Choice: &ast.Choice{Label: "go", Target: "nosuchsection"}},
			}},
		},
	}
	_, tbl := buildTableFor(t, file)
	bag := &diag.Bag{}
	Static(tbl, bag)
	if !hasCode(bag, "URD412") {
		t.Errorf("expected URD412 for choice targeting undeclared section, got %+v", bag.All())
	}
}

func TestCheckConditionAndEffectRefs(t *testing.T) {
	file := &ast.File{
		Locations: []*ast.Location{
			{Name: "cell", Exits: []ast.Exit{
				{Name: "door", Target: "cell", Guard: &ast.Condition{
					Kind: ast.CondCompare, Entity: "ghost", Property: "found", Op: "==",
					Value: ast.Literal{Kind: ast.LitBool, Bool: true},
				}},
			}},
		},
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtEffect, Effect: &ast.Effect{Kind: ast.EffectWrite, Entity: "ghost", Property: "found", Op: "="}},
			}},
		},
	}
	_, tbl := buildTableFor(t, file)
	bag := &diag.Bag{}
	Static(tbl, bag)
	if !hasCode(bag, "URD413") {
		t.Errorf("expected URD413 for condition referencing undeclared entity, got %+v", bag.All())
	}
	if !hasCode(bag, "URD415") {
		t.Errorf("expected URD415 for effect referencing undeclared entity, got %+v", bag.All())
	}
}

func TestCheckEntityHasNoSuchProperty(t *testing.T) {
	file := &ast.File{
		Types:    []*ast.TypeDecl{{Name: "key", Properties: nil}},
		Entities: []*ast.Entity{{Name: "brass-key", TypeName: "key"}},
		Locations: []*ast.Location{
			{Name: "cell", Exits: []ast.Exit{
				{Name: "door", Target: "cell", Guard: &ast.Condition{
					Kind: ast.CondCompare, Entity: "brass-key", Property: "bogus", Op: "==",
					Value: ast.Literal{Kind: ast.LitBool, Bool: true},
				}},
			}},
		},
	}
	_, tbl := buildTableFor(t, file)
	bag := &diag.Bag{}
	Static(tbl, bag)
	if !hasCode(bag, "URD414") {
		t.Errorf("expected URD414 for entity with no such property, got %+v", bag.All())
	}
}

func TestCheckEffectMoveInvalidDestination(t *testing.T) {
	file := &ast.File{
		Entities: []*ast.Entity{{Name: "brass-key", TypeName: "key"}},
		Types:    []*ast.TypeDecl{{Name: "key"}},
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtEffect, Effect: &ast.Effect{Kind: ast.EffectMove, Target: "brass-key", Dest: "nowhere"}},
			}},
		},
	}
	_, tbl := buildTableFor(t, file)
	bag := &diag.Bag{}
	Static(tbl, bag)
	if !hasCode(bag, "URD416") {
		t.Errorf("expected URD416 for invalid move destination, got %+v", bag.All())
	}
}

func TestCheckJumpRefUndeclaredType(t *testing.T) {
	file := &ast.File{
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtJump, Jump: &ast.Jump{Kind: ast.JumpEntityType, Target: "nosuchtype"}},
			}},
		},
	}
	_, tbl := buildTableFor(t, file)
	bag := &diag.Bag{}
	Static(tbl, bag)
	if !hasCode(bag, "URD417") {
		t.Errorf("expected URD417 for jump to undeclared type, got %+v", bag.All())
	}
}

func TestCheckJumpRefBuiltinNeverErrors(t *testing.T) {
	file := &ast.File{
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtJump, Jump: &ast.Jump{Kind: ast.JumpBuiltin, Target: "end"}},
			}},
		},
	}
	_, tbl := buildTableFor(t, file)
	bag := &diag.Bag{}
	Static(tbl, bag)
	if bag.HasErrors() {
		t.Errorf("builtin jump should never error, got %+v", bag.All())
	}
}
