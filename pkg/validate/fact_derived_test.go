package validate

import (
	"testing"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/diag"
	"github.com/urdwyrd/urd/pkg/facts"
	"github.com/urdwyrd/urd/pkg/source"
	"github.com/urdwyrd/urd/pkg/symbols"
)

func buildSymbolTable(t *testing.T, sm *source.Map, file *ast.File) *symbols.Table {
	t.Helper()
	return symbols.Build(sm, []*ast.File{file}, &diag.Bag{})
}

func TestFactDerivedWrittenButNeverRead(t *testing.T) {
	sm := source.NewMap()
	id, _ := sm.Add("world.urd.md", "")
	file := &ast.File{
		ID: id,
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtEffect, Effect: &ast.Effect{Kind: ast.EffectWrite, Entity: "sentry", Property: "alert", Op: "="}},
			}},
		},
	}
	tbl := buildSymbolTable(t, sm, file)
	set := facts.Build(sm, tbl)
	facts.BuildRules(sm, []*ast.File{file}, set)

	bag := &diag.Bag{}
	FactDerived(set, bag)
	if !hasCode(bag, "URD602") {
		t.Errorf("expected URD602 for a write with no read, got %+v", bag.All())
	}
	if hasCode(bag, "URD601") {
		t.Errorf("did not expect URD601, got %+v", bag.All())
	}
}

func TestFactDerivedReadButNeverWritten(t *testing.T) {
	sm := source.NewMap()
	id, _ := sm.Add("world.urd.md", "")
	file := &ast.File{
		ID: id,
		Locations: []*ast.Location{
			{Name: "hall", Exits: []ast.Exit{{Name: "door", Target: "hall", Guard: &ast.Condition{
				Kind: ast.CondCompare, Entity: "sentry", Property: "alert", Op: "==",
				Value: ast.Literal{Kind: ast.LitBool, Bool: true},
			}}}},
		},
	}
	tbl := buildSymbolTable(t, sm, file)
	set := facts.Build(sm, tbl)
	facts.BuildRules(sm, []*ast.File{file}, set)

	bag := &diag.Bag{}
	FactDerived(set, bag)
	if !hasCode(bag, "URD601") {
		t.Errorf("expected URD601 for a read with no write, got %+v", bag.All())
	}
	if hasCode(bag, "URD602") {
		t.Errorf("did not expect URD602, got %+v", bag.All())
	}
}

func TestFactDerivedNoWarningWhenReadAndWritten(t *testing.T) {
	sm := source.NewMap()
	id, _ := sm.Add("world.urd.md", "")
	file := &ast.File{
		ID: id,
		Locations: []*ast.Location{
			{Name: "cell", Exits: []ast.Exit{{Name: "door", Target: "cell", Guard: &ast.Condition{
				Kind: ast.CondCompare, Entity: "brass-key", Property: "found", Op: "==",
				Value: ast.Literal{Kind: ast.LitBool, Bool: true},
			}}}},
		},
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtEffect, Effect: &ast.Effect{Kind: ast.EffectWrite, Entity: "brass-key", Property: "found", Op: "="}},
			}},
		},
	}
	tbl := buildSymbolTable(t, sm, file)
	set := facts.Build(sm, tbl)
	facts.BuildRules(sm, []*ast.File{file}, set)

	bag := &diag.Bag{}
	FactDerived(set, bag)
	if hasCode(bag, "URD601") || hasCode(bag, "URD602") {
		t.Errorf("did not expect any orphan-property warning, got %+v", bag.All())
	}
}

func TestCheckEnumVariantCoverageFlagsUntestedVariant(t *testing.T) {
	sm := source.NewMap()
	id, _ := sm.Add("world.urd.md", "")
	file := &ast.File{
		ID: id,
		Locations: []*ast.Location{
			{Name: "hall", Exits: []ast.Exit{{Name: "door", Target: "hall", Guard: &ast.Condition{
				Kind: ast.CondCompare, Entity: "npc", Property: "mood", Op: "==",
				Value: ast.Literal{Kind: ast.LitString, Str: "friendly"},
			}}}},
		},
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtEffect, Effect: &ast.Effect{Kind: ast.EffectWrite, Entity: "npc", Property: "mood", Op: "=", Value: ast.Literal{Kind: ast.LitString, Str: "friendly"}}},
				{Kind: ast.StmtEffect, Effect: &ast.Effect{Kind: ast.EffectWrite, Entity: "npc", Property: "mood", Op: "=", Value: ast.Literal{Kind: ast.LitString, Str: "hostile"}}},
			}},
		},
	}
	tbl := buildSymbolTable(t, sm, file)
	set := facts.Build(sm, tbl)
	facts.BuildRules(sm, []*ast.File{file}, set)

	bag := &diag.Bag{}
	checkEnumVariantCoverage(set, bag)
	if !hasCode(bag, "URD603") {
		t.Errorf("expected URD603 for an untested variant, got %+v", bag.All())
	}
}

func TestCheckEnumVariantCoverageNoFalsePositiveWhenAllVariantsTested(t *testing.T) {
	sm := source.NewMap()
	id, _ := sm.Add("world.urd.md", "")
	file := &ast.File{
		ID: id,
		Locations: []*ast.Location{
			{Name: "hall", Exits: []ast.Exit{{Name: "door", Target: "hall", Guard: &ast.Condition{
				Kind: ast.CondCompare, Entity: "npc", Property: "mood", Op: "==",
				Value: ast.Literal{Kind: ast.LitString, Str: "friendly"},
			}}}},
		},
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtEffect, Effect: &ast.Effect{Kind: ast.EffectWrite, Entity: "npc", Property: "mood", Op: "=", Value: ast.Literal{Kind: ast.LitString, Str: "friendly"}}},
			}},
		},
	}
	tbl := buildSymbolTable(t, sm, file)
	set := facts.Build(sm, tbl)
	facts.BuildRules(sm, []*ast.File{file}, set)

	bag := &diag.Bag{}
	checkEnumVariantCoverage(set, bag)
	if hasCode(bag, "URD603") {
		t.Errorf("did not expect URD603 when every written variant is tested, got %+v", bag.All())
	}
}

func TestCheckNumericThresholdReachabilityFlagsUnreachableThreshold(t *testing.T) {
	sm := source.NewMap()
	id, _ := sm.Add("world.urd.md", "")
	file := &ast.File{
		ID: id,
		Locations: []*ast.Location{
			{Name: "hall", Exits: []ast.Exit{{Name: "door", Target: "hall", Guard: &ast.Condition{
				Kind: ast.CondCompare, Entity: "player", Property: "gold", Op: ">",
				Value: ast.Literal{Kind: ast.LitInt, Int: 100},
			}}}},
		},
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtEffect, Effect: &ast.Effect{Kind: ast.EffectWrite, Entity: "player", Property: "gold", Op: "=", Value: ast.Literal{Kind: ast.LitInt, Int: 10}}},
			}},
		},
	}
	tbl := buildSymbolTable(t, sm, file)
	set := facts.Build(sm, tbl)
	facts.BuildRules(sm, []*ast.File{file}, set)

	bag := &diag.Bag{}
	checkNumericThresholdReachability(set, bag)
	if !hasCode(bag, "URD604") {
		t.Errorf("expected URD604 for an unreachable threshold, got %+v", bag.All())
	}
}

func TestCheckNumericThresholdReachabilitySkipsRelativeWrites(t *testing.T) {
	sm := source.NewMap()
	id, _ := sm.Add("world.urd.md", "")
	file := &ast.File{
		ID: id,
		Locations: []*ast.Location{
			{Name: "hall", Exits: []ast.Exit{{Name: "door", Target: "hall", Guard: &ast.Condition{
				Kind: ast.CondCompare, Entity: "player", Property: "gold", Op: ">",
				Value: ast.Literal{Kind: ast.LitInt, Int: 100},
			}}}},
		},
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtEffect, Effect: &ast.Effect{Kind: ast.EffectWrite, Entity: "player", Property: "gold", Op: "+", Value: ast.Literal{Kind: ast.LitInt, Int: 10}}},
			}},
		},
	}
	tbl := buildSymbolTable(t, sm, file)
	set := facts.Build(sm, tbl)
	facts.BuildRules(sm, []*ast.File{file}, set)

	bag := &diag.Bag{}
	checkNumericThresholdReachability(set, bag)
	if hasCode(bag, "URD604") {
		t.Errorf("did not expect URD604 when a relative write could reach the threshold, got %+v", bag.All())
	}
}

func TestCheckWriteCyclesDetectsCircularRuleDependency(t *testing.T) {
	sm := source.NewMap()
	id, _ := sm.Add("world.urd.md", "")
	trueLit := ast.Literal{Kind: ast.LitBool, Bool: true}
	file := &ast.File{
		ID: id,
		Rules: []*ast.RuleBlock{
			{
				Name: "r1",
				Where: []*ast.Condition{
					{Kind: ast.CondCompare, Entity: "a", Property: "p", Op: "==", Value: trueLit},
				},
				Effects: []ast.Effect{
					{Kind: ast.EffectWrite, Entity: "b", Property: "p", Op: "="},
				},
			},
			{
				Name: "r2",
				Where: []*ast.Condition{
					{Kind: ast.CondCompare, Entity: "b", Property: "p", Op: "==", Value: trueLit},
				},
				Effects: []ast.Effect{
					{Kind: ast.EffectWrite, Entity: "a", Property: "p", Op: "="},
				},
			},
		},
	}
	set := &facts.Set{}
	facts.BuildRules(sm, []*ast.File{file}, set)

	bag := &diag.Bag{}
	checkWriteCycles(set, bag)
	if !hasCode(bag, "URD605") {
		t.Errorf("expected URD605 for a circular rule dependency, got %+v", bag.All())
	}
}

func TestCheckWriteCyclesNoFalsePositiveOnAcyclicRules(t *testing.T) {
	sm := source.NewMap()
	id, _ := sm.Add("world.urd.md", "")
	trueLit := ast.Literal{Kind: ast.LitBool, Bool: true}
	file := &ast.File{
		ID: id,
		Rules: []*ast.RuleBlock{
			{
				Name: "r1",
				Where: []*ast.Condition{
					{Kind: ast.CondCompare, Entity: "a", Property: "p", Op: "==", Value: trueLit},
				},
				Effects: []ast.Effect{
					{Kind: ast.EffectWrite, Entity: "b", Property: "p", Op: "="},
				},
			},
		},
	}
	set := &facts.Set{}
	facts.BuildRules(sm, []*ast.File{file}, set)

	bag := &diag.Bag{}
	checkWriteCycles(set, bag)
	if hasCode(bag, "URD605") {
		t.Errorf("did not expect URD605 for an acyclic rule graph, got %+v", bag.All())
	}
}
