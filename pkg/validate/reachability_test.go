package validate

import (
	"testing"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/diag"
	"github.com/urdwyrd/urd/pkg/facts"
	"github.com/urdwyrd/urd/pkg/source"
	"github.com/urdwyrd/urd/pkg/symbols"
)

func buildSetFor(t *testing.T, file *ast.File) (*source.Map, *symbols.Table, *facts.Set) {
	t.Helper()
	sm, tbl := buildTableFor(t, file)
	set := facts.Build(sm, tbl)
	facts.BuildRules(sm, []*ast.File{file}, set)
	return sm, tbl, set
}

func TestReachabilityFlagsUnreachableLocation(t *testing.T) {
	file := &ast.File{
		World: &ast.World{Name: "w", Start: "cell"},
		Locations: []*ast.Location{
			{Name: "cell"},
			{Name: "island"}, // no exit leads here
		},
	}
	_, tbl, set := buildSetFor(t, file)
	bag := &diag.Bag{}
	Reachability(tbl, set, bag)
	if !hasCode(bag, "URD430") {
		t.Errorf("expected URD430 for unreachable location, got %+v", bag.All())
	}
}

func TestReachabilityReachesLocationsViaExits(t *testing.T) {
	file := &ast.File{
		World: &ast.World{Name: "w", Start: "cell"},
		Locations: []*ast.Location{
			{Name: "cell", Exits: []ast.Exit{{Name: "door", Target: "yard"}}},
			{Name: "yard"},
		},
	}
	_, tbl, set := buildSetFor(t, file)
	bag := &diag.Bag{}
	Reachability(tbl, set, bag)
	if hasCode(bag, "URD430") {
		t.Errorf("did not expect URD430 when every location is reachable, got %+v", bag.All())
	}
}

func TestReachabilityFlagsUnreachableSection(t *testing.T) {
	file := &ast.File{
		World:    &ast.World{Name: "w", Entry: "intro"},
		Sections: []*ast.Section{{Path: "intro"}, {Path: "orphan"}},
	}
	_, tbl, set := buildSetFor(t, file)
	bag := &diag.Bag{}
	Reachability(tbl, set, bag)
	if !hasCode(bag, "URD430") {
		t.Errorf("expected URD430 for unreachable section, got %+v", bag.All())
	}
}

func TestReachabilityReachesSectionsViaJumps(t *testing.T) {
	file := &ast.File{
		World: &ast.World{Name: "w", Entry: "intro"},
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtJump, Jump: &ast.Jump{Kind: ast.JumpSection, Target: "middle"}},
			}},
			{Path: "middle"},
		},
	}
	_, tbl, set := buildSetFor(t, file)
	bag := &diag.Bag{}
	Reachability(tbl, set, bag)
	if hasCode(bag, "URD430") {
		t.Errorf("did not expect URD430 when every section is reachable, got %+v", bag.All())
	}
}

func TestCheckExitJumpsFlagsUndeclaredExit(t *testing.T) {
	file := &ast.File{
		Locations: []*ast.Location{
			{Name: "cell", Exits: []ast.Exit{{Name: "door", Target: "cell"}}},
		},
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtJump, Jump: &ast.Jump{Kind: ast.JumpExit, Target: "nosuchexit"}},
			}},
		},
	}
	_, tbl, set := buildSetFor(t, file)
	bag := &diag.Bag{}
	Reachability(tbl, set, bag)
	if !hasCode(bag, "URD418") {
		t.Errorf("expected URD418 for jump to undeclared exit, got %+v", bag.All())
	}
}

func TestCheckExitJumpsAcceptsDeclaredExit(t *testing.T) {
	file := &ast.File{
		Locations: []*ast.Location{
			{Name: "cell", Exits: []ast.Exit{{Name: "door", Target: "cell"}}},
		},
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtJump, Jump: &ast.Jump{Kind: ast.JumpExit, Target: "door"}},
			}},
		},
	}
	_, tbl, set := buildSetFor(t, file)
	bag := &diag.Bag{}
	Reachability(tbl, set, bag)
	if hasCode(bag, "URD418") {
		t.Errorf("did not expect URD418 for a declared exit, got %+v", bag.All())
	}
}

func TestCheckEndSectionShadowsBuiltin(t *testing.T) {
	file := &ast.File{
		Sections: []*ast.Section{{Path: "end", Name: "end"}},
	}
	_, tbl, _ := buildSetFor(t, file)
	bag := &diag.Bag{}
	checkEndSectionShadowsBuiltin(tbl, bag)
	if !hasCode(bag, "URD431") {
		t.Errorf("expected URD431 for a section named end, got %+v", bag.All())
	}
}

func TestCheckEndSectionShadowsBuiltinIgnoresOtherNames(t *testing.T) {
	file := &ast.File{
		Sections: []*ast.Section{{Path: "intro", Name: "intro"}},
	}
	_, tbl, _ := buildSetFor(t, file)
	bag := &diag.Bag{}
	checkEndSectionShadowsBuiltin(tbl, bag)
	if hasCode(bag, "URD431") {
		t.Errorf("did not expect URD431 for a section not named end, got %+v", bag.All())
	}
}

func TestCheckShadowedNamesFlagsCollision(t *testing.T) {
	file := &ast.File{
		Locations: []*ast.Location{
			{Name: "cell", Exits: []ast.Exit{{Name: "intro", Target: "cell"}}},
		},
		Sections: []*ast.Section{{Path: "intro"}},
	}
	_, tbl, _ := buildSetFor(t, file)
	bag := &diag.Bag{}
	checkShadowedNames(tbl, bag)
	if !hasCode(bag, "URD434") {
		t.Errorf("expected URD434 for a section/exit name collision, got %+v", bag.All())
	}
}

func TestCheckShadowedNamesNoFalsePositiveOnDistinctNames(t *testing.T) {
	file := &ast.File{
		Locations: []*ast.Location{
			{Name: "cell", Exits: []ast.Exit{{Name: "door", Target: "cell"}}},
		},
		Sections: []*ast.Section{{Path: "intro"}},
	}
	_, tbl, _ := buildSetFor(t, file)
	bag := &diag.Bag{}
	checkShadowedNames(tbl, bag)
	if hasCode(bag, "URD434") {
		t.Errorf("did not expect URD434 for distinct names, got %+v", bag.All())
	}
}

func TestCheckFallthroughFlagsOneShotOnlySection(t *testing.T) {
	file := &ast.File{
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtChoice, Choice: &ast.Choice{Kind: ast.ChoiceOneShot, Label: "look"}},
			}},
		},
	}
	_, tbl, _ := buildSetFor(t, file)
	bag := &diag.Bag{}
	checkFallthrough(tbl, bag)
	if !hasCode(bag, "URD433") {
		t.Errorf("expected URD433 for a one-shot-only section with no fallthrough, got %+v", bag.All())
	}
}

func TestCheckFallthroughAcceptsStickyChoice(t *testing.T) {
	file := &ast.File{
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtChoice, Choice: &ast.Choice{Kind: ast.ChoiceOneShot, Label: "look"}},
				{Kind: ast.StmtChoice, Choice: &ast.Choice{Kind: ast.ChoiceSticky, Label: "leave"}},
			}},
		},
	}
	_, tbl, _ := buildSetFor(t, file)
	bag := &diag.Bag{}
	checkFallthrough(tbl, bag)
	if hasCode(bag, "URD433") {
		t.Errorf("did not expect URD433 when a sticky choice provides fallthrough, got %+v", bag.All())
	}
}

func TestCheckFallthroughAcceptsTrailingJump(t *testing.T) {
	file := &ast.File{
		Sections: []*ast.Section{
			{Path: "intro", Body: []ast.Stmt{
				{Kind: ast.StmtChoice, Choice: &ast.Choice{Kind: ast.ChoiceOneShot, Label: "look"}},
				{Kind: ast.StmtJump, Jump: &ast.Jump{Kind: ast.JumpSection, Target: "next"}},
			}},
		},
	}
	_, tbl, _ := buildSetFor(t, file)
	bag := &diag.Bag{}
	checkFallthrough(tbl, bag)
	if hasCode(bag, "URD433") {
		t.Errorf("did not expect URD433 when a trailing jump provides fallthrough, got %+v", bag.All())
	}
}

func TestCheckImpossibleChoicesFlagsUnwrittenVariant(t *testing.T) {
	file := &ast.File{
		Sections: []*ast.Section{
			{Path: "chat", Body: []ast.Stmt{
				{Kind: ast.StmtChoice, Choice: &ast.Choice{
					Kind: ast.ChoiceOneShot, Label: "Ask for help",
					Body: []ast.Stmt{
						{Kind: ast.StmtConditionBlock, CondBlock: &ast.ConditionBlock{
							Cond: &ast.Condition{
								Kind: ast.CondCompare, Entity: "old-man", Property: "mood", Op: "==",
								Value: ast.Literal{Kind: ast.LitString, Str: "friendly"},
							},
							Body: []ast.Stmt{{Kind: ast.StmtJump, Jump: &ast.Jump{Kind: ast.JumpBuiltin}}},
						}},
					},
				}},
				{Kind: ast.StmtChoice, Choice: &ast.Choice{Kind: ast.ChoiceOneShot, Label: "Make small talk"}},
			}},
		},
	}
	_, tbl, set := buildSetFor(t, file)
	bag := &diag.Bag{}
	checkImpossibleChoices(tbl, set, bag)
	if !hasCode(bag, "URD432") {
		t.Errorf("expected URD432 for a choice guarded by a never-written variant, got %+v", bag.All())
	}
}

func TestCheckImpossibleChoicesAcceptsWrittenVariant(t *testing.T) {
	file := &ast.File{
		Sections: []*ast.Section{
			{Path: "setup", Body: []ast.Stmt{
				{Kind: ast.StmtEffect, Effect: &ast.Effect{Kind: ast.EffectWrite, Entity: "old-man", Property: "mood", Op: "=", Value: ast.Literal{Kind: ast.LitString, Str: "friendly"}}},
			}},
			{Path: "chat", Body: []ast.Stmt{
				{Kind: ast.StmtChoice, Choice: &ast.Choice{
					Kind: ast.ChoiceOneShot, Label: "Ask for help",
					Guard: &ast.Condition{
						Kind: ast.CondCompare, Entity: "old-man", Property: "mood", Op: "==",
						Value: ast.Literal{Kind: ast.LitString, Str: "friendly"},
					},
				}},
			}},
		},
	}
	_, tbl, set := buildSetFor(t, file)
	bag := &diag.Bag{}
	checkImpossibleChoices(tbl, set, bag)
	if hasCode(bag, "URD432") {
		t.Errorf("did not expect URD432 when an effect writes the guarded variant, got %+v", bag.All())
	}
}
