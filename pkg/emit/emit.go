package emit

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/diag"
	"github.com/urdwyrd/urd/pkg/facts"
	"github.com/urdwyrd/urd/pkg/source"
	"github.com/urdwyrd/urd/pkg/symbols"
)

// Build projects a linked symbol table and its FactSet into the
// canonical Document shape, validating every emitted name against the
// slug invariant along the way (§3.1, §4.7).
func Build(sm *source.Map, tbl *symbols.Table, set *facts.Set, compilerVersion string, sourceFiles []string, bag *diag.Bag) *Document {
	doc := &Document{
		Types:     map[string]TypeDoc{},
		Entities:  map[string]EntityDoc{},
		Locations: map[string]LocationDoc{},
		Sections:  map[string]SectionDoc{},
		Rules:     map[string]RuleDoc{},
		Meta:      MetaDoc{CompilerVersion: compilerVersion, SourceFiles: sourceFiles},
		Facts:     buildFactsDoc(set),
	}
	if tbl.World != nil {
		doc.World = WorldDoc{Name: tbl.World.Name, Start: tbl.World.Start, Entry: tbl.World.Entry}
	}
	for name, ts := range tbl.Types {
		checkSlug(name, ts.Decl.Span, bag)
		props := map[string]PropertyDoc{}
		for pname, ps := range ts.Properties {
			props[pname] = PropertyDoc{
				Type:    renderPropertyType(ps.Type),
				Default: literalDefault(ps.Default),
				Hidden:  ps.Hidden,
				Enum:    ps.Type.EnumValues,
				Min:     ps.Type.Min,
				Max:     ps.Type.Max,
				RefType: ps.Type.RefType,
			}
		}
		doc.Types[name] = TypeDoc{Traits: ts.Traits, Properties: props}
	}
	for name, es := range tbl.Entities {
		checkSlug(name, es.Decl.Span, bag)
		overrides := map[string]any{}
		for _, ov := range es.Decl.Overrides {
			overrides[ov.Property] = renderLiteral(ov.Value)
		}
		doc.Entities[name] = EntityDoc{Type: es.TypeName, Overrides: overrides}
	}
	for name, ls := range tbl.Locations {
		checkSlug(name, ls.Decl.Span, bag)
		exits := map[string]ExitDoc{}
		for _, ex := range ls.Decl.Exits {
			exits[ex.Name] = ExitDoc{
				Label:       ex.Label,
				Target:      ex.Target,
				Guard:       renderCondition(ex.Guard),
				FailureText: ex.FailureText,
			}
		}
		doc.Locations[name] = LocationDoc{Prose: flattenProse(ls.Decl.Prose), Presence: ls.Decl.Presence, Exits: exits}
	}
	for path, ss := range tbl.Sections {
		children := make([]string, 0, len(ss.Decl.Children))
		for _, c := range ss.Decl.Children {
			children = append(children, c.Path)
		}
		doc.Sections[path] = SectionDoc{
			Level:    ss.Decl.Level,
			Steps:    renderStmts(ss.Decl.Body),
			Children: children,
		}
	}
	for _, rf := range set.Rules {
		// Facts carries only the site, not the declared content; the
		// symbol table doesn't index rules by name (they aren't
		// referenced elsewhere), so find the declaration via sourceFiles
		// is unnecessary — RuleFact.Name is already the emitted key, and
		// Where/Effects text is rendered straight from the FactSet reads
		// and writes tagged with this rule's name.
		doc.Rules[rf.Name] = RuleDoc{
			SelectorType: rf.SelectorType,
			Where:        whereTextForRule(set, rf.Name),
			Effects:      effectsTextForRule(set, rf.Name),
		}
	}
	return doc
}

func checkSlug(name string, sp source.Span, bag *diag.Bag) {
	if !ValidSlug(name) {
		bag.Errorf("URD701", sp, "name %q does not satisfy the slug pattern ^[a-z][a-z0-9-]*$", name)
	}
}

func literalDefault(lit *ast.Literal) any {
	if lit == nil {
		return nil
	}
	return renderLiteral(*lit)
}

func renderStmts(stmts []ast.Stmt) []StepDoc {
	out := make([]StepDoc, 0, len(stmts))
	for _, stmt := range stmts {
		out = append(out, renderStmt(stmt))
	}
	return out
}

func renderStmt(stmt ast.Stmt) StepDoc {
	switch stmt.Kind {
	case ast.StmtDialogue:
		return StepDoc{Kind: "dialogue", Speaker: stmt.Dialogue.Speaker, Text: stmt.Dialogue.Text}
	case ast.StmtChoice:
		c := stmt.Choice
		return StepDoc{
			Kind:   "choice",
			Label:  c.Label,
			Sticky: c.Kind == ast.ChoiceSticky,
			Guard:  renderCondition(c.Guard),
			Target: choiceTargetText(c),
			Steps:  renderStmts(c.Body),
		}
	case ast.StmtConditionBlock:
		return StepDoc{
			Kind:  "condition",
			Guard: renderCondition(stmt.CondBlock.Cond),
			Steps: renderStmts(stmt.CondBlock.Body),
		}
	case ast.StmtEffect:
		return StepDoc{Kind: "effect", Effect: renderEffect(stmt.Effect)}
	case ast.StmtJump:
		return StepDoc{Kind: "jump", Target: renderJumpTarget(stmt.Jump)}
	default:
		return StepDoc{Kind: "unknown"}
	}
}

func choiceTargetText(c *ast.Choice) string {
	if c.TargetIsAny {
		return "any " + c.TargetTypeName
	}
	return c.Target
}

func whereTextForRule(set *facts.Set, rule string) []string {
	var out []string
	for _, r := range set.Reads {
		if r.Rule == rule {
			out = append(out, fmt.Sprintf("@%s.%s", r.Entity, r.Property))
		}
	}
	return out
}

func effectsTextForRule(set *facts.Set, rule string) []string {
	var out []string
	for _, w := range set.Writes {
		if w.Rule == rule {
			out = append(out, fmt.Sprintf("@%s.%s %s", w.Entity, w.Property, w.Op))
		}
	}
	return out
}

func buildFactsDoc(set *facts.Set) FactsDoc {
	fd := FactsDoc{}
	for _, e := range set.Exits {
		fd.Exits = append(fd.Exits, FactExitDoc{SiteID: e.SiteID, From: e.From, Exit: e.Exit, To: e.To})
	}
	for _, j := range set.Jumps {
		fd.Jumps = append(fd.Jumps, FactJumpDoc{SiteID: j.SiteID, From: j.From, Kind: jumpKindName(j.Kind), Target: j.Target})
	}
	for _, c := range set.Choices {
		fd.Choices = append(fd.Choices, FactChoiceDoc{SiteID: c.SiteID, Section: c.Section, Label: c.Label, Sticky: c.Kind == ast.ChoiceSticky, Depth: c.Depth})
	}
	for _, r := range set.Rules {
		fd.Rules = append(fd.Rules, FactRuleDoc{SiteID: r.SiteID, Name: r.Name, SelectorType: r.SelectorType})
	}
	for _, r := range set.Reads {
		fd.Reads = append(fd.Reads, FactReadDoc{SiteID: r.SiteID, Entity: r.Entity, Property: r.Property})
	}
	for _, w := range set.Writes {
		fd.Writes = append(fd.Writes, FactWriteDoc{SiteID: w.SiteID, Entity: w.Entity, Property: w.Property, Op: w.Op})
	}
	return fd
}

func jumpKindName(k ast.JumpKind) string {
	switch k {
	case ast.JumpSection:
		return "section"
	case ast.JumpExit:
		return "exit"
	case ast.JumpEntityType:
		return "entityType"
	case ast.JumpBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Marshal serializes a Document as indented, byte-stable JSON (§4.7).
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
