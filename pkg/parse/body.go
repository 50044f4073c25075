package parse

import (
	"strings"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/lexer"
	"github.com/urdwyrd/urd/pkg/source"
)

// bodyLine is one classified, indent-measured line of the narrative body
// (everything after the frontmatter's closing fence).
type bodyLine struct {
	number      int
	indentUnits int
	content     string // trimmed, indentation-stripped text
	kind        lexer.Kind
}

func preprocessBody(raw []string, startLine int) []bodyLine {
	out := make([]bodyLine, 0, len(raw))
	for i, r := range raw {
		leading := lexer.LeadingSpaces(r)
		units, _ := lexer.IndentUnits(leading)
		trimmed := strings.TrimSpace(r)
		out = append(out, bodyLine{
			number:      startLine + i,
			indentUnits: units,
			content:     trimmed,
			kind:        lexer.Classify(trimmed),
		})
	}
	return out
}

// parseBody is the narrative-body entry point: a flat scan over
// top-level (indent 0) constructs — locations, sections, and rule
// blocks — each of which consumes its own indented children.
func (p *parser) parseBody(raw []string, startLine int, out *ast.File) {
	lines := preprocessBody(raw, startLine)
	i := 0
	for i < len(lines) {
		ln := lines[i]
		if ln.kind == lexer.KindBlank {
			i++
			continue
		}
		if ln.indentUnits != 0 {
			p.diagWarnf("URD110", ln.number, "unexpected indentation at top level")
			i++
			continue
		}
		switch ln.kind {
		case lexer.KindHeading1:
			var loc *ast.Location
			loc, i = p.parseLocation(lines, i)
			out.Locations = append(out.Locations, loc)
		case lexer.KindSectionHeading:
			var sec *ast.Section
			sec, i = p.parseSection(lines, i, 0, "")
			out.Sections = append(out.Sections, sec)
		case lexer.KindRule:
			var rule *ast.RuleBlock
			rule, i = p.parseRuleBlock(lines, i)
			out.Rules = append(out.Rules, rule)
		case lexer.KindProse:
			p.diagWarnf("URD111", ln.number, "prose outside a location is ignored")
			i++
		default:
			p.diagErrf("URD112", ln.number, "unexpected top-level line %q", ln.content)
			i++
		}
	}
}

// parseLocation consumes a `# Name` heading and its flat body of
// presence declarations, exits, and prose (§3.1 "Location").
func (p *parser) parseLocation(lines []bodyLine, i int) (*ast.Location, int) {
	ln := lines[i]
	name := strings.TrimSpace(strings.TrimPrefix(ln.content, "#"))
	loc := &ast.Location{Name: name, Span: p.span(ln.number), NameSpan: p.span(ln.number)}
	i++
	for i < len(lines) {
		cur := lines[i]
		if cur.kind == lexer.KindBlank {
			i++
			continue
		}
		if cur.indentUnits == 0 && (cur.kind == lexer.KindHeading1 || cur.kind == lexer.KindSectionHeading || cur.kind == lexer.KindRule) {
			break
		}
		switch cur.kind {
		case lexer.KindPresence:
			loc.Presence = append(loc.Presence, parsePresenceList(cur.content)...)
			i++
		case lexer.KindExit:
			exit := p.parseExit(cur)
			loc.Exits = append(loc.Exits, exit)
			i++
		case lexer.KindProse:
			loc.Prose = append(loc.Prose, cur.content)
			i++
		default:
			p.diagWarnf("URD113", cur.number, "unexpected line in location %q", name)
			i++
		}
	}
	return loc, i
}

func parsePresenceList(content string) []string {
	inner := strings.TrimSuffix(strings.TrimPrefix(content, "["), "]")
	var out []string
	for _, part := range splitTopLevelCommas(inner) {
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "@"))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// parseSection consumes one `== path` (level 0) or `### name` (level > 0)
// heading plus its indented body, recursing for nested sub-sections
// (§3.1 "Section").
func (p *parser) parseSection(lines []bodyLine, i int, level int, parentPath string) (*ast.Section, int) {
	ln := lines[i]
	var name string
	if level == 0 {
		name = strings.TrimSpace(strings.TrimPrefix(ln.content, "=="))
	} else {
		name = strings.TrimSpace(strings.TrimLeft(ln.content, "#"))
	}
	path := name
	if parentPath != "" {
		path = parentPath + "." + name
	}
	sec := &ast.Section{Path: path, Name: name, Level: level, Span: p.span(ln.number), NameSpan: p.span(ln.number)}
	bodyIndent := ln.indentUnits + 1
	i++
	for i < len(lines) {
		cur := lines[i]
		if cur.kind == lexer.KindBlank {
			i++
			continue
		}
		if cur.indentUnits < bodyIndent {
			break
		}
		if cur.indentUnits == 0 && (cur.kind == lexer.KindHeading1 || cur.kind == lexer.KindSectionHeading || cur.kind == lexer.KindRule) {
			break
		}
		if cur.kind == lexer.KindSubHeading && cur.indentUnits == bodyIndent {
			var child *ast.Section
			child, i = p.parseSection(lines, i, level+1, path)
			sec.Children = append(sec.Children, child)
			continue
		}
		if cur.indentUnits != bodyIndent {
			p.diagWarnf("URD114", cur.number, "inconsistent indentation in section %q", path)
			i++
			continue
		}
		var stmt ast.Stmt
		stmt, i = p.parseStmt(lines, i, bodyIndent)
		sec.Body = append(sec.Body, stmt)
	}
	return sec, i
}

// parseStmtBlock consumes a run of statements at exactly minIndent,
// used for choice and condition bodies.
func (p *parser) parseStmtBlock(lines []bodyLine, i int, minIndent int) ([]ast.Stmt, int) {
	var out []ast.Stmt
	for i < len(lines) {
		cur := lines[i]
		if cur.kind == lexer.KindBlank {
			i++
			continue
		}
		if cur.indentUnits < minIndent {
			break
		}
		if cur.indentUnits != minIndent {
			p.diagWarnf("URD114", cur.number, "inconsistent indentation")
			i++
			continue
		}
		var stmt ast.Stmt
		stmt, i = p.parseStmt(lines, i, minIndent)
		out = append(out, stmt)
	}
	return out, i
}

func (p *parser) parseStmt(lines []bodyLine, i int, indent int) (ast.Stmt, int) {
	cur := lines[i]
	sp := p.span(cur.number)
	switch cur.kind {
	case lexer.KindChoiceOneShot, lexer.KindChoiceSticky:
		choice, ni := p.parseChoice(lines, i, indent)
		return ast.Stmt{Kind: ast.StmtChoice, Choice: choice, Span: sp}, ni
	case lexer.KindCondition:
		block, ni := p.parseConditionBlock(lines, i, indent)
		return ast.Stmt{Kind: ast.StmtConditionBlock, CondBlock: block, Span: sp}, ni
	case lexer.KindEffect:
		eff := p.parseEffect(cur)
		return ast.Stmt{Kind: ast.StmtEffect, Effect: eff, Span: sp}, i + 1
	case lexer.KindExit:
		jump := p.parseJump(cur)
		return ast.Stmt{Kind: ast.StmtJump, Jump: jump, Span: sp}, i + 1
	case lexer.KindEntityDecl:
		line := p.parseDialogue(cur)
		return ast.Stmt{Kind: ast.StmtDialogue, Dialogue: line, Span: sp}, i + 1
	default:
		p.diagWarnf("URD115", cur.number, "unrecognized statement %q, treated as dialogue text", cur.content)
		return ast.Stmt{Kind: ast.StmtDialogue, Dialogue: &ast.DialogueLine{Text: cur.content, Span: sp}, Span: sp}, i + 1
	}
}

// parseChoice consumes a `* `/`+ ` choice line, its optional inline guard
// and target, and its nested body (§3.1 "Choice").
func (p *parser) parseChoice(lines []bodyLine, i int, indent int) (*ast.Choice, int) {
	cur := lines[i]
	kind := ast.ChoiceOneShot
	sigil := "* "
	if cur.kind == lexer.KindChoiceSticky {
		kind = ast.ChoiceSticky
		sigil = "+ "
	}
	content := strings.TrimPrefix(cur.content, sigil)
	choice := &ast.Choice{Kind: kind, Span: p.span(cur.number)}

	rest := content
	if idx := strings.Index(rest, " -> "); idx >= 0 {
		targetText := strings.TrimSpace(rest[idx+len(" -> "):])
		rest = rest[:idx]
		switch {
		case targetText == "end":
			choice.Target = "end"
		case strings.HasPrefix(targetText, "any "):
			choice.TargetIsAny = true
			choice.TargetTypeName = strings.TrimSpace(strings.TrimPrefix(targetText, "any "))
		default:
			choice.Target = targetText
		}
	}
	if idx := strings.Index(rest, " ? "); idx >= 0 {
		guardText := strings.TrimSpace(rest[idx+len(" ? "):])
		rest = rest[:idx]
		choice.Guard = p.parseCondExpr(guardText, cur.number)
	}
	choice.Label = strings.TrimSpace(rest)

	i++
	body, ni := p.parseStmtBlock(lines, i, indent+1)
	choice.Body = body
	choice.Depth = indent
	return choice, ni
}

// parseConditionBlock consumes a `? ` guard line — a comparison, an
// `in`/`not in` membership test, or an inline `any(...)`/`all(...)`
// group — followed by the indented body it guards (§3.1 "Condition").
func (p *parser) parseConditionBlock(lines []bodyLine, i int, indent int) (*ast.ConditionBlock, int) {
	cur := lines[i]
	content := strings.TrimPrefix(cur.content, "? ")
	cond := p.parseCondExpr(content, cur.number)
	i++
	body, ni := p.parseStmtBlock(lines, i, indent+1)
	return &ast.ConditionBlock{Cond: cond, Body: body, Span: p.span(cur.number)}, ni
}

func (p *parser) parseEffect(cur bodyLine) *ast.Effect {
	content := strings.TrimPrefix(cur.content, "> ")
	sp := p.span(cur.number)
	switch {
	case strings.HasPrefix(content, "move "):
		rest := strings.TrimPrefix(content, "move ")
		parts := strings.SplitN(rest, " -> ", 2)
		eff := &ast.Effect{Kind: ast.EffectMove, Span: sp}
		eff.Target = strings.TrimPrefix(strings.TrimSpace(parts[0]), "@")
		if len(parts) == 2 {
			eff.Dest = strings.TrimPrefix(strings.TrimSpace(parts[1]), "@")
		}
		return eff
	case strings.HasPrefix(content, "destroy "):
		target := strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(content, "destroy ")), "@")
		return &ast.Effect{Kind: ast.EffectDestroy, Target: target, Span: sp}
	case strings.HasPrefix(content, "reveal "):
		target := strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(content, "reveal ")), "@")
		return &ast.Effect{Kind: ast.EffectReveal, Target: target, Span: sp}
	default:
		return p.parseWriteEffect(content, sp, cur.number)
	}
}

func (p *parser) parseWriteEffect(content string, sp source.Span, line int) *ast.Effect {
	entity, prop, rest, ok := splitEntityProperty(content)
	if !ok {
		p.diagErrf("URD116", line, "malformed effect %q", content)
		return &ast.Effect{Kind: ast.EffectWrite, Span: sp}
	}
	eff := &ast.Effect{Kind: ast.EffectWrite, Entity: entity, Property: prop, Span: sp}
	rest = strings.TrimSpace(rest)
	switch {
	case rest == "+":
		eff.Op = "+"
	case rest == "-":
		eff.Op = "-"
	case strings.HasPrefix(rest, "="):
		eff.Op = "="
		eff.Value = p.literalFromScalar(strings.TrimSpace(strings.TrimPrefix(rest, "=")), line)
	default:
		p.diagErrf("URD116", line, "malformed effect operator in %q", content)
	}
	return eff
}

func (p *parser) parseJump(cur bodyLine) *ast.Jump {
	content := strings.TrimPrefix(cur.content, "-> ")
	sp := p.span(cur.number)
	switch {
	case content == "end":
		return &ast.Jump{Kind: ast.JumpBuiltin, Target: "end", Span: sp}
	case strings.HasPrefix(content, "any "):
		return &ast.Jump{Kind: ast.JumpEntityType, Target: strings.TrimSpace(strings.TrimPrefix(content, "any ")), Span: sp}
	case strings.Contains(content, "."):
		return &ast.Jump{Kind: ast.JumpSection, Target: content, Span: sp}
	default:
		return &ast.Jump{Kind: ast.JumpExit, Target: content, Span: sp}
	}
}

func (p *parser) parseDialogue(cur bodyLine) *ast.DialogueLine {
	content := cur.content
	idx := strings.Index(content, ":")
	sp := p.span(cur.number)
	if idx < 0 {
		return &ast.DialogueLine{Text: content, Span: sp}
	}
	speaker := strings.TrimPrefix(strings.TrimSpace(content[:idx]), "@")
	text := strings.TrimSpace(content[idx+1:])
	return &ast.DialogueLine{Speaker: speaker, Text: text, Span: sp}
}

// parseExit consumes one `-> name: Label -> target [? guard] [! failure]`
// exit line inside a Location body (§3.1 "Exit").
func (p *parser) parseExit(cur bodyLine) ast.Exit {
	content := strings.TrimPrefix(cur.content, "-> ")
	sp := p.span(cur.number)
	exit := ast.Exit{Span: sp}

	idx := strings.Index(content, ":")
	if idx < 0 {
		p.diagErrf("URD117", cur.number, "malformed exit %q", content)
		return exit
	}
	exit.Name = strings.TrimSpace(content[:idx])
	rest := strings.TrimSpace(content[idx+1:])

	if bangIdx := strings.Index(rest, " ! "); bangIdx >= 0 {
		exit.FailureText = strings.TrimSpace(rest[bangIdx+len(" ! "):])
		rest = rest[:bangIdx]
	}
	if qIdx := strings.Index(rest, " ? "); qIdx >= 0 {
		guardText := strings.TrimSpace(rest[qIdx+len(" ? "):])
		exit.Guard = p.parseCondExpr(guardText, cur.number)
		rest = rest[:qIdx]
	}
	if arrowIdx := strings.Index(rest, " -> "); arrowIdx >= 0 {
		exit.Label = strings.TrimSpace(rest[:arrowIdx])
		exit.Target = strings.TrimSpace(rest[arrowIdx+len(" -> "):])
	} else {
		exit.Target = rest
	}
	return exit
}

// parseRuleBlock consumes a `rule name: SelectorType` header and its
// indented `where`/effect body (§3.1 "Rule").
func (p *parser) parseRuleBlock(lines []bodyLine, i int) (*ast.RuleBlock, int) {
	ln := lines[i]
	content := strings.TrimPrefix(ln.content, "rule ")
	rule := &ast.RuleBlock{Span: p.span(ln.number)}
	idx := strings.Index(content, ":")
	if idx < 0 {
		p.diagErrf("URD118", ln.number, "malformed rule header %q", content)
		return rule, i + 1
	}
	rule.Name = strings.TrimSpace(content[:idx])
	rule.SelectorType = strings.TrimSpace(content[idx+1:])
	bodyIndent := ln.indentUnits + 1
	i++
	for i < len(lines) {
		cur := lines[i]
		if cur.kind == lexer.KindBlank {
			i++
			continue
		}
		if cur.indentUnits < bodyIndent {
			break
		}
		switch cur.kind {
		case lexer.KindCondition:
			content := strings.TrimPrefix(cur.content, "? ")
			rule.Where = append(rule.Where, p.parseCondExpr(content, cur.number))
			i++
		case lexer.KindEffect:
			rule.Effects = append(rule.Effects, *p.parseEffect(cur))
			i++
		default:
			p.diagWarnf("URD119", cur.number, "unexpected line in rule %q", rule.Name)
			i++
		}
	}
	return rule, i
}
