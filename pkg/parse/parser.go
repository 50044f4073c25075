// Package parse implements the PARSE phase (§4.1): turning one source
// file's Schema Markdown text into an ast.File plus a diag.Bag of
// recoverable diagnostics. Parsing never aborts on a malformed
// construct — it records a diagnostic, resynchronizes at the next safe
// anchor, and keeps producing as much tree as it can, per §7's recovery
// contract. No later phase ever reaches back into raw text; everything
// they need travels on the ast.File and its Spans.
package parse

import (
	"fmt"
	"strings"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/diag"
	"github.com/urdwyrd/urd/pkg/lexer"
	"github.com/urdwyrd/urd/pkg/source"
)

type parser struct {
	sm   *source.Map
	file *source.File
	bag  *diag.Bag
}

// Parse tokenizes and parses one registered source file.
func Parse(sm *source.Map, id source.FileID) (*ast.File, *diag.Bag) {
	p := &parser{sm: sm, file: sm.File(id), bag: &diag.Bag{}}
	raw := lexer.SplitLines(p.file.Text)

	fmStart, fmEnd, hasFrontmatter := findFrontmatterFence(raw)
	out := &ast.File{ID: id}

	var fm *node
	bodyStart := 0
	if hasFrontmatter {
		fm = p.parseFrontmatterLines(raw[fmStart+1:fmEnd], fmStart+2)
		bodyStart = fmEnd + 1
	} else {
		fm = newMapNode(1, -1)
		p.diagWarnf("URD101", 1, "missing frontmatter block, proceeding with no world/types/entities")
	}

	p.applyFrontmatter(fm, out)
	p.parseBody(raw[bodyStart:], bodyStart+1, out)
	return out, p.bag
}

// findFrontmatterFence locates the `---` ... `---` fence pair a file
// must open with to carry frontmatter. Returns hasFrontmatter=false if
// the file has no leading fence at all (still a recoverable state).
func findFrontmatterFence(lines []string) (start, end int, ok bool) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return 0, 0, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return 0, i, true
		}
	}
	return 0, 0, false
}

func (p *parser) span(line int) source.Span {
	start := p.lineStart(line)
	end := start + len(p.file.LineText(line))
	return source.Span{File: p.file.ID, Start: start, End: end}
}

// lineStart resolves the byte offset of the start of a 1-based line
// number by scanning; used only while constructing spans during parsing,
// where the absolute file-wide position of each logical line is needed.
func (p *parser) lineStart(line int) int {
	if line <= 1 {
		return 0
	}
	count := 1
	for i, c := range p.file.Text {
		if c == '\n' {
			count++
			if count == line {
				return i + 1
			}
		}
	}
	return len(p.file.Text)
}

func (p *parser) diagErrf(code string, line int, format string, args ...any) {
	p.bag.Errorf(code, p.span(line), format, args...)
}

func (p *parser) diagWarnf(code string, line int, format string, args ...any) {
	p.bag.Warningf(code, p.span(line), format, args...)
}

// applyFrontmatter converts the restricted node tree into World/Types/
// Entities/Imports on out, per the `world:`/`import:`/`types:`/
// `entities:` top-level keys (§3.1, §4.1 — this is the one place a
// general YAML library must not be reused, since the grammar is
// deliberately narrower).
func (p *parser) applyFrontmatter(fm *node, out *ast.File) {
	if w, ok := fm.get("world"); ok {
		out.World = p.convertWorld(w)
	}
	if imp, ok := fm.get("import"); ok {
		out.Imports = p.convertImportList(imp)
	}
	if types, ok := fm.get("types"); ok && types.kind == nodeMap {
		for _, name := range types.mapKeys {
			out.Types = append(out.Types, p.convertTypeDecl(name, types.mapVals[name]))
		}
	}
	if entities, ok := fm.get("entities"); ok && entities.kind == nodeMap {
		for _, name := range entities.mapKeys {
			out.Entities = append(out.Entities, p.convertEntity(name, entities.mapVals[name]))
		}
	}
}

func (p *parser) convertWorld(n *node) *ast.World {
	w := &ast.World{Span: p.span(n.line)}
	if n.kind != nodeMap {
		p.diagErrf("URD102", n.line, "world: must be a mapping")
		return w
	}
	if v, ok := n.get("name"); ok {
		w.Name = unquote(v.scalar)
	}
	if v, ok := n.get("start"); ok {
		w.Start = unquote(v.scalar)
	}
	if v, ok := n.get("entry"); ok {
		w.Entry = unquote(v.scalar)
	}
	if w.Start == "" {
		p.diagErrf("URD103", n.line, "world.start is required")
	}
	return w
}

func (p *parser) convertImportList(n *node) []string {
	var out []string
	switch n.kind {
	case nodeList:
		for _, item := range n.list {
			out = append(out, unquote(item.scalar))
		}
	case nodeScalar:
		if n.scalar != "" {
			out = append(out, unquote(n.scalar))
		}
	default:
		p.diagErrf("URD102", n.line, "import: must be a list or scalar path")
	}
	return out
}

func (p *parser) convertTypeDecl(name string, n *node) *ast.TypeDecl {
	td := &ast.TypeDecl{Name: name, Span: p.span(n.line)}
	if n.kind != nodeMap {
		p.diagErrf("URD102", n.line, "type %q must be a mapping", name)
		return td
	}
	if traits, ok := n.get("traits"); ok {
		if traits.kind == nodeList {
			for _, t := range traits.list {
				td.Traits = append(td.Traits, unquote(t.scalar))
			}
		}
	}
	if props, ok := n.get("properties"); ok && props.kind == nodeMap {
		for _, pname := range props.mapKeys {
			td.Properties = append(td.Properties, p.convertPropertySpec(pname, props.mapVals[pname]))
		}
	}
	return td
}

func (p *parser) convertPropertySpec(name string, n *node) ast.PropertySpec {
	hidden := strings.HasPrefix(name, "~")
	cleanName := strings.TrimPrefix(name, "~")
	spec := ast.PropertySpec{Name: cleanName, Hidden: hidden, Span: p.span(n.line)}
	if n.kind == nodeScalar {
		spec.Type = parsePropertyType(n.scalar)
		return spec
	}
	if n.kind == nodeMap {
		if t, ok := n.get("type"); ok {
			spec.Type = parsePropertyType(t.scalar)
		}
		if d, ok := n.get("default"); ok {
			lit := p.literalFromScalar(d.scalar, n.line)
			spec.Default = &lit
		}
	}
	return spec
}

// parsePropertyType parses a raw type string like "int(0,100)",
// "enum(low,med,high)", "ref(Door)", "str", "bool", "list" per §3.1.
func parsePropertyType(raw string) ast.PropertyType {
	t := ast.PropertyType{RawTypeString: raw}
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "int"):
		t.Kind = ast.PropInteger
		t.Min, t.Max = parseRange(s)
	case strings.HasPrefix(s, "num"):
		t.Kind = ast.PropNumber
		t.Min, t.Max = parseRange(s)
	case strings.HasPrefix(s, "str"):
		t.Kind = ast.PropString
	case strings.HasPrefix(s, "bool"):
		t.Kind = ast.PropBool
	case strings.HasPrefix(s, "enum("):
		t.Kind = ast.PropEnum
		inner := strings.TrimSuffix(strings.TrimPrefix(s, "enum("), ")")
		for _, v := range splitTopLevelCommas(inner) {
			t.EnumValues = append(t.EnumValues, strings.TrimSpace(v))
		}
	case strings.HasPrefix(s, "ref("):
		t.Kind = ast.PropRef
		t.RefType = strings.TrimSuffix(strings.TrimPrefix(s, "ref("), ")")
	case strings.HasPrefix(s, "list"):
		t.Kind = ast.PropList
	default:
		t.Kind = ast.PropString
	}
	return t
}

func parseRange(s string) (min, max *float64) {
	open := strings.Index(s, "(")
	if open < 0 {
		return nil, nil
	}
	inner := strings.TrimSuffix(s[open+1:], ")")
	parts := splitTopLevelCommas(inner)
	if len(parts) != 2 {
		return nil, nil
	}
	lo, err1 := parseFloatPtr(parts[0])
	hi, err2 := parseFloatPtr(parts[1])
	if err1 != nil || err2 != nil {
		return nil, nil
	}
	return lo, hi
}

func parseFloatPtr(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	var f float64
	_, err := fmt.Sscanf(s, "%g", &f)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (p *parser) convertEntity(name string, n *node) *ast.Entity {
	e := &ast.Entity{Name: name, Span: p.span(n.line)}
	if n.kind == nodeScalar {
		e.TypeName = unquote(n.scalar)
		return e
	}
	if n.kind != nodeMap {
		p.diagErrf("URD102", n.line, "entity %q must be a type name or mapping", name)
		return e
	}
	if t, ok := n.get("type"); ok {
		e.TypeName = unquote(t.scalar)
	}
	for _, key := range n.mapKeys {
		if key == "type" {
			continue
		}
		v := n.mapVals[key]
		lit := p.literalFromScalar(v.scalar, v.line)
		e.Overrides = append(e.Overrides, ast.Override{Property: key, Value: lit, Span: p.span(v.line)})
	}
	return e
}

func (p *parser) literalFromScalar(raw string, line int) ast.Literal {
	sp := p.span(line)
	r := scalarToLiteralSpan(raw, sp)
	switch r.kind {
	case litInt:
		return ast.Literal{Kind: ast.LitInt, Int: r.intV, Span: sp}
	case litNumber:
		return ast.Literal{Kind: ast.LitNumber, Num: r.numV, Span: sp}
	case litBool:
		return ast.Literal{Kind: ast.LitBool, Bool: r.boolV, Span: sp}
	case litRef:
		return ast.Literal{Kind: ast.LitRef, Ref: r.strV, Span: sp}
	default:
		return ast.Literal{Kind: ast.LitString, Str: r.strV, Span: sp}
	}
}
