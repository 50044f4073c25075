package parse

import (
	"strings"

	"github.com/urdwyrd/urd/pkg/ast"
)

// comparators, longest-prefix-first so "<=" is not mis-split as "<"
// followed by a stray "=".
var comparators = []string{"==", "!=", "<=", ">=", "<", ">"}

// parseCondExpr parses one guard expression: a membership test
// (`@e in player` / `@e not in here`), an inline group
// (`any(...)`/`all(...)`), or a comparison (`@e.prop == value`,
// `target.prop != value`) — §3.1 "Condition".
func (p *parser) parseCondExpr(text string, line int) *ast.Condition {
	text = strings.TrimSpace(text)
	sp := p.span(line)

	if g := parseGroupHead(text); g != nil {
		var children []*ast.Condition
		for _, part := range splitTopLevelCommas(g.inner) {
			children = append(children, p.parseCondExpr(strings.TrimSpace(part), line))
		}
		kind := ast.CondAny
		if g.all {
			kind = ast.CondAll
		}
		return &ast.Condition{Kind: kind, Group: children, Span: sp}
	}

	if idx := strings.Index(text, " not in "); idx >= 0 {
		entity := strings.TrimPrefix(strings.TrimSpace(text[:idx]), "@")
		container := strings.TrimSpace(text[idx+len(" not in "):])
		return &ast.Condition{Kind: ast.CondNotIn, Entity: entity, Container: container, Span: sp}
	}
	if idx := strings.Index(text, " in "); idx >= 0 {
		entity := strings.TrimPrefix(strings.TrimSpace(text[:idx]), "@")
		container := strings.TrimSpace(text[idx+len(" in "):])
		return &ast.Condition{Kind: ast.CondIn, Entity: entity, Container: container, Span: sp}
	}

	for _, op := range comparators {
		if idx := strings.Index(text, " "+op+" "); idx >= 0 {
			left := strings.TrimSpace(text[:idx])
			right := strings.TrimSpace(text[idx+len(op)+2:])
			entity, prop, _, ok := splitEntityProperty(left)
			if !ok {
				p.diagErrf("URD120", line, "malformed condition %q", text)
				return &ast.Condition{Kind: ast.CondCompare, Span: sp}
			}
			return &ast.Condition{
				Kind: ast.CondCompare, Entity: entity, Property: prop, Op: op,
				Value: p.literalFromScalar(right, line), Span: sp,
			}
		}
	}
	p.diagErrf("URD120", line, "unrecognized condition %q", text)
	return &ast.Condition{Kind: ast.CondCompare, Span: sp}
}

type groupHead struct {
	all   bool
	inner string
}

// parseGroupHead recognizes the inline `any(...)`/`all(...)` group form.
func parseGroupHead(text string) *groupHead {
	switch {
	case strings.HasPrefix(text, "any(") && strings.HasSuffix(text, ")"):
		return &groupHead{all: false, inner: strings.TrimSuffix(strings.TrimPrefix(text, "any("), ")")}
	case strings.HasPrefix(text, "all(") && strings.HasSuffix(text, ")"):
		return &groupHead{all: true, inner: strings.TrimSuffix(strings.TrimPrefix(text, "all("), ")")}
	}
	return nil
}

// splitEntityProperty splits `@name.property` (or the reserved
// `target.property` / `player.property` bindings) into its parts. The
// third return value is whatever follows the first space (empty if
// none); parseWriteEffect reads a write's operator and value from it.
func splitEntityProperty(s string) (entity, property, rest string, ok bool) {
	s = strings.TrimSpace(s)
	fields := strings.SplitN(s, " ", 2)
	head := fields[0]
	if len(fields) == 2 {
		rest = fields[1]
	}
	head = strings.TrimPrefix(head, "@")
	dot := strings.Index(head, ".")
	if dot < 0 {
		return "", "", rest, false
	}
	return head[:dot], head[dot+1:], rest, true
}
