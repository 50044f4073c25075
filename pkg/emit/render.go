package emit

import (
	"fmt"
	"strings"

	"github.com/urdwyrd/urd/pkg/ast"
)

// renderLiteral converts an ast.Literal into the any value that
// encoding/json will serialize for a `default`/override slot. Numbers
// are returned as float64 and left to encoding/json, which writes the
// shortest form that re-parses to the identical float64 (§4.7
// "round-trip stable").
func renderLiteral(lit ast.Literal) any {
	switch lit.Kind {
	case ast.LitInt:
		return lit.Int
	case ast.LitNumber:
		return lit.Num
	case ast.LitString, ast.LitEnum:
		return lit.Str
	case ast.LitBool:
		return lit.Bool
	case ast.LitRef:
		return "@" + lit.Ref
	case ast.LitList:
		out := make([]any, 0, len(lit.List))
		for _, v := range lit.List {
			out = append(out, renderLiteral(v))
		}
		return out
	default:
		return nil
	}
}

// renderPropertyType renders an ast.PropertyType back to its raw type
// string form for the emitted `type` field.
func renderPropertyType(pt ast.PropertyType) string {
	return pt.RawTypeString
}

// renderCondition renders a Condition tree to its canonical textual
// form, used for the emitted `guard`/`where` fields — a readable,
// re-parseable projection of the AST rather than a nested structure,
// matching the flat-string style the FactSet-derived document favors
// for diffability (§6.4).
func renderCondition(c *ast.Condition) string {
	if c == nil {
		return ""
	}
	switch c.Kind {
	case ast.CondCompare:
		return fmt.Sprintf("@%s.%s %s %s", c.Entity, c.Property, c.Op, renderLiteralText(c.Value))
	case ast.CondIn:
		return fmt.Sprintf("@%s in %s", c.Entity, c.Container)
	case ast.CondNotIn:
		return fmt.Sprintf("@%s not in %s", c.Entity, c.Container)
	case ast.CondAny, ast.CondAll:
		parts := make([]string, 0, len(c.Group))
		for _, child := range c.Group {
			parts = append(parts, renderCondition(child))
		}
		name := "any"
		if c.Kind == ast.CondAll {
			name = "all"
		}
		return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
	default:
		return ""
	}
}

func renderLiteralText(lit ast.Literal) string {
	switch lit.Kind {
	case ast.LitInt:
		return fmt.Sprintf("%d", lit.Int)
	case ast.LitNumber:
		return formatFloat(lit.Num)
	case ast.LitBool:
		return fmt.Sprintf("%t", lit.Bool)
	case ast.LitRef:
		return "@" + lit.Ref
	default:
		return lit.Str
	}
}

// renderEffect renders an Effect to its canonical textual form.
func renderEffect(e *ast.Effect) string {
	switch e.Kind {
	case ast.EffectWrite:
		if e.Op == "+" || e.Op == "-" {
			return fmt.Sprintf("@%s.%s %s", e.Entity, e.Property, e.Op)
		}
		return fmt.Sprintf("@%s.%s = %s", e.Entity, e.Property, renderLiteralText(e.Value))
	case ast.EffectMove:
		return fmt.Sprintf("move @%s -> @%s", e.Target, e.Dest)
	case ast.EffectDestroy:
		return fmt.Sprintf("destroy @%s", e.Target)
	case ast.EffectReveal:
		return fmt.Sprintf("reveal @%s", e.Target)
	default:
		return ""
	}
}

func renderJumpTarget(j *ast.Jump) string {
	switch j.Kind {
	case ast.JumpEntityType:
		return "any " + j.Target
	default:
		return j.Target
	}
}
