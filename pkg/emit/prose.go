package emit

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// flattenProse parses each raw prose paragraph as inline Markdown
// (emphasis, links, inline code) and flattens it to plain text for
// the emitted document. A location's Prose lines are authored as
// Markdown (§3.1) but the emitted `prose` field is plain text — an
// author's *italic* or [link](url) should read naturally wherever the
// compiled document surfaces it, not carry its markup along.
func flattenProse(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, len(lines))
	parser := goldmark.DefaultParser()
	for i, line := range lines {
		src := []byte(line)
		doc := parser.Parse(text.NewReader(src))
		out[i] = extractText(doc, src)
	}
	return out
}

// extractText walks an inline Markdown node tree and concatenates its
// text content, dropping emphasis/link/code-span markup.
func extractText(node gmast.Node, source []byte) string {
	var sb strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *gmast.Text:
			sb.Write(c.Segment.Value(source))
			if c.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.CodeSpan:
			for gc := c.FirstChild(); gc != nil; gc = gc.NextSibling() {
				if t, ok := gc.(*gmast.Text); ok {
					sb.Write(t.Segment.Value(source))
				}
			}
		default:
			sb.WriteString(extractText(child, source))
		}
	}
	return strings.TrimSpace(sb.String())
}
