// Package diagram renders a compiled world's location/exit graph as a
// Mermaid flowchart or an ASCII box diagram — adapted from the
// teacher's runbook-tree diagram generator to an emit.Document's
// `locations`/`exits` shape instead of a step tree.
package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/urdwyrd/urd/pkg/emit"
)

// Format represents the output diagram format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
)

// Generate produces a diagram string from a compiled document's world
// map: one node per location, one edge per exit.
func Generate(doc *emit.Document, format Format) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("nil document")
	}
	switch format {
	case FormatMermaid:
		return generateMermaid(doc), nil
	case FormatASCII:
		return generateASCII(doc), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// --- Mermaid flowchart ---

func generateMermaid(doc *emit.Document) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	names := sortedLocationNames(doc.Locations)
	if len(names) == 0 {
		return b.String()
	}

	if doc.World.Start != "" {
		b.WriteString("    START([Start]) --> " + safeID(doc.World.Start) + "\n")
	}

	for _, name := range names {
		loc := doc.Locations[name]
		b.WriteString("    " + locationNode(name, loc) + "\n")
	}

	for _, name := range names {
		loc := doc.Locations[name]
		exitNames := make([]string, 0, len(loc.Exits))
		for en := range loc.Exits {
			exitNames = append(exitNames, en)
		}
		sort.Strings(exitNames)
		for _, en := range exitNames {
			ex := loc.Exits[en]
			label := ex.Label
			if label == "" {
				label = en
			}
			if ex.Guard != "" {
				label += " [" + truncate(ex.Guard, 24) + "]"
			}
			b.WriteString(fmt.Sprintf("    %s -->|%q| %s\n", safeID(name), label, safeID(ex.Target)))
		}
	}

	if doc.World.Start != "" {
		b.WriteString(fmt.Sprintf("    style %s fill:#1a3a4a,stroke:#0af\n", safeID(doc.World.Start)))
	}

	return b.String()
}

func locationNode(name string, loc emit.LocationDoc) string {
	id := safeID(name)
	title := name
	if len(loc.Presence) > 0 {
		title += "<br/>" + strings.Join(loc.Presence, ", ")
	}
	return fmt.Sprintf(`%s["%s"]`, id, escMermaid(title))
}

// --- ASCII ---

func generateASCII(doc *emit.Document) string {
	var b strings.Builder

	name := doc.World.Name
	if name == "" {
		name = "World"
	}

	names := sortedLocationNames(doc.Locations)
	if len(names) == 0 {
		b.WriteString(name + " (empty)\n")
		return b.String()
	}

	const indent = 4
	boxWidth := computeUniformBoxWidth(doc.Locations, names, name)
	pad := strings.Repeat(" ", indent)
	mid := boxWidth / 2

	headerText := centerPad(name, boxWidth)
	b.WriteString(pad + "╔" + strings.Repeat("═", boxWidth) + "╗\n")
	b.WriteString(pad + "║" + headerText + "║\n")
	b.WriteString(pad + "╚" + strings.Repeat("═", mid) + "╧" + strings.Repeat("═", boxWidth-mid-1) + "╝\n")

	for _, name := range names {
		loc := doc.Locations[name]
		writeASCIILocation(&b, name, loc, doc.World.Start == name, indent, boxWidth)
	}

	return b.String()
}

func computeUniformBoxWidth(locs map[string]emit.LocationDoc, names []string, title string) int {
	minWidth := 22
	w := minWidth
	if tw := runewidth.StringWidth(title) + 4; tw > w {
		w = tw
	}
	for _, name := range names {
		if cw := locationContentWidth(name, locs[name]); cw > w {
			w = cw
		}
	}
	return w
}

func locationContentWidth(name string, loc emit.LocationDoc) int {
	content := " " + name + " "
	w := runewidth.StringWidth(content)
	for en, ex := range loc.Exits {
		line := "  -> " + en + ": " + ex.Target
		if lw := runewidth.StringWidth(line); lw > w {
			w = lw
		}
	}
	return w
}

func writeASCIILocation(b *strings.Builder, name string, loc emit.LocationDoc, isStart bool, indent, boxWidth int) {
	icon := "○"
	if isStart {
		icon = "►"
	}
	content := fmt.Sprintf(" %s %s ", icon, name)
	contentWidth := runewidth.StringWidth(content)

	pad := strings.Repeat(" ", indent)
	topBot := strings.Repeat("─", boxWidth)

	b.WriteString(pad + "┌" + topBot + "┐\n")
	b.WriteString(pad + "│" + content + strings.Repeat(" ", boxWidth-contentWidth) + "│\n")

	exitNames := make([]string, 0, len(loc.Exits))
	for en := range loc.Exits {
		exitNames = append(exitNames, en)
	}
	sort.Strings(exitNames)
	for _, en := range exitNames {
		ex := loc.Exits[en]
		line := "  -> " + en + ": " + ex.Target
		lw := runewidth.StringWidth(line)
		if lw < boxWidth {
			b.WriteString(pad + "│" + line + strings.Repeat(" ", boxWidth-lw) + "│\n")
		} else {
			b.WriteString(pad + "│" + line + "│\n")
		}
	}

	b.WriteString(pad + "└" + topBot + "┘\n")
}

// centerPad centers s within width using spaces, based on display width.
func centerPad(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	total := width - sw
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func sortedLocationNames(locs map[string]emit.LocationDoc) []string {
	names := make([]string, 0, len(locs))
	for name := range locs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func safeID(id string) string {
	r := strings.NewReplacer("-", "_", " ", "_", ".", "_")
	return r.Replace(id)
}

func escMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `'`, "#apos;")
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
