// Package emit implements the EMIT phase (§4.7): serializing a linked
// compilation plus its FactSet into the canonical `.urd.json` document,
// byte-stable across runs on the same input, and self-validating the
// result against a JSON Schema generated from these same Go types —
// grounded on the invopop/jsonschema + santhosh-tekuri/jsonschema/v6
// pairing the teacher uses for its runbook documents.
package emit

// Document is the top-level `.urd.json` shape: eight blocks in a fixed
// field order (§4.7). Field order here is also encoding/json's
// marshaling order, so Document's declaration order IS the canonical
// key order for the object itself; nested maps rely on encoding/json's
// own (also deterministic) alphabetical key sort.
type Document struct {
	World     WorldDoc              `json:"world"`
	Types     map[string]TypeDoc    `json:"types"`
	Entities  map[string]EntityDoc  `json:"entities"`
	Locations map[string]LocationDoc `json:"locations"`
	Sections  map[string]SectionDoc `json:"sections"`
	Rules     map[string]RuleDoc    `json:"rules"`
	Meta      MetaDoc               `json:"meta"`
	Facts     FactsDoc              `json:"facts"`
}

// WorldDoc is the `world` block.
type WorldDoc struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	Entry string `json:"entry,omitempty"`
}

// PropertyDoc is one property on a TypeDoc.
type PropertyDoc struct {
	Type    string        `json:"type"`
	Default any           `json:"default,omitempty"`
	Hidden  bool          `json:"hidden,omitempty"`
	Enum    []string      `json:"enum,omitempty"`
	Min     *float64      `json:"min,omitempty"`
	Max     *float64      `json:"max,omitempty"`
	RefType string        `json:"refType,omitempty"`
}

// TypeDoc is one `types.<name>` entry.
type TypeDoc struct {
	Traits     []string               `json:"traits,omitempty"`
	Properties map[string]PropertyDoc `json:"properties"`
}

// EntityDoc is one `entities.<name>` entry.
type EntityDoc struct {
	Type      string         `json:"type"`
	Overrides map[string]any `json:"overrides,omitempty"`
}

// ExitDoc is one exit in a LocationDoc.
type ExitDoc struct {
	Label       string `json:"label"`
	Target      string `json:"target"`
	Guard       string `json:"guard,omitempty"`
	FailureText string `json:"failureText,omitempty"`
}

// LocationDoc is one `locations.<name>` entry.
type LocationDoc struct {
	Prose    []string           `json:"prose,omitempty"`
	Presence []string           `json:"presence,omitempty"`
	Exits    map[string]ExitDoc `json:"exits,omitempty"`
}

// SectionDoc is one `sections.<path>` entry. Bodies are emitted as an
// opaque ordered list of typed steps rather than re-exposing the AST's
// internal tagged-union shape (§4.7 "emitted shape need not mirror the
// AST shape").
type SectionDoc struct {
	Level    int        `json:"level"`
	Steps    []StepDoc  `json:"steps"`
	Children []string   `json:"children,omitempty"` // child section paths
}

// StepDoc is one flattened narrative step.
type StepDoc struct {
	Kind     string `json:"kind"` // dialogue | choice | condition | effect | jump
	Speaker  string `json:"speaker,omitempty"`
	Text     string `json:"text,omitempty"`
	Label    string `json:"label,omitempty"`
	Sticky   bool   `json:"sticky,omitempty"`
	Guard    string `json:"guard,omitempty"`
	Target   string `json:"target,omitempty"`
	Effect   string `json:"effect,omitempty"`
	Steps    []StepDoc `json:"steps,omitempty"`
}

// RuleDoc is one `rules.<name>` entry.
type RuleDoc struct {
	SelectorType string   `json:"selectorType"`
	Where        []string `json:"where,omitempty"`
	Effects      []string `json:"effects,omitempty"`
}

// MetaDoc is compiler provenance (§4.7, §6.2).
type MetaDoc struct {
	CompilerVersion string `json:"compilerVersion"`
	SourceFiles     []string `json:"sourceFiles"`
}

// FactsDoc mirrors the FactSet tables for consumers that want the flat
// relational view without re-deriving it from Sections/Locations (§4.4).
type FactsDoc struct {
	Exits   []FactExitDoc   `json:"exits"`
	Jumps   []FactJumpDoc   `json:"jumps"`
	Choices []FactChoiceDoc `json:"choices"`
	Rules   []FactRuleDoc   `json:"rules"`
	Reads   []FactReadDoc   `json:"reads"`
	Writes  []FactWriteDoc  `json:"writes"`
}

type FactExitDoc struct {
	SiteID string `json:"siteId"`
	From   string `json:"from"`
	Exit   string `json:"exit"`
	To     string `json:"to"`
}

type FactJumpDoc struct {
	SiteID string `json:"siteId"`
	From   string `json:"from"`
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

type FactChoiceDoc struct {
	SiteID  string `json:"siteId"`
	Section string `json:"section"`
	Label   string `json:"label"`
	Sticky  bool   `json:"sticky"`
	Depth   int    `json:"depth"`
}

type FactRuleDoc struct {
	SiteID       string `json:"siteId"`
	Name         string `json:"name"`
	SelectorType string `json:"selectorType"`
}

type FactReadDoc struct {
	SiteID   string `json:"siteId"`
	Entity   string `json:"entity"`
	Property string `json:"property"`
}

type FactWriteDoc struct {
	SiteID   string `json:"siteId"`
	Entity   string `json:"entity"`
	Property string `json:"property"`
	Op       string `json:"op"`
}
