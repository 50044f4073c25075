// Package ast defines the syntax tree produced by PARSE (§3.1, §4.1).
// Choices, conditions, effects, and jumps are modeled as tagged variants
// (a Kind enum plus the fields that variant uses) rather than an
// inheritance hierarchy, per §9 "Polymorphic AST nodes".
package ast

import "github.com/urdwyrd/urd/pkg/source"

// LiteralKind tags the variant held by a Literal.
type LiteralKind int

const (
	LitNone LiteralKind = iota
	LitInt
	LitNumber
	LitString
	LitBool
	LitEnum
	LitList
	LitRef
)

// Literal is a scalar, list, enum tag, or entity reference value as it
// appears in frontmatter overrides, condition operands, or effect values.
type Literal struct {
	Kind LiteralKind
	Int  int64
	Num  float64
	Str  string // string and enum-tag payload
	Bool bool
	List []Literal
	Ref  string // entity name, without the leading '@'
	Span source.Span
}

// PropertyKind tags the variant held by a PropertyType (§3.1).
type PropertyKind int

const (
	PropInteger PropertyKind = iota
	PropNumber
	PropString
	PropBool
	PropEnum
	PropList
	PropRef
)

func (k PropertyKind) String() string {
	switch k {
	case PropInteger:
		return "integer"
	case PropNumber:
		return "number"
	case PropString:
		return "string"
	case PropBool:
		return "bool"
	case PropEnum:
		return "enum"
	case PropList:
		return "list"
	case PropRef:
		return "ref"
	default:
		return "unknown"
	}
}

// PropertyType is a parsed `kind [(min, max)]` / `enum(...)` / `ref(Type)`
// property type string, with the original text preserved for diagnostics
// per §4.3 ("raw_type_string preserved for diagnostics").
type PropertyType struct {
	Kind          PropertyKind
	Min, Max      *float64 // PropInteger / PropNumber range, inclusive
	EnumValues    []string // PropEnum
	RefType       string   // PropRef
	RawTypeString string
}

// PropertySpec is one `name: kind [= default]` property declaration on a
// Type, optionally hidden with a leading '~'.
type PropertySpec struct {
	Name    string
	Type    PropertyType
	Default *Literal
	Hidden  bool
	Span    source.Span
}

// TypeDecl is a named record of traits and properties (§3.1).
type TypeDecl struct {
	Name       string
	Traits     []string
	Properties []PropertySpec
	Span       source.Span
}

// Override is one scalar/list/ref override in an entity declaration.
type Override struct {
	Property string
	Value    Literal
	Span     source.Span
}

// Entity is an instance of a Type, `@name: TypeName { overrides }` (§3.1).
type Entity struct {
	Name      string
	TypeName  string
	Overrides []Override
	Span      source.Span
}

// CondKind tags the variant held by a Condition.
type CondKind int

const (
	// CondCompare is `@e.p op value`, or the reserved `target.p`/`player.p`.
	CondCompare CondKind = iota
	// CondAny is an `any:` group — true if any child is true.
	CondAny
	// CondAll is an `all:` group — true if every child is true.
	CondAll
	// CondIn is `@e in player` / `@e in here`.
	CondIn
	// CondNotIn is `@e not in player`.
	CondNotIn
)

// Condition is a boolean guard (§3.1 "Condition (?)").
type Condition struct {
	Kind CondKind

	// CondCompare
	Entity   string // entity name without '@', or "target"/"player"
	Property string
	Op       string // "==", "!=", "<", ">", "<=", ">="
	Value    Literal

	// CondIn / CondNotIn
	Container string // "player" or "here"

	// CondAny / CondAll
	Group []*Condition

	Span source.Span
}

// EffectKind tags the variant held by an Effect.
type EffectKind int

const (
	// EffectWrite is `@e.p = v`, `@e.p +`, or `@e.p -`.
	EffectWrite EffectKind = iota
	// EffectMove is `move @e -> @dest`.
	EffectMove
	// EffectDestroy destroys an entity.
	EffectDestroy
	// EffectReveal reveals an entity (e.g. into presence).
	EffectReveal
)

// Effect is a property write, move, destroy, or reveal (§3.1 "Effect (>)").
type Effect struct {
	Kind EffectKind

	// EffectWrite
	Entity   string
	Property string
	Op       string // "=", "+", "-"
	Value    Literal

	// EffectMove / EffectDestroy / EffectReveal target
	Target string // entity name without '@'
	Dest   string // EffectMove destination, without '@'

	Span source.Span
}

// JumpKind tags the variant held by a Jump.
type JumpKind int

const (
	JumpSection JumpKind = iota
	JumpExit
	JumpEntityType // `-> any Type`
	JumpBuiltin    // `-> end`
)

// Jump transfers control (§3.1 "Jump (->)").
type Jump struct {
	Kind   JumpKind
	Target string // section path, exit name, type name, or "end"
	Span   source.Span
}

// StmtKind tags the variant held by a Stmt.
type StmtKind int

const (
	StmtDialogue StmtKind = iota
	StmtChoice
	StmtConditionBlock
	StmtEffect
	StmtJump
)

// DialogueLine is one attributed line, `@speaker: text` (§3.1).
type DialogueLine struct {
	Speaker string
	Text    string
	Span    source.Span
}

// ConditionBlock wraps a guard over a nested body: `? cond` followed by an
// indented block that only executes when cond holds.
type ConditionBlock struct {
	Cond *Condition
	Body []Stmt
	Span source.Span
}

// ChoiceKind distinguishes one-shot ('*') from sticky ('+') choices.
type ChoiceKind int

const (
	ChoiceOneShot ChoiceKind = iota
	ChoiceSticky
)

// Choice is one branch, `*`/`+ Label [-> target | -> any Type]` (§3.1).
type Choice struct {
	Kind           ChoiceKind
	Label          string
	Guard          *Condition // optional leading `?` on the choice itself
	Target         string     // section/exit name; empty if none or TargetIsAny
	TargetIsAny    bool
	TargetTypeName string
	Body           []Stmt
	Depth          int // 0-based nesting depth
	Span           source.Span
}

// Stmt is a tagged-variant statement inside a Section or Choice body.
type Stmt struct {
	Kind      StmtKind
	Dialogue  *DialogueLine
	Choice    *Choice
	CondBlock *ConditionBlock
	Effect    *Effect
	Jump      *Jump
	Span      source.Span
}

// Exit is a directional link out of a Location (§3.1).
type Exit struct {
	Name        string // direction identifier, e.g. "north"
	Label       string
	Target      string // destination location name
	Guard       *Condition
	FailureText string
	Span        source.Span
}

// Location is a top-level `#` heading (§3.1).
type Location struct {
	Name      string
	Prose     []string // raw prose paragraphs; flattened to plain text at EMIT
	Presence  []string // entity names present at world start
	Exits     []Exit
	Span      source.Span
	NameSpan  source.Span // span of just the heading text, for diagnostics
}

// Section is a dialogue block, `==` at top level or nested `###` (§3.1).
type Section struct {
	Path     string // dot-joined full path, e.g. "intro.greeting"
	Name     string // this level's own heading text
	Level    int
	Body     []Stmt
	Children []*Section
	Span     source.Span
	NameSpan source.Span
}

// RuleBlock is a declarative selector + guards + effects (§3.1).
type RuleBlock struct {
	Name         string
	SelectorType string
	Where        []*Condition
	Effects      []Effect
	Span         source.Span
}

// World is the singleton world declaration (§3.1).
type World struct {
	Name    string
	Start   string
	Entry   string
	Imports []string
	Span    source.Span
}

// File is the syntactic tree produced by parsing a single source text.
// IMPORT merges many Files (one per resolved import) into a compilation
// unit; LINK then builds symbol tables across all of them.
type File struct {
	ID        source.FileID
	World     *World // non-nil only for files with a `world:` frontmatter key
	Types     []*TypeDecl
	Entities  []*Entity
	Locations []*Location
	Sections  []*Section
	Rules     []*RuleBlock
	Imports   []string // raw import paths as written in frontmatter
}
