// Package symbols implements the LINK phase (§4.3): building a merged
// symbol table across every file in import order, resolving property
// type aliases and implicit properties, and marking unresolved
// references so ANALYZE can skip them safely rather than re-deriving
// the same failure.
package symbols

import (
	"fmt"

	"github.com/urdwyrd/urd/pkg/ast"
	"github.com/urdwyrd/urd/pkg/diag"
	"github.com/urdwyrd/urd/pkg/source"
)

// Reserved entity bindings available inside any guard/effect without a
// corresponding `entities:` declaration (§3.1, §4.3).
const (
	BindingTarget = "target"
	BindingPlayer = "player"
)

// TypeSymbol is a resolved type, including its implicit `{container}`
// property (§4.3 "implicit container property").
type TypeSymbol struct {
	Name       string
	Traits     []string
	Properties map[string]ast.PropertySpec
	Decl       *ast.TypeDecl
}

// EntitySymbol is a resolved entity instance.
type EntitySymbol struct {
	Name     string
	TypeName string
	Type     *TypeSymbol // nil if TypeName is unresolved
	Decl     *ast.Entity
}

// LocationSymbol is a resolved location.
type LocationSymbol struct {
	Name string
	Decl *ast.Location
}

// SectionSymbol is a resolved section, keyed by its full dot-joined path.
type SectionSymbol struct {
	Path string
	Decl *ast.Section
}

// Table is the merged symbol table produced by LINK.
type Table struct {
	Types     map[string]*TypeSymbol
	Entities  map[string]*EntitySymbol
	Locations map[string]*LocationSymbol
	Sections  map[string]*SectionSymbol
	World     *ast.World
}

const containerProperty = "container"

// implicitContainerSpec is injected onto every type so that `@e.container`
// is always a valid property reference regardless of the type's own
// declared properties (§4.3).
func implicitContainerSpec() ast.PropertySpec {
	return ast.PropertySpec{Name: containerProperty, Type: ast.PropertyType{Kind: ast.PropRef, RawTypeString: "ref(any)"}}
}

// Build merges every file's declarations in import order — later files
// (and within a file, later declarations) override earlier ones with
// the same name (§4.2 "last file wins", §4.3).
func Build(sm *source.Map, files []*ast.File, bag *diag.Bag) *Table {
	t := &Table{
		Types:     map[string]*TypeSymbol{},
		Entities:  map[string]*EntitySymbol{},
		Locations: map[string]*LocationSymbol{},
		Sections:  map[string]*SectionSymbol{},
	}
	for _, f := range files {
		if f.World != nil {
			if t.World != nil {
				bag.Warningf("URD301", f.World.Span, "world redeclared, overriding previous declaration")
			}
			t.World = f.World
		}
		for _, td := range f.Types {
			ts := &TypeSymbol{Name: td.Name, Traits: td.Traits, Decl: td, Properties: map[string]ast.PropertySpec{}}
			for _, ps := range td.Properties {
				ts.Properties[ps.Name] = ps
			}
			ts.Properties[containerProperty] = implicitContainerSpec()
			if _, exists := t.Types[td.Name]; exists {
				bag.Infof("URD302", td.Span, "type %q redeclared, overriding previous declaration", td.Name)
			}
			t.Types[td.Name] = ts
		}
		for _, e := range f.Entities {
			es := &EntitySymbol{Name: e.Name, TypeName: e.TypeName, Decl: e}
			if _, exists := t.Entities[e.Name]; exists {
				bag.Infof("URD303", e.Span, "entity %q redeclared, overriding previous declaration", e.Name)
			}
			t.Entities[e.Name] = es
		}
		for _, loc := range f.Locations {
			if _, exists := t.Locations[loc.Name]; exists {
				bag.Warningf("URD304", loc.Span, "location %q redeclared, overriding previous declaration", loc.Name)
			}
			t.Locations[loc.Name] = &LocationSymbol{Name: loc.Name, Decl: loc}
		}
		for _, sec := range f.Sections {
			registerSection(t, sec, bag)
		}
	}

	// Second pass: resolve each entity's Type pointer now that every
	// type in every file has been registered.
	for name, es := range t.Entities {
		ty, ok := t.Types[es.TypeName]
		if !ok {
			bag.Errorf("URD305", es.Decl.Span, "entity %q references undeclared type %q", name, es.TypeName)
			continue
		}
		es.Type = ty
	}
	return t
}

func registerSection(t *Table, sec *ast.Section, bag *diag.Bag) {
	if _, exists := t.Sections[sec.Path]; exists {
		bag.Warningf("URD306", sec.Span, "section %q redeclared, overriding previous declaration", sec.Path)
	}
	t.Sections[sec.Path] = &SectionSymbol{Path: sec.Path, Decl: sec}
	for _, child := range sec.Children {
		registerSection(t, child, bag)
	}
}

// ResolveEntity looks up an entity or reserved binding name, returning
// ok=false (with no diagnostic — callers decide whether an unresolved
// reference is an error in their own phase) if neither.
func (t *Table) ResolveEntity(name string) (*EntitySymbol, bool) {
	if name == BindingTarget || name == BindingPlayer {
		return &EntitySymbol{Name: name}, true
	}
	es, ok := t.Entities[name]
	return es, ok
}

// ResolveProperty looks up a property spec on an entity's type, by name.
func (t *Table) ResolveProperty(entityName, propName string) (ast.PropertySpec, bool) {
	es, ok := t.ResolveEntity(entityName)
	if !ok || es.Type == nil {
		return ast.PropertySpec{}, false
	}
	ps, ok := es.Type.Properties[propName]
	return ps, ok
}

// ValidateEnum checks that a literal string tag is one of a PropEnum
// type's declared variants, returning a formatted error otherwise.
func ValidateEnum(pt ast.PropertyType, tag string) error {
	if pt.Kind != ast.PropEnum {
		return nil
	}
	for _, v := range pt.EnumValues {
		if v == tag {
			return nil
		}
	}
	return fmt.Errorf("%q is not a variant of enum(%v)", tag, pt.EnumValues)
}
