package diffsnapshot

import (
	"fmt"
	"sort"

	"github.com/urdwyrd/urd/pkg/emit"
)

// Category is one of the eight kinds of thing a Report entry can
// describe (§6.4).
type Category string

const (
	CategoryEntity             Category = "entity"
	CategoryLocation           Category = "location"
	CategoryExit               Category = "exit"
	CategorySection            Category = "section"
	CategoryChoice             Category = "choice"
	CategoryPropertyDependency Category = "property_dependency"
	CategoryRule               Category = "rule"
	CategoryReachability       Category = "reachability"
)

// Kind is how a Category entry changed between two snapshots.
type Kind string

const (
	KindAdded                  Kind = "added"
	KindRemoved                Kind = "removed"
	KindModified               Kind = "modified"
	KindBecameUnreachable      Kind = "became_unreachable"
	KindBecameReachable        Kind = "became_reachable"
	KindChoiceBecameImpossible Kind = "choice_became_impossible"
	KindChoiceBecamePossible   Kind = "choice_became_possible"
)

// Change is one entry in a Report.
type Change struct {
	Category Category `json:"category"`
	Kind     Kind     `json:"kind"`
	Key      string   `json:"key"`
	Detail   string   `json:"detail,omitempty"`
}

// Report is the full semantic diff between two snapshots (§6.4).
type Report struct {
	Changes []Change `json:"changes"`
}

// Empty reports whether the diff found no changes at all (§8 P6, diff
// identity: diff(c, c) is empty for every compilation c).
func (r *Report) Empty() bool {
	return len(r.Changes) == 0
}

// Diff compares two snapshots and produces the categorized semantic
// diff described in §6.4.
func Diff(a, b *Snapshot) *Report {
	r := &Report{}
	r.Changes = append(r.Changes, diffEntities(a, b)...)
	r.Changes = append(r.Changes, diffLocations(a, b)...)
	r.Changes = append(r.Changes, diffSections(a, b)...)
	r.Changes = append(r.Changes, diffExits(a, b)...)
	r.Changes = append(r.Changes, diffChoices(a, b)...)
	r.Changes = append(r.Changes, diffRules(a, b)...)
	r.Changes = append(r.Changes, diffPropertyIndex(a, b)...)
	r.Changes = append(r.Changes, diffReachability(a, b)...)
	sort.Slice(r.Changes, func(i, j int) bool {
		ci, cj := r.Changes[i], r.Changes[j]
		if ci.Category != cj.Category {
			return ci.Category < cj.Category
		}
		if ci.Key != cj.Key {
			return ci.Key < cj.Key
		}
		return ci.Kind < cj.Kind
	})
	return r
}

func diffExits(a, b *Snapshot) []Change {
	am := exitKeySet(a)
	bm := exitKeySet(b)
	var out []Change
	for k, av := range am {
		if bv, ok := bm[k]; !ok {
			out = append(out, Change{Category: CategoryExit, Kind: KindRemoved, Key: k})
		} else if av != bv {
			out = append(out, Change{Category: CategoryExit, Kind: KindModified, Key: k, Detail: av + " -> " + bv})
		}
	}
	for k, bv := range bm {
		if _, ok := am[k]; !ok {
			out = append(out, Change{Category: CategoryExit, Kind: KindAdded, Key: k, Detail: bv})
		}
	}
	return out
}

func exitKeySet(s *Snapshot) map[string]string {
	m := map[string]string{}
	for _, e := range s.Facts.Exits {
		m[e.From+"."+e.Exit] = e.To
	}
	return m
}

// diffEntities compares declared entities by name and, for ones present
// in both, by type and override set (§6.4 category "entity").
func diffEntities(a, b *Snapshot) []Change {
	var out []Change
	for name, ae := range a.Entities {
		be, ok := b.Entities[name]
		if !ok {
			out = append(out, Change{Category: CategoryEntity, Kind: KindRemoved, Key: name})
			continue
		}
		if entityChanged(ae, be) {
			out = append(out, Change{Category: CategoryEntity, Kind: KindModified, Key: name})
		}
	}
	for name := range b.Entities {
		if _, ok := a.Entities[name]; !ok {
			out = append(out, Change{Category: CategoryEntity, Kind: KindAdded, Key: name})
		}
	}
	return out
}

func entityChanged(a, b emit.EntityDoc) bool {
	if a.Type != b.Type {
		return true
	}
	if len(a.Overrides) != len(b.Overrides) {
		return true
	}
	for k, av := range a.Overrides {
		bv, ok := b.Overrides[k]
		if !ok || fmt.Sprint(av) != fmt.Sprint(bv) {
			return true
		}
	}
	return false
}

// diffLocations compares declared locations by name and, for ones
// present in both, by prose/presence/exit shape (§6.4 category
// "location"). Per-exit detail is left to diffExits.
func diffLocations(a, b *Snapshot) []Change {
	var out []Change
	for name, al := range a.Locations {
		bl, ok := b.Locations[name]
		if !ok {
			out = append(out, Change{Category: CategoryLocation, Kind: KindRemoved, Key: name})
			continue
		}
		if locationChanged(al, bl) {
			out = append(out, Change{Category: CategoryLocation, Kind: KindModified, Key: name})
		}
	}
	for name := range b.Locations {
		if _, ok := a.Locations[name]; !ok {
			out = append(out, Change{Category: CategoryLocation, Kind: KindAdded, Key: name})
		}
	}
	return out
}

func locationChanged(a, b emit.LocationDoc) bool {
	if len(a.Exits) != len(b.Exits) {
		return true
	}
	if stringSliceDiffers(a.Prose, b.Prose) || stringSliceDiffers(a.Presence, b.Presence) {
		return true
	}
	for name, ae := range a.Exits {
		be, ok := b.Exits[name]
		if !ok || ae != be {
			return true
		}
	}
	return false
}

func stringSliceDiffers(a, b []string) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}

// diffSections compares declared section paths and, for ones present
// in both, by step count and children (§6.4 category "section"). This
// is keyed on the Sections map itself, not on Jump facts — a jump
// site's SiteID is not a section identity.
func diffSections(a, b *Snapshot) []Change {
	var out []Change
	for path, as := range a.Sections {
		bs, ok := b.Sections[path]
		if !ok {
			out = append(out, Change{Category: CategorySection, Kind: KindRemoved, Key: path})
			continue
		}
		if len(as.Steps) != len(bs.Steps) || stringSliceDiffers(as.Children, bs.Children) {
			out = append(out, Change{Category: CategorySection, Kind: KindModified, Key: path})
		}
	}
	for path := range b.Sections {
		if _, ok := a.Sections[path]; !ok {
			out = append(out, Change{Category: CategorySection, Kind: KindAdded, Key: path})
		}
	}
	return out
}

func diffChoices(a, b *Snapshot) []Change {
	am := choiceKeySet(a)
	bm := choiceKeySet(b)
	var out []Change
	for k := range am {
		if !bm[k] {
			out = append(out, Change{Category: CategoryChoice, Kind: KindRemoved, Key: k})
		}
	}
	for k := range bm {
		if !am[k] {
			out = append(out, Change{Category: CategoryChoice, Kind: KindAdded, Key: k})
		}
	}
	return out
}

func choiceKeySet(s *Snapshot) map[string]bool {
	m := map[string]bool{}
	for _, c := range s.Facts.Choices {
		m[c.Section+"#"+c.Label] = true
	}
	return m
}

func diffRules(a, b *Snapshot) []Change {
	am := map[string]string{}
	bm := map[string]string{}
	for _, r := range a.Facts.Rules {
		am[r.Name] = r.SelectorType
	}
	for _, r := range b.Facts.Rules {
		bm[r.Name] = r.SelectorType
	}
	var out []Change
	for k, av := range am {
		if bv, ok := bm[k]; !ok {
			out = append(out, Change{Category: CategoryRule, Kind: KindRemoved, Key: k})
		} else if av != bv {
			out = append(out, Change{Category: CategoryRule, Kind: KindModified, Key: k, Detail: av + " -> " + bv})
		}
	}
	for k := range bm {
		if _, ok := am[k]; !ok {
			out = append(out, Change{Category: CategoryRule, Kind: KindAdded, Key: k})
		}
	}
	return out
}

func diffPropertyIndex(a, b *Snapshot) []Change {
	am := propertyRowMap(a)
	bm := propertyRowMap(b)
	var out []Change
	for k, av := range am {
		bv, ok := bm[k]
		if !ok {
			out = append(out, Change{Category: CategoryPropertyDependency, Kind: KindRemoved, Key: k})
			continue
		}
		if av.ReadCount != bv.ReadCount || av.WriteCount != bv.WriteCount {
			out = append(out, Change{Category: CategoryPropertyDependency, Kind: KindModified, Key: k})
		}
	}
	for k := range bm {
		if _, ok := am[k]; !ok {
			out = append(out, Change{Category: CategoryPropertyDependency, Kind: KindAdded, Key: k})
		}
	}
	return out
}

func propertyRowMap(s *Snapshot) map[string]PropertyIndexRow {
	m := map[string]PropertyIndexRow{}
	for _, row := range s.PropertyIndex {
		m[row.Entity+"."+row.Property] = row
	}
	return m
}

// diffReachability derives became_unreachable/became_reachable and
// choice_became_impossible/choice_became_possible changes from URD430
// and URD432 presence in each snapshot's diagnostics digest, per §6.4.
func diffReachability(a, b *Snapshot) []Change {
	aUnreachable := digestByCode(a, "URD430")
	bUnreachable := digestByCode(b, "URD430")
	aImpossible := digestByCode(a, "URD432")
	bImpossible := digestByCode(b, "URD432")

	var out []Change
	for msg := range aUnreachable {
		if !bUnreachable[msg] {
			out = append(out, Change{Category: CategoryReachability, Kind: KindBecameReachable, Key: msg})
		}
	}
	for msg := range bUnreachable {
		if !aUnreachable[msg] {
			out = append(out, Change{Category: CategoryReachability, Kind: KindBecameUnreachable, Key: msg})
		}
	}
	for msg := range aImpossible {
		if !bImpossible[msg] {
			out = append(out, Change{Category: CategoryReachability, Kind: KindChoiceBecamePossible, Key: msg})
		}
	}
	for msg := range bImpossible {
		if !aImpossible[msg] {
			out = append(out, Change{Category: CategoryReachability, Kind: KindChoiceBecameImpossible, Key: msg})
		}
	}
	return out
}

func digestByCode(s *Snapshot, code string) map[string]bool {
	m := map[string]bool{}
	for _, d := range s.DiagnosticsDigest {
		if d.Code == code {
			m[d.Message] = true
		}
	}
	return m
}
