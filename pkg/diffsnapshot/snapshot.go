// Package diffsnapshot implements `.urd.snapshot.json` (§6.3) and the
// semantic diff between two snapshots (§6.4): a comparable projection
// of a compilation that excludes source text, spans, and any
// non-comparable index, so two compilations of unrelated files can
// still be diffed meaningfully by shape alone.
package diffsnapshot

import (
	"encoding/json"
	"sort"

	"github.com/urdwyrd/urd/pkg/compiler"
	"github.com/urdwyrd/urd/pkg/emit"
)

// snapshotVersion is the `urd_snapshot` format tag (§6.3).
const snapshotVersion = "1"

// Snapshot is the comparable projection of a CompilationResult. The
// Entities, Locations and Sections maps carry the structural data needed
// for the `entity`/`location`/`section` diff categories of §6.4,
// alongside World, the small `world:` block itself — everything here is
// already span-free, since emit.Document's own maps never carry a
// source.Span (only FactsDoc's string SiteIDs reference source
// positions indirectly, and those are kept as opaque identifiers).
type Snapshot struct {
	Version           string                       `json:"urd_snapshot"`
	World             emit.WorldDoc                `json:"world"`
	Entities          map[string]emit.EntityDoc    `json:"entities"`
	Locations         map[string]emit.LocationDoc  `json:"locations"`
	Sections          map[string]emit.SectionDoc   `json:"sections"`
	Facts             emit.FactsDoc                `json:"facts"`
	PropertyIndex     []PropertyIndexRow           `json:"property_index"`
	DiagnosticsDigest []DiagnosticDigest           `json:"diagnostics_digest"`
}

// PropertyIndexRow is one (entity, property) row of the derived
// PropertyDependencyIndex (§4.4), projected without the per-site
// SiteID/Span detail a snapshot excludes.
type PropertyIndexRow struct {
	Entity     string `json:"entity"`
	Property   string `json:"property"`
	ReadCount  int    `json:"readCount"`
	WriteCount int    `json:"writeCount"`
}

// DiagnosticDigest is one diagnostic reduced to its comparable
// identity: code, severity, and message, with span and file dropped
// (§6.3 "snapshots exclude ... spans").
type DiagnosticDigest struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// FromResult projects a compiler.Result into a Snapshot. The result
// need not be error-free: a failed compilation still snapshots
// whatever World/Facts/diagnostics it produced, so "became_unreachable"
// style diffs can be computed across a world that regressed into
// error.
func FromResult(res *compiler.Result) *Snapshot {
	snap := &Snapshot{Version: snapshotVersion}
	if res.Document != nil {
		snap.World = res.Document.World
		snap.Entities = res.Document.Entities
		snap.Locations = res.Document.Locations
		snap.Sections = res.Document.Sections
		snap.Facts = res.Document.Facts
		snap.PropertyIndex = propertyIndex(res.Document.Facts)
	}
	for _, d := range res.Bag.All() {
		snap.DiagnosticsDigest = append(snap.DiagnosticsDigest, DiagnosticDigest{
			Code:     d.Code,
			Severity: d.Severity.String(),
			Message:  d.Message,
		})
	}
	sort.Slice(snap.DiagnosticsDigest, func(i, j int) bool {
		a, b := snap.DiagnosticsDigest[i], snap.DiagnosticsDigest[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
	return snap
}

func propertyIndex(facts emit.FactsDoc) []PropertyIndexRow {
	type key struct{ entity, property string }
	counts := map[key]*PropertyIndexRow{}
	order := []key{}
	get := func(entity, property string) *PropertyIndexRow {
		k := key{entity, property}
		if row, ok := counts[k]; ok {
			return row
		}
		row := &PropertyIndexRow{Entity: entity, Property: property}
		counts[k] = row
		order = append(order, k)
		return row
	}
	for _, r := range facts.Reads {
		get(r.Entity, r.Property).ReadCount++
	}
	for _, w := range facts.Writes {
		get(w.Entity, w.Property).WriteCount++
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].entity != order[j].entity {
			return order[i].entity < order[j].entity
		}
		return order[i].property < order[j].property
	})
	out := make([]PropertyIndexRow, 0, len(order))
	for _, k := range order {
		out = append(out, *counts[k])
	}
	return out
}

// ToJSON marshals a Snapshot with the same indentation and
// byte-stability conventions emit.Marshal uses (§6.3).
func ToJSON(s *Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FromJSON parses a Snapshot previously produced by ToJSON (§8 P5,
// snapshot round-trip).
func FromJSON(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
