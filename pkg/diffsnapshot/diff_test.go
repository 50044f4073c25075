package diffsnapshot

import (
	"testing"

	"github.com/urdwyrd/urd/pkg/compiler"
)

func mustCompile(t *testing.T, src string) *compiler.Result {
	t.Helper()
	res, err := compiler.CompileSource("world.urd.md", src, nil, compiler.Options{})
	if err != nil {
		t.Fatalf("CompileSource: %v", err)
	}
	return res
}

const baseWorld = `---
world:
  name: base
  start: a
types:
  thing:
    properties:
      on:
        type: bool
        default: false
entities:
  switch:
    type: thing
---

# a

A room with a lever.

# b

A second room, unreachable for now.
`

const extraLocationWorld = `---
world:
  name: base
  start: a
types:
  thing:
    properties:
      on:
        type: bool
        default: false
entities:
  switch:
    type: thing
---

# a

A room with a lever.

-> east: Head east -> b

# b

A second room, unreachable for now.
`

func TestDiffIdentityIsEmpty(t *testing.T) {
	res := mustCompile(t, baseWorld)
	snap := FromResult(res)
	report := Diff(snap, snap)
	if !report.Empty() {
		t.Errorf("diff(c, c) should be empty, got %+v", report.Changes)
	}
}

const torchWorldOneEntity = `---
world:
  name: diff-demo
  start: cellar
types:
  torch:
    properties:
      lit:
        type: bool
        default: false
entities:
  old-torch:
    type: torch
---

# cellar

A dark cellar.
`

const torchWorldTwoEntities = `---
world:
  name: diff-demo
  start: cellar
types:
  torch:
    properties:
      lit:
        type: bool
        default: false
entities:
  old-torch:
    type: torch
  new-lantern:
    type: torch
---

# cellar

A dark cellar, now with a second light source.
`

func TestDiffDetectsAddedEntity(t *testing.T) {
	a := FromResult(mustCompile(t, torchWorldOneEntity))
	b := FromResult(mustCompile(t, torchWorldTwoEntities))
	report := Diff(a, b)
	if report.Empty() {
		t.Fatal("expected changes between one-entity and two-entity world")
	}
	found := false
	for _, c := range report.Changes {
		if c.Category == CategoryEntity && c.Kind == KindAdded && c.Key == "new-lantern" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an added entity change for new-lantern, got %+v", report.Changes)
	}
}

func TestDiffDetectsAddedExit(t *testing.T) {
	a := FromResult(mustCompile(t, baseWorld))
	b := FromResult(mustCompile(t, extraLocationWorld))
	report := Diff(a, b)
	if report.Empty() {
		t.Fatal("expected changes between base and extra-location world")
	}
	found := false
	for _, c := range report.Changes {
		if c.Category == CategoryExit && c.Kind == KindAdded {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an added exit change, got %+v", report.Changes)
	}
}
