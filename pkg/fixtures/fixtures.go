// Package fixtures implements the gate harness (§8 P4, all-fixture
// smoke test): a YAML manifest listing bundled .urd.md worlds and
// their expected outcomes, plus a runner that compiles every one of
// them and reports mismatches. Grounded on the teacher's runbook YAML
// loading (`gopkg.in/yaml.v3`, used the same way the teacher's own
// fixtures and golden files are loaded in `pkg/schema`/`pkg/testing`).
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/urdwyrd/urd/pkg/compiler"
)

// Fixture is one bundled world and its expected compilation outcome.
type Fixture struct {
	Name          string   `yaml:"name"`
	Path          string   `yaml:"path"` // root .urd.md, relative to the manifest's directory
	ExpectSuccess bool     `yaml:"expectSuccess"`
	ExpectCodes   []string `yaml:"expectCodes,omitempty"` // diagnostic codes that must appear, in any order
}

// Manifest is the top-level shape of fixtures.yaml.
type Manifest struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// LoadManifest reads and parses a fixtures.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// RunResult is one fixture's compilation outcome plus any mismatches
// against its declared expectations.
type RunResult struct {
	Fixture    Fixture
	Result     *compiler.Result
	Err        error
	Mismatches []string
}

// OK reports whether the fixture matched every expectation.
func (r RunResult) OK() bool {
	return r.Err == nil && len(r.Mismatches) == 0
}

// RunAll compiles every fixture in the manifest, with paths resolved
// relative to baseDir, and checks each against its declared
// expectations (§8 P4).
func RunAll(m *Manifest, baseDir string) []RunResult {
	out := make([]RunResult, 0, len(m.Fixtures))
	for _, f := range m.Fixtures {
		out = append(out, run(f, baseDir))
	}
	return out
}

func run(f Fixture, baseDir string) RunResult {
	rr := RunResult{Fixture: f}
	res, err := compiler.Compile(filepath.Join(baseDir, f.Path), compiler.Options{})
	if err != nil {
		rr.Err = err
		return rr
	}
	rr.Result = res

	success := !res.HasErrors()
	if success != f.ExpectSuccess {
		rr.Mismatches = append(rr.Mismatches, fmt.Sprintf("expectSuccess=%v, got %v", f.ExpectSuccess, success))
	}

	present := map[string]bool{}
	for _, d := range res.Bag.All() {
		present[d.Code] = true
	}
	for _, code := range f.ExpectCodes {
		if !present[code] {
			rr.Mismatches = append(rr.Mismatches, fmt.Sprintf("expected diagnostic %s, not produced", code))
		}
	}
	return rr
}

// Failures filters RunAll's output down to the fixtures that didn't
// match their expectations, sorted by name for stable reporting.
func Failures(results []RunResult) []RunResult {
	var out []RunResult
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fixture.Name < out[j].Fixture.Name })
	return out
}
