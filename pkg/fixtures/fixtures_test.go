package fixtures

import "testing"

func TestAllFixturesMatchExpectations(t *testing.T) {
	m, err := LoadManifest("fixtures.yaml")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(m.Fixtures) == 0 {
		t.Fatal("manifest has no fixtures")
	}

	results := RunAll(m, "testdata")
	for _, fail := range Failures(results) {
		if fail.Err != nil {
			t.Errorf("%s: compile error: %v", fail.Fixture.Name, fail.Err)
			continue
		}
		t.Errorf("%s: %v", fail.Fixture.Name, fail.Mismatches)
	}
}
