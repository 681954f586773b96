package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const minimalScenario = `
name: minimal
description: one step
steps:
  - name: pair
    type: tuple<int,string>
    value: [1, one]
    pattern: (n, s)
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.True(t, s.UsesPrelude())
	require.Len(t, s.Steps, 1)
	assert.Equal(t, yaml.SequenceNode, s.Steps[0].Value.Kind)
	assert.Nil(t, s.Steps[0].Expect)
}

func TestParseScenario_PreludeOptOut(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario + "prelude: false\n"))
	require.NoError(t, err)
	assert.False(t, s.UsesPrelude())
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertions: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	step := func(extra string) string {
		return `
name: s
description: d
steps:
  - name: one
    type: tuple<int,int>
    value: [1, 2]
    pattern: (a, b)
` + extra
	}

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing name", "description: d\nsteps: [{name: a, type: int, value: 1, pattern: '(a, b)'}]", "name is required"},
		{"missing description", "name: s\nsteps: [{name: a, type: int, value: 1, pattern: '(a, b)'}]", "description is required"},
		{"no steps", "name: s\ndescription: d\n", "steps list is required"},
		{"bad type", "name: s\ndescription: d\nsteps: [{name: a, type: 'map<bool,int>', value: 1, pattern: '(a, b)'}]", "key must be string or int"},
		{"missing value", "name: s\ndescription: d\nsteps: [{name: a, type: int, pattern: '(a, b)'}]", "value is required"},
		{"missing pattern", "name: s\ndescription: d\nsteps: [{name: a, type: int, value: 1}]", "pattern is required"},
		{"bad mode", step("    mode: bind\n"), "invalid mode"},
		{"bad keys", step("    keys: upper\n"), "invalid key comparer"},
		{"foreach on tuple", step("    foreach: true\n"), "foreach needs a map type"},
		{"unknown error", step("    expect: {error: Oops}\n"), "unknown error"},
		{"two expectations", step("    expect: {error: E201, bindings: {a: 1}}\n"), "set only one"},
		{"iterations without foreach", step("    expect: {iterations: [{a: 1}]}\n"), "needs foreach"},
		{"bindings with foreach", `
name: s
description: d
steps:
  - name: pairs
    type: map<string,int>
    value: {one: 1}
    pattern: (k, v)
    foreach: true
    expect: {bindings: {k: one}}
`, "use expect.iterations"},
		{"duplicate step", step("  - {name: one, type: int, value: 1, pattern: '(a, b)'}\n"), "duplicate step name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ResolvesSpecPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "specs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specs", "p.cue"), []byte(`record: P: { positional: true, fields: { x: "int", y: "int" } }`), 0o644))

	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario+"specs: [specs/p.cue]\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "specs", "p.cue")}, s.Specs)
}

func TestLoadScenario_MissingSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario+"specs: [nope.cue]\n"), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec file not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
