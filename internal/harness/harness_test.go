package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
)

const pointSpec = `
record: Point: {
	positional: true
	fields: { x: "int", y: "int" }
}
`

// scenarioWithSpec parses src and points its specs at a temp file holding spec.
func scenarioWithSpec(t *testing.T, src, spec string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	if spec != "" {
		path := filepath.Join(t.TempDir(), "spec.cue")
		require.NoError(t, os.WriteFile(path, []byte(spec), 0o644))
		s.Specs = []string{path}
	}
	return s
}

func TestRun_Passes(t *testing.T) {
	s := scenarioWithSpec(t, `
name: points
description: positional decomposition and reassignment
steps:
  - name: origin
    type: Point
    value: [0, 0]
    pattern: (x, y)
    expect:
      bindings: {x: 0, y: 0}
  - name: moved
    type: Point
    value: {x: 3, y: 4}
    pattern: (x, y)
    mode: assign
    expect:
      bindings: {x: 3, y: 4}
`, pointSpec)

	result, err := Run(s, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "test-run-default", result.RunID)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
	assert.Equal(t, "assign", result.Trace[1].Mode)
}

func TestRun_ReportsWrongBindings(t *testing.T) {
	s := scenarioWithSpec(t, `
name: wrong
description: expectation does not match
steps:
  - name: origin
    type: Point
    value: [1, 2]
    pattern: (x, y)
    expect:
      bindings: {x: 1, y: 3}
`, pointSpec)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "y = 3")
	assert.Contains(t, result.Errors[0], "y = 2")
}

func TestRun_BindingsOnForeachStepFail(t *testing.T) {
	s := scenarioWithSpec(t, `
name: pairs
description: foreach over a map
steps:
  - name: entries
    type: map<string,int>
    value: {one: 1}
    pattern: (k, v)
    foreach: true
`, "")

	// Built in code, so ParseScenario never saw the mismatch.
	var want yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("{k: one, v: 1}"), &want))
	s.Steps[0].Expect = &Expect{Bindings: *want.Content[0]}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "use expect.iterations")
}

func TestRun_ReportsBindingOrder(t *testing.T) {
	s := scenarioWithSpec(t, `
name: order
description: names must appear in binding order
steps:
  - name: origin
    type: Point
    value: [1, 2]
    pattern: (x, y)
    expect:
      bindings: {y: 2, x: 1}
`, pointSpec)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "names [y x]")
}

func TestRun_ExpectedErrorThatDidNotHappen(t *testing.T) {
	s := scenarioWithSpec(t, `
name: no_error
description: success where an error was expected
steps:
  - name: origin
    type: Point
    value: [1, 2]
    pattern: (x, y)
    expect:
      error: ArityMismatch
`, pointSpec)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "Actual: success")
}

func TestRun_WrongErrorCode(t *testing.T) {
	s := scenarioWithSpec(t, `
name: wrong_error
description: a different static error
steps:
  - name: origin
    type: Point
    value: [1, 2]
    pattern: (x, y, z)
    expect:
      error: E202
`, pointSpec)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "E202 AmbiguousDecomposition")
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "E201", result.Trace[0].Error)
}

func TestRun_UnexpectedError(t *testing.T) {
	s := scenarioWithSpec(t, `
name: unexpected
description: a step without expectations must succeed
steps:
  - name: origin
    type: Point
    value: [1, 2]
    pattern: (x, y, z)
`, pointSpec)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "Expected: success")
}

func TestRun_BadValueIsAFailure(t *testing.T) {
	s := scenarioWithSpec(t, `
name: bad_value
description: literal does not fit the type
steps:
  - name: origin
    type: Point
    value: [1, two]
    pattern: (x, y)
`, pointSpec)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "step origin: value")
	assert.Empty(t, result.Trace)
}

func TestRun_InvalidSpecs(t *testing.T) {
	s := scenarioWithSpec(t, minimalScenario, `
record: Loop: {
	positional: true
	fields: { next: "Loop", n: "int" }
}
`)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E111")
}

func TestRun_WithoutPrelude(t *testing.T) {
	s := scenarioWithSpec(t, `
name: bare
description: optionals have no decomposition without the prelude
prelude: false
steps:
  - name: absent
    type: optional<int>
    value: null
    pattern: (has, v)
    expect:
      error: MissingDecomposition
`, "")

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Deterministic(t *testing.T) {
	s := scenarioWithSpec(t, minimalScenario, "")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalTrace(s.Name, first)
	require.NoError(t, err)
	b, err := MarshalTrace(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
