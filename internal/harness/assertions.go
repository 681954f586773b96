package harness

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/decon/internal/engine"
	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/internal/values"
)

// AssertionError is returned when a step does not meet its expectation.
type AssertionError struct {
	Step     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: step %s\n", e.Step)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// assertError checks a static error against the expected code or name.
// An empty want means the step was expected to succeed.
func assertError(step, want string, got *engine.ResolveError) error {
	if want == "" {
		return &AssertionError{Step: step, Expected: "success", Actual: got.Error()}
	}
	code, ok := engine.ParseResolveErrorCode(want)
	if !ok {
		return &AssertionError{Step: step, Expected: "known error " + want, Actual: got.Error()}
	}
	if code != got.Code {
		return &AssertionError{
			Step:     step,
			Expected: fmt.Sprintf("%s %s", code, code.Name()),
			Actual:   got.Error(),
		}
	}
	return nil
}

// assertBindings compares bindings against an expected YAML mapping.
// Names must match in binding order; each expected value is decoded with
// the bound name's type and compared structurally.
func assertBindings(step string, got *engine.Bindings, want *yaml.Node, records ir.RecordLookup, opts values.Options) error {
	if want.Kind == yaml.DocumentNode && len(want.Content) == 1 {
		want = want.Content[0]
	}
	if want.Kind != yaml.MappingNode {
		return &AssertionError{Step: step, Expected: "bindings mapping", Actual: fmt.Sprintf("YAML kind %d", want.Kind)}
	}

	var names []string
	for i := 0; i+1 < len(want.Content); i += 2 {
		names = append(names, want.Content[i].Value)
	}
	if !slices.Equal(names, got.Names()) {
		return &AssertionError{
			Step:     step,
			Expected: fmt.Sprintf("names %v", names),
			Actual:   fmt.Sprintf("names %v", got.Names()),
		}
	}

	for i := 0; i+1 < len(want.Content); i += 2 {
		name := want.Content[i].Value
		b, _ := got.Get(name)
		expected, err := values.Decode(want.Content[i+1], b.Type, records, opts)
		if err != nil {
			return &AssertionError{
				Step:     step,
				Expected: fmt.Sprintf("%s as %s", name, b.Type),
				Actual:   err.Error(),
			}
		}
		if !ir.Equal(expected, b.Value) {
			return &AssertionError{
				Step:     step,
				Expected: fmt.Sprintf("%s = %s", name, ir.Format(expected)),
				Actual:   fmt.Sprintf("%s = %s", name, ir.Format(b.Value)),
			}
		}
	}
	return nil
}

// assertIterations checks foreach bindings entry by entry.
func assertIterations(step string, got []*engine.Bindings, want []yaml.Node, records ir.RecordLookup, opts values.Options) error {
	if len(got) != len(want) {
		return &AssertionError{
			Step:     step,
			Expected: fmt.Sprintf("%d iterations", len(want)),
			Actual:   fmt.Sprintf("%d iterations", len(got)),
		}
	}
	for i := range want {
		if err := assertBindings(fmt.Sprintf("%s[%d]", step, i), got[i], &want[i], records, opts); err != nil {
			return err
		}
	}
	return nil
}
