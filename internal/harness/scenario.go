package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/decon/internal/engine"
	"github.com/roach88/decon/internal/ir"
)

// Scenario defines a conformance test scenario: a sequence of
// decomposition steps with expected bindings or errors.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists paths to CUE spec files to compile and load.
	Specs []string `yaml:"specs,omitempty"`

	// Prelude controls whether the built-in extensions are loaded.
	// Defaults to true.
	Prelude *bool `yaml:"prelude,omitempty"`

	// RunID is an optional fixed run ID for deterministic traces.
	RunID string `yaml:"run_id,omitempty"`

	// Steps are executed in order against one shared scope.
	Steps []Step `yaml:"steps"`
}

// Step is one decomposition request.
type Step struct {
	// Name labels the step in errors and traces.
	Name string `yaml:"name"`

	// Type is the static type of Value, e.g. "Album" or "map<string,int>".
	Type string `yaml:"type"`

	// Value is the literal decomposed by the step.
	Value yaml.Node `yaml:"value"`

	// Keys selects the key comparer for map literals: ordinal or ignore_case.
	Keys string `yaml:"keys,omitempty"`

	// Pattern is the decomposition pattern, e.g. "(_, name, (has, date))".
	Pattern string `yaml:"pattern"`

	// Mode is declare (default) or assign.
	Mode string `yaml:"mode,omitempty"`

	// Foreach iterates a map value and decomposes each entry.
	Foreach bool `yaml:"foreach,omitempty"`

	// Expect describes the expected outcome. If nil, the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step. At most one field is set.
type Expect struct {
	// Bindings maps bound names to expected values, in binding order.
	Bindings yaml.Node `yaml:"bindings,omitempty"`

	// Iterations lists expected bindings per entry for foreach steps.
	Iterations []yaml.Node `yaml:"iterations,omitempty"`

	// Error is the expected static error, by code ("E201") or name
	// ("ArityMismatch").
	Error string `yaml:"error,omitempty"`
}

// UsesPrelude reports whether the built-in extensions should be loaded.
func (s *Scenario) UsesPrelude() bool {
	return s.Prelude == nil || *s.Prelude
}

// LoadScenario reads and parses a scenario YAML file.
// Spec paths are resolved relative to the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to the provided base path.
//
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}
	for _, specPath := range scenario.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: spec file not found: %s", specPath)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field validation.
// Spec paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
// Types are parsed here; whether they name declared records is checked
// when the scenario runs.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if err := validateStep(&step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if seen[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		seen[step.Name] = true
	}
	return nil
}

func validateStep(step *Step) error {
	if step.Name == "" {
		return fmt.Errorf("name is required")
	}
	if step.Type == "" {
		return fmt.Errorf("type is required")
	}
	t, err := ir.ParseType(step.Type)
	if err != nil {
		return err
	}
	if step.Value.Kind == 0 {
		return fmt.Errorf("value is required")
	}
	if step.Pattern == "" {
		return fmt.Errorf("pattern is required")
	}
	if _, err := engine.ParseMode(step.Mode); err != nil {
		return err
	}
	if step.Keys != "" {
		if _, err := ir.ParseKeyComparer(step.Keys); err != nil {
			return err
		}
	}
	if step.Foreach {
		if t.Kind != ir.KindMap {
			return fmt.Errorf("foreach needs a map type, got %s", t)
		}
		if step.Mode == string(engine.ModeAssign) {
			return fmt.Errorf("foreach always declares")
		}
	}

	if e := step.Expect; e != nil {
		set := 0
		if e.Bindings.Kind != 0 {
			set++
			if e.Bindings.Kind != yaml.MappingNode {
				return fmt.Errorf("expect.bindings must be a mapping")
			}
			if step.Foreach {
				return fmt.Errorf("expect.bindings cannot be used with foreach, use expect.iterations")
			}
		}
		if len(e.Iterations) > 0 {
			set++
			if !step.Foreach {
				return fmt.Errorf("expect.iterations needs foreach: true")
			}
		}
		if e.Error != "" {
			set++
			if _, ok := engine.ParseResolveErrorCode(e.Error); !ok {
				return fmt.Errorf("expect.error: unknown error %q", e.Error)
			}
		}
		if set > 1 {
			return fmt.Errorf("expect: set only one of bindings, iterations, error")
		}
	}
	return nil
}
