package testutil

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decon/internal/compiler"
	"github.com/roach88/decon/internal/engine"
	"github.com/roach88/decon/internal/ir"
)

// CompileSpecs compiles CUE source, merges the prelude and requires the
// result to validate cleanly.
func CompileSpecs(t testing.TB, src string) *ir.SpecSet {
	t.Helper()

	set, err := compiler.CompileSpecs(cuecontext.New().CompileString(src))
	require.NoError(t, err)
	prelude, err := compiler.Prelude()
	require.NoError(t, err)
	set.Merge(prelude)
	require.Empty(t, compiler.Validate(set))
	return set
}

// Registry is CompileSpecs wrapped in an engine registry.
func Registry(t testing.TB, src string) *engine.Registry {
	t.Helper()
	return engine.NewRegistry(CompileSpecs(t, src))
}
