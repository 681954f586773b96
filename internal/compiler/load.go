package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/decon/internal/ir"
)

// LoadFiles compiles each CUE file on its own and merges the results in
// argument order. Part types are resolved after the merge, so a record or
// extension may refer to records declared in another file.
//
// Files are not unified: the same record declared in two files is kept
// twice and reported by Validate as E110.
func LoadFiles(paths ...string) (*ir.SpecSet, error) {
	ctx := cuecontext.New()
	set := &ir.SpecSet{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read spec %s: %w", path, err)
		}
		part, err := CompileSpecs(ctx.CompileBytes(data, cue.Filename(path)))
		if err != nil {
			return nil, fmt.Errorf("compile spec %s: %w", path, err)
		}
		set.Merge(part)
	}
	ResolvePartTypes(set)
	return set, nil
}

// WithPrelude merges the built-in extensions into set.
func WithPrelude(set *ir.SpecSet) (*ir.SpecSet, error) {
	prelude, err := Prelude()
	if err != nil {
		return nil, err
	}
	set.Merge(prelude)
	ResolvePartTypes(set)
	return set, nil
}
