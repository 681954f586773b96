package compiler

import (
	_ "embed"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/decon/internal/ir"
)

//go:embed prelude.cue
var preludeSource []byte

// Prelude returns the built-in decompositions that are available without
// being declared: the Nullable extension over optional<T>.
func Prelude() (*ir.SpecSet, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(preludeSource, cue.Filename("prelude.cue"))
	return CompileSpecs(v)
}
