package engine

import (
	"context"
	"sync"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decon/internal/compiler"
	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/internal/values"
)

const testSpecs = `
record: Album: {
	fields: {
		id:           "int"
		name:         "string"
		asking_price: "decimal"
		release_date: "optional<date>"
	}
	deconstruct: [["id", "name", "asking_price", "release_date"]]
}

record: CompactDisc: {
	positional: true
	fields: { name: "string", release_date: "date" }
}

record: Artist: {
	fields: { name: "string", founded: "int" }
	deconstruct: [["name", "founded"]]
}

record: Genre: {
	fields: { name: "string" }
	deconstruct: []
}

// Same arity as Artist's own decomposition, reversed parts.
extension: ArtistReversed: {
	target: "Artist"
	parts: [{name: "founded", from: "founded"}, {name: "name", from: "name"}]
}

extension: ArtistTriple: {
	target: "Artist"
	parts: ["name", "founded", {name: "again", from: "name"}]
}

extension: FirstLast: {
	params: ["T"]
	target: "tuple<T,T,T>"
	parts: [{name: "first", from: "[0]"}, {name: "last", from: "[2]"}]
}

extension: Ends: {
	target: "tuple<int,int,int>"
	parts: [{name: "first", from: "[0]"}, {name: "last", from: "[2]"}]
}
`

func testRegistry(t *testing.T) *Registry {
	t.Helper()

	set, err := compiler.CompileSpecs(cuecontext.New().CompileString(testSpecs))
	require.NoError(t, err)
	prelude, err := compiler.Prelude()
	require.NoError(t, err)
	set.Merge(prelude)
	require.Empty(t, compiler.Validate(set))

	return NewRegistry(set)
}

func decode(t *testing.T, reg *Registry, src, typ string) (ir.IRValue, ir.Type) {
	t.Helper()
	tt := ir.MustParseType(typ)
	v, err := values.DecodeString(src, tt, reg.Record, values.Options{})
	require.NoError(t, err)
	return v, tt
}

// memRecorder collects what the engine records.
type memRecorder struct {
	mu      sync.Mutex
	runs    []ir.Run
	records []ir.DeconstructionRecord
	failAt  int64 // seq that fails to write, 0 = never
}

func (r *memRecorder) WriteRun(_ context.Context, run ir.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *memRecorder) WriteDeconstruction(_ context.Context, rec ir.DeconstructionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.Seq == r.failAt {
		return errWriteFailed
	}
	r.records = append(r.records, rec)
	return nil
}

type writeError string

func (e writeError) Error() string { return string(e) }

const errWriteFailed = writeError("disk full")
