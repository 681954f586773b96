package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decon/internal/ir"
)

const catalogCUE = `
record: Album: {
	purpose: "A compact disc in a record collection"
	fields: {
		id:           "int"
		name:         "string"
		asking_price: "decimal"
		release_date: "optional<date>"
	}
	deconstruct: [
		["id", "name", "asking_price", "release_date"],
		[{name: "name", from: "name"}, {name: "released", from: "release_date.present", type: "bool"}],
	]
}

record: CompactDisc: {
	positional: true
	fields: {
		name:         "string"
		release_date: "date"
	}
}
`

func compileString(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v
}

func TestCompileSpecsCatalog(t *testing.T) {
	set, err := CompileSpecs(compileString(t, catalogCUE))
	require.NoError(t, err)
	require.Len(t, set.Records, 2)

	album := set.Records[0]
	assert.Equal(t, "Album", album.Name)
	assert.Equal(t, "A compact disc in a record collection", album.Purpose)
	assert.False(t, album.Positional)

	var fieldNames []string
	for _, f := range album.Fields {
		fieldNames = append(fieldNames, f.Name)
	}
	assert.Equal(t, []string{"id", "name", "asking_price", "release_date"}, fieldNames)
	assert.Equal(t, "optional<date>", album.Fields[3].Type.String())

	require.Len(t, album.Deconstructors, 2)
	four := album.Deconstructors[0]
	assert.Equal(t, 4, four.Arity())
	assert.Equal(t, ir.PartSig{Name: "asking_price", Type: ir.TypeDecimal, From: "asking_price"}, four.Parts[2])

	two := album.Deconstructors[1]
	assert.Equal(t, ir.PartSig{Name: "released", Type: ir.TypeBool, From: "release_date.present"}, two.Parts[1])

	disc := set.Records[1]
	assert.True(t, disc.Positional)
	require.Len(t, disc.Deconstructors, 1)
	assert.Equal(t, []ir.PartSig{
		{Name: "name", Type: ir.TypeString, From: "name"},
		{Name: "release_date", Type: ir.TypeDate, From: "release_date"},
	}, disc.Deconstructors[0].Parts)

	assert.Empty(t, Validate(set))
}

func TestCompileSpecsInfersCrossRecordParts(t *testing.T) {
	set, err := CompileSpecs(compileString(t, `
		record: Shelf: {
			fields: { label: "string", top: "CompactDisc" }
			deconstruct: [["label", {name: "top_name", from: "top.name"}]]
		}
		record: CompactDisc: {
			positional: true
			fields: { name: "string", release_date: "date" }
		}
	`))
	require.NoError(t, err)

	shelf, ok := set.Record("Shelf")
	require.True(t, ok)
	assert.Equal(t, ir.TypeString, shelf.Deconstructors[0].Parts[1].Type)
	assert.Empty(t, Validate(set))
}

func TestCompileRecordBareCUEKinds(t *testing.T) {
	v := compileString(t, `record: Point: { positional: true, fields: { x: int, y: int, label: string, ok: bool } }`)
	rec, err := CompileRecord(v.LookupPath(cue.ParsePath("record.Point")))
	require.NoError(t, err)
	assert.Equal(t, []ir.FieldSpec{
		{Name: "x", Type: ir.TypeInt},
		{Name: "y", Type: ir.TypeInt},
		{Name: "label", Type: ir.TypeString},
		{Name: "ok", Type: ir.TypeBool},
	}, rec.Fields)
}

func TestCompileRecordErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{
			name:    "missing fields",
			src:     `record: Bad: { positional: true }`,
			message: "fields are required",
		},
		{
			name:    "no decomposition",
			src:     `record: Bad: { fields: { a: "int" } }`,
			message: "deconstruct or set positional",
		},
		{
			name:    "float field",
			src:     `record: Bad: { positional: true, fields: { a: float, b: "int" } }`,
			message: "float types are forbidden",
		},
		{
			name:    "unparseable type",
			src:     `record: Bad: { positional: true, fields: { a: "optional<", b: "int" } }`,
			message: "expected type name",
		},
		{
			name:    "part without name",
			src:     `record: Bad: { fields: { a: "int" }, deconstruct: [[{from: "a"}, "a"]] }`,
			message: "must be a field name or a struct",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := compileString(t, tt.src)
			_, err := CompileRecord(v.LookupPath(cue.ParsePath("record.Bad")))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)

			var compileErr *CompileError
			assert.ErrorAs(t, err, &compileErr)
		})
	}
}

func TestCompileExtension(t *testing.T) {
	v := compileString(t, `
		extension: EntryFlip: {
			params: ["K", "V"]
			target: "entry<K,V>"
			parts: [{name: "v", from: "value"}, {name: "k", from: "key", type: "K"}]
		}
	`)
	ext, err := CompileExtension(v.LookupPath(cue.ParsePath("extension.EntryFlip")))
	require.NoError(t, err)

	assert.Equal(t, "EntryFlip", ext.Name)
	assert.Equal(t, []string{"K", "V"}, ext.Params)
	assert.Equal(t, "entry<K,V>", ext.Target.String())
	assert.Equal(t, 2, ext.Arity())
	assert.Equal(t, ir.ParamType("V"), ext.Parts[0].Type)
	assert.Equal(t, ir.ParamType("K"), ext.Parts[1].Type)
	assert.Empty(t, Validate(ext))
}

func TestCompileExtensionMissingTarget(t *testing.T) {
	v := compileString(t, `extension: Bad: { parts: ["a", "b"] }`)
	_, err := CompileExtension(v.LookupPath(cue.ParsePath("extension.Bad")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target is required")
}

func TestCompileSpecsCUEError(t *testing.T) {
	v := cuecontext.New().CompileString(`record: Album: { fields: { id: "int" } } record: Album: { fields: { id: 1 & 2 } }`)
	_, err := CompileSpecs(v)
	require.Error(t, err)
}

func TestPrelude(t *testing.T) {
	set, err := Prelude()
	require.NoError(t, err)
	require.Len(t, set.Extensions, 1)

	nullable := set.Extensions[0]
	assert.Equal(t, "Nullable", nullable.Name)
	assert.Equal(t, []string{"T"}, nullable.Params)
	assert.Equal(t, ir.OptionalOf(ir.ParamType("T")), nullable.Target)
	assert.Equal(t, []ir.PartSig{
		{Name: "has_value", Type: ir.TypeBool, From: "present"},
		{Name: "value", Type: ir.ParamType("T"), From: "value"},
	}, nullable.Parts)

	assert.Empty(t, Validate(set))
}
