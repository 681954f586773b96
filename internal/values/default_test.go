package values

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/decon/internal/ir"
)

func TestDefault(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{"int", "0"},
		{"string", ""},
		{"bool", "false"},
		{"decimal", "0"},
		{"date", "0001-01-01"},
		{"optional<int>", "none"},
		{"tuple<int,bool>", "(0, false)"},
		{"entry<string,int>", "[, 0]"},
		{"map<string,int>", "{}"},
		{"Album", "Album(0, , 0, none)"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			typ := ir.MustParseType(tt.typ)
			got := Default(typ, lookup(albumSpec()))
			assert.Equal(t, tt.want, ir.Format(got))
			assert.True(t, Conforms(got, typ, lookup(albumSpec())))
		})
	}
}

func TestDefaultOptionalPayload(t *testing.T) {
	got := Default(ir.OptionalOf(ir.TypeDate), nil)
	assert.Equal(t, ir.IROptional{Present: false, Value: ir.IRDate{Year: 1, Month: time.January, Day: 1}}, got)
}

func TestConformsRejects(t *testing.T) {
	album := albumSpec()
	tests := []struct {
		name string
		v    ir.IRValue
		typ  ir.Type
	}{
		{"int as string", ir.IRInt(1), ir.TypeString},
		{"optional payload type", ir.IROptional{Present: true, Value: ir.IRString("x")}, ir.OptionalOf(ir.TypeInt)},
		{"optional without payload", ir.IROptional{}, ir.OptionalOf(ir.TypeInt)},
		{"tuple arity", ir.IRTuple{ir.IRInt(1)}, ir.TupleOf(ir.TypeInt, ir.TypeInt)},
		{"record name", ir.IRRecord{Spec: album, Fields: make([]ir.IRValue, 4)}, ir.RecordType("CompactDisc")},
		{"record field count", ir.IRRecord{Spec: album}, ir.RecordType("Album")},
		{"param", ir.IRInt(1), ir.ParamType("T")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Conforms(tt.v, tt.typ, nil))
		})
	}
}

func TestConformsRecordUsesLookupSpec(t *testing.T) {
	album := albumSpec()
	full := ir.IRRecord{Spec: album, Fields: []ir.IRValue{
		ir.IRInt(7), ir.IRString("Sabaton"), ir.MustDecimal("9.99"), ir.IROptional{Value: ir.IRDate{Year: 1, Month: time.January, Day: 1}},
	}}

	short := &ir.RecordSpec{Name: "Album", Fields: []ir.FieldSpec{
		{Name: "id", Type: ir.TypeInt},
		{Name: "name", Type: ir.TypeString},
	}}
	foreignShort := ir.IRRecord{Spec: short, Fields: []ir.IRValue{ir.IRInt(7), ir.IRString("Sabaton")}}

	swapped := albumSpec()
	swapped.Fields[0].Type = ir.TypeString
	foreignTyped := ir.IRRecord{Spec: swapped, Fields: []ir.IRValue{
		ir.IRString("7"), ir.IRString("Sabaton"), ir.MustDecimal("9.99"), ir.IROptional{Value: ir.IRDate{Year: 1, Month: time.January, Day: 1}},
	}}

	typ := ir.RecordType("Album")
	assert.True(t, Conforms(full, typ, lookup(album)))
	assert.True(t, Conforms(full, typ, lookup(albumSpec())), "an equal spec from another set conforms")
	assert.False(t, Conforms(foreignShort, typ, lookup(album)))
	assert.False(t, Conforms(foreignTyped, typ, lookup(album)))
	assert.False(t, Conforms(full, typ, lookup()), "unknown record")

	// Without a lookup only the record's own spec is available.
	assert.True(t, Conforms(foreignShort, typ, nil))
}
