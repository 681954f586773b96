package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/decon/internal/ir"
)

func TestFieldKind(t *testing.T) {
	tests := []struct {
		field Field
		want  ir.Kind
	}{
		{FieldRunID, ir.KindString},
		{FieldSeq, ir.KindInt},
		{FieldPattern, ir.KindString},
		{FieldType, ir.KindString},
		{FieldMode, ir.KindString},
		{FieldBindingHash, ir.KindString},
		{FieldLabel, ir.KindString},
		{FieldVia, ir.KindString},
		{Field("bindings"), ir.KindInvalid},
		{Field(""), ir.KindInvalid},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.field.Kind())
		})
	}
}

func TestFieldsAreKnown(t *testing.T) {
	for _, f := range Fields {
		assert.NotEqual(t, ir.KindInvalid, f.Kind(), f)
	}
}

func TestConjoin(t *testing.T) {
	a := Equals{Field: FieldType, Value: ir.IRString("Album")}
	b := Prefix{Field: FieldVia, Prefix: "extension:"}

	assert.Nil(t, Conjoin())
	assert.Equal(t, a, Conjoin(a))
	assert.Equal(t, And{Predicates: []Predicate{a, b}}, Conjoin(a, b))
}

func TestSealedInterfaces(t *testing.T) {
	var _ Query = Select{}
	var _ Query = &Select{}
	var _ Predicate = Equals{}
	var _ Predicate = &Prefix{}
	var _ Predicate = And{}
}
