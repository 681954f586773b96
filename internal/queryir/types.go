package queryir

import "github.com/roach88/decon/internal/ir"

// Query is a query over recorded decompositions.
// Sealed: only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate is a filter condition. Sealed like Query.
type Predicate interface {
	predicateNode()
}

// Field names a filterable attribute of a decomposition.
type Field string

const (
	FieldRunID       Field = "run_id"
	FieldSeq         Field = "seq"
	FieldPattern     Field = "pattern"
	FieldType        Field = "type"
	FieldMode        Field = "mode"
	FieldBindingHash Field = "binding_hash"
	FieldLabel       Field = "label" // label of the owning run
	FieldVia         Field = "via"   // matches any resolved decomposition
)

// Fields lists every field in documentation order.
var Fields = []Field{
	FieldRunID, FieldSeq, FieldPattern, FieldType, FieldMode, FieldBindingHash, FieldLabel, FieldVia,
}

// Kind returns the value kind the field compares against, or
// KindInvalid for an unknown field.
func (f Field) Kind() ir.Kind {
	switch f {
	case FieldSeq:
		return ir.KindInt
	case FieldRunID, FieldPattern, FieldType, FieldMode, FieldBindingHash, FieldLabel, FieldVia:
		return ir.KindString
	default:
		return ir.KindInvalid
	}
}

// Select returns the decompositions matching Filter.
//
//	Select{
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: FieldType, Value: ir.IRString("Album")},
//	    Prefix{Field: FieldVia, Prefix: "extension:Nullable"},
//	  }},
//	  Limit: 10,
//	}
type Select struct {
	Filter Predicate // nil = every decomposition
	Limit  int       // 0 = no limit
}

func (Select) queryNode() {}

// Equals holds when the field equals Value.
// Value must be an ir.IRString or ir.IRInt matching the field kind.
type Equals struct {
	Field Field
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// Prefix holds when the string field starts with Prefix.
// Comparison is byte-wise and case-sensitive.
type Prefix struct {
	Field  Field
	Prefix string
}

func (Prefix) predicateNode() {}

// And holds when every predicate holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Conjoin combines predicates into one. It returns nil for none and the
// predicate itself for one.
func Conjoin(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return And{Predicates: preds}
	}
}
