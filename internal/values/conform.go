package values

import (
	"github.com/roach88/decon/internal/ir"
)

// Conforms reports whether v is a well-formed value of type t.
// Values built by Decode always conform to the type they were decoded as.
//
// Records are checked against the spec records resolves for t, so a
// record built from another spec set of the same name is rejected unless
// its fields match in count, name and type. With a nil lookup the
// record's own spec is trusted.
func Conforms(v ir.IRValue, t ir.Type, records ir.RecordLookup) bool {
	switch t.Kind {
	case ir.KindInt:
		_, ok := v.(ir.IRInt)
		return ok
	case ir.KindString:
		_, ok := v.(ir.IRString)
		return ok
	case ir.KindBool:
		_, ok := v.(ir.IRBool)
		return ok
	case ir.KindDecimal:
		_, ok := v.(ir.IRDecimal)
		return ok
	case ir.KindDate:
		_, ok := v.(ir.IRDate)
		return ok
	case ir.KindOptional:
		o, ok := v.(ir.IROptional)
		// The payload is always well defined, present or not
		return ok && Conforms(o.Value, t.Elem(0), records)
	case ir.KindTuple:
		tuple, ok := v.(ir.IRTuple)
		if !ok || len(tuple) != len(t.Args) {
			return false
		}
		for i := range tuple {
			if !Conforms(tuple[i], t.Args[i], records) {
				return false
			}
		}
		return true
	case ir.KindEntry:
		e, ok := v.(ir.IREntry)
		return ok && Conforms(e.Key, t.Elem(0), records) && Conforms(e.Value, t.Elem(1), records)
	case ir.KindMap:
		m, ok := v.(*ir.IRMap)
		if !ok {
			return false
		}
		for e := range m.Entries() {
			if !Conforms(e.Key, t.Elem(0), records) || !Conforms(e.Value, t.Elem(1), records) {
				return false
			}
		}
		return true
	case ir.KindRecord:
		r, ok := v.(ir.IRRecord)
		if !ok || r.Spec == nil || r.Spec.Name != t.Name {
			return false
		}
		spec := r.Spec
		if records != nil {
			want, found := records(t.Name)
			if !found || !sameFields(r.Spec, want) {
				return false
			}
			spec = want
		}
		if len(r.Fields) != len(spec.Fields) {
			return false
		}
		for i, f := range spec.Fields {
			if !Conforms(r.Fields[i], f.Type, records) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// sameFields reports whether two record specs lay out identical fields.
func sameFields(a, b *ir.RecordSpec) bool {
	if a == b {
		return true
	}
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i].Name != b.Fields[i].Name || !a.Fields[i].Type.Equal(b.Fields[i].Type) {
			return false
		}
	}
	return true
}
