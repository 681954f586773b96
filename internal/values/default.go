package values

import (
	"time"

	"github.com/roach88/decon/internal/ir"
)

// Default returns the default value of t: the payload carried by an
// absent optional<t>.
//
//	int 0, string "", bool false, decimal 0, date 0001-01-01,
//	optional absent, map empty, tuple/entry/record element-wise.
//
// Record types must not be recursive (see compiler E111).
func Default(t ir.Type, records ir.RecordLookup) ir.IRValue {
	switch t.Kind {
	case ir.KindInt:
		return ir.IRInt(0)
	case ir.KindString:
		return ir.IRString("")
	case ir.KindBool:
		return ir.IRBool(false)
	case ir.KindDecimal:
		return ir.IRDecimal{}
	case ir.KindDate:
		return ir.IRDate{Year: 1, Month: time.January, Day: 1}
	case ir.KindOptional:
		return ir.IROptional{Present: false, Value: Default(t.Elem(0), records)}
	case ir.KindTuple:
		tuple := make(ir.IRTuple, len(t.Args))
		for i, a := range t.Args {
			tuple[i] = Default(a, records)
		}
		return tuple
	case ir.KindEntry:
		return ir.IREntry{Key: Default(t.Elem(0), records), Value: Default(t.Elem(1), records)}
	case ir.KindMap:
		return ir.NewIRMap(ir.KeysOrdinal)
	case ir.KindRecord:
		spec := &ir.RecordSpec{Name: t.Name}
		if records != nil {
			if s, ok := records(t.Name); ok {
				spec = s
			}
		}
		fields := make([]ir.IRValue, len(spec.Fields))
		for i, f := range spec.Fields {
			fields[i] = Default(f.Type, records)
		}
		return ir.IRRecord{Spec: spec, Fields: fields}
	default:
		return nil
	}
}
