package engine

import (
	"fmt"

	"github.com/roach88/decon/internal/ir"
)

// projection reads one part out of a value. Projections never fail on a
// value that conforms to the type they were compiled for.
type projection func(ir.IRValue) ir.IRValue

// compileProjection compiles a path against a concrete root type.
// Record field names are resolved to indexes here, once.
func compileProjection(path ir.Path, root ir.Type, records ir.RecordLookup) (projection, ir.Type, error) {
	steps := make([]projection, 0, len(path))
	t := root
	for _, s := range path {
		step, next, err := compileStep(s, t, records)
		if err != nil {
			return nil, ir.Type{}, fmt.Errorf("path %s: %w", path, err)
		}
		steps = append(steps, step)
		t = next
	}

	if len(steps) == 1 {
		return steps[0], t, nil
	}
	return func(v ir.IRValue) ir.IRValue {
		for _, step := range steps {
			v = step(v)
		}
		return v
	}, t, nil
}

func compileStep(s ir.Step, t ir.Type, records ir.RecordLookup) (projection, ir.Type, error) {
	next, err := ir.Path{s}.TypeOf(t, records)
	if err != nil {
		return nil, ir.Type{}, err
	}

	switch t.Kind {
	case ir.KindRecord:
		spec, _ := records(t.Name)
		idx := spec.FieldIndex(s.Name)
		return func(v ir.IRValue) ir.IRValue {
			return v.(ir.IRRecord).Fields[idx]
		}, next, nil
	case ir.KindOptional:
		if s.Name == "present" {
			return func(v ir.IRValue) ir.IRValue {
				present, _ := v.(ir.IROptional).Deconstruct()
				return ir.IRBool(present)
			}, next, nil
		}
		return func(v ir.IRValue) ir.IRValue {
			_, payload := v.(ir.IROptional).Deconstruct()
			return payload
		}, next, nil
	case ir.KindEntry:
		if s.Name == "key" {
			return func(v ir.IRValue) ir.IRValue {
				k, _ := v.(ir.IREntry).Deconstruct()
				return k
			}, next, nil
		}
		return func(v ir.IRValue) ir.IRValue {
			_, val := v.(ir.IREntry).Deconstruct()
			return val
		}, next, nil
	case ir.KindTuple:
		i := s.Index
		return func(v ir.IRValue) ir.IRValue {
			return v.(ir.IRTuple)[i]
		}, next, nil
	default:
		return nil, ir.Type{}, fmt.Errorf("%s has no member %s", t, s)
	}
}
