package ir

import "fmt"

// Plain converts a value into plain Go data (string, int64, bool, []any,
// map[string]any) suitable for MarshalCanonical and human-readable JSON.
//
// Renderings:
//   - decimal, date: their string form
//   - optional: {"present": false} or {"present": true, "value": ...}
//   - tuple, entry: arrays
//   - record: object keyed by field name
//   - map: array of [key, value] arrays in iteration order
func Plain(v IRValue) any {
	switch val := v.(type) {
	case IRString:
		return string(val)
	case IRInt:
		return int64(val)
	case IRBool:
		return bool(val)
	case IRDecimal:
		return val.String()
	case IRDate:
		return val.String()
	case IROptional:
		if !val.Present {
			return map[string]any{"present": false}
		}
		return map[string]any{"present": true, "value": Plain(val.Value)}
	case IRTuple:
		return plainList(val)
	case IREntry:
		return []any{Plain(val.Key), Plain(val.Value)}
	case IRRecord:
		obj := make(map[string]any, len(val.Fields))
		for i, f := range val.Spec.Fields {
			if i < len(val.Fields) {
				obj[f.Name] = Plain(val.Fields[i])
			}
		}
		return obj
	case *IRMap:
		out := make([]any, 0, val.Len())
		for e := range val.Entries() {
			out = append(out, []any{Plain(e.Key), Plain(e.Value)})
		}
		return out
	case IRArray:
		return plainList(val)
	case IRObject:
		obj := make(map[string]any, len(val))
		for k, elem := range val {
			obj[k] = Plain(elem)
		}
		return obj
	default:
		return fmt.Sprintf("%v", v)
	}
}

func plainList[S ~[]IRValue](vals S) []any {
	out := make([]any, len(vals))
	for i, elem := range vals {
		out[i] = Plain(elem)
	}
	return out
}

// Format renders a value for text output.
func Format(v IRValue) string {
	switch val := v.(type) {
	case IRString:
		return string(val)
	case IROptional:
		if !val.Present {
			return "none"
		}
		return "some(" + Format(val.Value) + ")"
	case IRTuple:
		return "(" + joinFormatted(val) + ")"
	case IREntry:
		return "[" + Format(val.Key) + ", " + Format(val.Value) + "]"
	case IRRecord:
		return val.Spec.Name + "(" + joinFormatted(val.Fields) + ")"
	case *IRMap:
		s := "{"
		i := 0
		for e := range val.Entries() {
			if i > 0 {
				s += ", "
			}
			s += Format(e.Key) + ": " + Format(e.Value)
			i++
		}
		return s + "}"
	default:
		return fmt.Sprintf("%v", Plain(v))
	}
}

func joinFormatted(vals []IRValue) string {
	s := ""
	for i, v := range vals {
		if i > 0 {
			s += ", "
		}
		s += Format(v)
	}
	return s
}
