package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is one segment of a projection path: a field or member name, or
// a tuple index.
type Step struct {
	Name  string
	Index int // valid when Name is empty
}

func (s Step) String() string {
	if s.Name == "" {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name
}

// Path is a parsed projection such as "release_date.value" or "[1]".
// Projections read parts out of a value; they never compute.
type Path []Step

func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 && s.Name != "" {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// PathError reports a malformed or ill-typed projection.
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %q: %s", e.Path, e.Message)
}

// ParsePath parses a projection path.
//
//	path := step { "." name | "[" int "]" }
//	step := name | "[" int "]"
func ParsePath(src string) (Path, error) {
	if src == "" {
		return nil, &PathError{Path: src, Message: "empty path"}
	}

	var p Path
	rest := src
	first := true
	for rest != "" {
		switch {
		case rest[0] == '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, &PathError{Path: src, Message: "unclosed '['"}
			}
			i, err := strconv.Atoi(rest[1:end])
			if err != nil || i < 0 {
				return nil, &PathError{Path: src, Message: fmt.Sprintf("invalid index %q", rest[1:end])}
			}
			p = append(p, Step{Index: i})
			rest = rest[end+1:]
		case rest[0] == '.' && !first:
			rest = rest[1:]
			n := identLen(rest)
			if n == 0 {
				return nil, &PathError{Path: src, Message: "expected name after '.'"}
			}
			p = append(p, Step{Name: rest[:n]})
			rest = rest[n:]
		case first:
			n := identLen(rest)
			if n == 0 {
				return nil, &PathError{Path: src, Message: "expected name or '['"}
			}
			p = append(p, Step{Name: rest[:n]})
			rest = rest[n:]
		default:
			return nil, &PathError{Path: src, Message: fmt.Sprintf("unexpected %q", rest)}
		}
		first = false
	}
	return p, nil
}

func identLen(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || (n > 0 && '0' <= c && c <= '9') {
			n++
			continue
		}
		break
	}
	return n
}

// RecordLookup resolves record names while typing paths.
type RecordLookup func(name string) (*RecordSpec, bool)

// TypeOf returns the type reached by following p from a value of type
// root. Members are:
//
//	record        field names
//	optional<T>   present (bool), value (T)
//	entry<K,V>    key (K), value (V)
//	tuple<...>    [i]
//
// Type parameters are opaque: no member of a parameter can be projected.
func (p Path) TypeOf(root Type, records RecordLookup) (Type, error) {
	t := root
	for i, s := range p {
		next, err := stepType(t, s, records)
		if err != nil {
			return Type{}, &PathError{Path: p.String(), Message: fmt.Sprintf("step %d (%s): %v", i, s, err)}
		}
		t = next
	}
	return t, nil
}

func stepType(t Type, s Step, records RecordLookup) (Type, error) {
	switch t.Kind {
	case KindRecord:
		if s.Name == "" {
			return Type{}, fmt.Errorf("record %s cannot be indexed", t.Name)
		}
		if records == nil {
			return Type{}, fmt.Errorf("unknown record %s", t.Name)
		}
		rec, ok := records(t.Name)
		if !ok {
			return Type{}, fmt.Errorf("unknown record %s", t.Name)
		}
		idx := rec.FieldIndex(s.Name)
		if idx < 0 {
			return Type{}, fmt.Errorf("record %s has no field %q", t.Name, s.Name)
		}
		return rec.Fields[idx].Type, nil
	case KindOptional:
		switch s.Name {
		case "present":
			return TypeBool, nil
		case "value":
			return t.Elem(0), nil
		}
	case KindEntry:
		switch s.Name {
		case "key":
			return t.Elem(0), nil
		case "value":
			return t.Elem(1), nil
		}
	case KindTuple:
		if s.Name == "" {
			if s.Index >= len(t.Args) {
				return Type{}, fmt.Errorf("index %d out of range for %s", s.Index, t)
			}
			return t.Args[s.Index], nil
		}
	case KindParam:
		return Type{}, fmt.Errorf("type parameter %s is opaque", t.Name)
	}
	return Type{}, fmt.Errorf("%s has no member %s", t, s)
}

// MustParsePath is like ParsePath but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParsePath(src string) Path {
	p, err := ParsePath(src)
	if err != nil {
		panic(err)
	}
	return p
}
