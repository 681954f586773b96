package ir

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// Kind classifies a type expression.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindString
	KindBool
	KindDecimal
	KindDate
	KindOptional // optional<T>
	KindTuple    // tuple<T1,...,Tn>
	KindMap      // map<K,V>
	KindEntry    // entry<K,V>
	KindRecord   // a record declared in a spec
	KindParam    // a type parameter of an extension
)

// Type is a parsed type expression such as "optional<date>".
type Type struct {
	Kind Kind
	Name string // record or parameter name
	Args []Type // element types for optional, tuple, map and entry
}

// Primitive types.
var (
	TypeInt     = Type{Kind: KindInt}
	TypeString  = Type{Kind: KindString}
	TypeBool    = Type{Kind: KindBool}
	TypeDecimal = Type{Kind: KindDecimal}
	TypeDate    = Type{Kind: KindDate}
)

var primitiveNames = map[string]Type{
	"int":     TypeInt,
	"string":  TypeString,
	"bool":    TypeBool,
	"decimal": TypeDecimal,
	"date":    TypeDate,
}

// OptionalOf returns optional<elem>.
func OptionalOf(elem Type) Type {
	return Type{Kind: KindOptional, Args: []Type{elem}}
}

// TupleOf returns tuple<elems...>.
func TupleOf(elems ...Type) Type {
	return Type{Kind: KindTuple, Args: elems}
}

// MapOf returns map<key,value>.
func MapOf(key, value Type) Type {
	return Type{Kind: KindMap, Args: []Type{key, value}}
}

// EntryOf returns entry<key,value>.
func EntryOf(key, value Type) Type {
	return Type{Kind: KindEntry, Args: []Type{key, value}}
}

// RecordType returns the type of the named record.
func RecordType(name string) Type {
	return Type{Kind: KindRecord, Name: name}
}

// ParamType returns a type parameter reference.
func ParamType(name string) Type {
	return Type{Kind: KindParam, Name: name}
}

// Elem returns the i-th type argument.
func (t Type) Elem(i int) Type {
	if i < 0 || i >= len(t.Args) {
		return Type{}
	}
	return t.Args[i]
}

// String renders the type in the syntax accepted by ParseType.
func (t Type) String() string {
	switch t.Kind {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindDecimal:
		return "decimal"
	case KindDate:
		return "date"
	case KindOptional:
		return "optional<" + joinTypes(t.Args) + ">"
	case KindTuple:
		return "tuple<" + joinTypes(t.Args) + ">"
	case KindMap:
		return "map<" + joinTypes(t.Args) + ">"
	case KindEntry:
		return "entry<" + joinTypes(t.Args) + ">"
	case KindRecord, KindParam:
		return t.Name
	default:
		return "<invalid>"
	}
}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// MarshalText renders the type for JSON output.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Name != o.Name || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// HasParams reports whether the type mentions any type parameter.
func (t Type) HasParams() bool {
	if t.Kind == KindParam {
		return true
	}
	return slices.ContainsFunc(t.Args, Type.HasParams)
}

// Params appends the names of parameters mentioned by t to dst.
func (t Type) Params(dst []string) []string {
	if t.Kind == KindParam && !slices.Contains(dst, t.Name) {
		return append(dst, t.Name)
	}
	for _, a := range t.Args {
		dst = a.Params(dst)
	}
	return dst
}

// Substitute replaces type parameters using sub.
// Parameters missing from sub are left in place.
func (t Type) Substitute(sub map[string]Type) Type {
	if t.Kind == KindParam {
		if r, ok := sub[t.Name]; ok {
			return r
		}
		return t
	}
	if len(t.Args) == 0 {
		return t
	}
	args := make([]Type, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Substitute(sub)
	}
	return Type{Kind: t.Kind, Name: t.Name, Args: args}
}

// Records appends the names of records mentioned by t to dst.
func (t Type) Records(dst []string) []string {
	if t.Kind == KindRecord && !slices.Contains(dst, t.Name) {
		dst = append(dst, t.Name)
	}
	for _, a := range t.Args {
		dst = a.Records(dst)
	}
	return dst
}

// TypeError reports a malformed type expression.
type TypeError struct {
	Expr    string
	Offset  int
	Message string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type %q at offset %d: %s", e.Expr, e.Offset, e.Message)
}

// ParseType parses a type expression. Identifiers listed in params are
// type parameters; other capitalised identifiers are record names.
func ParseType(expr string, params ...string) (Type, error) {
	p := &typeParser{src: expr, params: params}
	t, err := p.parse()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Type{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseType(expr string, params ...string) Type {
	t, err := ParseType(expr, params...)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src    string
	pos    int
	params []string
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &TypeError{Expr: p.src, Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if r == '_' || unicode.IsLetter(r) || (p.pos > start && unicode.IsDigit(r)) {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) parse() (Type, error) {
	name := p.ident()
	if name == "" {
		return Type{}, p.errorf("expected type name")
	}

	if t, ok := primitiveNames[name]; ok {
		return t, nil
	}
	if slices.Contains(p.params, name) {
		return ParamType(name), nil
	}

	var kind Kind
	var arity int // 0 = variadic (two or more)
	switch name {
	case "optional":
		kind, arity = KindOptional, 1
	case "tuple":
		kind = KindTuple
	case "map":
		kind, arity = KindMap, 2
	case "entry":
		kind, arity = KindEntry, 2
	default:
		if !unicode.IsUpper(rune(name[0])) {
			return Type{}, p.errorf("unknown type %q", name)
		}
		return RecordType(name), nil
	}

	args, err := p.args()
	if err != nil {
		return Type{}, err
	}
	if arity > 0 && len(args) != arity {
		return Type{}, p.errorf("%s takes %d type argument(s), got %d", name, arity, len(args))
	}
	if arity == 0 && len(args) < 2 {
		return Type{}, p.errorf("tuple needs at least 2 elements, got %d", len(args))
	}
	if kind == KindMap || kind == KindEntry {
		if k := args[0].Kind; k != KindString && k != KindInt && k != KindParam {
			return Type{}, p.errorf("%s key must be string or int, got %s", name, args[0])
		}
	}
	return Type{Kind: kind, Args: args}, nil
}

func (p *typeParser) args() ([]Type, error) {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '<' {
		return nil, p.errorf("expected '<'")
	}
	p.pos++

	var args []Type
	for {
		t, err := p.parse()
		if err != nil {
			return nil, err
		}
		args = append(args, t)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated type arguments")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '>':
			p.pos++
			return args, nil
		default:
			return nil, p.errorf("expected ',' or '>'")
		}
	}
}
