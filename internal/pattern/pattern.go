package pattern

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Node is one slot of a pattern tree.
// Implemented by Leaf, Discard and *Nested.
type Node interface {
	node()
	String() string
}

// Leaf binds a part to a name.
type Leaf struct {
	Name string
}

func (Leaf) node() {}

func (l Leaf) String() string { return l.Name }

// Discard consumes a part without binding it.
type Discard struct{}

func (Discard) node() {}

func (Discard) String() string { return "_" }

// Nested decomposes a part again.
type Nested struct {
	Slots []Node
}

func (*Nested) node() {}

// String renders the canonical form, e.g. "(_, name, (has, date))".
func (n *Nested) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, s := range n.Slots {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Arity returns the number of top-level slots.
func (n *Nested) Arity() int {
	return len(n.Slots)
}

// Names returns the bound names in binding order: left to right, outer
// to inner. Discards contribute nothing.
func (n *Nested) Names() []string {
	var names []string
	var walk func(*Nested)
	walk = func(p *Nested) {
		for _, s := range p.Slots {
			switch s := s.(type) {
			case Leaf:
				names = append(names, s.Name)
			case *Nested:
				walk(s)
			}
		}
	}
	walk(n)
	return names
}

// SyntaxError reports a malformed pattern.
type SyntaxError struct {
	Pattern string
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pattern %q at offset %d: %s", e.Pattern, e.Offset, e.Message)
}

// Parse parses a pattern. The top level must be a parenthesised list.
// Every list, nested ones included, needs at least two slots.
func Parse(src string) (*Nested, error) {
	p := &parser{src: src}
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("empty pattern")
	}
	if p.src[p.pos] != '(' {
		return nil, p.errorf("pattern must start with '('")
	}
	n, err := p.list()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q after pattern", p.src[p.pos:])
	}
	return n, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParse(src string) *Nested {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pattern: p.src, Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += size
	}
}

// list parses "(" slot { "," slot } ")" with p.pos at the open paren.
func (p *parser) list() (*Nested, error) {
	open := p.pos
	p.pos++

	n := &Nested{}
	for {
		slot, err := p.slot()
		if err != nil {
			return nil, err
		}
		n.Slots = append(n.Slots, slot)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unclosed '(' at offset %d", open)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			if len(n.Slots) < 2 {
				return nil, &SyntaxError{
					Pattern: p.src,
					Offset:  open,
					Message: fmt.Sprintf("a pattern needs at least 2 slots, got %d", len(n.Slots)),
				}
			}
			return n, nil
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}

func (p *parser) slot() (Node, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("expected slot")
	}
	if p.src[p.pos] == '(' {
		return p.list()
	}

	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if r == '_' || unicode.IsLetter(r) || (p.pos > start && unicode.IsDigit(r)) {
			p.pos += size
			continue
		}
		break
	}
	name := p.src[start:p.pos]
	switch name {
	case "":
		return nil, p.errorf("expected name, '_' or '('")
	case "_":
		return Discard{}, nil
	}
	return Leaf{Name: name}, nil
}
