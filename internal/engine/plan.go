package engine

import (
	"fmt"
	"strconv"

	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/internal/pattern"
)

// Plan is a pattern resolved against a type. All static checks have
// passed; Bind cannot fail.
type Plan struct {
	Pattern *pattern.Nested
	Type    ir.Type
	Mode    Mode

	root *planNode
}

type planNode struct {
	decomp *Decomposition
	slots  []planSlot
}

type planSlot struct {
	name  string // empty for discards and nested slots
	typ   ir.Type
	child *planNode
}

// Compile resolves pat against t.
//
// Resolution proceeds outer to inner. The first error found is returned;
// see ResolveError for the codes. In ModeDeclare every name must be fresh
// in scope and unique in the pattern. In ModeAssign every name must be in
// scope with exactly the type of its part. scope may be nil.
func Compile(reg *Registry, pat *pattern.Nested, t ir.Type, scope *Scope, mode Mode) (*Plan, error) {
	c := &planCompiler{reg: reg, pattern: pat.String(), scope: scope, mode: mode, seen: make(map[string]bool)}
	root, err := c.compile(pat, t, "$")
	if err != nil {
		return nil, err
	}
	return &Plan{Pattern: pat, Type: t, Mode: mode, root: root}, nil
}

type planCompiler struct {
	reg     *Registry
	pattern string
	scope   *Scope
	mode    Mode
	seen    map[string]bool
}

func (c *planCompiler) compile(n *pattern.Nested, t ir.Type, path string) (*planNode, error) {
	d, err := c.reg.Resolve(t, n.Arity())
	if err != nil {
		if re, ok := err.(*ResolveError); ok {
			re.Pattern = c.pattern
			re.Path = path
			return nil, re
		}
		return nil, err
	}

	node := &planNode{decomp: d, slots: make([]planSlot, len(n.Slots))}
	for i, s := range n.Slots {
		part := d.Parts[i]
		slot := planSlot{typ: part.Type}
		slotPath := path + "[" + strconv.Itoa(i) + "]"

		switch s := s.(type) {
		case pattern.Leaf:
			if err := c.checkName(s.Name, part.Type, slotPath); err != nil {
				return nil, err
			}
			slot.name = s.Name
		case pattern.Discard:
		case *pattern.Nested:
			child, err := c.compile(s, part.Type, slotPath)
			if err != nil {
				return nil, err
			}
			slot.child = child
		}
		node.slots[i] = slot
	}
	return node, nil
}

func (c *planCompiler) checkName(name string, t ir.Type, path string) error {
	fail := func(code ResolveErrorCode, format string, args ...any) error {
		return &ResolveError{
			Code:    code,
			Message: fmt.Sprintf(format, args...),
			Pattern: c.pattern,
			Path:    path,
			Type:    t.String(),
		}
	}

	if c.seen[name] {
		return fail(ErrCodeDuplicateBinding, "%q is bound twice in the pattern", name)
	}
	c.seen[name] = true

	existing, inScope := c.scope.Lookup(name)
	switch c.mode {
	case ModeAssign:
		if !inScope {
			return fail(ErrCodeUndeclaredBinding, "cannot assign to undeclared %q", name)
		}
		if !existing.Type.Equal(t) {
			return fail(ErrCodeBindingTypeMismatch, "cannot assign %s to %q of type %s", t, name, existing.Type)
		}
	default:
		if inScope {
			return fail(ErrCodeDuplicateBinding, "%q is already declared", name)
		}
	}
	return nil
}

// Bind decomposes v and returns its bindings. v must conform to p.Type;
// given that, Bind never fails.
func (p *Plan) Bind(v ir.IRValue) *Bindings {
	b := newBindings()
	p.root.bind(v, b)
	return b
}

func (n *planNode) bind(v ir.IRValue, b *Bindings) {
	parts := n.decomp.Apply(v)
	for i, s := range n.slots {
		switch {
		case s.child != nil:
			s.child.bind(parts[i], b)
		case s.name != "":
			b.m.Set(s.name, Binding{Name: s.name, Type: s.typ, Value: parts[i]})
		}
	}
}

// Resolved lists the decompositions used, outer to inner, left to right.
func (p *Plan) Resolved() []string {
	var out []string
	var walk func(*planNode)
	walk = func(n *planNode) {
		out = append(out, n.decomp.String())
		for _, s := range n.slots {
			if s.child != nil {
				walk(s.child)
			}
		}
	}
	walk(p.root)
	return out
}

// Declares returns the names a declaring plan introduces with their types,
// in binding order.
func (p *Plan) Declares() []Binding {
	var out []Binding
	var walk func(*planNode)
	walk = func(n *planNode) {
		for _, s := range n.slots {
			switch {
			case s.child != nil:
				walk(s.child)
			case s.name != "":
				out = append(out, Binding{Name: s.name, Type: s.typ})
			}
		}
	}
	walk(p.root)
	return out
}
