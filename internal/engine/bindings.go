package engine

import (
	"iter"

	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/pkg/decon"
)

// Binding is one name bound by a decomposition.
type Binding struct {
	Name  string
	Type  ir.Type
	Value ir.IRValue
}

// Bindings are the names bound by one decomposition, in binding order:
// left to right, outer to inner. Discarded slots have no entry.
type Bindings struct {
	m *decon.OrderedMap[string, Binding]
}

func newBindings() *Bindings {
	return &Bindings{m: decon.NewOrderedMap[string, Binding]()}
}

// Get returns the binding for name.
func (b *Bindings) Get(name string) (Binding, bool) {
	return b.m.Get(name)
}

// Value returns the value bound to name, or nil.
func (b *Bindings) Value(name string) ir.IRValue {
	v, _ := b.m.Get(name)
	return v.Value
}

// Len returns the number of bindings.
func (b *Bindings) Len() int {
	return b.m.Len()
}

// Names returns the bound names in binding order.
func (b *Bindings) Names() []string {
	return b.m.Keys()
}

// All yields bindings in binding order.
func (b *Bindings) All() iter.Seq[Binding] {
	return func(yield func(Binding) bool) {
		for _, v := range b.m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Plain renders the bindings for canonical JSON: a list of
// {"name", "type", "value"} objects in binding order.
func (b *Bindings) Plain() []any {
	out := make([]any, 0, b.m.Len())
	for v := range b.All() {
		out = append(out, map[string]any{
			"name":  v.Name,
			"type":  v.Type.String(),
			"value": ir.Plain(v.Value),
		})
	}
	return out
}

// Object renders the bindings as a name → plain value object.
func (b *Bindings) Object() map[string]any {
	out := make(map[string]any, b.m.Len())
	for v := range b.All() {
		out[v.Name] = ir.Plain(v.Value)
	}
	return out
}
