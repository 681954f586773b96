package engine

import (
	"fmt"

	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/pkg/decon"
)

// Mode selects how a pattern's names are bound.
type Mode string

const (
	// ModeDeclare binds fresh names. A name already in scope is an error.
	ModeDeclare Mode = "declare"

	// ModeAssign re-populates names already in scope with values of the
	// same type.
	ModeAssign Mode = "assign"
)

// ParseMode checks if mode is a valid mode.
// Empty defaults to ModeDeclare.
func ParseMode(mode string) (Mode, error) {
	switch Mode(mode) {
	case ModeDeclare, ModeAssign:
		return Mode(mode), nil
	case "":
		return ModeDeclare, nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be declare or assign", mode)
	}
}

// Scope holds the names visible to a sequence of decompositions, with
// their static types and current values.
//
// Thread-safety: Scope is NOT safe for concurrent use.
type Scope struct {
	vars *decon.OrderedMap[string, Binding]
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{vars: decon.NewOrderedMap[string, Binding]()}
}

// Declare adds a name. Declaring a name twice is an error.
func (s *Scope) Declare(name string, t ir.Type, v ir.IRValue) error {
	if _, ok := s.vars.Get(name); ok {
		return fmt.Errorf("%q is already declared", name)
	}
	s.vars.Set(name, Binding{Name: name, Type: t, Value: v})
	return nil
}

// Lookup returns the binding for name.
func (s *Scope) Lookup(name string) (Binding, bool) {
	if s == nil {
		return Binding{}, false
	}
	return s.vars.Get(name)
}

// Len returns the number of names in scope.
func (s *Scope) Len() int {
	return s.vars.Len()
}

// Names returns the names in declaration order.
func (s *Scope) Names() []string {
	return s.vars.Keys()
}

// apply stores bindings produced by a plan compiled against this scope.
// The plan's static checks guarantee that declared names are fresh and
// assigned names exist with the same type.
func (s *Scope) apply(b *Bindings) {
	if s == nil {
		return
	}
	for v := range b.All() {
		s.vars.Set(v.Name, v)
	}
}

// shape renders the scope entries for names, for plan cache keys.
func (s *Scope) shape(names []string) string {
	key := ""
	for _, n := range names {
		if b, ok := s.Lookup(n); ok {
			key += n + ":" + b.Type.String() + ";"
		} else {
			key += n + ":-;"
		}
	}
	return key
}
