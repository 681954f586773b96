package engine

import "github.com/roach88/decon/internal/ir"

// unify matches a generic target against a concrete type, extending sub
// with parameter bindings. A parameter bound twice must bind equal types.
func unify(target, concrete ir.Type, sub map[string]ir.Type) bool {
	if target.Kind == ir.KindParam {
		if bound, ok := sub[target.Name]; ok {
			return bound.Equal(concrete)
		}
		sub[target.Name] = concrete
		return true
	}
	if target.Kind != concrete.Kind || target.Name != concrete.Name || len(target.Args) != len(concrete.Args) {
		return false
	}
	for i := range target.Args {
		if !unify(target.Args[i], concrete.Args[i], sub) {
			return false
		}
	}
	return true
}
