// Package engine resolves and performs decompositions of IR values.
//
// A decomposition request pairs a pattern such as "(_, name, (has, date))"
// with the static type of the value being taken apart. The engine works in
// two phases:
//
// Planning (static):
// The pattern is resolved against the type one level at a time. Each list
// of N slots selects the unique decomposition of arity N for its type:
//  1. intrinsic (declared by a record) or structural (tuples, map entries)
//  2. otherwise an externally attached extension whose target unifies
//     with the type
//
// No candidate of arity N is ArityMismatch (E201) when other arities exist
// and MissingDecomposition (E203) when none do. Two or more extensions
// with no intrinsic candidate is AmbiguousDecomposition (E202). Binding
// names are checked against the scope in the same phase. Plans are cached.
//
// Binding (runtime):
// A plan binds a conformant value by evaluating projections only. Binding
// cannot fail and produces bindings left to right, outer to inner.
//
// CRITICAL PATTERNS:
//
// CP-2: Logical Clock
// Every recorded decomposition is stamped with a monotonic seq from
// Clock.Next(). NEVER use wall-clock timestamps for ordering.
//
// Deterministic resolution:
// Candidates are considered in declaration order and maps iterate in
// insertion order, so the same inputs always produce the same trace.
package engine
