// Package decon provides the Go-native form of the decomposition protocol.
//
// In Go the call-site syntax already exists: a method or function with N
// results is decomposed by a multi-value assignment, and a blank identifier
// discards a slot. The compiler resolves arity and part types statically:
//
//	id, name, price, date := album.Deconstruct()
//	_, name, _, _ = album.Deconstruct()
//
// The package adds the pieces that are not built in:
//
//   - Deconstructor2..4: interfaces for invoking a decomposition
//     polymorphically (intrinsic decompositions satisfy them).
//   - Optional, DeconstructPointer, DeconstructNull: the wrapped-optional
//     decomposition, attached externally to Go's own nullable shapes.
//   - Pair and OrderedMap: the structural keyed pair and an
//     insertion-ordered mapping whose entries decompose into (key, value).
//
// Nested decomposition has no syntax in Go; decompose the outer value and
// then the slot. The data-driven runtime in internal/engine implements
// nested patterns as an explicit recursive matcher.
package decon
