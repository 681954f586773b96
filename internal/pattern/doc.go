// Package pattern parses decomposition patterns.
//
// A pattern is a parenthesised list of two or more slots:
//
//	(slot1, slot2, ..., slotN)
//	slot := name | _ | pattern
//
// Names bind the corresponding part, "_" discards it and a nested
// pattern decomposes the part again. The tree is resolved against a type
// by the engine; this package only knows about syntax.
package pattern
