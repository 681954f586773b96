// Package queryir is a small query representation for filtering recorded
// decompositions.
//
// A Select names the predicates a decomposition must satisfy. Backends
// compile it to their own query language; querysql targets SQLite.
//
//	[--where flags] → ParseWhere → [Query IR] → querysql → SQL
//
// Fields:
//
//	run_id, pattern, type, mode, binding_hash   string columns of a decomposition
//	seq                                         int column
//	label                                       label of the owning run
//	via                                         any resolved decomposition name
//
// Predicates:
//   - Equals: field = value
//   - Prefix: field starts with a string (string fields only)
//   - And: all predicates hold; empty And is always true
//
// Results are always ordered by run_id, seq, id so that the same query over
// the same store returns the same rows.
package queryir
