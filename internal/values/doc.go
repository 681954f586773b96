// Package values builds typed IR values from YAML literals.
//
// Literals come from scenario files and the command line. Decoding checks
// the literal against its declared type once, up front, so that every
// value reaching the engine is conformant and decomposition cannot fail.
//
// Literal forms by type:
//
//	int, bool, string     YAML scalars
//	decimal               number or string, e.g. 9.99 or "9.99"
//	date                  YYYY-MM-DD
//	optional<T>           null for absent, otherwise a T literal
//	tuple<...>            sequence of exactly N literals
//	entry<K,V>            two-element sequence [key, value]
//	map<K,V>              mapping, or sequence of [key, value] pairs
//	record                mapping by field name, or positional sequence
//
// Mapping order is preserved, so map literals iterate in the order written.
package values
