package decon

import "database/sql"

// Deconstructor2 is implemented by values that decompose into two parts.
type Deconstructor2[A, B any] interface {
	Deconstruct() (A, B)
}

// Deconstructor3 is implemented by values that decompose into three parts.
type Deconstructor3[A, B, C any] interface {
	Deconstruct() (A, B, C)
}

// Deconstructor4 is implemented by values that decompose into four parts.
type Deconstructor4[A, B, C, D any] interface {
	Deconstruct() (A, B, C, D)
}

// Unpack2 invokes a two-part decomposition through the interface.
func Unpack2[A, B any](d Deconstructor2[A, B]) (A, B) {
	return d.Deconstruct()
}

// Unpack3 invokes a three-part decomposition through the interface.
func Unpack3[A, B, C any](d Deconstructor3[A, B, C]) (A, B, C) {
	return d.Deconstruct()
}

// Unpack4 invokes a four-part decomposition through the interface.
func Unpack4[A, B, C, D any](d Deconstructor4[A, B, C, D]) (A, B, C, D) {
	return d.Deconstruct()
}

// Optional holds a value that may be absent.
// The zero Optional is absent.
type Optional[T any] struct {
	value   T
	present bool
}

// Some returns a present Optional wrapping v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the payload and whether it is present.
// The payload is the zero value of T when absent.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// Present reports whether the Optional holds a value.
func (o Optional[T]) Present() bool {
	return o.present
}

// OrZero returns the payload, or the zero value of T when absent.
func (o Optional[T]) OrZero() T {
	return o.value
}

// DeconstructOptional splits an Optional into (present, payload).
// The payload is the zero value of T when present is false; callers must
// not trust it in that case.
func DeconstructOptional[T any](o Optional[T]) (bool, T) {
	return o.present, o.value
}

// DeconstructPointer attaches the wrapped-optional decomposition to *T.
// A nil pointer yields (false, zero T).
func DeconstructPointer[T any](p *T) (bool, T) {
	if p == nil {
		var zero T
		return false, zero
	}
	return true, *p
}

// DeconstructNull attaches the wrapped-optional decomposition to sql.Null.
func DeconstructNull[T any](n sql.Null[T]) (bool, T) {
	if !n.Valid {
		var zero T
		return false, zero
	}
	return true, n.V
}

// Pair is a structural (key, value) pair.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// MakePair builds a Pair.
func MakePair[K, V any](k K, v V) Pair[K, V] {
	return Pair[K, V]{Key: k, Value: v}
}

// Deconstruct splits the pair into (key, value).
func (p Pair[K, V]) Deconstruct() (K, V) {
	return p.Key, p.Value
}
