package decon

import "iter"

// OrderedMap is a mapping that iterates in insertion order.
//
// Keys are unique under the map's key normaliser. Setting an existing key
// replaces its value but keeps the original key and its position.
//
// OrderedMap is not safe for concurrent use.
type OrderedMap[K comparable, V any] struct {
	keys  []K
	vals  []V
	index map[K]int // normalised key -> position
	norm  func(K) K
}

// NewOrderedMap creates an empty map comparing keys with ==.
func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return NewOrderedMapFunc[K, V](nil)
}

// NewOrderedMapFunc creates an empty map whose keys are compared after
// passing through norm (for example a case fold). A nil norm compares keys
// as they are.
func NewOrderedMapFunc[K comparable, V any](norm func(K) K) *OrderedMap[K, V] {
	return &OrderedMap[K, V]{
		index: make(map[K]int),
		norm:  norm,
	}
}

func (m *OrderedMap[K, V]) normalize(k K) K {
	if m.norm == nil {
		return k
	}
	return m.norm(k)
}

// Set stores v under k and reports whether an existing entry was replaced.
func (m *OrderedMap[K, V]) Set(k K, v V) bool {
	nk := m.normalize(k)
	if i, ok := m.index[nk]; ok {
		m.vals[i] = v
		return true
	}
	m.index[nk] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
	return false
}

// Get returns the value stored under k.
func (m *OrderedMap[K, V]) Get(k K) (V, bool) {
	i, ok := m.index[m.normalize(k)]
	if !ok {
		var zero V
		return zero, false
	}
	return m.vals[i], true
}

// Delete removes k and reports whether it was present.
// Remaining entries keep their relative order.
func (m *OrderedMap[K, V]) Delete(k K) bool {
	nk := m.normalize(k)
	i, ok := m.index[nk]
	if !ok {
		return false
	}
	delete(m.index, nk)
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
	for j := i; j < len(m.keys); j++ {
		m.index[m.normalize(m.keys[j])] = j
	}
	return true
}

// Len returns the number of entries.
func (m *OrderedMap[K, V]) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[K, V]) Keys() []K {
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

// All yields (key, value) in insertion order.
func (m *OrderedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}

// Pairs yields each entry as a Pair in insertion order.
func (m *OrderedMap[K, V]) Pairs() iter.Seq[Pair[K, V]] {
	return func(yield func(Pair[K, V]) bool) {
		for i, k := range m.keys {
			if !yield(Pair[K, V]{Key: k, Value: m.vals[i]}) {
				return
			}
		}
	}
}
