package ir

// Equal reports whether two values are structurally equal.
// Decimals compare numerically; maps compare entries in order.
func Equal(a, b IRValue) bool {
	switch x := a.(type) {
	case IRString, IRInt, IRBool, IRDate:
		return a == b
	case IRDecimal:
		y, ok := b.(IRDecimal)
		return ok && x.Cmp(y) == 0
	case IROptional:
		y, ok := b.(IROptional)
		if !ok || x.Present != y.Present {
			return false
		}
		return Equal(x.Value, y.Value)
	case IRTuple:
		y, ok := b.(IRTuple)
		return ok && equalList(x, y)
	case IRArray:
		y, ok := b.(IRArray)
		return ok && equalList(x, y)
	case IREntry:
		y, ok := b.(IREntry)
		return ok && Equal(x.Key, y.Key) && Equal(x.Value, y.Value)
	case IRRecord:
		y, ok := b.(IRRecord)
		if !ok || x.Spec.Name != y.Spec.Name {
			return false
		}
		return equalList(x.Fields, y.Fields)
	case *IRMap:
		y, ok := b.(*IRMap)
		if !ok || x.Len() != y.Len() {
			return false
		}
		var xs, ys []IREntry
		for e := range x.Entries() {
			xs = append(xs, e)
		}
		for e := range y.Entries() {
			ys = append(ys, e)
		}
		for i := range xs {
			if !Equal(xs[i], ys[i]) {
				return false
			}
		}
		return true
	case IRObject:
		y, ok := b.(IRObject)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func equalList(a, b []IRValue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
