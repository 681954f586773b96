package ir

import (
	"fmt"
	"iter"
	"slices"
	"time"
	"unicode/utf16"

	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/cases"

	"github.com/roach88/decon/pkg/decon"
)

// IRValue is a sealed interface representing runtime values.
// Only the types in this file implement it.
// NO float type - use IRDecimal for fractional quantities.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value. Always int64.
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRDecimal is an exact decimal number.
// The zero IRDecimal is 0. The wrapped decimal is never mutated.
type IRDecimal struct {
	d *apd.Decimal
}

func (IRDecimal) irValue() {}

// NewIRDecimal parses a decimal literal such as "9.99".
func NewIRDecimal(s string) (IRDecimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return IRDecimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return IRDecimal{}, fmt.Errorf("invalid decimal %q: must be finite", s)
	}
	return IRDecimal{d: d}, nil
}

// MustDecimal is like NewIRDecimal but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDecimal(s string) IRDecimal {
	d, err := NewIRDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Decimal returns a copy of the underlying decimal.
func (v IRDecimal) Decimal() *apd.Decimal {
	out := new(apd.Decimal)
	if v.d != nil {
		out.Set(v.d)
	}
	return out
}

// Cmp compares two decimals numerically.
func (v IRDecimal) Cmp(o IRDecimal) int {
	return v.Decimal().Cmp(o.Decimal())
}

// String renders the decimal without exponent, e.g. "9.99".
func (v IRDecimal) String() string {
	return v.Decimal().Text('f')
}

// IRDate is a civil date.
type IRDate struct {
	Year  int
	Month time.Month
	Day   int
}

func (IRDate) irValue() {}

// dateLayout is the only accepted textual date form.
const dateLayout = "2006-01-02"

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (IRDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return IRDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf drops the time of day from t.
func DateOf(t time.Time) IRDate {
	return IRDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time returns midnight UTC on the date.
func (d IRDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String renders "YYYY-MM-DD".
func (d IRDate) String() string {
	return d.Time().Format(dateLayout)
}

// IROptional is the wrapped-optional value.
// Value always holds a well-defined payload: the element type's default
// when Present is false.
type IROptional struct {
	Present bool
	Value   IRValue
}

func (IROptional) irValue() {}

// Deconstruct splits the optional into (present, payload).
func (o IROptional) Deconstruct() (bool, IRValue) {
	return o.Present, o.Value
}

var _ decon.Deconstructor2[bool, IRValue] = IROptional{}

// IRTuple is a positional tuple of two or more values.
type IRTuple []IRValue

func (IRTuple) irValue() {}

// IRRecord is an instance of a record type declared in a spec.
// Fields are positional, in the order of Spec.Fields.
type IRRecord struct {
	Spec   *RecordSpec
	Fields []IRValue
}

func (IRRecord) irValue() {}

// Field returns the value of the named field.
func (r IRRecord) Field(name string) (IRValue, bool) {
	i := r.Spec.FieldIndex(name)
	if i < 0 || i >= len(r.Fields) {
		return nil, false
	}
	return r.Fields[i], true
}

// IREntry is a keyed pair taken from an IRMap.
type IREntry struct {
	Key   IRValue
	Value IRValue
}

func (IREntry) irValue() {}

// Deconstruct splits the entry into (key, value).
func (e IREntry) Deconstruct() (IRValue, IRValue) {
	return e.Key, e.Value
}

var _ decon.Deconstructor2[IRValue, IRValue] = IREntry{}

// KeyComparer selects how IRMap compares string keys.
type KeyComparer int

const (
	// KeysOrdinal compares keys exactly.
	KeysOrdinal KeyComparer = iota
	// KeysIgnoreCase compares string keys after Unicode case folding.
	KeysIgnoreCase
)

// String returns the comparer name used in scenario files.
func (c KeyComparer) String() string {
	if c == KeysIgnoreCase {
		return "ignore_case"
	}
	return "ordinal"
}

// ParseKeyComparer parses "ordinal" (or "") and "ignore_case".
func ParseKeyComparer(s string) (KeyComparer, error) {
	switch s {
	case "", "ordinal":
		return KeysOrdinal, nil
	case "ignore_case":
		return KeysIgnoreCase, nil
	default:
		return KeysOrdinal, fmt.Errorf("invalid key comparer %q, must be \"ordinal\" or \"ignore_case\"", s)
	}
}

// IRMap is an insertion-ordered mapping with unique keys.
// Keys are IRString or IRInt.
type IRMap struct {
	comparer KeyComparer
	entries  *decon.OrderedMap[IRValue, IRValue]
}

func (*IRMap) irValue() {}

// NewIRMap creates an empty map.
func NewIRMap(comparer KeyComparer) *IRMap {
	var norm func(IRValue) IRValue
	if comparer == KeysIgnoreCase {
		norm = foldKey
	}
	return &IRMap{
		comparer: comparer,
		entries:  decon.NewOrderedMapFunc[IRValue, IRValue](norm),
	}
}

// foldKey case-folds string keys. A fresh Caser per call: Casers are stateful.
func foldKey(k IRValue) IRValue {
	if s, ok := k.(IRString); ok {
		return IRString(cases.Fold().String(string(s)))
	}
	return k
}

// Put stores v under k. An existing key keeps its position and spelling.
func (m *IRMap) Put(k, v IRValue) {
	m.entries.Set(k, v)
}

// Get looks up k using the map's comparer.
func (m *IRMap) Get(k IRValue) (IRValue, bool) {
	return m.entries.Get(k)
}

// Len returns the number of entries.
func (m *IRMap) Len() int {
	return m.entries.Len()
}

// Comparer returns the key comparer.
func (m *IRMap) Comparer() KeyComparer {
	return m.comparer
}

// Entries yields the entries in insertion order.
func (m *IRMap) Entries() iter.Seq[IREntry] {
	return func(yield func(IREntry) bool) {
		for k, v := range m.entries.All() {
			if !yield(IREntry{Key: k, Value: v}) {
				return
			}
		}
	}
}

// IRArray is a JSON-style array used for canonical rendering.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject is a JSON-style object used for canonical rendering.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's default string ordering compares UTF-8 bytes, which differs for
// characters outside the BMP.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
