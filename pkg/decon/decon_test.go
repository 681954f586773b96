package decon

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type compactDisc struct {
	Name        string
	ReleaseDate time.Time
}

func (c compactDisc) Deconstruct() (string, time.Time) {
	return c.Name, c.ReleaseDate
}

// release pairs a disc with an optional reissue date.
type release struct {
	Disc    compactDisc
	Reissue Optional[time.Time]
}

func (r release) Deconstruct() (compactDisc, Optional[time.Time]) {
	return r.Disc, r.Reissue
}

// labelled has an intrinsic two-part decomposition and an external one.
type labelled struct {
	label string
	n     int
}

func (l labelled) Deconstruct() (string, int) {
	return "intrinsic:" + l.label, l.n
}

func deconstructLabelled(l labelled) (string, int) {
	return "external:" + l.label, l.n
}

func TestOptionalDeconstructAbsentYieldsZero(t *testing.T) {
	hasValue, value := DeconstructOptional(None[int]())
	assert.False(t, hasValue)
	assert.Equal(t, 0, value)

	hasDate, date := DeconstructOptional(None[time.Time]())
	assert.False(t, hasDate)
	assert.True(t, date.IsZero())
}

func TestOptionalDeconstructPresent(t *testing.T) {
	testCases := []struct {
		name string
		in   Optional[string]
		ok   bool
		want string
	}{
		{"present", Some("Deftones"), true, "Deftones"},
		{"present empty", Some(""), true, ""},
		{"absent", None[string](), false, ""},
		{"zero value", Optional[string]{}, false, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, v := DeconstructOptional(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, v)

			got, present := tc.in.Get()
			assert.Equal(t, tc.ok, present)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDeconstructPointer(t *testing.T) {
	ok, v := DeconstructPointer[int](nil)
	assert.False(t, ok)
	assert.Equal(t, 0, v)

	n := 77
	ok, v = DeconstructPointer(&n)
	assert.True(t, ok)
	assert.Equal(t, 77, v)
}

func TestDeconstructNull(t *testing.T) {
	ok, v := DeconstructNull(sql.Null[string]{})
	assert.False(t, ok)
	assert.Empty(t, v)

	ok, v = DeconstructNull(sql.Null[string]{V: "Sabaton", Valid: true})
	assert.True(t, ok)
	assert.Equal(t, "Sabaton", v)
}

func TestIntrinsicWinsOverExternal(t *testing.T) {
	l := labelled{label: "x", n: 3}

	label, n := Unpack2[string, int](l)
	assert.Equal(t, "intrinsic:x", label)
	assert.Equal(t, 3, n)

	label, _ = deconstructLabelled(l)
	assert.Equal(t, "external:x", label)
}

func TestNestedMatchesStepwise(t *testing.T) {
	r := release{
		Disc:    compactDisc{Name: "Deftones", ReleaseDate: time.Date(2003, 5, 20, 0, 0, 0, 0, time.UTC)},
		Reissue: Some(time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)),
	}

	// Outer first, then each slot.
	disc, reissue := r.Deconstruct()
	name, date := disc.Deconstruct()
	hasReissue, reissueDate := DeconstructOptional(reissue)

	// Same values through the interface.
	disc2, reissue2 := Unpack2[compactDisc, Optional[time.Time]](r)
	name2, date2 := Unpack2[string, time.Time](disc2)
	hasReissue2, reissueDate2 := DeconstructOptional(reissue2)

	assert.Equal(t, name, name2)
	assert.Equal(t, date, date2)
	assert.Equal(t, hasReissue, hasReissue2)
	assert.Equal(t, reissueDate, reissueDate2)
	assert.Equal(t, "Deftones", name)
	assert.True(t, hasReissue)
}

func TestDiscardDoesNotAffectOtherSlots(t *testing.T) {
	c := compactDisc{Name: "Deftones", ReleaseDate: time.Date(2003, 5, 20, 0, 0, 0, 0, time.UTC)}

	name, date := c.Deconstruct()
	_, dateOnly := c.Deconstruct()
	nameOnly, _ := c.Deconstruct()

	assert.Equal(t, date, dateOnly)
	assert.Equal(t, name, nameOnly)
}

func TestPairDeconstruct(t *testing.T) {
	k, v := MakePair("GoLang", 5).Deconstruct()
	assert.Equal(t, "GoLang", k)
	assert.Equal(t, 5, v)

	k, v = Unpack2[string, int](Pair[string, int]{Key: "C#", Value: 1})
	assert.Equal(t, "C#", k)
	assert.Equal(t, 1, v)
}

func TestUnpack3And4(t *testing.T) {
	a, b, c := Unpack3[int, string, bool](triple{1, "two", true})
	assert.Equal(t, 1, a)
	assert.Equal(t, "two", b)
	assert.True(t, c)

	w, x, y, z := Unpack4[int, int, int, int](quad{1, 2, 3, 4})
	require.Equal(t, []int{1, 2, 3, 4}, []int{w, x, y, z})
}

type triple struct {
	a int
	b string
	c bool
}

func (t triple) Deconstruct() (int, string, bool) { return t.a, t.b, t.c }

type quad [4]int

func (q quad) Deconstruct() (int, int, int, int) { return q[0], q[1], q[2], q[3] }
