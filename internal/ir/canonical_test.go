package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"max int64", IRInt(9223372036854775807), "9223372036854775807"},
		{"bool true", IRBool(true), "true"},
		{"bool false", IRBool(false), "false"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"array of ints", IRArray{IRInt(1), IRInt(2), IRInt(3)}, "[1,2,3]"},
		{"go types", map[string]any{"b": int64(2), "a": []any{"x", true, 3}}, `{"a":["x",true,3],"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRichValues(t *testing.T) {
	album := testAlbumSpec()

	tests := []struct {
		name     string
		input    IRValue
		expected string
	}{
		{"decimal", MustDecimal("9.99"), `"9.99"`},
		{"date", IRDate{Year: 1995, Month: 10, Day: 3}, `"1995-10-03"`},
		{"absent optional", IROptional{Present: false, Value: IRInt(0)}, `{"present":false}`},
		{"present optional", IROptional{Present: true, Value: IRInt(77)}, `{"present":true,"value":77}`},
		{"tuple", IRTuple{IRString("C#"), IRInt(1)}, `["C#",1]`},
		{"entry", IREntry{Key: IRString("F#"), Value: IRInt(3)}, `["F#",3]`},
		{
			"record",
			IRRecord{Spec: album, Fields: []IRValue{
				IRInt(7), IRString("Sabaton"), MustDecimal("9.99"),
				IROptional{Present: true, Value: IRDate{Year: 1995, Month: 10, Day: 3}},
			}},
			`{"asking_price":"9.99","id":7,"name":"Sabaton","release_date":{"present":true,"value":"1995-10-03"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalMapKeepsOrder(t *testing.T) {
	m := NewIRMap(KeysOrdinal)
	m.Put(IRString("zebra"), IRInt(1))
	m.Put(IRString("alpha"), IRInt(2))

	result, err := MarshalCanonical(m)
	require.NoError(t, err)
	assert.Equal(t, `[["zebra",1],["alpha",2]]`, string(result))
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra": IRInt(1),
		"alpha": IRInt(2),
		"beta":  IRObject{"b": IRInt(1), "a": IRInt(2)},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":{"a":2,"b":1},"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+FF5E
	// in UTF-16 but after it in UTF-8.
	obj := IRObject{
		"\uFF5E":     IRInt(1),
		"\U0001F600": IRInt(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uFF5E\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(IRString("<a & b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(result))
}

func TestMarshalCanonicalRejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")

	_, err = MarshalCanonical(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null is forbidden")

	_, err = MarshalCanonical(map[string]any{"price": 9.99})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `value for key "price"`)
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "e" + COMBINING ACUTE ACCENT normalizes to U+00E9.
	result, err := MarshalCanonical(IRString("cafe\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"caf\u00e9\"", string(result))
}

func TestMarshalCanonicalSeparatorsNotEscaped(t *testing.T) {
	result, err := MarshalCanonical(IRString("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))
}

func TestMarshalCanonicalLiteralBackslashU2028(t *testing.T) {
	// A literal backslash followed by "u2028" must stay escaped.
	result, err := MarshalCanonical(IRString(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(result))
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	result, err := MarshalCanonical(IRString("line\nbreak \"quoted\""))
	require.NoError(t, err)
	assert.Equal(t, `"line\nbreak \"quoted\""`, string(result))
}

func TestUnmarshalPlainRoundTrip(t *testing.T) {
	src := []byte(`[{"name":"rank","type":"int","value":9007199254740993},{"name":"ok","type":"bool","value":true}]`)

	plain, err := UnmarshalPlain(src)
	require.NoError(t, err)

	got, err := MarshalCanonical(plain)
	require.NoError(t, err)
	assert.Equal(t, string(src), string(got))
}

func TestUnmarshalPlainRejectsFractions(t *testing.T) {
	_, err := UnmarshalPlain([]byte(`{"price":9.99}`))
	assert.Error(t, err)
}
