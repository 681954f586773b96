package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON.
// This is the only serialization used for hashes, the store and golden files.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping, no escaping of U+2028/U+2029
//  3. Strings are NFC normalized
//  4. No floats and no null (returns error)
//
// Rich values (decimal, date, optional, record, map) are accepted and
// rendered through Plain.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case IRString:
		return writeCanonicalString(buf, string(val))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case IRInt:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case IRBool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	case []any:
		return writeCanonicalArray(buf, len(val), func(i int) any { return val[i] })
	case IRArray:
		return writeCanonicalArray(buf, len(val), func(i int) any { return val[i] })
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		return writeCanonicalObject(buf, keys, func(k string) any { return val[k] })
	case IRObject:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		return writeCanonicalObject(buf, keys, func(k string) any { return val[k] })
	case IRValue:
		return writeCanonical(buf, Plain(val))
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeCanonicalArray(buf *bytes.Buffer, n int, at func(int) any) error {
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonical(buf, at(i)); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeCanonicalObject(buf *bytes.Buffer, keys []string, at func(string) any) error {
	slices.SortFunc(keys, compareUTF16)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonicalString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := writeCanonical(buf, at(k)); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeCanonicalString writes an NFC-normalized JSON string.
// Only quote, backslash and control characters are escaped.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	s = norm.NFC.String(s)

	var enc bytes.Buffer
	e := json.NewEncoder(&enc)
	e.SetEscapeHTML(false)
	if err := e.Encode(s); err != nil {
		return err
	}
	out := bytes.TrimSuffix(enc.Bytes(), []byte("\n"))

	// encoding/json escapes U+2028 and U+2029 for JavaScript; RFC 8785 does not.
	out = unescapeSeparators(out)
	buf.Write(out)
	return nil
}

// unescapeSeparators rewrites \u2028 and \u2029 escapes to the literal
// characters, leaving escaped backslashes followed by "u2028" untouched.
func unescapeSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+5 < len(b) && string(b[i+2:i+5]) == "202" && (b[i+5] == '8' || b[i+5] == '9') {
			if b[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		// Any other escape: copy both bytes so "\\" never starts a new escape.
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

// UnmarshalPlain parses JSON produced by MarshalCanonical back into plain
// data (string, int64, bool, []any, map[string]any). Non-integer numbers
// are rejected.
func UnmarshalPlain(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return fromJSON(v)
}

func fromJSON(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %s", val)
		}
		return i, nil
	case []any:
		for i, e := range val {
			out, err := fromJSON(e)
			if err != nil {
				return nil, err
			}
			val[i] = out
		}
		return val, nil
	case map[string]any:
		for k, e := range val {
			out, err := fromJSON(e)
			if err != nil {
				return nil, err
			}
			val[k] = out
		}
		return val, nil
	default:
		return val, nil
	}
}
