package values

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/decon/internal/ir"
)

// Options controls decoding.
type Options struct {
	// Keys is the key comparer of decoded maps.
	Keys ir.KeyComparer
}

// DecodeError reports a literal that does not fit its type.
type DecodeError struct {
	Path    string // "$", "$.release_date", "$[1]"
	Line    int
	Message string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// DecodeString parses src as YAML and decodes it as a value of type t.
func DecodeString(src string, t ir.Type, records ir.RecordLookup, opts Options) (ir.IRValue, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(src), &node); err != nil {
		return nil, fmt.Errorf("parse literal: %w", err)
	}
	if node.Kind == 0 {
		// Empty document
		node = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	return Decode(&node, t, records, opts)
}

// Decode converts a YAML node into a value of type t.
// Records are resolved through records; a nil lookup knows no records.
func Decode(node *yaml.Node, t ir.Type, records ir.RecordLookup, opts Options) (ir.IRValue, error) {
	d := &decoder{records: records, opts: opts}
	return d.decode(node, t, "$")
}

type decoder struct {
	records ir.RecordLookup
	opts    Options
}

func (d *decoder) errorf(node *yaml.Node, path, format string, args ...any) error {
	return &DecodeError{Path: path, Line: node.Line, Message: fmt.Sprintf(format, args...)}
}

func (d *decoder) decode(node *yaml.Node, t ir.Type, path string) (ir.IRValue, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, d.errorf(node, path, "empty document")
		}
		return d.decode(node.Content[0], t, path)
	case yaml.AliasNode:
		return d.decode(node.Alias, t, path)
	}

	if t.Kind != ir.KindOptional && isNull(node) {
		return nil, d.errorf(node, path, "null is only allowed for optional types, want %s", t)
	}

	switch t.Kind {
	case ir.KindInt:
		if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!int" {
			return nil, d.errorf(node, path, "expected int, got %s", describe(node))
		}
		var i int64
		if err := node.Decode(&i); err != nil {
			return nil, d.errorf(node, path, "%v", err)
		}
		return ir.IRInt(i), nil

	case ir.KindString:
		if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!str" {
			return nil, d.errorf(node, path, "expected string, got %s", describe(node))
		}
		return ir.IRString(node.Value), nil

	case ir.KindBool:
		if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!bool" {
			return nil, d.errorf(node, path, "expected bool, got %s", describe(node))
		}
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, d.errorf(node, path, "%v", err)
		}
		return ir.IRBool(b), nil

	case ir.KindDecimal:
		if node.Kind != yaml.ScalarNode {
			return nil, d.errorf(node, path, "expected decimal, got %s", describe(node))
		}
		switch node.ShortTag() {
		case "!!int", "!!float", "!!str":
		default:
			return nil, d.errorf(node, path, "expected decimal, got %s", describe(node))
		}
		dec, err := ir.NewIRDecimal(node.Value)
		if err != nil {
			return nil, d.errorf(node, path, "%v", err)
		}
		return dec, nil

	case ir.KindDate:
		if node.Kind != yaml.ScalarNode {
			return nil, d.errorf(node, path, "expected date, got %s", describe(node))
		}
		switch node.ShortTag() {
		case "!!timestamp":
			var ts time.Time
			if err := node.Decode(&ts); err != nil {
				return nil, d.errorf(node, path, "%v", err)
			}
			return ir.DateOf(ts), nil
		case "!!str":
			date, err := ir.ParseDate(node.Value)
			if err != nil {
				return nil, d.errorf(node, path, "%v", err)
			}
			return date, nil
		default:
			return nil, d.errorf(node, path, "expected date, got %s", describe(node))
		}

	case ir.KindOptional:
		if isNull(node) {
			return ir.IROptional{Present: false, Value: Default(t.Elem(0), d.records)}, nil
		}
		v, err := d.decode(node, t.Elem(0), path)
		if err != nil {
			return nil, err
		}
		return ir.IROptional{Present: true, Value: v}, nil

	case ir.KindTuple:
		if node.Kind != yaml.SequenceNode || len(node.Content) != len(t.Args) {
			return nil, d.errorf(node, path, "expected sequence of %d elements for %s, got %s", len(t.Args), t, describe(node))
		}
		tuple := make(ir.IRTuple, len(t.Args))
		for i, elem := range node.Content {
			v, err := d.decode(elem, t.Args[i], path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			tuple[i] = v
		}
		return tuple, nil

	case ir.KindEntry:
		if node.Kind != yaml.SequenceNode || len(node.Content) != 2 {
			return nil, d.errorf(node, path, "expected [key, value] for %s, got %s", t, describe(node))
		}
		return d.entry(node.Content[0], node.Content[1], t, path)

	case ir.KindMap:
		return d.decodeMap(node, t, path)

	case ir.KindRecord:
		return d.decodeRecord(node, t, path)

	case ir.KindParam:
		return nil, d.errorf(node, path, "cannot decode into type parameter %s", t.Name)

	default:
		return nil, d.errorf(node, path, "invalid type %s", t)
	}
}

func (d *decoder) entry(k, v *yaml.Node, t ir.Type, path string) (ir.IREntry, error) {
	key, err := d.decode(k, t.Elem(0), path+".key")
	if err != nil {
		return ir.IREntry{}, err
	}
	val, err := d.decode(v, t.Elem(1), path+".value")
	if err != nil {
		return ir.IREntry{}, err
	}
	return ir.IREntry{Key: key, Value: val}, nil
}

// decodeMap accepts a mapping or a sequence of [key, value] pairs.
// Keys must be unique under the map's comparer.
func (d *decoder) decodeMap(node *yaml.Node, t ir.Type, path string) (ir.IRValue, error) {
	m := ir.NewIRMap(d.opts.Keys)
	entryType := ir.EntryOf(t.Elem(0), t.Elem(1))

	add := func(keyNode *yaml.Node, e ir.IREntry) error {
		if _, dup := m.Get(e.Key); dup {
			return d.errorf(keyNode, path, "duplicate key %s (%s keys)", ir.Format(e.Key), d.opts.Keys)
		}
		m.Put(e.Key, e.Value)
		return nil
	}

	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			e, err := d.entry(k, v, entryType, path+"["+strconv.Quote(k.Value)+"]")
			if err != nil {
				return nil, err
			}
			if err := add(k, e); err != nil {
				return nil, err
			}
		}
	case yaml.SequenceNode:
		for i, pair := range node.Content {
			elemPath := path + "[" + strconv.Itoa(i) + "]"
			if pair.Kind != yaml.SequenceNode || len(pair.Content) != 2 {
				return nil, d.errorf(pair, elemPath, "expected [key, value], got %s", describe(pair))
			}
			e, err := d.entry(pair.Content[0], pair.Content[1], entryType, elemPath)
			if err != nil {
				return nil, err
			}
			if err := add(pair.Content[0], e); err != nil {
				return nil, err
			}
		}
	default:
		return nil, d.errorf(node, path, "expected mapping for %s, got %s", t, describe(node))
	}
	return m, nil
}

// decodeRecord accepts a mapping by field name or a positional sequence.
// Omitted optional fields are absent; other omitted fields are errors.
func (d *decoder) decodeRecord(node *yaml.Node, t ir.Type, path string) (ir.IRValue, error) {
	if d.records == nil {
		return nil, d.errorf(node, path, "unknown record %s", t.Name)
	}
	spec, ok := d.records(t.Name)
	if !ok {
		return nil, d.errorf(node, path, "unknown record %s", t.Name)
	}

	fields := make([]ir.IRValue, len(spec.Fields))
	switch node.Kind {
	case yaml.SequenceNode:
		if len(node.Content) != len(spec.Fields) {
			return nil, d.errorf(node, path, "%s has %d fields, got %d values", spec.Name, len(spec.Fields), len(node.Content))
		}
		for i, f := range spec.Fields {
			v, err := d.decode(node.Content[i], f.Type, path+"."+f.Name)
			if err != nil {
				return nil, err
			}
			fields[i] = v
		}

	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			idx := spec.FieldIndex(k.Value)
			if idx < 0 {
				return nil, d.errorf(k, path, "%s has no field %q", spec.Name, k.Value)
			}
			if fields[idx] != nil {
				return nil, d.errorf(k, path, "field %q given twice", k.Value)
			}
			val, err := d.decode(v, spec.Fields[idx].Type, path+"."+k.Value)
			if err != nil {
				return nil, err
			}
			fields[idx] = val
		}
		for i, f := range spec.Fields {
			if fields[i] != nil {
				continue
			}
			if f.Type.Kind != ir.KindOptional {
				return nil, d.errorf(node, path, "%s is missing field %q", spec.Name, f.Name)
			}
			fields[i] = Default(f.Type, d.records)
		}

	default:
		return nil, d.errorf(node, path, "expected mapping or sequence for %s, got %s", spec.Name, describe(node))
	}

	return ir.IRRecord{Spec: spec, Fields: fields}, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}

func describe(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return fmt.Sprintf("sequence of %d", len(node.Content))
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return fmt.Sprintf("%s %q", node.ShortTag(), node.Value)
	default:
		return "node"
	}
}
