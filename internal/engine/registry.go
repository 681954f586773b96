package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/decon/internal/ir"
)

// Origin says where a decomposition comes from.
type Origin int

const (
	// OriginIntrinsic is declared by the record itself.
	OriginIntrinsic Origin = iota
	// OriginStructural is built in for tuples and map entries.
	OriginStructural
	// OriginExtension is attached from outside by an extension.
	OriginExtension
)

func (o Origin) String() string {
	switch o {
	case OriginIntrinsic:
		return "intrinsic"
	case OriginStructural:
		return "structural"
	case OriginExtension:
		return "extension"
	default:
		return "unknown"
	}
}

// Part is one resolved output slot of a decomposition.
type Part struct {
	Name string
	Type ir.Type // concrete: extension parameters are substituted
	get  projection
}

// Decomposition is a decomposition resolved for one concrete type.
type Decomposition struct {
	Origin Origin
	Source string  // record, extension or structural type name
	Type   ir.Type // the concrete type being decomposed
	Parts  []Part
	sub    map[string]ir.Type
}

// Arity returns the number of parts.
func (d *Decomposition) Arity() int {
	return len(d.Parts)
}

// String identifies the decomposition in traces, e.g.
// "intrinsic:Album/4", "structural:entry<string,int>/2",
// "extension:Nullable[T=date]/2".
func (d *Decomposition) String() string {
	name := d.Source
	if len(d.sub) > 0 {
		keys := make([]string, 0, len(d.sub))
		for k := range d.sub {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		args := make([]string, len(keys))
		for i, k := range keys {
			args[i] = k + "=" + d.sub[k].String()
		}
		name += "[" + strings.Join(args, ",") + "]"
	}
	return fmt.Sprintf("%s:%s/%d", d.Origin, name, d.Arity())
}

// Apply decomposes v into its parts. v must conform to d.Type.
func (d *Decomposition) Apply(v ir.IRValue) []ir.IRValue {
	out := make([]ir.IRValue, len(d.Parts))
	for i, p := range d.Parts {
		out[i] = p.get(v)
	}
	return out
}

// Registry holds the decompositions available to the engine.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	specs *ir.SpecSet
}

// NewRegistry creates a registry over a validated spec set.
// The set is copied; later changes to it are not seen.
func NewRegistry(set *ir.SpecSet) *Registry {
	specs := &ir.SpecSet{}
	if set != nil {
		specs.Records = slices.Clone(set.Records)
		specs.Extensions = slices.Clone(set.Extensions)
	}
	return &Registry{specs: specs}
}

// Specs returns the registry's spec set. Callers must not modify it.
func (r *Registry) Specs() *ir.SpecSet {
	return r.specs
}

// Record looks up a record spec by name. It satisfies ir.RecordLookup.
func (r *Registry) Record(name string) (*ir.RecordSpec, bool) {
	return r.specs.Record(name)
}

// Decompositions returns every decomposition available for t: intrinsic
// and structural first, then extensions in declaration order.
func (r *Registry) Decompositions(t ir.Type) ([]*Decomposition, error) {
	var out []*Decomposition
	native, err := r.native(t)
	if err != nil {
		return nil, err
	}
	out = append(out, native...)

	ext, err := r.extensions(t, -1)
	if err != nil {
		return nil, err
	}
	return append(out, ext...), nil
}

// Resolve selects the decomposition of t with the given arity.
//
// Intrinsic and structural decompositions win over extensions. Among
// extensions exactly one may match; two or more is ambiguous.
func (r *Registry) Resolve(t ir.Type, arity int) (*Decomposition, error) {
	native, err := r.native(t)
	if err != nil {
		return nil, err
	}
	for _, d := range native {
		if d.Arity() == arity {
			return d, nil
		}
	}

	matches, err := r.extensions(t, arity)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
	default:
		names := make([]string, len(matches))
		for i, d := range matches {
			names[i] = d.String()
		}
		return nil, &ResolveError{
			Code:       ErrCodeAmbiguous,
			Message:    fmt.Sprintf("%d extensions of arity %d apply to %s", len(matches), arity, t),
			Type:       t.String(),
			Candidates: names,
		}
	}

	all, err := r.Decompositions(t)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, &ResolveError{
			Code:    ErrCodeMissing,
			Message: fmt.Sprintf("%s has no decomposition", t),
			Type:    t.String(),
		}
	}

	var arities []int
	names := make([]string, len(all))
	for i, d := range all {
		names[i] = d.String()
		if !slices.Contains(arities, d.Arity()) {
			arities = append(arities, d.Arity())
		}
	}
	slices.Sort(arities)
	return nil, &ResolveError{
		Code:       ErrCodeArityMismatch,
		Message:    fmt.Sprintf("%s has no decomposition of arity %d (available: %s)", t, arity, joinInts(arities)),
		Type:       t.String(),
		Candidates: names,
	}
}

// native returns the intrinsic or structural decompositions of t.
func (r *Registry) native(t ir.Type) ([]*Decomposition, error) {
	switch t.Kind {
	case ir.KindRecord:
		spec, ok := r.specs.Record(t.Name)
		if !ok {
			return nil, &ResolveError{
				Code:    ErrCodeMissing,
				Message: fmt.Sprintf("unknown record %s", t.Name),
				Type:    t.String(),
			}
		}
		out := make([]*Decomposition, 0, len(spec.Deconstructors))
		for _, sig := range spec.Deconstructors {
			d, err := r.instantiate(OriginIntrinsic, spec.Name, t, sig.Parts, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil

	case ir.KindTuple:
		parts := make([]ir.PartSig, len(t.Args))
		for i := range t.Args {
			parts[i] = ir.PartSig{Name: fmt.Sprintf("item%d", i+1), From: fmt.Sprintf("[%d]", i)}
		}
		d, err := r.instantiate(OriginStructural, t.String(), t, parts, nil)
		if err != nil {
			return nil, err
		}
		return []*Decomposition{d}, nil

	case ir.KindEntry:
		parts := []ir.PartSig{{Name: "key", From: "key"}, {Name: "value", From: "value"}}
		d, err := r.instantiate(OriginStructural, t.String(), t, parts, nil)
		if err != nil {
			return nil, err
		}
		return []*Decomposition{d}, nil
	}
	return nil, nil
}

// extensions returns the extensions whose target unifies with t.
// arity < 0 selects all arities.
func (r *Registry) extensions(t ir.Type, arity int) ([]*Decomposition, error) {
	var out []*Decomposition
	for _, ext := range r.specs.Extensions {
		if arity >= 0 && ext.Arity() != arity {
			continue
		}
		sub := make(map[string]ir.Type)
		if !unify(ext.Target, t, sub) {
			continue
		}
		d, err := r.instantiate(OriginExtension, ext.Name, t, ext.Parts, sub)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// instantiate compiles part projections against the concrete type t.
// Errors here mean the spec set was not validated.
func (r *Registry) instantiate(origin Origin, source string, t ir.Type, sigs []ir.PartSig, sub map[string]ir.Type) (*Decomposition, error) {
	d := &Decomposition{Origin: origin, Source: source, Type: t, sub: sub}
	for _, sig := range sigs {
		path, err := ir.ParsePath(sig.From)
		if err != nil {
			return nil, fmt.Errorf("%s %s: part %q: %w", origin, source, sig.Name, err)
		}
		get, typ, err := compileProjection(path, t, r.Record)
		if err != nil {
			return nil, fmt.Errorf("%s %s: part %q: %w", origin, source, sig.Name, err)
		}
		d.Parts = append(d.Parts, Part{Name: sig.Name, Type: typ, get: get})
	}
	return d, nil
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
