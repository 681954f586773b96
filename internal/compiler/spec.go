package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/decon/internal/ir"
)

// CompileSpecs compiles every record and extension declared in v.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the root of a spec package, e.g.:
//
//	record: Album: { fields: {...}, deconstruct: [...] }
//	extension: Nullable: { params: ["T"], target: "optional<T>", parts: [...] }
//
// Part types left implicit are inferred from their projection paths once
// all records are known. The result is not validated; run Validate.
func CompileSpecs(v cue.Value) (*ir.SpecSet, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	set := &ir.SpecSet{}

	recordsVal := v.LookupPath(cue.ParsePath("record"))
	if recordsVal.Exists() {
		iter, err := recordsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			rec, err := CompileRecord(iter.Value())
			if err != nil {
				return nil, err
			}
			set.Records = append(set.Records, *rec)
		}
	}

	extVal := v.LookupPath(cue.ParsePath("extension"))
	if extVal.Exists() {
		iter, err := extVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			ext, err := CompileExtension(iter.Value())
			if err != nil {
				return nil, err
			}
			set.Extensions = append(set.Extensions, *ext)
		}
	}

	ResolvePartTypes(set)
	return set, nil
}

// CompileRecord parses a CUE value into a RecordSpec.
//
// The CUE value should be the record struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`record: Album: { ... }`)
//	spec, err := CompileRecord(v.LookupPath(cue.ParsePath("record.Album")))
func CompileRecord(v cue.Value) (*ir.RecordSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.RecordSpec{Name: labelOf(v)}

	// Purpose is documentation only
	if purposeVal := v.LookupPath(cue.ParsePath("purpose")); purposeVal.Exists() {
		purpose, err := purposeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Purpose = purpose
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   fmt.Sprintf("record.%s.fields", spec.Name),
			Message: "fields are required",
			Pos:     v.Pos(),
		}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		typ, err := extractType(iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Fields = append(spec.Fields, ir.FieldSpec{Name: iter.Label(), Type: typ})
	}

	if posVal := v.LookupPath(cue.ParsePath("positional")); posVal.Exists() {
		positional, err := posVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Positional = positional
	}

	// A positional record gets one deconstructor over all of its fields,
	// listed ahead of any explicit ones.
	if spec.Positional {
		parts := make([]ir.PartSig, len(spec.Fields))
		for i, f := range spec.Fields {
			parts[i] = ir.PartSig{Name: f.Name, Type: f.Type, From: f.Name}
		}
		spec.Deconstructors = append(spec.Deconstructors, ir.DeconstructorSig{Parts: parts})
	}

	deconVal := v.LookupPath(cue.ParsePath("deconstruct"))
	if deconVal.Exists() {
		list, err := deconVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for list.Next() {
			parts, err := parseParts(list.Value(), nil)
			if err != nil {
				return nil, err
			}
			spec.Deconstructors = append(spec.Deconstructors, ir.DeconstructorSig{Parts: parts})
		}
	}

	if !spec.Positional && !deconVal.Exists() {
		return nil, &CompileError{
			Field:   fmt.Sprintf("record.%s", spec.Name),
			Message: "record must declare deconstruct or set positional: true",
			Pos:     v.Pos(),
		}
	}

	self := func(name string) (*ir.RecordSpec, bool) {
		if name == spec.Name {
			return spec, true
		}
		return nil, false
	}
	for i := range spec.Deconstructors {
		inferParts(spec.Deconstructors[i].Parts, ir.RecordType(spec.Name), self)
	}

	return spec, nil
}

// CompileExtension parses a CUE value into an ExtensionSpec.
func CompileExtension(v cue.Value) (*ir.ExtensionSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	ext := &ir.ExtensionSpec{Name: labelOf(v)}

	if paramsVal := v.LookupPath(cue.ParsePath("params")); paramsVal.Exists() {
		list, err := paramsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for list.Next() {
			p, err := list.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			ext.Params = append(ext.Params, p)
		}
	}

	targetVal := v.LookupPath(cue.ParsePath("target"))
	if !targetVal.Exists() {
		return nil, &CompileError{
			Field:   fmt.Sprintf("extension.%s.target", ext.Name),
			Message: "target is required",
			Pos:     v.Pos(),
		}
	}
	target, err := extractType(targetVal, ext.Params...)
	if err != nil {
		return nil, err
	}
	ext.Target = target

	partsVal := v.LookupPath(cue.ParsePath("parts"))
	if !partsVal.Exists() {
		return nil, &CompileError{
			Field:   fmt.Sprintf("extension.%s.parts", ext.Name),
			Message: "parts are required",
			Pos:     v.Pos(),
		}
	}
	ext.Parts, err = parseParts(partsVal, ext.Params)
	if err != nil {
		return nil, err
	}

	inferParts(ext.Parts, ext.Target, nil)
	return ext, nil
}

// parseParts reads one part list. A part is either a field name string or
// a struct { name, from, type? }.
func parseParts(v cue.Value, params []string) ([]ir.PartSig, error) {
	list, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var parts []ir.PartSig
	for list.Next() {
		pv := list.Value()

		if s, err := pv.String(); err == nil {
			parts = append(parts, ir.PartSig{Name: s, From: s})
			continue
		}

		var part ir.PartSig
		nameVal := pv.LookupPath(cue.ParsePath("name"))
		if !nameVal.Exists() {
			return nil, &CompileError{
				Field:   "part",
				Message: "must be a field name or a struct with name and from",
				Pos:     pv.Pos(),
			}
		}
		if part.Name, err = nameVal.String(); err != nil {
			return nil, formatCUEError(err)
		}

		part.From = part.Name
		if fromVal := pv.LookupPath(cue.ParsePath("from")); fromVal.Exists() {
			if part.From, err = fromVal.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}

		if typeVal := pv.LookupPath(cue.ParsePath("type")); typeVal.Exists() {
			if part.Type, err = extractType(typeVal, params...); err != nil {
				return nil, err
			}
		}

		parts = append(parts, part)
	}
	return parts, nil
}

// ResolvePartTypes fills in part types that were left implicit, using the
// type reached by each part's projection path. Parts whose path cannot be
// typed stay invalid and are reported by Validate.
func ResolvePartTypes(set *ir.SpecSet) {
	for i := range set.Records {
		rec := &set.Records[i]
		for j := range rec.Deconstructors {
			inferParts(rec.Deconstructors[j].Parts, ir.RecordType(rec.Name), set.Record)
		}
	}
	for i := range set.Extensions {
		ext := &set.Extensions[i]
		inferParts(ext.Parts, ext.Target, set.Record)
	}
}

func inferParts(parts []ir.PartSig, root ir.Type, records ir.RecordLookup) {
	for i := range parts {
		if parts[i].Type.Kind != ir.KindInvalid {
			continue
		}
		path, err := ir.ParsePath(parts[i].From)
		if err != nil {
			continue
		}
		if t, err := path.TypeOf(root, records); err == nil {
			parts[i].Type = t
		}
	}
}

// extractType converts a CUE value to an IR type.
// Type expressions are strings ("optional<date>"); bare CUE kinds are
// accepted for the primitives. Floats are forbidden: use decimal.
func extractType(v cue.Value, params ...string) (ir.Type, error) {
	if s, err := v.String(); err == nil {
		t, err := ir.ParseType(s, params...)
		if err != nil {
			return ir.Type{}, &CompileError{
				Field:   "type",
				Message: err.Error(),
				Pos:     v.Pos(),
			}
		}
		return t, nil
	}

	switch v.IncompleteKind() {
	case cue.StringKind:
		return ir.TypeString, nil
	case cue.IntKind:
		return ir.TypeInt, nil
	case cue.BoolKind:
		return ir.TypeBool, nil
	case cue.FloatKind, cue.NumberKind:
		return ir.Type{}, &CompileError{
			Field:   "type",
			Message: "float types are forbidden - use decimal instead",
			Pos:     v.Pos(),
		}
	default:
		return ir.Type{}, &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// labelOf returns the last path selector, the declared name of a record
// or extension.
func labelOf(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	return labels[len(labels)-1].String()
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
