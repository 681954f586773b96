package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/decon/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// Record errors (E101-E105)
	ErrRecordNoFields       = "E101" // record declares no fields
	ErrInvalidTypeRef       = "E102" // type expression is invalid
	ErrUnknownType          = "E103" // record name not declared
	ErrArityTooSmall        = "E104" // decomposition yields fewer than 2 parts
	ErrDuplicateIntrinsic   = "E105" // two intrinsic decompositions share an arity
	ErrInvalidProjection    = "E106" // part path does not project from the target
	ErrPartTypeMismatch     = "E107" // declared part type differs from path type
	ErrTypeParameter        = "E108" // unbound or unused type parameter
	ErrDuplicatePartName    = "E109" // part name repeated within one decomposition
	ErrDuplicateDeclaration = "E110" // record or extension name repeated
	ErrRecursiveRecord      = "E111" // record contains itself
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against schema rules.
// Returns all errors found (does not fail-fast).
// Supports SpecSet, RecordSpec and ExtensionSpec; single records and
// extensions are checked on their own, so references to other records
// are reported as unknown.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.SpecSet:
		return validateSpecSet(spec)
	case ir.SpecSet:
		return validateSpecSet(&spec)
	case *ir.RecordSpec:
		return validateSpecSet(&ir.SpecSet{Records: []ir.RecordSpec{*spec}})
	case *ir.ExtensionSpec:
		return validateSpecSet(&ir.SpecSet{Extensions: []ir.ExtensionSpec{*spec}})
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateSpecSet(set *ir.SpecSet) []ValidationError {
	var errs []ValidationError

	// E110: names are unique across records and extensions
	seen := make(map[string]string)
	for i, rec := range set.Records {
		field := fmt.Sprintf("records[%d].name", i)
		if prev, ok := seen[rec.Name]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate name %q, first declared as %s", rec.Name, prev),
				Code:    ErrDuplicateDeclaration,
			})
			continue
		}
		seen[rec.Name] = "record"
	}
	for i, ext := range set.Extensions {
		field := fmt.Sprintf("extensions[%d].name", i)
		if prev, ok := seen[ext.Name]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate name %q, first declared as %s", ext.Name, prev),
				Code:    ErrDuplicateDeclaration,
			})
			continue
		}
		seen[ext.Name] = "extension"
	}

	for i := range set.Records {
		errs = append(errs, validateRecord(set, &set.Records[i], i)...)
	}
	for i := range set.Extensions {
		errs = append(errs, validateExtension(set, &set.Extensions[i], i)...)
	}

	// E111: records must have finite values
	for _, c := range AnalyzeRecordCycles(set) {
		errs = append(errs, ValidationError{
			Field:   "records." + c.Path[0],
			Message: c.Message,
			Code:    ErrRecursiveRecord,
		})
	}

	return errs
}

func validateRecord(set *ir.SpecSet, rec *ir.RecordSpec, idx int) []ValidationError {
	var errs []ValidationError
	prefix := fmt.Sprintf("records[%d]", idx)

	// E101: at least one field
	if len(rec.Fields) == 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".fields",
			Message: fmt.Sprintf("record %q declares no fields", rec.Name),
			Code:    ErrRecordNoFields,
		})
	}

	for i, f := range rec.Fields {
		errs = append(errs, validateTypeRef(set, f.Type, fmt.Sprintf("%s.fields[%d].type", prefix, i), nil)...)
	}

	// E105: one intrinsic decomposition per arity
	arities := make(map[int]int)
	for i, d := range rec.Deconstructors {
		field := fmt.Sprintf("%s.deconstructors[%d]", prefix, i)
		if first, ok := arities[d.Arity()]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("record %q already has a decomposition of arity %d (deconstructors[%d])", rec.Name, d.Arity(), first),
				Code:    ErrDuplicateIntrinsic,
			})
		} else {
			arities[d.Arity()] = i
		}
		errs = append(errs, validateParts(set, d.Parts, ir.RecordType(rec.Name), field, nil)...)
	}

	return errs
}

func validateExtension(set *ir.SpecSet, ext *ir.ExtensionSpec, idx int) []ValidationError {
	var errs []ValidationError
	prefix := fmt.Sprintf("extensions[%d]", idx)

	errs = append(errs, validateTypeRef(set, ext.Target, prefix+".target", ext.Params)...)

	// E108: a bare parameter target would attach to every type
	if ext.Target.Kind == ir.KindParam {
		errs = append(errs, ValidationError{
			Field:   prefix + ".target",
			Message: fmt.Sprintf("target of %q must not be a bare type parameter", ext.Name),
			Code:    ErrTypeParameter,
		})
	}

	// E108: every parameter is bound by the target
	bound := ext.Target.Params(nil)
	for i, p := range ext.Params {
		if !slices.Contains(bound, p) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.params[%d]", prefix, i),
				Message: fmt.Sprintf("type parameter %q is not used by target %s", p, ext.Target),
				Code:    ErrTypeParameter,
			})
		}
		if slices.Index(ext.Params, p) != i {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.params[%d]", prefix, i),
				Message: fmt.Sprintf("duplicate type parameter %q", p),
				Code:    ErrTypeParameter,
			})
		}
	}

	errs = append(errs, validateParts(set, ext.Parts, ext.Target, prefix, ext.Params)...)
	return errs
}

func validateParts(set *ir.SpecSet, parts []ir.PartSig, root ir.Type, prefix string, params []string) []ValidationError {
	var errs []ValidationError

	// E104: arity N >= 2
	if len(parts) < 2 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".parts",
			Message: fmt.Sprintf("a decomposition needs at least 2 parts, got %d", len(parts)),
			Code:    ErrArityTooSmall,
		})
	}

	names := make(map[string]bool)
	for i, p := range parts {
		field := fmt.Sprintf("%s.parts[%d]", prefix, i)

		// E109: part names are unique
		if names[p.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate part name %q", p.Name),
				Code:    ErrDuplicatePartName,
			})
		}
		names[p.Name] = true

		// E106: path must project from the decomposed type
		path, err := ir.ParsePath(p.From)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".from",
				Message: err.Error(),
				Code:    ErrInvalidProjection,
			})
			continue
		}
		got, err := path.TypeOf(root, set.Record)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".from",
				Message: err.Error(),
				Code:    ErrInvalidProjection,
			})
			continue
		}

		if p.Type.Kind == ir.KindInvalid {
			// ResolvePartTypes was not run; the path type is authoritative
			continue
		}
		errs = append(errs, validateTypeRef(set, p.Type, field+".type", params)...)

		// E107: declared type agrees with the projection
		if !p.Type.Equal(got) {
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: fmt.Sprintf("part %q declared as %s but %q projects %s", p.Name, p.Type, p.From, got),
				Code:    ErrPartTypeMismatch,
			})
		}
	}

	return errs
}

// validateTypeRef checks that t is well formed and every record it names
// is declared.
func validateTypeRef(set *ir.SpecSet, t ir.Type, field string, params []string) []ValidationError {
	var errs []ValidationError

	// E102: structurally valid
	if msg := malformed(t); msg != "" {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: msg,
			Code:    ErrInvalidTypeRef,
		})
		return errs
	}

	// E103: records exist
	for _, name := range t.Records(nil) {
		if _, ok := set.Record(name); !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown type %q", name),
				Code:    ErrUnknownType,
			})
		}
	}

	// E108: parameters are declared
	for _, p := range t.Params(nil) {
		if !slices.Contains(params, p) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("undeclared type parameter %q", p),
				Code:    ErrTypeParameter,
			})
		}
	}

	return errs
}

// malformed describes what is wrong with t, or returns "".
// Parsed types are always well formed; this guards specs built in code.
func malformed(t ir.Type) string {
	switch t.Kind {
	case ir.KindInvalid:
		return "missing or invalid type"
	case ir.KindInt, ir.KindString, ir.KindBool, ir.KindDecimal, ir.KindDate:
		if len(t.Args) != 0 {
			return fmt.Sprintf("%s takes no type arguments", t)
		}
	case ir.KindOptional:
		if len(t.Args) != 1 {
			return "optional takes 1 type argument"
		}
	case ir.KindTuple:
		if len(t.Args) < 2 {
			return "tuple needs at least 2 elements"
		}
	case ir.KindMap, ir.KindEntry:
		if len(t.Args) != 2 {
			return fmt.Sprintf("%s takes 2 type arguments", t)
		}
		if k := t.Args[0].Kind; k != ir.KindString && k != ir.KindInt && k != ir.KindParam {
			return fmt.Sprintf("%s key must be string or int", t)
		}
	case ir.KindRecord, ir.KindParam:
		if t.Name == "" {
			return "missing type name"
		}
	}
	for _, a := range t.Args {
		if msg := malformed(a); msg != "" {
			return msg
		}
	}
	return ""
}
