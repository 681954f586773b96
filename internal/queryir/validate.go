package queryir

import (
	"errors"
	"fmt"

	"github.com/roach88/decon/internal/ir"
)

// FieldError reports a predicate that cannot be evaluated.
type FieldError struct {
	Field   Field
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that every predicate names a known field and compares it
// against a value of the right kind. All problems are reported, joined.
func Validate(q Query) error {
	v := &validator{}
	v.validateQuery(q)
	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) fail(f Field, format string, args ...any) {
	v.errs = append(v.errs, &FieldError{Field: f, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	case nil:
		v.errs = append(v.errs, errors.New("nil query"))
	default:
		v.errs = append(v.errs, fmt.Errorf("unsupported query type %T", q))
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.Limit < 0 {
		v.errs = append(v.errs, fmt.Errorf("limit must not be negative, got %d", sel.Limit))
	}
	v.validatePredicate(sel.Filter)
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case Prefix:
		v.validatePrefix(pred)
	case *Prefix:
		v.validatePrefix(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.errs = append(v.errs, fmt.Errorf("unsupported predicate type %T", p))
	}
}

func (v *validator) validateEquals(eq Equals) {
	kind := eq.Field.Kind()
	if kind == ir.KindInvalid {
		v.fail(eq.Field, "unknown field")
		return
	}
	switch eq.Value.(type) {
	case ir.IRString:
		if kind != ir.KindString {
			v.fail(eq.Field, "compares against int, got string")
		}
	case ir.IRInt:
		if kind != ir.KindInt {
			v.fail(eq.Field, "compares against string, got int")
		}
	default:
		v.fail(eq.Field, "unsupported value %T", eq.Value)
	}
}

func (v *validator) validatePrefix(p Prefix) {
	switch p.Field.Kind() {
	case ir.KindInvalid:
		v.fail(p.Field, "unknown field")
	case ir.KindString:
	default:
		v.fail(p.Field, "prefix needs a string field")
	}
}
