package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/decon/internal/ir"
)

// ParseWhere parses one filter expression: "field=value" for equality or
// "field^=prefix" for a prefix match. Values are taken literally.
func ParseWhere(expr string) (Predicate, error) {
	i := strings.IndexByte(expr, '=')
	if i <= 0 {
		return nil, fmt.Errorf("where %q: expected field=value or field^=prefix", expr)
	}
	name, value := expr[:i], expr[i+1:]

	if strings.HasSuffix(name, "^") {
		f := Field(strings.TrimSpace(strings.TrimSuffix(name, "^")))
		if f.Kind() != ir.KindString {
			return nil, fmt.Errorf("where %q: %w", expr, &FieldError{Field: f, Message: "prefix needs a string field"})
		}
		return Prefix{Field: f, Prefix: value}, nil
	}

	f := Field(strings.TrimSpace(name))
	switch f.Kind() {
	case ir.KindString:
		return Equals{Field: f, Value: ir.IRString(value)}, nil
	case ir.KindInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("where %q: %w", expr, &FieldError{Field: f, Message: "expected an integer"})
		}
		return Equals{Field: f, Value: ir.IRInt(n)}, nil
	default:
		return nil, fmt.Errorf("where %q: %w", expr, &FieldError{Field: f, Message: "unknown field"})
	}
}

// ParseFilter parses each expression with ParseWhere and conjoins them.
func ParseFilter(exprs []string) (Predicate, error) {
	preds := make([]Predicate, 0, len(exprs))
	for _, e := range exprs {
		p, err := ParseWhere(e)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return Conjoin(preds...), nil
}
