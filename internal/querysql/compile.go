package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/internal/queryir"
)

// Columns is the select list of every compiled query, in the order
// store scans a decomposition.
const Columns = "d.id, d.run_id, d.seq, d.pattern, d.type, d.mode, d.resolved, d.bindings, d.binding_hash"

// orderBy gives compiled queries a total, deterministic order.
const orderBy = " ORDER BY d.run_id COLLATE BINARY ASC, d.seq ASC, d.id COLLATE BINARY ASC"

var columns = map[queryir.Field]string{
	queryir.FieldRunID:       "d.run_id",
	queryir.FieldSeq:         "d.seq",
	queryir.FieldPattern:     "d.pattern",
	queryir.FieldType:        "d.type",
	queryir.FieldMode:        "d.mode",
	queryir.FieldBindingHash: "d.binding_hash",
	queryir.FieldLabel:       "r.label",
}

// SQLCompiler compiles queries to parameterized SQLite.
// Values are never interpolated into the SQL text.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile validates q and converts it to SQL plus its parameters.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	var b strings.Builder
	b.WriteString("SELECT " + Columns + " FROM deconstructions d INNER JOIN runs r ON r.id = d.run_id")

	var params []any
	if q.Filter != nil {
		where, ps, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE " + where)
		params = ps
	}

	b.WriteString(orderBy)
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, int64(q.Limit))
	}
	return b.String(), params, nil
}

func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.Prefix:
		return c.compilePrefix(pred)
	case *queryir.Prefix:
		return c.compilePrefix(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles "field = ?". For via, any resolved name matches.
func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := irValueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", eq.Field, err)
	}
	if eq.Field == queryir.FieldVia {
		return "EXISTS (SELECT 1 FROM json_each(d.resolved) WHERE value = ?)", []any{param}, nil
	}
	return columns[eq.Field] + " = ?", []any{param}, nil
}

// compilePrefix compiles a byte-wise prefix test. substr keeps the
// comparison case-sensitive, unlike LIKE.
func (c *SQLCompiler) compilePrefix(p queryir.Prefix) (string, []any, error) {
	params := []any{int64(len(p.Prefix)), p.Prefix}
	if p.Field == queryir.FieldVia {
		return "EXISTS (SELECT 1 FROM json_each(d.resolved) WHERE substr(value, 1, ?) = ?)", params, nil
	}
	return "substr(" + columns[p.Field] + ", 1, ?) = ?", params, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, ps, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if _, nested := pred.(queryir.And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// irValueToParam converts a value to a driver parameter.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
