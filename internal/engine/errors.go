package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ResolveError is a static error found while planning a decomposition.
//
// Every ResolveError is reported before any value is bound: a plan that
// compiles binds without failure.
type ResolveError struct {
	// Code identifies the error category.
	Code ResolveErrorCode

	// Message is a human-readable description.
	Message string

	// Pattern is the full pattern being planned.
	Pattern string

	// Path locates the offending slot list, e.g. "$" or "$[3]".
	Path string

	// Type is the type the slot list was resolved against.
	Type string

	// Candidates names the decompositions involved (for E201 and E202).
	Candidates []string
}

// ResolveErrorCode categorizes resolution errors (E200-E299).
type ResolveErrorCode string

const (
	// ErrCodeArityMismatch: no decomposition of the pattern's arity, but
	// decompositions of other arities exist.
	ErrCodeArityMismatch ResolveErrorCode = "E201"

	// ErrCodeAmbiguous: two or more extensions share the arity and no
	// intrinsic decomposition breaks the tie.
	ErrCodeAmbiguous ResolveErrorCode = "E202"

	// ErrCodeMissing: the type has no decomposition at all.
	ErrCodeMissing ResolveErrorCode = "E203"

	// ErrCodeDuplicateBinding: a declared name is already bound, in the
	// scope or earlier in the same pattern.
	ErrCodeDuplicateBinding ResolveErrorCode = "E204"

	// ErrCodeUndeclaredBinding: reassignment to a name that is not in scope.
	ErrCodeUndeclaredBinding ResolveErrorCode = "E205"

	// ErrCodeBindingTypeMismatch: reassignment to a name of another type.
	ErrCodeBindingTypeMismatch ResolveErrorCode = "E206"

	// ErrCodeInvalidPattern: the pattern does not parse.
	ErrCodeInvalidPattern ResolveErrorCode = "E207"
)

var codeNames = map[ResolveErrorCode]string{
	ErrCodeArityMismatch:       "ArityMismatch",
	ErrCodeAmbiguous:           "AmbiguousDecomposition",
	ErrCodeMissing:             "MissingDecomposition",
	ErrCodeDuplicateBinding:    "DuplicateBinding",
	ErrCodeUndeclaredBinding:   "UndeclaredBinding",
	ErrCodeBindingTypeMismatch: "BindingTypeMismatch",
	ErrCodeInvalidPattern:      "InvalidPattern",
}

// Name returns the taxonomy name, e.g. "ArityMismatch".
func (c ResolveErrorCode) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return string(c)
}

// ParseResolveErrorCode accepts either form: "E201" or "ArityMismatch".
func ParseResolveErrorCode(s string) (ResolveErrorCode, bool) {
	for code, name := range codeNames {
		if s == string(code) || s == name {
			return code, true
		}
	}
	return "", false
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Code, e.Code.Name(), e.Message)
	if e.Path != "" && e.Path != "$" {
		fmt.Fprintf(&b, " (at %s)", e.Path)
	}
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, " [candidates: %s]", strings.Join(e.Candidates, ", "))
	}
	return b.String()
}

func codeOf(err error) ResolveErrorCode {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsArityMismatch returns true if the error is an ArityMismatch.
// Uses errors.As to handle wrapped errors.
func IsArityMismatch(err error) bool {
	return codeOf(err) == ErrCodeArityMismatch
}

// IsAmbiguous returns true if the error is an AmbiguousDecomposition.
func IsAmbiguous(err error) bool {
	return codeOf(err) == ErrCodeAmbiguous
}

// IsMissing returns true if the error is a MissingDecomposition.
func IsMissing(err error) bool {
	return codeOf(err) == ErrCodeMissing
}

// IsBindingError returns true for E204, E205 and E206.
func IsBindingError(err error) bool {
	switch codeOf(err) {
	case ErrCodeDuplicateBinding, ErrCodeUndeclaredBinding, ErrCodeBindingTypeMismatch:
		return true
	}
	return false
}

// IsResolveError returns true for any static decomposition error.
func IsResolveError(err error) bool {
	return codeOf(err) != ""
}

// NonConformantError reports a value whose dynamic shape does not match
// the type it was planned for. It is a caller error raised before binding.
type NonConformantError struct {
	Type  string
	Value string
}

func (e *NonConformantError) Error() string {
	return fmt.Sprintf("value %s does not conform to %s", e.Value, e.Type)
}
