package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decon/internal/compiler"
)

func TestValidateValidSpecs(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), testSpecsDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All specs valid")
}

func TestValidateValidSpecsJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), testSpecsDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/specs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
}

func TestValidateInvalidSpecs(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{
			name: "unknown record",
			src:  `record: A: { fields: b: "Missing", deconstruct: [["b", "b2"]] }`,
			code: compiler.ErrUnknownType,
		},
		{
			name: "arity one",
			src:  `record: A: { fields: { x: "int" }, deconstruct: [["x"]] }`,
			code: compiler.ErrArityTooSmall,
		},
		{
			name: "duplicate intrinsic arity",
			src:  `record: P: { fields: { x: "int", y: "int" }, deconstruct: [["x", "y"], ["y", "x"]] }`,
			code: compiler.ErrDuplicateIntrinsic,
		},
		{
			name: "recursive record",
			src:  `record: Node: { fields: { v: "int", next: "optional<Node>" }, deconstruct: [["v", "next"]] }`,
			code: compiler.ErrRecursiveRecord,
		},
		{
			name: "unused type parameter",
			src:  `extension: E: { params: ["T", "U"], target: "tuple<T,T>", parts: [{name: "a", from: "[0]"}, {name: "b", from: "[1]"}] }`,
			code: compiler.ErrTypeParameter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeSpecDir(t, "package test\n\n"+tt.src+"\n")

			out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), dir)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "✗ Validation failed")
			assert.Contains(t, out, tt.code)
		})
	}
}

func TestValidateInvalidSpecJSON(t *testing.T) {
	dir := writeSpecDir(t, `
package test

record: P: {
	fields: { x: "int", y: "int" }
	deconstruct: [["x", "y"], ["y", "x"]]
}
`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, compiler.ErrDuplicateIntrinsic, resp.Error.Code)
}

func TestValidateCompileErrorReported(t *testing.T) {
	dir := writeSpecDir(t, `
package test

record: Bad: { fields: x: "int" }
`)

	errs, err := ValidateSpecsDir(dir, true)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "load", errs[0].Field)
	assert.Contains(t, errs[0].Message, "deconstruct")
}

func TestValidateSpecsDir(t *testing.T) {
	errs, err := ValidateSpecsDir(testSpecsDir, true)
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestValidateSpecsDirNonExistent(t *testing.T) {
	_, err := ValidateSpecsDir("/nonexistent", true)
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}
