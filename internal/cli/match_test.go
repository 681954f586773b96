package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decon/internal/store"
)

const sabatonValue = `{id: 7, name: Sabaton, asking_price: 9.99, release_date: 1995-10-03}`

type matchResponse struct {
	Status string      `json:"status"`
	RunID  string      `json:"run_id"`
	Data   MatchOutput `json:"data"`
	Error  *CLIError   `json:"error"`
}

func decodeMatch(t *testing.T, out string) matchResponse {
	t.Helper()
	var resp matchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestMatchNestedText(t *testing.T) {
	out, err := execute(t, NewMatchCommand(&RootOptions{Format: "text"}), testSpecsDir,
		"--type", "Album",
		"--value", sabatonValue,
		"--pattern", "(_, name, askingPrice, (hasDate, date))")
	require.NoError(t, err)

	assert.Equal(t, "name = Sabaton (string)\n"+
		"askingPrice = 9.99 (decimal)\n"+
		"hasDate = true (bool)\n"+
		"date = 1995-10-03 (date)\n", out)
}

func TestMatchNestedJSON(t *testing.T) {
	out, err := execute(t, NewMatchCommand(&RootOptions{Format: "json"}), testSpecsDir,
		"--type", "Album",
		"--value", sabatonValue,
		"--pattern", "(_, name, _, (_, date))")
	require.NoError(t, err)

	resp := decodeMatch(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "declare", resp.Data.Mode)
	require.Len(t, resp.Data.Results, 1)

	got := resp.Data.Results[0]
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, []string{"intrinsic:Album/4", "extension:Nullable[T=date]/2"}, got.Resolved)
	want := []MatchBinding{
		{Name: "name", Type: "string", Value: "Sabaton"},
		{Name: "date", Type: "date", Value: "1995-10-03"},
	}
	if diff := cmp.Diff(want, got.Bindings); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchForeachIgnoreCase(t *testing.T) {
	out, err := execute(t, NewMatchCommand(&RootOptions{Format: "json"}), testSpecsDir,
		"--type", "map<string,int>",
		"--keys", "ignore_case",
		"--value", `{"C#": 1, TypeScript: 2, "F#": 3}`,
		"--foreach",
		"--pattern", "(lang, rank)")
	require.NoError(t, err)

	resp := decodeMatch(t, out)
	require.Len(t, resp.Data.Results, 3)
	var langs []any
	for i, r := range resp.Data.Results {
		assert.Equal(t, int64(i+1), r.Seq)
		assert.Equal(t, []string{"structural:entry<string,int>/2"}, r.Resolved)
		langs = append(langs, r.Bindings[0].Value)
	}
	assert.Equal(t, []any{"C#", "TypeScript", "F#"}, langs)
}

func TestMatchDuplicateKeyIgnoreCase(t *testing.T) {
	out, err := execute(t, NewMatchCommand(&RootOptions{Format: "text"}), testSpecsDir,
		"--type", "map<string,int>",
		"--keys", "ignore_case",
		"--value", `{GoLang: 1, golang: 2}`,
		"--foreach",
		"--pattern", "(k, v)")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeBadValue)
}

func TestMatchAssignWithLet(t *testing.T) {
	out, err := execute(t, NewMatchCommand(&RootOptions{Format: "text"}), testSpecsDir,
		"--type", "optional<int>",
		"--value", "77",
		"--let", "hasValue:bool=false",
		"--let", "value:int=0",
		"--assign",
		"--pattern", "(hasValue, value)")
	require.NoError(t, err)
	assert.Equal(t, "hasValue = true (bool)\nvalue = 77 (int)\n", out)
}

func TestMatchStaticErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		code    string
		message string
	}{
		{
			name:    "arity mismatch",
			args:    []string{"--type", "Album", "--value", sabatonValue, "--pattern", "(a, b)"},
			code:    "E201",
			message: "ArityMismatch",
		},
		{
			name:    "missing decomposition",
			args:    []string{"--type", "Genre", "--value", "{name: metal}", "--pattern", "(a, b)"},
			code:    "E203",
			message: "MissingDecomposition",
		},
		{
			name:    "undeclared assignment",
			args:    []string{"--type", "tuple<int,int>", "--value", "[1, 2]", "--assign", "--pattern", "(a, b)"},
			code:    "E205",
			message: "UndeclaredBinding",
		},
		{
			name:    "duplicate binding",
			args:    []string{"--type", "tuple<int,int>", "--value", "[1, 2]", "--pattern", "(a, a)"},
			code:    "E204",
			message: "DuplicateBinding",
		},
		{
			name:    "invalid pattern",
			args:    []string{"--type", "tuple<int,int>", "--value", "[1, 2]", "--pattern", "(a, b"},
			code:    "E207",
			message: "InvalidPattern",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{testSpecsDir}, tt.args...)
			out, err := execute(t, NewMatchCommand(&RootOptions{Format: "json"}), args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			resp := decodeMatch(t, out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.message)
		})
	}
}

func TestMatchBadInputs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad type", []string{"--type", "tuple<int>", "--value", "[1]", "--pattern", "(a, b)"}, ErrCodeBadValue},
		{"bad value", []string{"--type", "tuple<int,int>", "--value", "[1, x]", "--pattern", "(a, b)"}, ErrCodeBadValue},
		{"bad keys", []string{"--type", "tuple<int,int>", "--value", "[1, 2]", "--keys", "fuzzy", "--pattern", "(a, b)"}, ErrCodeBadValue},
		{"bad let", []string{"--type", "tuple<int,int>", "--value", "[1, 2]", "--let", "a=1", "--pattern", "(a, b)"}, ErrCodeBadValue},
		{"foreach on tuple", []string{"--type", "tuple<int,int>", "--value", "[1, 2]", "--foreach", "--pattern", "(a, b)"}, ErrCodeBadValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{testSpecsDir}, tt.args...)
			out, err := execute(t, NewMatchCommand(&RootOptions{Format: "text"}), args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestMatchRunRequiresDatabase(t *testing.T) {
	_, err := execute(t, NewMatchCommand(&RootOptions{Format: "text"}), testSpecsDir,
		"--type", "tuple<int,int>", "--value", "[1, 2]", "--pattern", "(a, b)", "--run", "r1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--run requires --db")
}

func TestMatchRecordsAndContinuesRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "decon.db")

	out, err := execute(t, NewMatchCommand(&RootOptions{Format: "json"}), testSpecsDir,
		"--db", dbPath,
		"--type", "Album", "--value", sabatonValue,
		"--pattern", "(_, name, askingPrice, (hasDate, date))")
	require.NoError(t, err)
	first := decodeMatch(t, out)
	runID := first.RunID
	require.NotEmpty(t, runID)

	out, err = execute(t, NewMatchCommand(&RootOptions{Format: "json"}), testSpecsDir,
		"--db", dbPath, "--run", runID,
		"--type", "CompactDisc", "--value", "{name: Deftones, release_date: 2003-05-20}",
		"--pattern", "(name, date)")
	require.NoError(t, err)
	second := decodeMatch(t, out)
	assert.Equal(t, runID, second.RunID)
	require.Len(t, second.Data.Results, 1)
	assert.Equal(t, int64(2), second.Data.Results[0].Seq)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	recs, err := st.ReadDeconstructions(context.Background(), runID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Album", recs[0].Type)
	assert.Equal(t, "CompactDisc", recs[1].Type)
	assert.Equal(t, []string{"intrinsic:CompactDisc/2"}, recs[1].Resolved)
}

func TestMatchUnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "decon.db")
	_, err := execute(t, NewMatchCommand(&RootOptions{Format: "text"}), testSpecsDir,
		"--db", dbPath, "--run", "missing",
		"--type", "tuple<int,int>", "--value", "[1, 2]", "--pattern", "(a, b)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run missing not found")
}

func TestMatchTextReportsRecording(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "decon.db")
	out, err := execute(t, NewMatchCommand(&RootOptions{Format: "text"}), testSpecsDir,
		"--db", dbPath,
		"--type", "tuple<int,int,int>", "--value", "[1, 2, 3]", "--pattern", "(a, _, c)")
	require.NoError(t, err)
	assert.Contains(t, out, "a = 1 (int)\nc = 3 (int)\n")
	assert.Contains(t, out, "Recorded 1 decomposition(s) in run ")
}
