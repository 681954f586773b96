package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/decon/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a test run with minimal required fields.
func createTestRun(id string, createdSeq int64) ir.Run {
	return ir.Run{
		ID:            id,
		Label:         "test",
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
		CreatedSeq:    createdSeq,
	}
}

// createTestRecord creates a deconstruction record binding one int.
func createTestRecord(t *testing.T, runID string, seq int64, value int64) ir.DeconstructionRecord {
	t.Helper()
	plain := []any{map[string]any{"name": "x", "type": "int", "value": value}}
	bindings, err := ir.MarshalCanonical(plain)
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	id, err := ir.DeconstructionID(runID, seq, "(x, _)", "tuple<int,int>")
	if err != nil {
		t.Fatalf("DeconstructionID() failed: %v", err)
	}
	return ir.DeconstructionRecord{
		ID:          id,
		RunID:       runID,
		Seq:         seq,
		Pattern:     "(x, _)",
		Type:        "tuple<int,int>",
		Mode:        "declare",
		Resolved:    []string{"structural:tuple<int,int>/2"},
		Bindings:    bindings,
		BindingHash: ir.MustBindingHash(plain),
	}
}
