package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/internal/queryir"
	"github.com/roach88/decon/internal/querysql"
)

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	var run ir.Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, engine_version, ir_version, created_seq
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Label, &run.EngineVersion, &run.IRVersion, &run.CreatedSeq)
	if err != nil {
		return ir.Run{}, err
	}
	return run, nil
}

// ListRuns returns all runs ordered by created_seq ASC, id ASC.
// Returns an empty slice (not nil) if the store has no runs.
func (s *Store) ListRuns(ctx context.Context) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, engine_version, ir_version, created_seq
		FROM runs
		ORDER BY created_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		var run ir.Run
		if err := rows.Scan(&run.ID, &run.Label, &run.EngineVersion, &run.IRVersion, &run.CreatedSeq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadDeconstructions returns every deconstruction of a run with
// deterministic ordering: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the run has no records.
func (s *Store) ReadDeconstructions(ctx context.Context, runID string) ([]ir.DeconstructionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, seq, pattern, type, mode, resolved, bindings, binding_hash
		FROM deconstructions
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query deconstructions: %w", err)
	}
	defer rows.Close()

	records := []ir.DeconstructionRecord{}
	for rows.Next() {
		rec, err := scanDeconstruction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deconstructions: %w", err)
	}
	return records, nil
}

// ReadDeconstruction retrieves a single deconstruction by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadDeconstruction(ctx context.Context, id string) (ir.DeconstructionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, seq, pattern, type, mode, resolved, bindings, binding_hash
		FROM deconstructions
		WHERE id = ?
	`, id)
	return scanDeconstruction(row)
}

// FindByBindingHash returns deconstructions across all runs that produced
// the given bindings, ordered by run_id, seq.
func (s *Store) FindByBindingHash(ctx context.Context, hash string) ([]ir.DeconstructionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, seq, pattern, type, mode, resolved, bindings, binding_hash
		FROM deconstructions
		WHERE binding_hash = ?
		ORDER BY run_id COLLATE BINARY ASC, seq ASC, id COLLATE BINARY ASC
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("query deconstructions by binding hash: %w", err)
	}
	defer rows.Close()

	records := []ir.DeconstructionRecord{}
	for rows.Next() {
		rec, err := scanDeconstruction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deconstructions: %w", err)
	}
	return records, nil
}

// LastSeq returns the highest seq recorded for a run, or 0 if none.
// Pass it to engine.NewClockAt to continue the run.
func (s *Store) LastSeq(ctx context.Context, runID string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM deconstructions WHERE run_id = ?
	`, runID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeconstruction(row scanner) (ir.DeconstructionRecord, error) {
	var rec ir.DeconstructionRecord
	var resolvedJSON, bindingsJSON string
	err := row.Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Seq,
		&rec.Pattern,
		&rec.Type,
		&rec.Mode,
		&resolvedJSON,
		&bindingsJSON,
		&rec.BindingHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.DeconstructionRecord{}, err
		}
		return ir.DeconstructionRecord{}, fmt.Errorf("scan deconstruction: %w", err)
	}

	rec.Resolved, err = unmarshalResolved(resolvedJSON)
	if err != nil {
		return ir.DeconstructionRecord{}, err
	}
	rec.Bindings = json.RawMessage(bindingsJSON)
	return rec, nil
}

// Query returns the deconstructions matching q, across runs, ordered by
// run_id, seq, id.
func (s *Store) Query(ctx context.Context, q queryir.Query) ([]ir.DeconstructionRecord, error) {
	stmt, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("query deconstructions: %w", err)
	}
	defer rows.Close()

	records := []ir.DeconstructionRecord{}
	for rows.Next() {
		rec, err := scanDeconstruction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deconstructions: %w", err)
	}
	return records, nil
}
