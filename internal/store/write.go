package store

import (
	"context"
	"fmt"

	"github.com/roach88/decon/internal/ir"
)

// WriteRun inserts a run record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: continuing an existing
// run writes it again and is silently ignored.
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, label, engine_version, ir_version, created_seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Label,
		run.EngineVersion,
		run.IRVersion,
		run.CreatedSeq,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteDeconstruction inserts a deconstruction record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency. A different record at
// an existing (run_id, seq) violates the UNIQUE constraint and errors.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteDeconstruction(ctx context.Context, rec ir.DeconstructionRecord) error {
	resolvedJSON, err := marshalResolved(rec.Resolved)
	if err != nil {
		return fmt.Errorf("write deconstruction: %w", err)
	}
	bindingsJSON, err := marshalBindings(rec.Bindings)
	if err != nil {
		return fmt.Errorf("write deconstruction: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO deconstructions
		(id, run_id, seq, pattern, type, mode, resolved, bindings, binding_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.RunID,
		rec.Seq,
		rec.Pattern,
		rec.Type,
		rec.Mode,
		resolvedJSON,
		bindingsJSON,
		rec.BindingHash,
	)
	if err != nil {
		return fmt.Errorf("write deconstruction: %w", err)
	}
	return nil
}
