package harness

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/decon/internal/compiler"
	"github.com/roach88/decon/internal/engine"
	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/internal/store"
	"github.com/roach88/decon/internal/testutil"
	"github.com/roach88/decon/internal/values"
)

// Harness is the test execution engine.
// It runs one scenario with a deterministic clock and run ID.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.DeterministicClock
	scope  *engine.Scope
	rec    *traceRecorder
	logger *zap.Logger
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *zap.Logger
}

// WithLogger sets the logger passed to the engine. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// LoadSpecs compiles the scenario's spec files, adds the prelude unless
// disabled, and validates the result.
func LoadSpecs(scenario *Scenario) (*ir.SpecSet, error) {
	set, err := compiler.LoadFiles(scenario.Specs...)
	if err != nil {
		return nil, err
	}
	if scenario.UsesPrelude() {
		if set, err = compiler.WithPrelude(set); err != nil {
			return nil, err
		}
	}
	if verrs := compiler.Validate(set); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, v := range verrs {
			errs[i] = v
		}
		return nil, fmt.Errorf("invalid specs: %w", errors.Join(errs...))
	}
	return set, nil
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Load, compile and validate specs
//  2. Create fresh in-memory store and engine
//  3. Execute steps in order against one scope
//  4. Check the store holds exactly the traced decompositions
//
// A returned error means the scenario could not run; failed expectations
// are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	set, err := LoadSpecs(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	result := NewResult()
	rec := &traceRecorder{store: st, result: result}
	clock := testutil.NewDeterministicClock()
	eng := engine.New(engine.NewRegistry(set),
		engine.WithRunIDGenerator(testutil.NewStaticRunID(scenario.RunID)),
		engine.WithClock(clock),
		engine.WithRecorder(rec),
		engine.WithLabel(scenario.Name),
		engine.WithLogger(cfg.logger),
	)
	result.RunID = eng.RunID()

	h := &Harness{
		store:  st,
		engine: eng,
		clock:  clock,
		scope:  engine.NewScope(),
		rec:    rec,
		logger: cfg.logger.With(zap.String("scenario", scenario.Name)),
	}

	ctx := context.Background()
	for _, step := range scenario.Steps {
		if err := h.executeStep(ctx, step, result); err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Name, err)
		}
	}

	if err := h.checkStore(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// executeStep runs one step and records expectation failures in result.
// Only infrastructure failures are returned.
func (h *Harness) executeStep(ctx context.Context, step Step, result *Result) error {
	t, err := ir.ParseType(step.Type)
	if err != nil {
		return err
	}
	keys, err := ir.ParseKeyComparer(step.Keys)
	if err != nil {
		return err
	}
	mode, err := engine.ParseMode(step.Mode)
	if err != nil {
		return err
	}

	reg := h.engine.Registry()
	opts := values.Options{Keys: keys}
	v, err := values.Decode(&step.Value, t, reg.Record, opts)
	if err != nil {
		result.AddError(fmt.Sprintf("step %s: value: %v", step.Name, err))
		return nil
	}

	h.rec.step = step.Name
	h.logger.Debug("step", zap.String("step", step.Name), zap.String("type", t.String()), zap.String("pattern", step.Pattern))

	var single *engine.Bindings
	var iterations []*engine.Bindings
	if step.Foreach {
		m, ok := v.(*ir.IRMap)
		if !ok {
			return fmt.Errorf("foreach value is %T, not a map", v)
		}
		err = h.engine.ForEach(ctx, h.scope, step.Pattern, m, t, func(b *engine.Bindings) error {
			iterations = append(iterations, b)
			return nil
		})
	} else {
		single, err = h.engine.Deconstruct(ctx, h.scope, step.Pattern, v, t, mode)
	}

	want := step.Expect
	if want == nil {
		want = &Expect{}
	}

	if err != nil {
		var re *engine.ResolveError
		if !errors.As(err, &re) {
			result.AddError(fmt.Sprintf("step %s: %v", step.Name, err))
			return nil
		}
		result.Trace = append(result.Trace, TraceEvent{
			Step:    step.Name,
			Pattern: step.Pattern,
			Type:    t.String(),
			Error:   string(re.Code),
		})
		if aerr := assertError(step.Name, want.Error, re); aerr != nil {
			result.AddError(aerr.Error())
		}
		return nil
	}

	if want.Error != "" {
		result.AddError((&AssertionError{
			Step:     step.Name,
			Expected: "error " + want.Error,
			Actual:   "success",
		}).Error())
		return nil
	}

	if want.Bindings.Kind != 0 {
		if single == nil {
			result.AddError(fmt.Sprintf("step %s: expect.bindings needs a single decomposition, use expect.iterations with foreach", step.Name))
			return nil
		}
		if aerr := assertBindings(step.Name, single, &want.Bindings, reg.Record, opts); aerr != nil {
			result.AddError(aerr.Error())
		}
	}
	if len(want.Iterations) > 0 {
		if aerr := assertIterations(step.Name, iterations, want.Iterations, reg.Record, opts); aerr != nil {
			result.AddError(aerr.Error())
		}
	}
	return nil
}

// checkStore verifies that the store holds exactly the traced
// decompositions, with the same bindings.
func (h *Harness) checkStore(ctx context.Context, result *Result) error {
	recs, err := h.store.ReadDeconstructions(ctx, h.engine.RunID())
	if err != nil {
		return fmt.Errorf("read trace: %w", err)
	}
	if len(recs) != result.recorded() {
		result.AddError(fmt.Sprintf("store holds %d decompositions, trace has %d", len(recs), result.recorded()))
		return nil
	}
	issued := h.clock.Issued()
	for i, rec := range recs {
		if i < len(issued) && rec.Seq != issued[i] {
			result.AddError(fmt.Sprintf("stored seq %d, clock issued %d", rec.Seq, issued[i]))
		}
	}
	return nil
}

// traceRecorder persists decompositions to the store and mirrors them
// into the result trace.
type traceRecorder struct {
	store  *store.Store
	result *Result
	step   string
}

func (r *traceRecorder) WriteRun(ctx context.Context, run ir.Run) error {
	return r.store.WriteRun(ctx, run)
}

func (r *traceRecorder) WriteDeconstruction(ctx context.Context, rec ir.DeconstructionRecord) error {
	if err := r.store.WriteDeconstruction(ctx, rec); err != nil {
		return err
	}
	bindings, err := ir.UnmarshalPlain(rec.Bindings)
	if err != nil {
		return fmt.Errorf("trace bindings: %w", err)
	}
	r.result.Trace = append(r.result.Trace, TraceEvent{
		Step:     r.step,
		Seq:      rec.Seq,
		Pattern:  rec.Pattern,
		Type:     rec.Type,
		Mode:     rec.Mode,
		Resolved: rec.Resolved,
		Bindings: bindings,
	})
	return nil
}
