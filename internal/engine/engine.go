package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/internal/pattern"
	"github.com/roach88/decon/internal/values"
)

// Recorder persists runs and decompositions.
// Implemented by store.Store.
type Recorder interface {
	WriteRun(ctx context.Context, run ir.Run) error
	WriteDeconstruction(ctx context.Context, rec ir.DeconstructionRecord) error
}

// Engine plans and performs decompositions over one registry.
//
// Plans are validated once and cached by (type, pattern, mode, scope
// shape). Every performed decomposition is stamped with a seq from the
// logical clock and, when a Recorder is configured, persisted.
//
// Thread-safety model:
//   - Plan(), Deconstruct(), ForEach(): safe from any goroutine
//   - Scope values passed in are not; callers own them
type Engine struct {
	reg      *Registry
	clock    Sequencer
	runID    string
	label    string
	recorder Recorder
	logger   *zap.Logger

	mu      sync.Mutex
	plans   map[planKey]*Plan
	started bool
}

type planKey struct {
	typ     string
	pattern string
	mode    Mode
	shape   string
}

// Option allows configuration of engine parameters.
type Option func(*engineConfig)

type engineConfig struct {
	gen      RunIDGenerator
	clock    Sequencer
	label    string
	recorder Recorder
	logger   *zap.Logger
}

// WithRunIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithRunIDGenerator(gen RunIDGenerator) Option {
	return func(c *engineConfig) { c.gen = gen }
}

// WithClock sets the logical clock. Use NewClockAt to continue a run.
func WithClock(clock Sequencer) Option {
	return func(c *engineConfig) { c.clock = clock }
}

// WithRecorder persists every decomposition.
func WithRecorder(r Recorder) Option {
	return func(c *engineConfig) { c.recorder = r }
}

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *engineConfig) { c.logger = l }
}

// WithLabel sets the run label stored with the run.
func WithLabel(label string) Option {
	return func(c *engineConfig) { c.label = label }
}

// New creates an Engine over reg.
func New(reg *Registry, opts ...Option) *Engine {
	cfg := engineConfig{
		gen:   UUIDv7Generator{},
		clock: NewClock(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	runID := cfg.gen.Generate()
	return &Engine{
		reg:      reg,
		clock:    cfg.clock,
		runID:    runID,
		label:    cfg.label,
		recorder: cfg.recorder,
		logger:   cfg.logger.With(zap.String("run_id", runID)),
		plans:    make(map[planKey]*Plan),
	}
}

// RunID returns the ID grouping this engine's decompositions.
func (e *Engine) RunID() string {
	return e.runID
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *Registry {
	return e.reg
}

// Plan parses src and compiles it against t, using the plan cache.
func (e *Engine) Plan(src string, t ir.Type, scope *Scope, mode Mode) (*Plan, error) {
	pat, err := pattern.Parse(src)
	if err != nil {
		return nil, &ResolveError{
			Code:    ErrCodeInvalidPattern,
			Message: err.Error(),
			Pattern: src,
			Type:    t.String(),
		}
	}

	key := planKey{typ: t.String(), pattern: pat.String(), mode: mode, shape: scope.shape(pat.Names())}

	e.mu.Lock()
	p, ok := e.plans[key]
	e.mu.Unlock()
	if ok {
		e.logger.Debug("plan cache hit", zap.String("pattern", key.pattern), zap.String("type", key.typ))
		return p, nil
	}

	p, err = Compile(e.reg, pat, t, scope, mode)
	if err != nil {
		e.logger.Debug("plan rejected", zap.String("pattern", key.pattern), zap.String("type", key.typ), zap.Error(err))
		return nil, err
	}

	e.mu.Lock()
	e.plans[key] = p
	e.mu.Unlock()
	e.logger.Debug("plan compiled",
		zap.String("pattern", key.pattern),
		zap.String("type", key.typ),
		zap.Strings("resolved", p.Resolved()))
	return p, nil
}

// Deconstruct decomposes v, of static type t, with the pattern src and
// stores the bindings in scope.
//
// Errors are static (*ResolveError), a value that does not conform to t
// (*NonConformantError), or failure to record. Once planned, binding
// itself cannot fail.
func (e *Engine) Deconstruct(ctx context.Context, scope *Scope, src string, v ir.IRValue, t ir.Type, mode Mode) (*Bindings, error) {
	p, err := e.Plan(src, t, scope, mode)
	if err != nil {
		return nil, err
	}
	if !values.Conforms(v, t, e.reg.Record) {
		return nil, &NonConformantError{Type: t.String(), Value: ir.Format(v)}
	}

	b := p.Bind(v)
	if err := e.record(ctx, p, b); err != nil {
		return nil, err
	}
	scope.apply(b)
	return b, nil
}

// ForEach iterates a map in insertion order and decomposes each entry
// with src, the loop form "foreach (var (k, v) in m)".
//
// The pattern is planned once against entry<K,V>. Loop names are bound
// per iteration and do not leak into scope; they must not shadow names
// already in scope. fn may stop the loop by returning an error.
func (e *Engine) ForEach(ctx context.Context, scope *Scope, src string, m *ir.IRMap, mapType ir.Type, fn func(*Bindings) error) error {
	if mapType.Kind != ir.KindMap {
		return fmt.Errorf("foreach needs a map type, got %s", mapType)
	}
	entryType := ir.EntryOf(mapType.Elem(0), mapType.Elem(1))

	p, err := e.Plan(src, entryType, scope, ModeDeclare)
	if err != nil {
		return err
	}
	if !values.Conforms(m, mapType, e.reg.Record) {
		return &NonConformantError{Type: mapType.String(), Value: ir.Format(m)}
	}

	for entry := range m.Entries() {
		b := p.Bind(entry)
		if err := e.record(ctx, p, b); err != nil {
			return err
		}
		if fn != nil {
			if err := fn(b); err != nil {
				return err
			}
		}
	}
	return nil
}

// record stamps the decomposition with the next seq and persists it.
// On failure the seq is released.
func (e *Engine) record(ctx context.Context, p *Plan, b *Bindings) (err error) {
	seq := e.clock.Next()
	defer func() {
		if err != nil {
			e.clock.Release(seq)
		}
	}()

	e.logger.Debug("deconstruct",
		zap.Int64("seq", seq),
		zap.String("pattern", p.Pattern.String()),
		zap.String("type", p.Type.String()),
		zap.Strings("bound", b.Names()))

	if e.recorder == nil {
		return nil
	}

	if err := e.ensureRun(ctx); err != nil {
		return err
	}

	rec, err := NewDeconstructionRecord(e.runID, seq, p, b)
	if err != nil {
		return err
	}
	if err := e.recorder.WriteDeconstruction(ctx, rec); err != nil {
		return fmt.Errorf("record deconstruction seq=%d: %w", seq, err)
	}
	return nil
}

func (e *Engine) ensureRun(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}

	run := ir.Run{
		ID:            e.runID,
		Label:         e.label,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
		CreatedSeq:    e.clock.Current(),
	}
	if err := e.recorder.WriteRun(ctx, run); err != nil {
		return fmt.Errorf("record run %s: %w", e.runID, err)
	}
	e.started = true
	return nil
}

// NewDeconstructionRecord builds the persisted form of one decomposition.
func NewDeconstructionRecord(runID string, seq int64, p *Plan, b *Bindings) (ir.DeconstructionRecord, error) {
	pat := p.Pattern.String()
	typ := p.Type.String()

	id, err := ir.DeconstructionID(runID, seq, pat, typ)
	if err != nil {
		return ir.DeconstructionRecord{}, err
	}
	plain := b.Plain()
	bindings, err := ir.MarshalCanonical(plain)
	if err != nil {
		return ir.DeconstructionRecord{}, fmt.Errorf("marshal bindings: %w", err)
	}
	hash, err := ir.BindingHash(plain)
	if err != nil {
		return ir.DeconstructionRecord{}, err
	}

	return ir.DeconstructionRecord{
		ID:          id,
		RunID:       runID,
		Seq:         seq,
		Pattern:     pat,
		Type:        typ,
		Mode:        string(p.Mode),
		Resolved:    p.Resolved(),
		Bindings:    bindings,
		BindingHash: hash,
	}, nil
}
