package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/decon/internal/compiler"
	"github.com/roach88/decon/internal/engine"
	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/internal/store"
	"github.com/roach88/decon/internal/values"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	*RootOptions
	Type     string
	Value    string
	Pattern  string
	Keys     string   // ordinal | ignore_case
	Lets     []string // name:type=value, declared before matching
	Assign   bool
	Foreach  bool
	Database string
	RunID    string // continue an existing run
}

// MatchBinding is one bound name in match output.
type MatchBinding struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// MatchResult is the outcome of one decomposition.
type MatchResult struct {
	Seq      int64          `json:"seq"`
	Resolved []string       `json:"resolved"`
	Bindings []MatchBinding `json:"bindings"`
}

// MatchOutput is the JSON payload of the match command.
type MatchOutput struct {
	RunID   string        `json:"run_id"`
	Pattern string        `json:"pattern"`
	Type    string        `json:"type"`
	Mode    string        `json:"mode"`
	Results []MatchResult `json:"results"`
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match <specs-dir>",
		Short: "Decompose one value with a pattern",
		Long: `Decompose a value literal of a declared type with a positional pattern.

The value is YAML: records are mappings by field name, tuples and entries
are sequences, maps are mappings in insertion order, optionals are null
or their payload.

Static errors (E2xx) exit with code 1. With --db every decomposition is
recorded; --run continues an existing run after its last seq.

Examples:
  decon match ./specs --type Album \
    --value '{id: 7, name: Sabaton, asking_price: 9.99, release_date: 1995-10-03}' \
    --pattern '(_, name, price, (hasDate, date))'
  decon match ./specs --type 'map<string,int>' --foreach \
    --value '{a: 1, b: 2}' --pattern '(k, v)'
  decon match ./specs --type 'optional<int>' --value 77 \
    --let 'has:bool=false' --let 'v:int=0' --assign --pattern '(has, v)'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "static type of the value (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&opts.Value, "value", "", "value literal in YAML (required)")
	_ = cmd.MarkFlagRequired("value")
	cmd.Flags().StringVar(&opts.Pattern, "pattern", "", "positional pattern, e.g. '(a, _, (b, c))' (required)")
	_ = cmd.MarkFlagRequired("pattern")
	cmd.Flags().StringVar(&opts.Keys, "keys", "", "map key comparer (ordinal|ignore_case)")
	cmd.Flags().StringArrayVar(&opts.Lets, "let", nil, "declare name:type=value before matching (repeatable)")
	cmd.Flags().BoolVar(&opts.Assign, "assign", false, "reassign names declared with --let")
	cmd.Flags().BoolVar(&opts.Foreach, "foreach", false, "decompose each entry of a map value")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record decompositions to this SQLite database")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "continue this run (requires --db)")

	return cmd
}

func runMatch(ctx context.Context, opts *MatchOptions, specsDir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	log := opts.logger().With(zap.String("command", "match"))

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.DB
	}
	if opts.RunID != "" && dbPath == "" {
		return NewExitError(ExitCommandError, "--run requires --db")
	}
	if opts.Foreach && opts.Assign {
		return NewExitError(ExitCommandError, "--foreach always declares; drop --assign")
	}

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeFailFast, opts.Config.UsesPrelude())
	if len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		return outputCompileError(formatter, code, message)
	}
	if verrs := compiler.Validate(loadResult.Specs); len(verrs) > 0 {
		return outputCompileError(formatter, verrs[0].Code, verrs[0].Error())
	}
	reg := engine.NewRegistry(loadResult.Specs)

	t, err := ir.ParseType(opts.Type)
	if err != nil {
		return outputCompileError(formatter, ErrCodeBadValue, err.Error())
	}
	keys, err := ir.ParseKeyComparer(opts.Keys)
	if err != nil {
		return outputCompileError(formatter, ErrCodeBadValue, err.Error())
	}
	decodeOpts := values.Options{Keys: keys}

	v, err := values.DecodeString(opts.Value, t, reg.Record, decodeOpts)
	if err != nil {
		return outputCompileError(formatter, ErrCodeBadValue, err.Error())
	}
	scope, err := declareLets(opts.Lets, reg, decodeOpts)
	if err != nil {
		return outputCompileError(formatter, ErrCodeBadValue, err.Error())
	}

	engOpts := []engine.Option{engine.WithLogger(log)}
	clock := engine.NewClock()
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		if opts.RunID != "" {
			if _, err := st.ReadRun(ctx, opts.RunID); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("run %s not found", opts.RunID), err)
			}
			last, err := st.LastSeq(ctx, opts.RunID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read last seq", err)
			}
			clock = engine.NewClockAt(last)
			engOpts = append(engOpts, engine.WithRunIDGenerator(engine.NewFixedGenerator(opts.RunID)))
		}
		engOpts = append(engOpts, engine.WithRecorder(st), engine.WithLabel("match "+opts.Pattern))
	}
	engOpts = append(engOpts, engine.WithClock(clock))
	eng := engine.New(reg, engOpts...)

	mode := engine.ModeDeclare
	if opts.Assign {
		mode = engine.ModeAssign
	}

	out := MatchOutput{
		RunID:   eng.RunID(),
		Pattern: opts.Pattern,
		Type:    t.String(),
		Mode:    string(mode),
		Results: []MatchResult{},
	}

	if opts.Foreach {
		m, ok := v.(*ir.IRMap)
		if !ok {
			return outputCompileError(formatter, ErrCodeBadValue, fmt.Sprintf("--foreach needs a map type, got %s", t))
		}
		p, err := eng.Plan(opts.Pattern, ir.EntryOf(t.Elem(0), t.Elem(1)), scope, engine.ModeDeclare)
		if err != nil {
			return outputResolveError(formatter, err)
		}
		err = eng.ForEach(ctx, scope, opts.Pattern, m, t, func(b *engine.Bindings) error {
			out.Results = append(out.Results, matchResult(clock.Current(), p, b))
			return nil
		})
		if err != nil {
			return outputResolveError(formatter, err)
		}
	} else {
		p, err := eng.Plan(opts.Pattern, t, scope, mode)
		if err != nil {
			return outputResolveError(formatter, err)
		}
		b, err := eng.Deconstruct(ctx, scope, opts.Pattern, v, t, mode)
		if err != nil {
			return outputResolveError(formatter, err)
		}
		out.Results = append(out.Results, matchResult(clock.Current(), p, b))
	}

	if formatter.JSON() {
		return formatter.encode(CLIResponse{Status: "ok", Data: out, RunID: out.RunID})
	}
	printMatch(formatter, out, dbPath != "")
	return nil
}

// declareLets parses --let flags into a scope.
func declareLets(lets []string, reg *engine.Registry, opts values.Options) (*engine.Scope, error) {
	scope := engine.NewScope()
	for _, let := range lets {
		decl, literal, ok := strings.Cut(let, "=")
		if !ok {
			return nil, fmt.Errorf("--let %q: expected name:type=value", let)
		}
		name, typ, ok := strings.Cut(decl, ":")
		if !ok {
			return nil, fmt.Errorf("--let %q: expected name:type=value", let)
		}
		t, err := ir.ParseType(strings.TrimSpace(typ))
		if err != nil {
			return nil, fmt.Errorf("--let %q: %w", let, err)
		}
		v, err := values.DecodeString(literal, t, reg.Record, opts)
		if err != nil {
			return nil, fmt.Errorf("--let %q: %w", let, err)
		}
		if err := scope.Declare(strings.TrimSpace(name), t, v); err != nil {
			return nil, fmt.Errorf("--let %q: %w", let, err)
		}
	}
	return scope, nil
}

func matchResult(seq int64, p *engine.Plan, b *engine.Bindings) MatchResult {
	r := MatchResult{Seq: seq, Resolved: p.Resolved(), Bindings: []MatchBinding{}}
	for v := range b.All() {
		r.Bindings = append(r.Bindings, MatchBinding{
			Name:  v.Name,
			Type:  v.Type.String(),
			Value: ir.Plain(v.Value),
		})
	}
	return r
}

func printMatch(formatter *OutputFormatter, out MatchOutput, recorded bool) {
	w := formatter.Writer
	for i, r := range out.Results {
		if len(out.Results) > 1 {
			fmt.Fprintf(w, "#%d\n", i+1)
		}
		for _, b := range r.Bindings {
			fmt.Fprintf(w, "%s = %v (%s)\n", b.Name, formatPlain(b.Value), b.Type)
		}
	}
	if len(out.Results) > 0 {
		formatter.VerboseLog("resolved: %s", strings.Join(out.Results[0].Resolved, " > "))
	}
	if recorded {
		fmt.Fprintf(w, "Recorded %d decomposition(s) in run %s\n", len(out.Results), out.RunID)
	}
}

// formatPlain renders plain data compactly for text output.
func formatPlain(v any) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	if s, ok := v.(string); ok {
		return s
	}
	return string(data)
}

// outputResolveError reports static errors with exit code 1 and other
// failures with exit code 2.
func outputResolveError(formatter *OutputFormatter, err error) error {
	var re *engine.ResolveError
	if errors.As(err, &re) {
		details := map[string]any{"path": re.Path, "type": re.Type}
		if len(re.Candidates) > 0 {
			details["candidates"] = re.Candidates
		}
		_ = formatter.Error(string(re.Code), re.Code.Name()+": "+re.Message, details)
		return WrapExitError(ExitFailure, "decomposition rejected", err)
	}
	var nc *engine.NonConformantError
	if errors.As(err, &nc) {
		_ = formatter.Error(ErrCodeBadValue, nc.Error(), nil)
		return WrapExitError(ExitCommandError, "value does not conform", err)
	}
	_ = formatter.Error(ErrCodeStore, err.Error(), nil)
	return WrapExitError(ExitCommandError, "decomposition failed", err)
}
