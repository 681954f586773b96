package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/internal/queryir"
	"github.com/roach88/decon/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Hash     string   // find decompositions by binding hash
	Where    []string // filter expressions, field=value or field^=prefix
	Limit    int
}

// TraceEvent is one recorded decomposition in a run's timeline.
type TraceEvent struct {
	Seq         int64    `json:"seq"`
	ID          string   `json:"id"`
	RunID       string   `json:"run_id,omitempty"`
	Pattern     string   `json:"pattern"`
	Type        string   `json:"type"`
	Mode        string   `json:"mode"`
	Resolved    []string `json:"resolved"`
	Bindings    any      `json:"bindings"`
	BindingHash string   `json:"binding_hash"`
}

// TraceResult holds the trace of one run.
type TraceResult struct {
	Run      ir.Run       `json:"run"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Deconstructions int `json:"deconstructions"`
	Declares        int `json:"declares"`
	Assigns         int `json:"assigns"`
	Extensions      int `json:"extensions"` // decompositions that used an extension
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Show recorded decompositions",
		Long: `Show decompositions recorded by match --db or the harness.

Without a run ID, lists the runs in the database. With one, prints the
run's decompositions in seq order. --hash finds every decomposition
with the given binding hash across runs.

--where filters decompositions across runs (or within the given run).
Each filter is field=value or field^=prefix; repeated filters must all
hold. Fields: run_id, seq, pattern, type, mode, binding_hash, label, via.

Examples:
  decon trace --db ./decon.db
  decon trace --db ./decon.db 01926f3a-...
  decon trace --db ./decon.db --hash 3b1f... --format json
  decon trace --db ./decon.db --where mode=assign --where via^=extension:`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runTrace(cmd.Context(), opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Hash, "hash", "", "find decompositions by binding hash")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "filter decompositions (field=value or field^=prefix, repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of decompositions returned by --where")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, runID string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	var query *queryir.Select
	if len(opts.Where) > 0 {
		filter, err := queryir.ParseFilter(opts.Where)
		if err != nil {
			return NewExitError(ExitCommandError, err.Error())
		}
		if opts.Hash != "" {
			filter = queryir.Conjoin(queryir.Equals{Field: queryir.FieldBindingHash, Value: ir.IRString(opts.Hash)}, filter)
		}
		if runID != "" {
			filter = queryir.Conjoin(queryir.Equals{Field: queryir.FieldRunID, Value: ir.IRString(runID)}, filter)
		}
		query = &queryir.Select{Filter: filter, Limit: opts.Limit}
		if err := queryir.Validate(query); err != nil {
			return NewExitError(ExitCommandError, err.Error())
		}
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.DB
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "--db is required (or set db in the config file)")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case query != nil || opts.Hash != "":
		var recs []ir.DeconstructionRecord
		var err error
		if query != nil {
			recs, err = st.Query(ctx, query)
		} else {
			recs, err = st.FindByBindingHash(ctx, opts.Hash)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to query decompositions", err)
		}
		events, err := buildTimeline(recs, true)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to decode bindings", err)
		}
		if formatter.JSON() {
			return formatter.Success(events)
		}
		if len(events) == 0 {
			if query != nil {
				fmt.Fprintln(formatter.Writer, "No matching decompositions.")
			} else {
				fmt.Fprintf(formatter.Writer, "No decompositions with binding hash %s\n", opts.Hash)
			}
			return nil
		}
		printTimeline(formatter, events)
		return nil

	case runID == "":
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if formatter.JSON() {
			return formatter.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(formatter.Writer, "No runs recorded.")
			return nil
		}
		for _, run := range runs {
			fmt.Fprintf(formatter.Writer, "%s  %s\n", run.ID, run.Label)
		}
		return nil
	}

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		if formatter.JSON() {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", runID), nil)
		} else {
			fmt.Fprintf(formatter.Writer, "No run found: %s\n", runID)
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	recs, err := st.ReadDeconstructions(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read decompositions", err)
	}
	timeline, err := buildTimeline(recs, false)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode bindings", err)
	}

	result := TraceResult{Run: run, Timeline: timeline, Stats: traceStats(recs)}
	if formatter.JSON() {
		return formatter.encode(CLIResponse{Status: "ok", Data: result, RunID: run.ID})
	}
	return outputTraceText(formatter, result)
}

// buildTimeline converts stored records to trace events, decoding the
// canonical bindings back to plain data.
func buildTimeline(recs []ir.DeconstructionRecord, withRun bool) ([]TraceEvent, error) {
	events := make([]TraceEvent, 0, len(recs))
	for _, rec := range recs {
		bindings, err := ir.UnmarshalPlain(rec.Bindings)
		if err != nil {
			return nil, fmt.Errorf("decomposition %s: %w", rec.ID, err)
		}
		ev := TraceEvent{
			Seq:         rec.Seq,
			ID:          rec.ID,
			Pattern:     rec.Pattern,
			Type:        rec.Type,
			Mode:        rec.Mode,
			Resolved:    rec.Resolved,
			Bindings:    bindings,
			BindingHash: rec.BindingHash,
		}
		if withRun {
			ev.RunID = rec.RunID
		}
		events = append(events, ev)
	}
	return events, nil
}

func traceStats(recs []ir.DeconstructionRecord) TraceStats {
	stats := TraceStats{Deconstructions: len(recs)}
	for _, rec := range recs {
		switch rec.Mode {
		case "assign":
			stats.Assigns++
		default:
			stats.Declares++
		}
		for _, r := range rec.Resolved {
			if strings.HasPrefix(r, "extension:") {
				stats.Extensions++
				break
			}
		}
	}
	return stats
}

func outputTraceText(formatter *OutputFormatter, result TraceResult) error {
	w := formatter.Writer
	fmt.Fprintf(w, "Trace for Run: %s\n", result.Run.ID)
	if result.Run.Label != "" {
		fmt.Fprintf(w, "Label: %s\n", result.Run.Label)
	}
	fmt.Fprintf(w, "Engine: %s (IR %s)\n", result.Run.EngineVersion, result.Run.IRVersion)
	fmt.Fprintln(w)

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No decompositions recorded.")
		return nil
	}
	printTimeline(formatter, result.Timeline)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Stats: %d decomposition(s), %d declare, %d assign, %d via extension\n",
		result.Stats.Deconstructions, result.Stats.Declares, result.Stats.Assigns, result.Stats.Extensions)
	return nil
}

func printTimeline(formatter *OutputFormatter, events []TraceEvent) {
	w := formatter.Writer
	for _, ev := range events {
		prefix := ""
		if ev.RunID != "" {
			prefix = ev.RunID + " "
		}
		fmt.Fprintf(w, "%s[%d] %s %s : %s\n", prefix, ev.Seq, ev.Mode, ev.Pattern, ev.Type)
		fmt.Fprintf(w, "      via %s\n", strings.Join(ev.Resolved, " > "))
		if list, ok := ev.Bindings.([]any); ok {
			for _, item := range list {
				b, _ := item.(map[string]any)
				fmt.Fprintf(w, "      %v = %s\n", b["name"], formatPlain(b["value"]))
			}
		}
		formatter.VerboseLog("      id=%s hash=%s", ev.ID, ev.BindingHash)
	}
}
