package cli

import (
	"context"
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/decon/internal/compiler"
	"github.com/roach88/decon/internal/engine"
	"github.com/roach88/decon/internal/ir"
	"github.com/roach88/decon/internal/store"
	"github.com/roach88/decon/internal/values"
)

//go:embed demo.cue
var demoSource []byte

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Database string
}

// DemoOutput is the JSON payload of the demo command.
type DemoOutput struct {
	RunID string   `json:"run_id"`
	Lines []string `json:"lines"`
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the four built-in demonstrations",
		Long: `Run four decompositions through the engine and print the results:

  1. key/value pairs of a case-insensitive map, in insertion order
  2. a record's own decomposition nested with the nullable extension
  3. the nullable extension, declared then reassigned
  4. a positional record`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the demo's decompositions to this SQLite database")

	return cmd
}

func runDemo(ctx context.Context, opts *DemoOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	set, err := demoSpecs()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile demo specs", err)
	}

	engOpts := []engine.Option{
		engine.WithLogger(opts.logger().With(zap.String("command", "demo"))),
		engine.WithLabel("demo"),
	}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		engOpts = append(engOpts, engine.WithRecorder(st))
	}

	d := &demo{eng: engine.New(engine.NewRegistry(set), engOpts...)}
	steps := []func(context.Context) error{
		d.keyValuePairs,
		d.customObjects,
		d.extensionMethods,
		d.positionalRecords,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return WrapExitError(ExitCommandError, "demo failed", err)
		}
	}

	if formatter.JSON() {
		return formatter.Success(DemoOutput{RunID: d.eng.RunID(), Lines: d.lines})
	}
	for _, line := range d.lines {
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}

// demoSpecs compiles the embedded records together with the prelude.
func demoSpecs() (*ir.SpecSet, error) {
	set, err := compiler.CompileSpecs(cuecontext.New().CompileBytes(demoSource, cue.Filename("demo.cue")))
	if err != nil {
		return nil, err
	}
	set, err = compiler.WithPrelude(set)
	if err != nil {
		return nil, err
	}
	if verrs := compiler.Validate(set); len(verrs) > 0 {
		return nil, verrs[0]
	}
	return set, nil
}

type demo struct {
	eng   *engine.Engine
	lines []string
}

func (d *demo) printf(format string, args ...any) {
	d.lines = append(d.lines, fmt.Sprintf(format, args...))
}

func (d *demo) decode(src string, t ir.Type, keys ir.KeyComparer) (ir.IRValue, error) {
	return values.DecodeString(src, t, d.eng.Registry().Record, values.Options{Keys: keys})
}

func (d *demo) keyValuePairs(ctx context.Context) error {
	t := ir.MapOf(ir.TypeString, ir.TypeInt)
	v, err := d.decode(`{"C#": 1, TypeScript: 2, "F#": 3, JavaScript: 4, GoLang: 5}`, t, ir.KeysIgnoreCase)
	if err != nil {
		return err
	}
	return d.eng.ForEach(ctx, engine.NewScope(), "(lang, rank)", v.(*ir.IRMap), t, func(b *engine.Bindings) error {
		d.printf("My %s favorite programming language is %s", ir.Format(b.Value("rank")), ir.Format(b.Value("lang")))
		return nil
	})
}

func (d *demo) customObjects(ctx context.Context) error {
	t := ir.RecordType("Album")
	v, err := d.decode(`{id: 7, name: Sabaton, asking_price: 9.99, release_date: 1995-10-03}`, t, ir.KeysOrdinal)
	if err != nil {
		return err
	}
	b, err := d.eng.Deconstruct(ctx, engine.NewScope(), "(_, name, askingPrice, (hasDate, date))", v, t, engine.ModeDeclare)
	if err != nil {
		return err
	}
	date := b.Value("date").(ir.IRDate)
	d.printf("The first CD i bought was %s", ir.Format(b.Value("name")))
	d.printf("The released was %s %d %d", date.Month, date.Day, date.Year)
	d.printf("The price was %s", currency(b.Value("askingPrice").(ir.IRDecimal)))
	return nil
}

func (d *demo) extensionMethods(ctx context.Context) error {
	t := ir.OptionalOf(ir.TypeInt)
	scope := engine.NewScope()

	b, err := d.eng.Deconstruct(ctx, scope, "(hasValue, value)", ir.IROptional{Value: ir.IRInt(0)}, t, engine.ModeDeclare)
	if err != nil {
		return err
	}
	d.printf("Has value = %s, value = %s", title(b.Value("hasValue")), ir.Format(b.Value("value")))

	b, err = d.eng.Deconstruct(ctx, scope, "(hasValue, value)", ir.IROptional{Present: true, Value: ir.IRInt(77)}, t, engine.ModeAssign)
	if err != nil {
		return err
	}
	d.printf("Has value = %s, value = %s", title(b.Value("hasValue")), ir.Format(b.Value("value")))
	return nil
}

func (d *demo) positionalRecords(ctx context.Context) error {
	t := ir.RecordType("CompactDisc")
	v, err := d.decode(`{name: Deftones, release_date: 2003-05-20}`, t, ir.KeysOrdinal)
	if err != nil {
		return err
	}
	b, err := d.eng.Deconstruct(ctx, engine.NewScope(), "(name, date)", v, t, engine.ModeDeclare)
	if err != nil {
		return err
	}
	date := b.Value("date").(ir.IRDate)
	d.printf("The self-titled album is %s was released on %s, %d %d", ir.Format(b.Value("name")), date.Month, date.Day, date.Year)
	return nil
}

// currency renders a decimal as dollars with two places.
func currency(v ir.IRDecimal) string {
	var out apd.Decimal
	if _, err := apd.BaseContext.WithPrecision(34).Quantize(&out, v.Decimal(), -2); err != nil {
		return "$" + v.String()
	}
	return "$" + out.Text('f')
}

// title renders a bool as "True" or "False".
func title(v ir.IRValue) string {
	return cases.Title(language.English).String(ir.Format(v))
}
