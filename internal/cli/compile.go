package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/decon/internal/compiler"
	"github.com/roach88/decon/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	RecordCount        int
	ExtensionCount     int
	DecompositionCount int
	PositionalRecords  int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE specs to IR",
		Long: `Compile CUE record and extension declarations to IR.

The compiler parses CUE files, infers part types from projection paths,
validates the result and outputs JSON for use by the engine. Built-in
extensions are included unless the config sets prelude = false.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	log := opts.logger().With(zap.String("command", "compile"), zap.String("dir", specsDir))

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll, opts.Config.UsesPrelude())
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputCompileError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)
	for _, rec := range loadResult.Specs.Records {
		formatter.VerboseLog("Compiling record: %s", rec.Name)
	}
	for _, ext := range loadResult.Specs.Extensions {
		formatter.VerboseLog("Compiling extension: %s", ext.Name)
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	if verrs := compiler.Validate(loadResult.Specs); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, v := range verrs {
			errs[i] = v
		}
		return outputCompileErrors(formatter, errs)
	}

	stats := calculateStats(loadResult.Specs)
	log.Debug("compiled",
		zap.Int("records", stats.RecordCount),
		zap.Int("extensions", stats.ExtensionCount))

	if opts.Output != "" {
		if err := writeIRToFile(loadResult.Specs, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, loadResult.Specs, stats, opts.Output)
}

// calculateStats computes summary statistics from a compiled spec set.
func calculateStats(set *ir.SpecSet) CompilationStats {
	stats := CompilationStats{
		RecordCount:    len(set.Records),
		ExtensionCount: len(set.Extensions),
	}
	for _, rec := range set.Records {
		stats.DecompositionCount += len(rec.Deconstructors)
		if rec.Positional {
			stats.PositionalRecords++
		}
	}
	stats.DecompositionCount += len(set.Extensions)
	return stats
}

func outputCompileSuccess(formatter *OutputFormatter, set *ir.SpecSet, stats CompilationStats, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(set)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d record(s), %d extension(s)\n\n", stats.RecordCount, stats.ExtensionCount)

	if len(set.Records) > 0 {
		fmt.Fprintln(w, "Records:")
		for _, rec := range set.Records {
			suffix := ""
			if rec.Positional {
				suffix = " (positional)"
			}
			fmt.Fprintf(w, "  %s: %d field(s), arities %s%s\n",
				rec.Name, len(rec.Fields), arities(rec.Deconstructors), suffix)
		}
		fmt.Fprintln(w)
	}

	if len(set.Extensions) > 0 {
		fmt.Fprintln(w, "Extensions:")
		for _, ext := range set.Extensions {
			fmt.Fprintf(w, "  %s: %s → %d part(s)\n", ext.Name, ext.Target, ext.Arity())
		}
		fmt.Fprintln(w)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote IR to %s\n", outputFile)
	}
	return nil
}

func arities(sigs []ir.DeconstructorSig) string {
	if len(sigs) == 0 {
		return "none"
	}
	s := ""
	for i, sig := range sigs {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprint(sig.Arity())
	}
	return s
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation or validation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.JSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Compilation failed")
	fmt.Fprintln(w)
	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(w, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		fmt.Fprintf(w, "  %s: %s\n\n", code, message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var verr compiler.ValidationError
	if errors.As(err, &verr) {
		return verr.Code, verr.Field + ": " + verr.Message
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeIRToFile writes the compiled spec set as indented JSON.
func writeIRToFile(set *ir.SpecSet, filename string) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
