package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/decon/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Set by the root command before any subcommand runs.
	Config config.Config
	Logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the decon CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "decon",
		Short: "decon - decomposition protocol",
		Long: `Decompose typed values into named parts with positional patterns.

Records declare their own decompositions, extensions attach decompositions
to existing types, and tuples, map entries and optionals decompose
structurally.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.DefaultPath+" if present)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewDemoCommand(opts))

	return cmd
}

// setup loads the config file, applies it beneath explicit flags and
// builds the logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadOptional(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Config = cfg

	if !cmd.Flags().Changed("format") {
		o.Format = cfg.Format
	}
	if !isValidFormat(o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}

	level, err := cfg.Log.ZapLevel()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if o.Verbose {
		level = zapcore.DebugLevel
	}
	o.Logger = newLogger(cmd.ErrOrStderr(), level)
	return nil
}

// logger returns the configured logger, or a no-op logger when a
// subcommand runs without the root command.
func (o *RootOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// newLogger builds a production-encoded logger writing to w.
func newLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
