// Package cli implements the arrview command line: inspecting ROI files,
// migrating legacy polygon files to dense masks, and writing the default
// configuration.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"arrview/pkg/config"
	"arrview/pkg/persistence"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// set by the root command before any subcommand runs
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the arrview CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "arrview",
		Short: "arrview - ROI tooling for N-dimensional arrays",
		Long:  "Inspect and migrate region of interest files drawn on N-dimensional array views.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging on stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "arrview.yaml", "configuration file")

	cmd.AddCommand(NewInfoCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// setup loads the configuration and installs the logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Config = cfg
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// codec returns a persistence codec configured from the loaded config.
func (o *RootOptions) codec() *persistence.Codec {
	c := persistence.DefaultCodec()
	if o.Config != nil {
		c.Description = o.Config.Persistence.Description
		c.CompressionLevel = o.Config.Persistence.CompressionLevel
	}
	if o.Logger != nil {
		c.Logger = o.Logger
	}
	return c
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
