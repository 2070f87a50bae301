package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arrview/pkg/config"
)

type configInitOptions struct {
	force bool
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the arrview configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(rootOpts))
	return cmd
}

func newConfigInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &configInitOptions{}

	cmd := &cobra.Command{
		Use:           "init <path>",
		Short:         "Write the default configuration",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !opts.force {
				return NewExitError(ExitCommandError, fmt.Sprintf("%s already exists (use --force to overwrite)", path))
			}
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return WrapExitError(ExitFailure, "failed to write config", err)
			}
			if rootOpts.Logger != nil {
				rootOpts.Logger.Debug("wrote default config", "path", path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "overwrite an existing file")

	return cmd
}
