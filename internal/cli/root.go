// Package cli wires the simulator's commands.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigDir string
	LogLevel  string
}

// NewRootCommand creates the root command for the herdfence CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "herdfence",
		Short: "Virtual fence containment simulator",
		Long: `herdfence simulates animals wandering a bounded arena and raises
an alert whenever one crosses the virtual fence boundary, in either
direction. Sessions can be recorded to memory, SQLite or Postgres and
replayed from saved session files.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", ".", "directory containing herdfence.cfg.json")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override configured log level (trace|debug|info|warn|error)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
