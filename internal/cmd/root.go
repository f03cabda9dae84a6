// Package cmd implements the provdeck command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var version = "dev"

// NewRootCmd builds the root command with all subcommands attached. Running
// provdeck with no arguments lists the configured providers.
func NewRootCmd(v string) *cobra.Command {
	if v != "" {
		version = v
	}

	root := &cobra.Command{
		Use:           "provdeck",
		Short:         "Manage provider profiles for AI coding CLIs",
		Long:          "provdeck stores provider profiles for the claude, codex, and gemini CLIs,\nswitches the active one, and serves an HTTP API over the same store.",
		RunE:          runList,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file (default ~/.provdeck/config.json)")

	root.AddCommand(newInitCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newEditCmd())
	root.AddCommand(newUseCmd())
	root.AddCommand(newRemoveCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())

	return root
}
