package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the POSBill admin CLI. Subcommands (auth, db, tenant, etc.) are attached here.
var rootCmd = &cobra.Command{
	Use:           "posbill",
	Short:         "POSBill admin CLI",
	Long:          "Administrative utilities for POSBill (dev tokens, schema bootstrap, plans, tenants and subscriptions).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
