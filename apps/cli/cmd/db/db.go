package db

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/posbill/posbill-saas/apps/cli/cmd/clidb"
	"github.com/posbill/posbill-saas/platform/go/persistence"
)

// Command groups database helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database helpers",
	}

	cmd.AddCommand(bootstrapCommand())
	return cmd
}

func bootstrapCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the core tables and seed the permission catalog (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := clidb.Open(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			if err := persistence.ApplySchema(ctx, pool); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied.")
			return nil
		},
	}

	clidb.AddFlag(c, &databaseURL)
	return c
}
