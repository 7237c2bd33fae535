package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/posbill/posbill-saas/apps/cli/cmd/clidb"
	"github.com/posbill/posbill-saas/apps/cli/cmd/plans"
	"github.com/posbill/posbill-saas/platform/go/persistence"
)

// Command groups bootstrap helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap platform resources (schema, plan catalog, super-admin)",
	}

	cmd.AddCommand(platformCommand())
	return cmd
}

func platformCommand() *cobra.Command {
	var (
		databaseURL   string
		adminEmail    string
		adminFullName string
		seedPlans     bool
	)

	c := &cobra.Command{
		Use:   "platform",
		Short: "Apply the schema, seed the plan catalog and create the first super-admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			adminEmail = strings.TrimSpace(adminEmail)
			if !strings.Contains(adminEmail, "@") {
				return errors.New("--admin-email must be an email address")
			}

			ctx := cmd.Context()
			pool, err := clidb.Open(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			if err := persistence.ApplySchema(ctx, pool); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}

			if seedPlans {
				if err := seedCatalog(ctx, pool); err != nil {
					return err
				}
			}

			user, created, err := ensureSuperAdmin(ctx, pool, adminEmail, adminFullName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if created {
				fmt.Fprintf(out, "Bootstrap complete. Super-admin: %s (%s)\n", user.Email, user.UserID)
				fmt.Fprintf(out, "Token: posbill auth devtoken --super-admin --user-id %s --email %s\n", user.UserID, user.Email)
			} else {
				fmt.Fprintf(out, "Bootstrap complete. Super-admin %s already exists.\n", adminEmail)
			}
			return nil
		},
	}

	clidb.AddFlag(c, &databaseURL)
	c.Flags().StringVar(&adminEmail, "admin-email", "", "super-admin email")
	c.Flags().StringVar(&adminFullName, "admin-full-name", "Platform Admin", "super-admin full name")
	c.Flags().BoolVar(&seedPlans, "seed-plans", true, "insert or update the default plan catalog")

	_ = c.MarkFlagRequired("admin-email")

	return c
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	store, err := persistence.NewPlanStore(ctx, pool)
	if err != nil {
		return fmt.Errorf("init plan store: %w", err)
	}
	for _, params := range plans.DefaultCatalog {
		if _, err := store.CreatePlan(ctx, params); err != nil {
			return fmt.Errorf("seed plan %s: %w", params.Name, err)
		}
	}
	return nil
}

// ensureSuperAdmin creates a tenant-less super-admin. An existing account with the same email is left alone.
func ensureSuperAdmin(ctx context.Context, pool *pgxpool.Pool, email, fullName string) (persistence.User, bool, error) {
	users, err := persistence.NewUserStore(ctx, pool)
	if err != nil {
		return persistence.User{}, false, fmt.Errorf("init user store: %w", err)
	}

	user, err := users.CreateUserForTenant(ctx, nil, persistence.CreateUserParams{
		Email:        email,
		FullName:     fullName,
		IsSuperAdmin: true,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrUserConflict) {
			return persistence.User{}, false, nil
		}
		return persistence.User{}, false, fmt.Errorf("create super-admin: %w", err)
	}
	return user, true, nil
}
