package plans

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/posbill/posbill-saas/apps/cli/cmd/clidb"
	"github.com/posbill/posbill-saas/platform/go/access"
	"github.com/posbill/posbill-saas/platform/go/persistence"
)

func intPtr(v int) *int { return &v }

// DefaultCatalog is the plan line-up seeded by `plans seed`. Prices are in minor units.
var DefaultCatalog = []persistence.CreatePlanParams{
	{
		Name:             "Basic",
		MonthlyPrice:     49900,
		YearlyPrice:      499000,
		MaxUsers:         3,
		MaxProducts:      50,
		MaxBillsPerMonth: intPtr(1000),
		Features:         map[string]bool{"kot": false, "reports": false, "inventory": false},
	},
	{
		Name:             "Pro",
		MonthlyPrice:     99900,
		YearlyPrice:      999000,
		MaxUsers:         10,
		MaxProducts:      500,
		MaxBillsPerMonth: intPtr(10000),
		Features:         map[string]bool{"kot": true, "reports": true, "inventory": false},
	},
	{
		Name:         "Enterprise",
		MonthlyPrice: 249900,
		YearlyPrice:  2499000,
		MaxUsers:     100,
		MaxProducts:  5000,
		Features:     map[string]bool{"kot": true, "reports": true, "inventory": true},
	},
}

// Command groups plan catalog helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Plan catalog (seed/list)",
	}

	cmd.AddCommand(seedCommand(), listCommand())
	return cmd
}

func seedCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "seed",
		Short: "Insert or update the default plan catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := clidb.Open(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			store, err := persistence.NewPlanStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init plan store: %w", err)
			}

			for _, params := range DefaultCatalog {
				plan, err := store.CreatePlan(ctx, params)
				if err != nil {
					return fmt.Errorf("seed plan %s: %w", params.Name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Plan %s (%s) ready\n", plan.Name, plan.ID)
			}
			return nil
		},
	}

	clidb.AddFlag(c, &databaseURL)
	return c
}

func listCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "list",
		Short: "List the plan catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := clidb.Open(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			store, err := persistence.NewPlanStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init plan store: %w", err)
			}

			catalog, err := store.ListPlans(ctx)
			if err != nil {
				return fmt.Errorf("list plans: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tUSERS\tPRODUCTS\tBILLS/MONTH\tFEATURES")
			for _, p := range catalog {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", p.Name, p.MaxUsers, p.MaxProducts, formatBills(p.MaxBillsPerMonth), FormatFeatures(p))
			}
			return w.Flush()
		},
	}

	clidb.AddFlag(c, &databaseURL)
	return c
}

func formatBills(limit *int) string {
	if limit == nil {
		return "unlimited"
	}
	return fmt.Sprintf("%d", *limit)
}

// FormatFeatures renders the enabled features in name order, or "-" when none are enabled.
func FormatFeatures(p access.Plan) string {
	enabled := make([]string, 0, len(p.Features))
	for name, on := range p.Features {
		if on {
			enabled = append(enabled, name)
		}
	}
	if len(enabled) == 0 {
		return "-"
	}
	sort.Strings(enabled)
	return strings.Join(enabled, ",")
}
