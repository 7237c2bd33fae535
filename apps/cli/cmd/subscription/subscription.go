package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/posbill/posbill-saas/apps/cli/cmd/clidb"
	"github.com/posbill/posbill-saas/platform/go/access"
	"github.com/posbill/posbill-saas/platform/go/persistence"
)

const dateLayout = "2006-01-02"

// Command groups subscription helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Inspect or change a tenant subscription",
	}

	cmd.AddCommand(showCommand(), setCommand())
	return cmd
}

// ResolveEndDate returns the end of day of endDate (YYYY-MM-DD, UTC) when set, otherwise now plus days.
func ResolveEndDate(endDate string, days int, now time.Time) (time.Time, error) {
	endDate = strings.TrimSpace(endDate)
	if endDate == "" {
		if days <= 0 {
			return time.Time{}, errors.New("--days must be positive when --end-date is not set")
		}
		return now.UTC().AddDate(0, 0, days), nil
	}

	day, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --end-date %q: expected YYYY-MM-DD", endDate)
	}
	return day.Add(24*time.Hour - time.Second), nil
}

// Apply points the tenant at plan with the given status and end date.
func Apply(ctx context.Context, pool *pgxpool.Pool, t persistence.TenantRecord, planName string, status access.SubscriptionStatus, end time.Time) (access.Subscription, error) {
	plans, err := persistence.NewPlanStore(ctx, pool)
	if err != nil {
		return access.Subscription{}, fmt.Errorf("init plan store: %w", err)
	}
	plan, err := plans.GetPlanByName(ctx, planName)
	if err != nil {
		if errors.Is(err, access.ErrNotFound) {
			return access.Subscription{}, fmt.Errorf("plan %q not found (run `posbill plans seed` first)", planName)
		}
		return access.Subscription{}, fmt.Errorf("load plan: %w", err)
	}

	subs, err := persistence.NewSubscriptionStore(ctx, pool)
	if err != nil {
		return access.Subscription{}, fmt.Errorf("init subscription store: %w", err)
	}
	sub, err := subs.UpsertSubscription(ctx, persistence.UpsertSubscriptionParams{
		TenantID: t.TenantID,
		PlanID:   plan.ID,
		Status:   status,
		EndDate:  end,
	})
	if err != nil {
		return access.Subscription{}, fmt.Errorf("upsert subscription: %w", err)
	}
	return sub, nil
}

func lookupTenant(ctx context.Context, pool *pgxpool.Pool, slug string) (persistence.TenantRecord, error) {
	store, err := persistence.NewTenantStore(ctx, pool)
	if err != nil {
		return persistence.TenantRecord{}, fmt.Errorf("init tenant store: %w", err)
	}
	t, err := store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.TenantRecord{}, fmt.Errorf("tenant %q not found", slug)
		}
		return persistence.TenantRecord{}, fmt.Errorf("load tenant: %w", err)
	}
	return t, nil
}

func showCommand() *cobra.Command {
	var databaseURL, tenantSlug string

	c := &cobra.Command{
		Use:   "show",
		Short: "Print a tenant's plan, status and end date",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := clidb.Open(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			t, err := lookupTenant(ctx, pool, tenantSlug)
			if err != nil {
				return err
			}

			subs, err := persistence.NewSubscriptionStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init subscription store: %w", err)
			}
			sub, err := subs.SubscriptionForTenant(ctx, t.TenantID)
			if err != nil {
				if errors.Is(err, access.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "Tenant %s has no subscription.\n", t.Slug)
					return nil
				}
				return fmt.Errorf("load subscription: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Tenant:  %s (%s)\nPlan:    %s\nStatus:  %s\nEnds:    %s\n",
				t.Slug, t.TenantID, sub.Plan.Name, sub.Status, sub.EndDate.Format(time.RFC3339))
			return nil
		},
	}

	clidb.AddFlag(c, &databaseURL)
	c.Flags().StringVar(&tenantSlug, "tenant", "", "tenant slug")
	_ = c.MarkFlagRequired("tenant")
	return c
}

func setCommand() *cobra.Command {
	var (
		databaseURL string
		tenantSlug  string
		planName    string
		statusName  string
		endDate     string
		days        int
	)

	c := &cobra.Command{
		Use:   "set",
		Short: "Change a tenant's plan, status or end date",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := access.ParseStatus(statusName)
			if err != nil {
				return err
			}
			end, err := ResolveEndDate(endDate, days, time.Now())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := clidb.Open(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			t, err := lookupTenant(ctx, pool, tenantSlug)
			if err != nil {
				return err
			}

			sub, err := Apply(ctx, pool, t, planName, status, end)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Tenant %s is on %s (%s) until %s\n", t.Slug, sub.Plan.Name, sub.Status, sub.EndDate.Format(time.RFC3339))
			return nil
		},
	}

	clidb.AddFlag(c, &databaseURL)
	c.Flags().StringVar(&tenantSlug, "tenant", "", "tenant slug")
	c.Flags().StringVar(&planName, "plan", "", "plan name (see `posbill plans list`)")
	c.Flags().StringVar(&statusName, "status", string(access.StatusActive), "TRIAL, ACTIVE, GRACE_PERIOD, EXPIRED or CANCELLED")
	c.Flags().StringVar(&endDate, "end-date", "", "last day of the subscription (YYYY-MM-DD)")
	c.Flags().IntVar(&days, "days", 30, "subscription length from today when --end-date is not set")
	_ = c.MarkFlagRequired("tenant")
	_ = c.MarkFlagRequired("plan")
	return c
}
