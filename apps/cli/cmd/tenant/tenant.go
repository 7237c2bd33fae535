package tenantcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/posbill/posbill-saas/apps/cli/cmd/clidb"
	"github.com/posbill/posbill-saas/apps/cli/cmd/subscription"
	"github.com/posbill/posbill-saas/platform/go/access"
	"github.com/posbill/posbill-saas/platform/go/persistence"
)

// OwnerRoleName is the role created for every new tenant's first user.
const OwnerRoleName = "Owner"

// Command groups tenant-related helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant utilities (create)",
	}

	cmd.AddCommand(createCommand())
	return cmd
}

// createParams is everything `tenant create` writes.
type createParams struct {
	Slug       string
	Name       string
	Plan       string
	Status     access.SubscriptionStatus
	EndDate    time.Time
	OwnerEmail string
	OwnerName  string
}

func (p createParams) validate() error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "--name is required")
	}
	if !strings.Contains(p.OwnerEmail, "@") {
		problems = append(problems, "--owner-email must be an email address")
	}
	if strings.TrimSpace(p.OwnerName) == "" {
		problems = append(problems, "--owner-name is required")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func createCommand() *cobra.Command {
	var (
		databaseURL string
		statusName  string
		endDate     string
		days        int
		params      createParams
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Register a restaurant: tenant, subscription, Owner role and owner user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if params.Status, err = access.ParseStatus(statusName); err != nil {
				return err
			}
			if params.EndDate, err = subscription.ResolveEndDate(endDate, days, time.Now()); err != nil {
				return err
			}
			if err := params.validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := clidb.Open(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			res, err := createTenant(ctx, pool, params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tenant created. Tenant: %s (%s)\n", res.tenant.Slug, res.tenant.TenantID)
			fmt.Fprintf(out, "Subscription: %s %s until %s\n", res.subscription.Plan.Name, res.subscription.Status, res.subscription.EndDate.Format(time.RFC3339))
			fmt.Fprintf(out, "Owner: %s (%s) role %s\n", res.owner.Email, res.owner.UserID, res.roleID)
			fmt.Fprintf(out, "Token: posbill auth devtoken --user-id %s --email %s --tenant-id %s --role-id %s\n",
				res.owner.UserID, res.owner.Email, res.tenant.TenantID, res.roleID)
			return nil
		},
	}

	clidb.AddFlag(c, &databaseURL)
	c.Flags().StringVar(&params.Slug, "slug", "", "tenant slug (lowercase letters, digits, hyphens)")
	c.Flags().StringVar(&params.Name, "name", "", "restaurant display name")
	c.Flags().StringVar(&params.Plan, "plan", "Basic", "plan name")
	c.Flags().StringVar(&statusName, "status", string(access.StatusTrial), "initial subscription status")
	c.Flags().StringVar(&endDate, "end-date", "", "last day of the subscription (YYYY-MM-DD)")
	c.Flags().IntVar(&days, "days", 14, "subscription length from today when --end-date is not set")
	c.Flags().StringVar(&params.OwnerEmail, "owner-email", "", "owner user email")
	c.Flags().StringVar(&params.OwnerName, "owner-name", "", "owner user full name")

	_ = c.MarkFlagRequired("slug")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("owner-email")
	_ = c.MarkFlagRequired("owner-name")

	return c
}

type createResult struct {
	tenant       persistence.TenantRecord
	subscription access.Subscription
	roleID       uuid.UUID
	owner        persistence.User
}

func createTenant(ctx context.Context, pool *pgxpool.Pool, params createParams) (createResult, error) {
	var res createResult

	tenants, err := persistence.NewTenantStore(ctx, pool)
	if err != nil {
		return res, fmt.Errorf("init tenant store: %w", err)
	}
	roles, err := persistence.NewRoleStore(ctx, pool)
	if err != nil {
		return res, fmt.Errorf("init role store: %w", err)
	}
	users, err := persistence.NewUserStore(ctx, pool)
	if err != nil {
		return res, fmt.Errorf("init user store: %w", err)
	}

	res.tenant, err = tenants.Create(ctx, persistence.CreateTenantParams{Slug: params.Slug, Name: params.Name})
	if err != nil {
		if errors.Is(err, persistence.ErrConflict) {
			return res, fmt.Errorf("tenant slug %q already exists", params.Slug)
		}
		return res, fmt.Errorf("create tenant: %w", err)
	}

	res.subscription, err = subscription.Apply(ctx, pool, res.tenant, params.Plan, params.Status, params.EndDate)
	if err != nil {
		return res, err
	}

	role, err := roles.CreateRole(ctx, persistence.CreateRoleParams{Name: OwnerRoleName, TenantID: &res.tenant.TenantID})
	if err != nil {
		return res, fmt.Errorf("create owner role: %w", err)
	}
	for _, perm := range access.PermissionCatalog {
		if err := roles.GrantPermission(ctx, role.ID, perm); err != nil {
			return res, fmt.Errorf("grant %s: %w", perm, err)
		}
	}
	res.roleID = role.ID

	res.owner, err = users.CreateUserForTenant(ctx, &res.tenant.TenantID, persistence.CreateUserParams{
		Email:    params.OwnerEmail,
		FullName: params.OwnerName,
		RoleID:   &role.ID,
	})
	if err != nil {
		return res, fmt.Errorf("create owner user: %w", err)
	}

	return res, nil
}
