package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/posbill/posbill-saas/platform/go/access"
)

const SubscriptionsTable = "tenant_subscriptions"

// UpsertSubscriptionParams sets a tenant's single subscription row.
type UpsertSubscriptionParams struct {
	TenantID  uuid.UUID
	PlanID    uuid.UUID
	Status    access.SubscriptionStatus
	StartDate time.Time
	EndDate   time.Time
}

// SubscriptionStore reads tenant subscriptions joined with their plan. It implements
// access.SubscriptionReader.
type SubscriptionStore struct {
	pool *pgxpool.Pool
}

func NewSubscriptionStore(ctx context.Context, pool *pgxpool.Pool) (*SubscriptionStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &SubscriptionStore{pool: pool}, nil
}

// SubscriptionForTenant returns the tenant's subscription and plan, or ErrNotFound.
func (s *SubscriptionStore) SubscriptionForTenant(ctx context.Context, tenantID uuid.UUID) (access.Subscription, error) {
	query := fmt.Sprintf(`
        SELECT s.subscription_id, s.tenant_id, s.status, s.end_date, %s, NOT t.is_active
        FROM %s s
        JOIN %s p ON p.plan_id = s.plan_id
        JOIN %s t ON t.tenant_id = s.tenant_id
        WHERE s.tenant_id = $1
    `, planColumns("p"), SubscriptionsTable, PlansTable, TenantsTable)

	sub, err := scanSubscription(s.pool.QueryRow(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return access.Subscription{}, err
		}
		return access.Subscription{}, fmt.Errorf("load subscription: %w", err)
	}
	return sub, nil
}

// UpsertSubscription creates or replaces the tenant's subscription row.
func (s *SubscriptionStore) UpsertSubscription(ctx context.Context, params UpsertSubscriptionParams) (access.Subscription, error) {
	if params.TenantID == uuid.Nil || params.PlanID == uuid.Nil {
		return access.Subscription{}, errors.New("tenant id and plan id are required")
	}
	switch params.Status {
	case access.StatusTrial, access.StatusActive, access.StatusGracePeriod, access.StatusExpired, access.StatusCancelled:
	default:
		return access.Subscription{}, fmt.Errorf("unknown subscription status %q", params.Status)
	}
	if params.StartDate.IsZero() {
		params.StartDate = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %s (tenant_id, plan_id, status, start_date, end_date)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (tenant_id) DO UPDATE SET
            plan_id = EXCLUDED.plan_id,
            status = EXCLUDED.status,
            start_date = EXCLUDED.start_date,
            end_date = EXCLUDED.end_date,
            updated_at = NOW()
    `, SubscriptionsTable), params.TenantID, params.PlanID, string(params.Status), params.StartDate, params.EndDate)
	if err != nil {
		return access.Subscription{}, fmt.Errorf("upsert subscription: %w", err)
	}

	return s.SubscriptionForTenant(ctx, params.TenantID)
}

func scanSubscription(row pgx.Row) (access.Subscription, error) {
	var (
		sub      access.Subscription
		status   string
		maxBills *int32
		features []byte
	)
	err := row.Scan(
		&sub.ID, &sub.TenantID, &status, &sub.EndDate,
		&sub.Plan.ID, &sub.Plan.Name, &sub.Plan.MonthlyPrice, &sub.Plan.YearlyPrice,
		&sub.Plan.MaxUsers, &sub.Plan.MaxProducts, &maxBills, &features,
		&sub.TenantDeactivated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return access.Subscription{}, ErrNotFound
		}
		return access.Subscription{}, err
	}

	sub.Status = access.SubscriptionStatus(status)
	if maxBills != nil {
		v := int(*maxBills)
		sub.Plan.MaxBillsPerMonth = &v
	}
	if sub.Plan.Features, err = decodeFeatures(features); err != nil {
		return access.Subscription{}, err
	}
	return sub, nil
}
