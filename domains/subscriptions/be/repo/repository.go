package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/posbill/posbill-saas/platform/go/access"
	"github.com/posbill/posbill-saas/platform/go/persistence"
)

// Usage is a tenant's current consumption of plan quotas.
type Usage struct {
	Users           int
	Products        int
	OrdersThisMonth int
}

// Repository defines the reads required by the subscriptions service.
type Repository interface {
	Subscription(ctx context.Context, tenantID uuid.UUID) (access.Subscription, error)
	Usage(ctx context.Context, tenantID uuid.UUID, monthStart time.Time) (Usage, error)
	Plans(ctx context.Context) ([]access.Plan, error)
}

type postgresRepository struct {
	subscriptions *persistence.SubscriptionStore
	usage         *persistence.UsageStore
	plans         *persistence.PlanStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(subscriptions *persistence.SubscriptionStore, usage *persistence.UsageStore, plans *persistence.PlanStore) Repository {
	if subscriptions == nil || usage == nil || plans == nil {
		panic("subscription, usage and plan stores are required")
	}
	return &postgresRepository{subscriptions: subscriptions, usage: usage, plans: plans}
}

func (r *postgresRepository) Subscription(ctx context.Context, tenantID uuid.UUID) (access.Subscription, error) {
	return r.subscriptions.SubscriptionForTenant(ctx, tenantID)
}

func (r *postgresRepository) Usage(ctx context.Context, tenantID uuid.UUID, monthStart time.Time) (Usage, error) {
	var (
		u   Usage
		err error
	)
	if u.Users, err = r.usage.CountUsers(ctx, tenantID); err != nil {
		return Usage{}, fmt.Errorf("usage users: %w", err)
	}
	if u.Products, err = r.usage.CountProducts(ctx, tenantID); err != nil {
		return Usage{}, fmt.Errorf("usage products: %w", err)
	}
	if u.OrdersThisMonth, err = r.usage.CountOrdersSince(ctx, tenantID, monthStart); err != nil {
		return Usage{}, fmt.Errorf("usage orders: %w", err)
	}
	return u, nil
}

func (r *postgresRepository) Plans(ctx context.Context) ([]access.Plan, error) {
	return r.plans.ListPlans(ctx)
}
