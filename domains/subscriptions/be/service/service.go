package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/posbill/posbill-saas/domains/subscriptions/be/repo"
	"github.com/posbill/posbill-saas/platform/go/access"
	"github.com/posbill/posbill-saas/platform/go/tenant"
)

var (
	// ErrNoTenant is returned when the request is not bound to a tenant, e.g. a super-admin
	// that did not switch into one.
	ErrNoTenant = errors.New("no tenant selected")
	// ErrNotFound is returned when the tenant has no subscription attached.
	ErrNotFound = errors.New("subscription not found")
)

// Limits are the plan quotas. MaxBillsPerMonth is nil for unlimited.
type Limits struct {
	MaxUsers         int
	MaxProducts      int
	MaxBillsPerMonth *int
}

// Overview is the bound tenant's subscription, plan and usage.
type Overview struct {
	TenantID           uuid.UUID
	Status             access.SubscriptionStatus
	PlanName           string
	EndDate            time.Time
	GraceDaysRemaining *int
	Features           []string
	Limits             Limits
	Usage              repo.Usage
}

// Service defines the business operations for the subscriptions domain.
type Service interface {
	Current(ctx context.Context) (Overview, error)
	Plans(ctx context.Context) ([]access.Plan, error)
}

type service struct {
	repo repo.Repository
	now  func() time.Time
}

// New constructs a subscriptions Service. A nil clock defaults to time.Now.
func New(r repo.Repository, clock func() time.Time) Service {
	if r == nil {
		panic("subscriptions repository is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: r, now: clock}
}

func (s *service) Current(ctx context.Context) (Overview, error) {
	binding, ok := tenant.FromContext(ctx)
	if !ok {
		return Overview{}, ErrNoTenant
	}

	// Super-admins skip the status gate, so the decision may carry no subscription.
	var sub access.Subscription
	if d, ok := access.DecisionFrom(ctx); ok && d.Subscription != nil {
		sub = *d.Subscription
	} else {
		loaded, err := s.repo.Subscription(ctx, binding.TenantID)
		if err != nil {
			if errors.Is(err, access.ErrNotFound) {
				return Overview{}, ErrNotFound
			}
			return Overview{}, err
		}
		sub = loaded
	}

	now := s.now()
	usage, err := s.repo.Usage(ctx, binding.TenantID, access.MonthStart(now))
	if err != nil {
		return Overview{}, err
	}

	overview := Overview{
		TenantID: binding.TenantID,
		Status:   sub.Status,
		PlanName: sub.Plan.Name,
		EndDate:  sub.EndDate,
		Features: enabledFeatures(sub.Plan),
		Limits: Limits{
			MaxUsers:         sub.Plan.MaxUsers,
			MaxProducts:      sub.Plan.MaxProducts,
			MaxBillsPerMonth: sub.Plan.MaxBillsPerMonth,
		},
		Usage: usage,
	}
	if sub.Status == access.StatusGracePeriod {
		days := access.GraceDaysRemaining(sub.EndDate, now)
		overview.GraceDaysRemaining = &days
	}
	return overview, nil
}

func (s *service) Plans(ctx context.Context) ([]access.Plan, error) {
	return s.repo.Plans(ctx)
}

func enabledFeatures(plan access.Plan) []string {
	features := make([]string, 0, len(plan.Features))
	for name, enabled := range plan.Features {
		if enabled {
			features = append(features, name)
		}
	}
	sort.Strings(features)
	return features
}
