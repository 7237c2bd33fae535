package access

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by readers when the requested record does not exist.
var ErrNotFound = errors.New("access: record not found")

// SubscriptionReader loads a tenant's subscription joined with its plan.
type SubscriptionReader interface {
	SubscriptionForTenant(ctx context.Context, tenantID uuid.UUID) (Subscription, error)
}

// RoleReader loads a role together with its permission links.
type RoleReader interface {
	RoleWithPermissions(ctx context.Context, roleID uuid.UUID) (Role, error)
}

// UsageCounter counts tenant-owned rows for quota checks.
type UsageCounter interface {
	CountUsers(ctx context.Context, tenantID uuid.UUID) (int, error)
	CountProducts(ctx context.Context, tenantID uuid.UUID) (int, error)
	CountOrdersSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error)
}

// Stores groups the persistence collaborators consumed by the gates.
type Stores struct {
	Subscriptions SubscriptionReader
	Roles         RoleReader
	Usage         UsageCounter
}
