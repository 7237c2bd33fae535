package access

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the lifecycle state of a tenant subscription. Transitions are driven by the
// billing/renewal process; the pipeline only reads it.
type SubscriptionStatus string

const (
	StatusTrial       SubscriptionStatus = "TRIAL"
	StatusActive      SubscriptionStatus = "ACTIVE"
	StatusGracePeriod SubscriptionStatus = "GRACE_PERIOD"
	StatusExpired     SubscriptionStatus = "EXPIRED"
	StatusCancelled   SubscriptionStatus = "CANCELLED"
)

// Plan is a subscription tier from the plan catalog.
type Plan struct {
	ID           uuid.UUID
	Name         string
	MonthlyPrice int64
	YearlyPrice  int64
	MaxUsers     int
	MaxProducts  int
	// MaxBillsPerMonth is nil for unlimited.
	MaxBillsPerMonth *int
	Features         map[string]bool
}

// HasFeature reports whether the plan enables the feature. Missing keys are disabled.
func (p Plan) HasFeature(name string) bool {
	return p.Features[name]
}

// Subscription is a tenant's current subscription joined with its plan.
type Subscription struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Status   SubscriptionStatus
	EndDate  time.Time
	Plan     Plan
	// TenantDeactivated mirrors tenants.is_active = false. It blocks the tenant's members whatever
	// the subscription status.
	TenantDeactivated bool
}

// Permission is a (resource, action) pair such as (orders, create).
type Permission struct {
	Resource string
	Action   string
}

// String renders the permission as resource:action.
func (p Permission) String() string {
	return p.Resource + ":" + p.Action
}

// Role owns a set of permissions. TenantID is nil for system-wide roles.
type Role struct {
	ID           uuid.UUID
	Name         string
	TenantID     *uuid.UUID
	IsSystemRole bool
	Permissions  []Permission
}

// Grants reports whether the role holds exactly the given permission.
// Matching is case-sensitive with no wildcard or hierarchy semantics.
func (r Role) Grants(p Permission) bool {
	for _, held := range r.Permissions {
		if held.Resource == p.Resource && held.Action == p.Action {
			return true
		}
	}
	return false
}

// PermissionCatalog lists every permission a route can require. The database seed carries the same set.
var PermissionCatalog = []Permission{
	{Resource: "users", Action: "view"},
	{Resource: "users", Action: "create"},
	{Resource: "products", Action: "view"},
	{Resource: "products", Action: "create"},
	{Resource: "orders", Action: "view"},
	{Resource: "orders", Action: "create"},
	{Resource: "reports", Action: "view"},
	{Resource: "kot", Action: "create"},
}

// ParseStatus accepts a status name in any case.
func ParseStatus(raw string) (SubscriptionStatus, error) {
	switch s := SubscriptionStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusTrial, StatusActive, StatusGracePeriod, StatusExpired, StatusCancelled:
		return s, nil
	default:
		return "", fmt.Errorf("unknown subscription status %q", raw)
	}
}
