package access

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

type mockSubscriptions struct {
	subscriptionForTenantFn func(ctx context.Context, tenantID uuid.UUID) (Subscription, error)
}

func (m *mockSubscriptions) SubscriptionForTenant(ctx context.Context, tenantID uuid.UUID) (Subscription, error) {
	if m.subscriptionForTenantFn == nil {
		panic("subscriptionForTenantFn not configured")
	}
	return m.subscriptionForTenantFn(ctx, tenantID)
}

type mockRoles struct {
	roleWithPermissionsFn func(ctx context.Context, roleID uuid.UUID) (Role, error)
}

func (m *mockRoles) RoleWithPermissions(ctx context.Context, roleID uuid.UUID) (Role, error) {
	if m.roleWithPermissionsFn == nil {
		panic("roleWithPermissionsFn not configured")
	}
	return m.roleWithPermissionsFn(ctx, roleID)
}

type mockUsage struct {
	countUsersFn       func(ctx context.Context, tenantID uuid.UUID) (int, error)
	countProductsFn    func(ctx context.Context, tenantID uuid.UUID) (int, error)
	countOrdersSinceFn func(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error)
}

func (m *mockUsage) CountUsers(ctx context.Context, tenantID uuid.UUID) (int, error) {
	if m.countUsersFn == nil {
		panic("countUsersFn not configured")
	}
	return m.countUsersFn(ctx, tenantID)
}

func (m *mockUsage) CountProducts(ctx context.Context, tenantID uuid.UUID) (int, error) {
	if m.countProductsFn == nil {
		panic("countProductsFn not configured")
	}
	return m.countProductsFn(ctx, tenantID)
}

func (m *mockUsage) CountOrdersSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error) {
	if m.countOrdersSinceFn == nil {
		panic("countOrdersSinceFn not configured")
	}
	return m.countOrdersSinceFn(ctx, tenantID, since)
}

// fixedNow is mid-month so month boundaries are unambiguous.
var fixedNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	subs     *mockSubscriptions
	roles    *mockRoles
	usage    *mockUsage
	rejected []*Rejection
}

func newFixture() *fixture {
	return &fixture{subs: &mockSubscriptions{}, roles: &mockRoles{}, usage: &mockUsage{}}
}

func (f *fixture) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	return New(Config{
		Stores:   Stores{Subscriptions: f.subs, Roles: f.roles, Usage: f.usage},
		Logger:   zaptest.NewLogger(t),
		Clock:    func() time.Time { return fixedNow },
		Observer: func(rej *Rejection) { f.rejected = append(f.rejected, rej) },
	})
}

// withSubscription makes every tenant resolve to sub.
func (f *fixture) withSubscription(sub Subscription) *fixture {
	f.subs.subscriptionForTenantFn = func(ctx context.Context, tenantID uuid.UUID) (Subscription, error) {
		sub.TenantID = tenantID
		return sub, nil
	}
	return f
}

// withRole makes every role id resolve to a role holding perms.
func (f *fixture) withRole(perms ...Permission) *fixture {
	f.roles.roleWithPermissionsFn = func(ctx context.Context, roleID uuid.UUID) (Role, error) {
		return Role{ID: roleID, Name: "Cashier", Permissions: perms}, nil
	}
	return f
}

func tenantUser() RequestContext {
	tenantID := uuid.New()
	roleID := uuid.New()
	return RequestContext{Authenticated: true, UserID: uuid.New(), TenantID: &tenantID, RoleID: &roleID}
}

func superAdmin(tenantSwitch *uuid.UUID) RequestContext {
	return RequestContext{Authenticated: true, UserID: uuid.New(), IsSuperAdmin: true, TenantSwitch: tenantSwitch}
}

func activePlan(features ...string) Plan {
	enabled := make(map[string]bool, len(features))
	for _, f := range features {
		enabled[f] = true
	}
	return Plan{ID: uuid.New(), Name: "Pro", MaxUsers: 5, MaxProducts: 50, Features: enabled}
}

func activeSubscription(plan Plan) Subscription {
	return Subscription{ID: uuid.New(), Status: StatusActive, EndDate: fixedNow.AddDate(0, 1, 0), Plan: plan}
}

func perm(resource, action string) *Permission {
	return &Permission{Resource: resource, Action: action}
}

func intPtr(v int) *int { return &v }
