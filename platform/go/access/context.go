package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	platformauth "github.com/posbill/posbill-saas/platform/go/auth"
)

// RequestContext is the acting identity for one request. It is rebuilt per request and never persisted.
type RequestContext struct {
	// Authenticated is false for public routes without a principal.
	Authenticated bool
	UserID        uuid.UUID
	IsSuperAdmin  bool
	// TenantID is the tenant the user was provisioned into; nil for super-admins.
	TenantID *uuid.UUID
	RoleID   *uuid.UUID
	// TenantSwitch is the tenant a super-admin asked to act on. Always nil for regular users.
	TenantSwitch *uuid.UUID
}

// Anonymous is the context of a request without an authenticated principal.
func Anonymous() RequestContext {
	return RequestContext{}
}

// ResolveContext builds the RequestContext from an authenticated principal. The tenant switch is honoured
// only for super-admins; for everyone else it is discarded so no client-supplied value can select a tenant.
func ResolveContext(principal *platformauth.Principal, tenantSwitch uuid.UUID) (RequestContext, error) {
	if principal == nil {
		return Anonymous(), nil
	}

	userID, err := uuid.Parse(strings.TrimSpace(principal.ID))
	if err != nil {
		return RequestContext{}, fmt.Errorf("parse user id: %w", err)
	}

	rc := RequestContext{
		Authenticated: true,
		UserID:        userID,
		IsSuperAdmin:  principal.IsSuperAdmin,
	}

	if rc.TenantID, err = parseOptionalID(principal.TenantID); err != nil {
		return RequestContext{}, fmt.Errorf("parse tenant id: %w", err)
	}
	if rc.RoleID, err = parseOptionalID(principal.RoleID); err != nil {
		return RequestContext{}, fmt.Errorf("parse role id: %w", err)
	}

	if rc.IsSuperAdmin && tenantSwitch != uuid.Nil {
		id := tenantSwitch
		rc.TenantSwitch = &id
	}

	return rc, nil
}

func parseOptionalID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

type ctxKey string

const (
	requestContextKey ctxKey = "POSBILL_ACCESS_REQUEST_CONTEXT"
	decisionKey       ctxKey = "POSBILL_ACCESS_DECISION"
)

// WithRequestContext stores the resolved RequestContext on ctx.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// RequestContextFrom returns the RequestContext stored on ctx, or an anonymous one.
func RequestContextFrom(ctx context.Context) RequestContext {
	if rc, ok := ctx.Value(requestContextKey).(RequestContext); ok {
		return rc
	}
	return Anonymous()
}

// WithDecision stores the pipeline outcome on ctx for handlers.
func WithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionKey, d)
}

// DecisionFrom extracts the pipeline outcome attached by Guard.
func DecisionFrom(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionKey).(Decision)
	return d, ok
}
