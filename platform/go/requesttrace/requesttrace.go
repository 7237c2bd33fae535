package requesttrace

import (
	"context"

	"github.com/google/uuid"

	"github.com/posbill/posbill-saas/platform/go/access"
)

type contextKey string

const (
	ctxAuditInfo contextKey = "POSBILL_REQUEST_TRACE"
)

// ActorKind represents who initiated a request.
type ActorKind string

const (
	ActorKindUser       ActorKind = "user"
	ActorKindSuperAdmin ActorKind = "super_admin"
	ActorKindAnonymous  ActorKind = "anonymous"
)

// AuditInfo captures who acted on a request so repositories can stamp created_by columns.
// UserID is nil for anonymous actors.
type AuditInfo struct {
	ActorKind ActorKind
	UserID    *uuid.UUID
	RequestID string
}

// IntoContext stores the AuditInfo in the provided context.
func IntoContext(ctx context.Context, audit AuditInfo) context.Context {
	return context.WithValue(ctx, ctxAuditInfo, audit)
}

// FromContext extracts the AuditInfo from context, returning false when not present.
func FromContext(ctx context.Context) (AuditInfo, bool) {
	if ctx == nil {
		return AuditInfo{}, false
	}
	audit, ok := ctx.Value(ctxAuditInfo).(AuditInfo)
	return audit, ok
}

// FromContextOrAnonymous returns the AuditInfo stored on the context, or an anonymous record when absent.
func FromContextOrAnonymous(ctx context.Context) AuditInfo {
	if audit, ok := FromContext(ctx); ok {
		return audit
	}
	return Anonymous("")
}

// FromRequestContext builds the AuditInfo for a resolved access context.
func FromRequestContext(rc access.RequestContext, requestID string) AuditInfo {
	if !rc.Authenticated {
		return Anonymous(requestID)
	}

	kind := ActorKindUser
	if rc.IsSuperAdmin {
		kind = ActorKindSuperAdmin
	}
	userID := rc.UserID

	return AuditInfo{ActorKind: kind, UserID: &userID, RequestID: requestID}
}

// Anonymous builds an AuditInfo for unauthenticated requests.
func Anonymous(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindAnonymous, RequestID: requestID}
}

