package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Binding is the tenant a request has been scoped to by the isolation gate.
// Handlers and repositories must read the tenant from here and never from the
// request body or query string.
type Binding struct {
	TenantID uuid.UUID
	// Impersonated is true when a super-admin switched into the tenant.
	Impersonated bool
}

type ctxKey string

const bindingKey ctxKey = "POSBILL_TENANT_BINDING"

// WithBinding returns a derived context carrying the tenant Binding.
func WithBinding(ctx context.Context, binding Binding) context.Context {
	return context.WithValue(ctx, bindingKey, binding)
}

// FromContext extracts the tenant Binding and a boolean indicating presence.
func FromContext(ctx context.Context) (Binding, bool) {
	v := ctx.Value(bindingKey)
	if v == nil {
		return Binding{}, false
	}

	binding, ok := v.(Binding)
	return binding, ok
}
