package access

import (
	"context"

	"go.uber.org/zap"
)

// isolateTenant binds the request to exactly one tenant, or to none for public routes and
// super-admins that did not switch tenant.
func (p *Pipeline) isolateTenant(ctx context.Context, rc RequestContext, d *Decision) error {
	if !rc.Authenticated {
		return nil
	}

	if rc.IsSuperAdmin {
		if rc.TenantSwitch == nil {
			return nil
		}
		id := *rc.TenantSwitch
		d.TenantID = &id
		d.Impersonated = true
		p.loggerFrom(ctx).Info("super-admin impersonating tenant",
			zap.String("user_id", rc.UserID.String()),
			zap.String("tenant_id", id.String()),
		)
		return nil
	}

	if rc.TenantID == nil {
		return forbidden(GateTenantIsolation, "user is not assigned to any tenant")
	}

	id := *rc.TenantID
	d.TenantID = &id
	return nil
}
