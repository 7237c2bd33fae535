package access

import (
	"context"
	"errors"
	"fmt"
)

func (p *Pipeline) checkPermission(ctx context.Context, rc RequestContext, required Permission) error {
	if rc.IsSuperAdmin {
		return nil
	}

	if rc.RoleID == nil {
		return forbidden(GatePermission, "no role assigned")
	}

	role, err := p.stores.Roles.RoleWithPermissions(ctx, *rc.RoleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return forbidden(GatePermission, "role not found")
		}
		return fmt.Errorf("load role: %w", err)
	}

	if !role.Grants(required) {
		return forbidden(GatePermission, fmt.Sprintf("missing permission %s", required))
	}
	return nil
}
