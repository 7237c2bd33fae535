package access

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// checkUsage is a read-then-check against the current row count. Concurrent creates for the same tenant
// can all pass before any commits, so a tenant may overshoot a quota by the number of in-flight requests.
func (p *Pipeline) checkUsage(ctx context.Context, rc RequestContext, d *Decision, quota Quota) error {
	if rc.IsSuperAdmin || d.TenantID == nil || d.Subscription == nil {
		return nil
	}

	tenantID := *d.TenantID
	plan := d.Subscription.Plan

	switch quota {
	case QuotaUsers:
		used, err := p.stores.Usage.CountUsers(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if used >= plan.MaxUsers {
			return p.limitExceeded(fmt.Sprintf("user limit reached (%d/%d) on the %s plan", used, plan.MaxUsers, plan.Name), used, plan.MaxUsers)
		}
	case QuotaProducts:
		used, err := p.stores.Usage.CountProducts(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		if used >= plan.MaxProducts {
			return p.limitExceeded(fmt.Sprintf("product limit reached (%d/%d) on the %s plan", used, plan.MaxProducts, plan.Name), used, plan.MaxProducts)
		}
	case QuotaOrders:
		if plan.MaxBillsPerMonth == nil {
			return nil
		}
		limit := *plan.MaxBillsPerMonth
		used, err := p.stores.Usage.CountOrdersSince(ctx, tenantID, MonthStart(p.now()))
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		if used >= limit {
			return p.limitExceeded(fmt.Sprintf("monthly bill limit reached (%d/%d) on the %s plan", used, limit, plan.Name), used, limit)
		}
	}
	return nil
}

func (p *Pipeline) limitExceeded(message string, used, limit int) *Rejection {
	return &Rejection{
		Gate:       GateUsageLimit,
		Kind:       KindLimitExceeded,
		Status:     http.StatusForbidden,
		Key:        KeyLimitExceeded,
		Message:    message,
		UpgradeURL: p.upgradeURL,
		Limit:      &limit,
		Used:       &used,
	}
}

// MonthStart returns 00:00:00.000 on the first day of now's month, in now's location.
func MonthStart(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
}
