package access

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const dayMillis = int64(24 * time.Hour / time.Millisecond)

func (p *Pipeline) checkSubscription(ctx context.Context, rc RequestContext, d *Decision) error {
	if rc.IsSuperAdmin || d.TenantID == nil {
		return nil
	}

	sub, err := p.stores.Subscriptions.SubscriptionForTenant(ctx, *d.TenantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return paymentRequired(GateSubscriptionStatus, KeyPaymentRequired, "no active subscription found for this tenant")
		}
		return fmt.Errorf("load subscription: %w", err)
	}

	if sub.TenantDeactivated {
		rej := forbidden(GateSubscriptionStatus, "this account has been deactivated")
		rej.Key = KeyTenantDeactivated
		return rej
	}

	switch sub.Status {
	case StatusExpired:
		return paymentRequired(GateSubscriptionStatus, KeySubscriptionExpired, "subscription has expired, renew to continue")
	case StatusCancelled:
		return paymentRequired(GateSubscriptionStatus, KeySubscriptionCancelled, "subscription has been cancelled")
	case StatusGracePeriod:
		days := GraceDaysRemaining(sub.EndDate, p.now())
		d.GraceDaysRemaining = &days
		d.Warning = GraceWarning(days)
	case StatusTrial, StatusActive:
	default:
		return paymentRequired(GateSubscriptionStatus, KeyPaymentRequired, fmt.Sprintf("subscription status %q does not grant access", sub.Status))
	}

	d.Subscription = &sub
	return nil
}

// GraceDaysRemaining is ceil((endDate-now)/1 day) over the millisecond difference, clamped at zero.
// A fractional day counts as a whole day remaining. A GRACE_PERIOD row already past its end date reports
// 0, never a negative count, and still passes the status gate until its status changes.
func GraceDaysRemaining(endDate, now time.Time) int {
	ms := endDate.Sub(now).Milliseconds()
	days := ms / dayMillis
	if ms%dayMillis > 0 {
		days++
	}
	if days < 0 {
		return 0
	}
	return int(days)
}

// GraceWarning renders the human-readable days-remaining notice.
func GraceWarning(days int) string {
	if days == 1 {
		return "Expires in 1 day"
	}
	return fmt.Sprintf("Expires in %d days", days)
}
