package access

import (
	"fmt"
	"net/http"
)

func (p *Pipeline) checkFeature(rc RequestContext, d *Decision, feature string) error {
	if rc.IsSuperAdmin {
		return nil
	}

	if d.Subscription == nil {
		return paymentRequired(GateFeature, KeyPaymentRequired, "an active subscription is required to use this feature")
	}

	if !d.Subscription.Plan.HasFeature(feature) {
		return &Rejection{
			Gate:       GateFeature,
			Kind:       KindFeatureNotAvailable,
			Status:     http.StatusForbidden,
			Key:        KeyFeatureNotAvailable,
			Message:    fmt.Sprintf("feature %q is not available on the %s plan", feature, d.Subscription.Plan.Name),
			UpgradeURL: p.upgradeURL,
		}
	}
	return nil
}
