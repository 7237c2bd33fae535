package access

import (
	"errors"
	"fmt"
	"net/http"
)

// Gate names a single check in the pipeline.
type Gate string

const (
	GateContext            Gate = "request_context"
	GateTenantIsolation    Gate = "tenant_isolation"
	GateSubscriptionStatus Gate = "subscription_status"
	GateFeature            Gate = "feature"
	GatePermission         Gate = "permission"
	GateUsageLimit         Gate = "usage_limit"
)

// Kind is the rejection taxonomy; it is coarser than the wire error key.
type Kind string

const (
	KindBadRequest          Kind = "BadRequest"
	KindForbidden           Kind = "Forbidden"
	KindPaymentRequired     Kind = "PaymentRequired"
	KindFeatureNotAvailable Kind = "FeatureNotAvailable"
	KindLimitExceeded       Kind = "LimitExceeded"
)

// Error keys written to the JSON body.
const (
	KeyBadRequest            = "BadRequest"
	KeyForbidden             = "Forbidden"
	KeyPaymentRequired       = "PaymentRequired"
	KeySubscriptionExpired   = "SubscriptionExpired"
	KeySubscriptionCancelled = "SubscriptionCancelled"
	KeyTenantDeactivated     = "TenantDeactivated"
	KeyFeatureNotAvailable   = "FeatureNotAvailable"
	KeyLimitExceeded         = "LimitExceeded"
)

// Rejection is a terminal gate failure for the current request.
type Rejection struct {
	Gate       Gate
	Kind       Kind
	Status     int
	Key        string
	Message    string
	UpgradeURL string
	// Limit and Used are set by the usage limit gate only.
	Limit *int
	Used  *int
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s: %s", r.Gate, r.Key, r.Message)
}

// AsRejection unwraps err into a *Rejection when it is one.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func forbidden(gate Gate, message string) *Rejection {
	return &Rejection{Gate: gate, Kind: KindForbidden, Status: http.StatusForbidden, Key: KeyForbidden, Message: message}
}

func paymentRequired(gate Gate, key, message string) *Rejection {
	return &Rejection{Gate: gate, Kind: KindPaymentRequired, Status: http.StatusPaymentRequired, Key: key, Message: message}
}
