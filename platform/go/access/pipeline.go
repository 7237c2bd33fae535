// Package access implements the per-request gate chain that scopes a request to one tenant and
// enforces subscription status, plan features, role permissions and plan quotas, in that order.
package access

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformlogging "github.com/posbill/posbill-saas/platform/go/logging"
)

// DefaultUpgradeURL is where rejections point users to change plan.
const DefaultUpgradeURL = "/settings/subscription"

// Quota selects the usage limit checked by a create route.
type Quota int

const (
	QuotaNone Quota = iota
	QuotaUsers
	QuotaProducts
	QuotaOrders
)

func (q Quota) String() string {
	switch q {
	case QuotaUsers:
		return "users"
	case QuotaProducts:
		return "products"
	case QuotaOrders:
		return "orders"
	default:
		return "none"
	}
}

// Route is the access metadata a route declares. The zero value only runs tenant isolation and
// subscription status.
type Route struct {
	Name       string
	Feature    string
	Permission *Permission
	Quota      Quota
}

// Request is the input to one pipeline evaluation.
type Request struct {
	Context RequestContext
	Route   Route
}

// Decision is what the gates attached to a request that passed.
type Decision struct {
	// TenantID is the bound tenant; nil for public routes and super-admins without a tenant switch.
	TenantID     *uuid.UUID
	Impersonated bool
	// Subscription is set once the subscription status gate has loaded it.
	Subscription *Subscription
	// Warning is the grace-period notice for the response layer; empty otherwise.
	Warning            string
	GraceDaysRemaining *int
}

// RejectionObserver is notified of every rejection, e.g. to count them.
type RejectionObserver func(rej *Rejection)

// Config wires the pipeline's collaborators.
type Config struct {
	Stores     Stores
	Logger     *zap.Logger
	Clock      func() time.Time
	UpgradeURL string
	Observer   RejectionObserver
}

// Pipeline evaluates the gates in fixed order: tenant isolation, subscription status, feature,
// permission, usage limit. The first rejection short-circuits the chain.
type Pipeline struct {
	stores     Stores
	logger     *zap.Logger
	now        func() time.Time
	upgradeURL string
	observer   RejectionObserver
}

// New constructs a Pipeline. All stores are required.
func New(cfg Config) *Pipeline {
	if cfg.Stores.Subscriptions == nil {
		panic("access pipeline: subscription reader is required")
	}
	if cfg.Stores.Roles == nil {
		panic("access pipeline: role reader is required")
	}
	if cfg.Stores.Usage == nil {
		panic("access pipeline: usage counter is required")
	}

	p := &Pipeline{
		stores:     cfg.Stores,
		logger:     cfg.Logger,
		now:        cfg.Clock,
		upgradeURL: cfg.UpgradeURL,
		observer:   cfg.Observer,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.upgradeURL == "" {
		p.upgradeURL = DefaultUpgradeURL
	}
	return p
}

// Evaluate runs the gates for req. A gate failure is returned as a *Rejection; any other error comes
// from a store read and should be treated as a server error.
func (p *Pipeline) Evaluate(ctx context.Context, req Request) (Decision, error) {
	var d Decision
	rc := req.Context

	if err := p.isolateTenant(ctx, rc, &d); err != nil {
		return d, p.fail(ctx, req, err)
	}
	if err := p.checkSubscription(ctx, rc, &d); err != nil {
		return d, p.fail(ctx, req, err)
	}
	if req.Route.Feature != "" {
		if err := p.checkFeature(rc, &d, req.Route.Feature); err != nil {
			return d, p.fail(ctx, req, err)
		}
	}
	if req.Route.Permission != nil {
		if err := p.checkPermission(ctx, rc, *req.Route.Permission); err != nil {
			return d, p.fail(ctx, req, err)
		}
	}
	if req.Route.Quota != QuotaNone {
		if err := p.checkUsage(ctx, rc, &d, req.Route.Quota); err != nil {
			return d, p.fail(ctx, req, err)
		}
	}

	return d, nil
}

func (p *Pipeline) fail(ctx context.Context, req Request, err error) error {
	rej, ok := AsRejection(err)
	if !ok {
		return err
	}

	fields := []zap.Field{
		zap.String("route", req.Route.Name),
		zap.String("gate", string(rej.Gate)),
		zap.String("error_key", rej.Key),
		zap.Int("status", rej.Status),
	}
	if req.Context.Authenticated {
		fields = append(fields, zap.String("user_id", req.Context.UserID.String()))
	}
	p.loggerFrom(ctx).Warn("request rejected by access gate", fields...)

	if p.observer != nil {
		p.observer(rej)
	}
	return rej
}

func (p *Pipeline) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return p.logger
}
