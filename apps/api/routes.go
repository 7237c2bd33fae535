package main

import (
	"context"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	ordershandler "github.com/posbill/posbill-saas/domains/orders/be/handler"
	productshandler "github.com/posbill/posbill-saas/domains/products/be/handler"
	subscriptionshandler "github.com/posbill/posbill-saas/domains/subscriptions/be/handler"
	tenantshandler "github.com/posbill/posbill-saas/domains/tenants/be/handler"
	usershandler "github.com/posbill/posbill-saas/domains/users/be/handler"
	"github.com/posbill/posbill-saas/platform/go/access"
	platformauth "github.com/posbill/posbill-saas/platform/go/auth"
	platformlogging "github.com/posbill/posbill-saas/platform/go/logging"
	"github.com/posbill/posbill-saas/platform/go/metrics"
	platformmiddleware "github.com/posbill/posbill-saas/platform/go/middleware"
)

func perm(resource, action string) *access.Permission {
	return &access.Permission{Resource: resource, Action: action}
}

// Route metadata. Quotas are bound to the create routes only, never inferred from the path.
var (
	routeUsersList      = access.Route{Name: "users.list", Permission: perm("users", "view")}
	routeUsersGet       = access.Route{Name: "users.get", Permission: perm("users", "view")}
	routeUsersCreate    = access.Route{Name: "users.create", Permission: perm("users", "create"), Quota: access.QuotaUsers}
	routeProductsList   = access.Route{Name: "products.list", Permission: perm("products", "view")}
	routeProductsCreate = access.Route{Name: "products.create", Permission: perm("products", "create"), Quota: access.QuotaProducts}
	routeOrdersList     = access.Route{Name: "orders.list", Permission: perm("orders", "view")}
	routeOrdersCreate   = access.Route{Name: "orders.create", Permission: perm("orders", "create"), Quota: access.QuotaOrders}
	routeOrdersReport   = access.Route{Name: "reports.orders", Feature: "reports", Permission: perm("reports", "view")}
	routeKitchenTicket  = access.Route{Name: "kot.create", Feature: "kot", Permission: perm("kot", "create")}
	routeSubscription   = access.Route{Name: "subscription.get"}
)

type handlers struct {
	users         *usershandler.Handler
	products      *productshandler.Handler
	orders        *ordershandler.Handler
	subscriptions *subscriptionshandler.Handler
	tenants       *tenantshandler.Handler
}

type routerDeps struct {
	logger         *zap.Logger
	metrics        *metrics.Metrics
	pipeline       *access.Pipeline
	authenticate   func(http.Handler) http.Handler
	ready          func(ctx context.Context) error
	requestTimeout time.Duration
	corsOrigins    []string
	contract       *openapi3.T
	handlers       handlers
}

func newRouter(d routerDeps) http.Handler {
	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(d.requestTimeout),
		platformmiddleware.CORS(d.corsOrigins),
	)

	rootRouter.Use(platformlogging.RequestLogger(d.logger))
	rootRouter.Use(d.metrics.HTTP)

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.ready(r.Context()); err != nil {
			platformlogging.FromRequest(r, d.logger).Warn("readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Method(http.MethodGet, "/metrics", d.metrics.Handler())

	apiRouter := chi.NewRouter()
	apiRouter.Use(d.authenticate)
	apiRouter.Use(platformauth.RequireAuthenticated)
	apiRouter.Use(platformmiddleware.ResolveRequestContext)

	// Gates run first; the contract check only sees requests the caller may make.
	validate := platformmiddleware.RequestValidator(d.logger, d.contract)
	route := func(rt access.Route) chi.Router {
		return apiRouter.With(d.pipeline.Guard(rt), validate)
	}
	h := d.handlers

	route(routeUsersList).Get("/users", h.users.List)
	route(routeUsersCreate).Post("/users", h.users.Create)
	route(routeUsersGet).Get("/users/{userId}", h.users.Get)

	route(routeProductsList).Get("/products", h.products.List)
	route(routeProductsCreate).Post("/products", h.products.Create)

	route(routeOrdersList).Get("/orders", h.orders.List)
	route(routeOrdersCreate).Post("/orders", h.orders.Create)
	route(routeOrdersReport).Get("/reports/orders", h.orders.MonthlyReport)
	route(routeKitchenTicket).Post("/kot", h.orders.AcknowledgeTicket)

	route(routeSubscription).Get("/subscription", h.subscriptions.Current)

	apiRouter.Group(func(r chi.Router) {
		r.Use(platformauth.RequireSuperAdmin)
		r.Use(validate)
		r.Get("/admin/plans", h.subscriptions.Plans)
		r.Get("/admin/tenants", h.tenants.List)
		r.Post("/admin/tenants", h.tenants.Create)
		r.Get("/admin/tenants/{tenantId}", h.tenants.Get)
		r.Patch("/admin/tenants/{tenantId}", h.tenants.Update)
	})

	rootRouter.Mount("/api/v1", apiRouter)

	return rootRouter
}
