package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/posbill/posbill-saas/platform/go/access"
	platformauth "github.com/posbill/posbill-saas/platform/go/auth"
	platformlogging "github.com/posbill/posbill-saas/platform/go/logging"
	"github.com/posbill/posbill-saas/platform/go/requesttrace"
	"github.com/posbill/posbill-saas/platform/go/tenant"
)

// ResolveRequestContext turns the authenticated principal into the access.RequestContext consumed by the
// access gates and stamps the request audit info. It must run after the authentication middleware.
// The X-Tenant-Id header is only read for super-admins; for other users it is ignored.
func ResolveRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := platformlogging.FromRequest(r, zap.NewNop())
		requestID := middleware.GetReqID(r.Context())

		principal, _ := platformauth.PrincipalFromContext(r.Context())

		tenantSwitch := uuid.Nil
		if principal != nil && principal.IsSuperAdmin {
			var err error
			tenantSwitch, err = tenant.SwitchFromRequest(r)
			if err != nil {
				logger.Info("rejecting malformed tenant switch", zap.Error(err))
				access.WriteError(w, http.StatusBadRequest, access.KeyBadRequest, "X-Tenant-Id must be a tenant UUID")
				return
			}
		}

		rc, err := access.ResolveContext(principal, tenantSwitch)
		if err != nil {
			logger.Warn("resolve request context from principal", zap.Error(err))
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			access.WriteError(w, http.StatusUnauthorized, "Unauthorized", "token claims are not valid identifiers")
			return
		}

		ctx := access.WithRequestContext(r.Context(), rc)
		ctx = requesttrace.IntoContext(ctx, requesttrace.FromRequestContext(rc, requestID))

		if rc.Authenticated {
			ctx = platformlogging.Enrich(ctx,
				zap.String("user_id", rc.UserID.String()),
				zap.Bool("super_admin", rc.IsSuperAdmin),
			)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
