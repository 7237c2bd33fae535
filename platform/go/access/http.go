package access

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	platformlogging "github.com/posbill/posbill-saas/platform/go/logging"
	"github.com/posbill/posbill-saas/platform/go/tenant"
)

// WarningHeader carries the grace-period notice on successful responses.
const WarningHeader = "X-Subscription-Warning"

// ErrorBody is the JSON body written for rejections and pipeline failures.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	UpgradeURL string `json:"upgradeUrl,omitempty"`
	Limit      *int   `json:"limit,omitempty"`
	Current    *int   `json:"current,omitempty"`
}

// Guard returns middleware that evaluates the pipeline for route. It expects the RequestContext to have
// been stored by the request context resolver; without one the request is treated as anonymous.
// On success the bound tenant and the Decision are attached to the request context.
func (p *Pipeline) Guard(route Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := RequestContextFrom(r.Context())

			decision, err := p.Evaluate(r.Context(), Request{Context: rc, Route: route})
			if err != nil {
				if rej, ok := AsRejection(err); ok {
					WriteRejection(w, rej)
					return
				}
				p.loggerFrom(r.Context()).Error("access pipeline failed",
					zap.String("route", route.Name),
					zap.Error(err),
				)
				WriteError(w, http.StatusInternalServerError, "InternalServerError", "an unexpected error occurred")
				return
			}

			if decision.Warning != "" {
				w.Header().Set(WarningHeader, decision.Warning)
			}

			ctx := WithDecision(r.Context(), decision)
			if decision.TenantID != nil {
				ctx = platformlogging.Enrich(ctx, zap.String("tenant_id", decision.TenantID.String()))
				ctx = tenant.WithBinding(ctx, tenant.Binding{
					TenantID:     *decision.TenantID,
					Impersonated: decision.Impersonated,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteRejection renders rej as JSON with its status code.
func WriteRejection(w http.ResponseWriter, rej *Rejection) {
	writeBody(w, ErrorBody{
		StatusCode: rej.Status,
		Error:      rej.Key,
		Message:    rej.Message,
		UpgradeURL: rej.UpgradeURL,
		Limit:      rej.Limit,
		Current:    rej.Used,
	})
}

// WriteError renders a plain error body.
func WriteError(w http.ResponseWriter, status int, key, message string) {
	writeBody(w, ErrorBody{StatusCode: status, Error: key, Message: message})
}

func writeBody(w http.ResponseWriter, body ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.StatusCode)
	_ = json.NewEncoder(w).Encode(body)
}
