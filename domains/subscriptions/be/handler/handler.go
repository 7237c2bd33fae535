package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/posbill/posbill-saas/domains/subscriptions/be/service"
	"github.com/posbill/posbill-saas/platform/go/access"
	platformlogging "github.com/posbill/posbill-saas/platform/go/logging"
	"github.com/posbill/posbill-saas/platform/go/problem"
)

type Limits struct {
	MaxUsers         int  `json:"maxUsers"`
	MaxProducts      int  `json:"maxProducts"`
	MaxBillsPerMonth *int `json:"maxBillsPerMonth"`
}

type Usage struct {
	Users           int `json:"users"`
	Products        int `json:"products"`
	OrdersThisMonth int `json:"ordersThisMonth"`
}

// Subscription is the body of GET /subscription.
type Subscription struct {
	TenantID           uuid.UUID `json:"tenantId"`
	Status             string    `json:"status"`
	Plan               string    `json:"plan"`
	EndDate            time.Time `json:"endDate"`
	GraceDaysRemaining *int      `json:"graceDaysRemaining,omitempty"`
	Features           []string  `json:"features"`
	Limits             Limits    `json:"limits"`
	Usage              Usage     `json:"usage"`
	UpgradeURL         string    `json:"upgradeUrl"`
}

type Plan struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	MonthlyPrice int64           `json:"monthlyPrice"`
	YearlyPrice  int64           `json:"yearlyPrice"`
	Limits       Limits          `json:"limits"`
	Features     map[string]bool `json:"features"`
}

type PlanList struct {
	Items []Plan `json:"items"`
}

// Handler serves the tenant subscription overview and the admin plan catalog.
type Handler struct {
	svc        service.Service
	logger     *zap.Logger
	upgradeURL string
}

func New(svc service.Service, logger *zap.Logger, upgradeURL string) *Handler {
	if svc == nil {
		panic("subscriptions service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	if upgradeURL == "" {
		upgradeURL = access.DefaultUpgradeURL
	}
	return &Handler{svc: svc, logger: logger, upgradeURL: upgradeURL}
}

func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.Current(r.Context())
	if err != nil {
		h.writeError(w, r, err, "subscriptionCurrent")
		return
	}

	problem.JSON(w, http.StatusOK, Subscription{
		TenantID:           overview.TenantID,
		Status:             string(overview.Status),
		Plan:               overview.PlanName,
		EndDate:            overview.EndDate,
		GraceDaysRemaining: overview.GraceDaysRemaining,
		Features:           overview.Features,
		Limits: Limits{
			MaxUsers:         overview.Limits.MaxUsers,
			MaxProducts:      overview.Limits.MaxProducts,
			MaxBillsPerMonth: overview.Limits.MaxBillsPerMonth,
		},
		Usage: Usage{
			Users:           overview.Usage.Users,
			Products:        overview.Usage.Products,
			OrdersThisMonth: overview.Usage.OrdersThisMonth,
		},
		UpgradeURL: h.upgradeURL,
	})
}

func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.Plans(r.Context())
	if err != nil {
		h.writeError(w, r, err, "plansList")
		return
	}

	items := make([]Plan, 0, len(plans))
	for _, p := range plans {
		items = append(items, Plan{
			ID:           p.ID,
			Name:         p.Name,
			MonthlyPrice: p.MonthlyPrice,
			YearlyPrice:  p.YearlyPrice,
			Limits: Limits{
				MaxUsers:         p.MaxUsers,
				MaxProducts:      p.MaxProducts,
				MaxBillsPerMonth: p.MaxBillsPerMonth,
			},
			Features: p.Features,
		})
	}
	problem.JSON(w, http.StatusOK, PlanList{Items: items})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	logger := h.loggerFrom(r.Context())
	fields := []zap.Field{zap.String("operation", op), zap.Error(err)}

	switch {
	case errors.Is(err, service.ErrNoTenant):
		logger.Warn("subscription request rejected", fields...)
		problem.Write(w, problem.NoTenant())
	case errors.Is(err, service.ErrNotFound):
		logger.Info("subscription not found", fields...)
		problem.Write(w, problem.New(http.StatusNotFound, "Resource not found",
			"no subscription is attached to this tenant", problem.TypeNotFound, nil))
	default:
		logger.Error("subscription operation failed", fields...)
		problem.Write(w, problem.New(http.StatusInternalServerError, "Internal server error",
			"an unexpected error occurred", problem.TypeInternal, nil))
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
