package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/posbill/posbill-saas/domains/tenants/be/service"
	platformlogging "github.com/posbill/posbill-saas/platform/go/logging"
	"github.com/posbill/posbill-saas/platform/go/problem"
	"github.com/posbill/posbill-saas/platform/go/requesttrace"
)

// Tenant is the admin console view of a restaurant account.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// TenantList is a page of tenants.
type TenantList struct {
	Items      []Tenant `json:"items"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalItems int      `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
}

// CreateTenant is the POST /admin/tenants payload.
type CreateTenant struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// UpdateTenant is the PATCH /admin/tenants/{tenantId} payload.
type UpdateTenant struct {
	IsActive *bool `json:"isActive"`
}

// Handler serves the super-admin tenant registry.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("tenants service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// List implements GET /admin/tenants
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := buildListOptions(r)
	if err != nil {
		h.writeError(w, r, err, "tenantsList")
		return
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err, "tenantsList")
		return
	}

	items := make([]Tenant, 0, len(result.Tenants))
	for _, t := range result.Tenants {
		items = append(items, toAPITenant(t))
	}
	problem.JSON(w, http.StatusOK, TenantList{
		Items:      items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// Create implements POST /admin/tenants
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateTenant
	if err := problem.Decode(r, &body); err != nil {
		problem.BadBody(w, err)
		return
	}

	created, err := h.svc.Create(r.Context(), service.CreateInput{Slug: body.Slug, Name: body.Name})
	if err != nil {
		h.writeError(w, r, err, "tenantsCreate")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/admin/tenants/%s", created.ID))
	problem.JSON(w, http.StatusCreated, toAPITenant(created))
}

// Get implements GET /admin/tenants/{tenantId}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "tenantId"))
	if err != nil {
		h.writeError(w, r, service.ErrNotFound, "tenantsGet")
		return
	}

	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, "tenantsGet")
		return
	}
	problem.JSON(w, http.StatusOK, toAPITenant(t))
}

// Update implements PATCH /admin/tenants/{tenantId}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "tenantId"))
	if err != nil {
		h.writeError(w, r, service.ErrNotFound, "tenantsUpdate")
		return
	}

	var body UpdateTenant
	if err := problem.Decode(r, &body); err != nil {
		problem.BadBody(w, err)
		return
	}
	if body.IsActive == nil {
		h.writeError(w, r, &service.ValidationError{Fields: service.FieldErrors{"isActive": {"isActive is required"}}}, "tenantsUpdate")
		return
	}

	updated, err := h.svc.SetActive(r.Context(), id, *body.IsActive)
	if err != nil {
		h.writeError(w, r, err, "tenantsUpdate")
		return
	}

	audit := requesttrace.FromContextOrAnonymous(r.Context())
	fields := []zap.Field{zap.String("tenant_id", updated.ID.String()), zap.Bool("is_active", updated.IsActive)}
	if audit.UserID != nil {
		fields = append(fields, zap.String("actor_id", audit.UserID.String()))
	}
	h.loggerFrom(r.Context()).Info("tenant activation changed", fields...)

	problem.JSON(w, http.StatusOK, toAPITenant(updated))
}

func buildListOptions(r *http.Request) (service.ListOptions, error) {
	query := r.URL.Query()
	opts := service.ListOptions{}
	fieldErrors := service.FieldErrors{}

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			fieldErrors["page"] = append(fieldErrors["page"], "page must be an integer")
		}
		opts.Page = page
	}
	if raw := query.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			fieldErrors["pageSize"] = append(fieldErrors["pageSize"], "pageSize must be an integer")
		}
		opts.PageSize = size
	}
	if raw := query.Get("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			fieldErrors["isActive"] = append(fieldErrors["isActive"], "isActive must be true or false")
		}
		opts.IsActive = &active
	}

	if len(fieldErrors) > 0 {
		return service.ListOptions{}, &service.ValidationError{Fields: fieldErrors}
	}
	return opts, nil
}

func toAPITenant(t service.Tenant) Tenant {
	return Tenant{ID: t.ID, Slug: t.Slug, Name: t.Name, IsActive: t.IsActive, CreatedAt: t.CreatedAt}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	logger := h.loggerFrom(r.Context())
	fields := []zap.Field{zap.String("operation", op), zap.Error(err)}

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logger.Warn("tenants request rejected", fields...)
		problem.Write(w, problem.New(http.StatusBadRequest, "Validation failed", "one or more fields are invalid",
			problem.TypeValidation, validationErr.Fields))
	case errors.Is(err, service.ErrNotFound):
		logger.Info("tenant not found", fields...)
		problem.Write(w, problem.New(http.StatusNotFound, "Resource not found", "tenant not found", problem.TypeNotFound, nil))
	case errors.Is(err, service.ErrConflictSlug):
		logger.Info("tenant slug conflict", fields...)
		problem.Write(w, problem.New(http.StatusConflict, "Conflict", "a tenant with this slug already exists", problem.TypeConflict, nil))
	default:
		logger.Error("tenants operation failed", fields...)
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
