package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/posbill/posbill-saas/domains/products/be/service"
	platformlogging "github.com/posbill/posbill-saas/platform/go/logging"
	"github.com/posbill/posbill-saas/platform/go/persistence"
	"github.com/posbill/posbill-saas/platform/go/problem"
)

type Product struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

type ProductList struct {
	Items []Product `json:"items"`
}

type CreateProduct struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Handler serves the menu endpoints.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("products service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, r, &service.ValidationError{Fields: service.FieldErrors{"limit": {"limit must be a positive integer"}}}, "productsList")
			return
		}
		limit = parsed
	}

	products, err := h.svc.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err, "productsList")
		return
	}

	items := make([]Product, 0, len(products))
	for _, p := range products {
		items = append(items, toAPIProduct(p))
	}
	problem.JSON(w, http.StatusOK, ProductList{Items: items})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateProduct
	if err := problem.Decode(r, &body); err != nil {
		problem.BadBody(w, err)
		return
	}

	created, err := h.svc.Create(r.Context(), service.CreateInput{Name: body.Name, Price: body.Price})
	if err != nil {
		h.writeError(w, r, err, "productsCreate")
		return
	}

	problem.JSON(w, http.StatusCreated, toAPIProduct(created))
}

func toAPIProduct(p service.Product) Product {
	return Product{ID: p.ID, Name: p.Name, Price: p.Price, CreatedAt: p.CreatedAt}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	logger := h.loggerFrom(r.Context())

	if errors.Is(err, persistence.ErrNoTenantBinding) {
		logger.Warn("products request without a tenant", zap.String("operation", op), zap.Error(err))
		problem.Write(w, problem.NoTenant())
		return
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.Warn("products request rejected", zap.String("operation", op), zap.Error(err))
		problem.Write(w, problem.New(http.StatusBadRequest, "Validation failed", "one or more fields are invalid",
			problem.TypeValidation, validationErr.Fields))
		return
	}

	logger.Error("products operation failed", zap.String("operation", op), zap.Error(err))
	problem.Write(w, problem.New(http.StatusInternalServerError, "Internal server error",
		"an unexpected error occurred", problem.TypeInternal, nil))
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
