package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/posbill/posbill-saas/domains/orders/be/service"
	platformlogging "github.com/posbill/posbill-saas/platform/go/logging"
	"github.com/posbill/posbill-saas/platform/go/persistence"
	"github.com/posbill/posbill-saas/platform/go/problem"
)

type operation string

const (
	createOperation  operation = "ordersCreate"
	listOperation    operation = "ordersList"
	summaryOperation operation = "ordersMonthlySummary"
	ticketOperation  operation = "kitchenTicketAcknowledge"
)

type Order struct {
	ID        uuid.UUID  `json:"id"`
	Total     int64      `json:"total"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type OrderList struct {
	Items []Order `json:"items"`
}

type CreateOrder struct {
	Total int64 `json:"total"`
}

// OrderReport is the body of GET /reports/orders.
type OrderReport struct {
	Since      time.Time `json:"since"`
	OrderCount int       `json:"orderCount"`
	Revenue    int64     `json:"revenue"`
}

type TicketItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note,omitempty"`
}

// KitchenTicket is both the POST /kot payload and, with ID and AcknowledgedAt set, its response.
type KitchenTicket struct {
	ID             *uuid.UUID   `json:"id,omitempty"`
	OrderID        *string      `json:"orderId,omitempty"`
	Table          string       `json:"table,omitempty"`
	Items          []TicketItem `json:"items"`
	AcknowledgedAt *time.Time   `json:"acknowledgedAt,omitempty"`
}

// Handler serves the billing and kitchen endpoints.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("orders service is required")
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
			h.writeError(w, r, &service.ValidationError{Fields: service.FieldErrors{"limit": {"limit must be a positive integer"}}}, listOperation)
			return
		}
		limit = parsed
	}

	orders, err := h.svc.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	items := make([]Order, 0, len(orders))
	for _, o := range orders {
		items = append(items, toAPIOrder(o))
	}
	problem.JSON(w, http.StatusOK, OrderList{Items: items})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateOrder
	if err := problem.Decode(r, &body); err != nil {
		problem.BadBody(w, err)
		return
	}

	created, err := h.svc.Create(r.Context(), service.CreateInput{Total: body.Total})
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	problem.JSON(w, http.StatusCreated, toAPIOrder(created))
}

func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.MonthlySummary(r.Context())
	if err != nil {
		h.writeError(w, r, err, summaryOperation)
		return
	}

	problem.JSON(w, http.StatusOK, OrderReport{
		Since:      summary.Since,
		OrderCount: summary.Count,
		Revenue:    summary.Total,
	})
}

func (h *Handler) AcknowledgeTicket(w http.ResponseWriter, r *http.Request) {
	var body KitchenTicket
	if err := problem.Decode(r, &body); err != nil {
		problem.BadBody(w, err)
		return
	}

	input := service.TicketInput{OrderID: body.OrderID, Table: body.Table}
	for _, item := range body.Items {
		input.Items = append(input.Items, service.TicketItem{Name: item.Name, Quantity: item.Quantity, Note: item.Note})
	}

	ticket, err := h.svc.AcknowledgeTicket(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err, ticketOperation)
		return
	}

	h.loggerFrom(r.Context()).Info("kitchen ticket acknowledged",
		zap.String("ticket_id", ticket.ID.String()),
		zap.Int("items", len(ticket.Items)),
	)

	problem.JSON(w, http.StatusAccepted, toAPITicket(ticket))
}

func toAPIOrder(o service.Order) Order {
	return Order{ID: o.ID, Total: o.Total, CreatedBy: o.CreatedBy, CreatedAt: o.CreatedAt}
}

func toAPITicket(t service.Ticket) KitchenTicket {
	id := t.ID
	at := t.AcknowledgedAt
	out := KitchenTicket{ID: &id, Table: t.Table, AcknowledgedAt: &at, Items: make([]TicketItem, 0, len(t.Items))}
	if t.OrderID != nil {
		orderID := t.OrderID.String()
		out.OrderID = &orderID
	}
	for _, item := range t.Items {
		out.Items = append(out.Items, TicketItem{Name: item.Name, Quantity: item.Quantity, Note: item.Note})
	}
	return out
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	logger := h.loggerFrom(r.Context())
	fields := []zap.Field{zap.String("operation", string(op)), zap.Error(err)}

	if errors.Is(err, persistence.ErrNoTenantBinding) {
		logger.Warn("orders request without a tenant", fields...)
		problem.Write(w, problem.NoTenant())
		return
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.Warn("orders request rejected", fields...)
		problem.Write(w, problem.New(http.StatusBadRequest, "Validation failed", "one or more fields are invalid",
			problem.TypeValidation, validationErr.Fields))
		return
	}

	logger.Error("orders operation failed", fields...)
	problem.Write(w, problem.New(http.StatusInternalServerError, "Internal server error",
		"an unexpected error occurred", problem.TypeInternal, nil))
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
