package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/posbill/posbill-saas/domains/orders/be/repo"
	"github.com/posbill/posbill-saas/platform/go/access"
	"github.com/posbill/posbill-saas/platform/go/persistence"
	"github.com/posbill/posbill-saas/platform/go/requesttrace"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Order is a bill raised at the counter. Total is in minor currency units.
type Order struct {
	ID        uuid.UUID
	Total     int64
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}

// CreateInput represents the payload required to raise an order.
type CreateInput struct {
	Total int64
}

// MonthlySummary is the order count and revenue since the start of the current calendar month.
type MonthlySummary struct {
	Since time.Time
	Count int
	Total int64
}

// TicketItem is one line on a kitchen order ticket.
type TicketItem struct {
	Name     string
	Quantity int
	Note     string
}

// TicketInput is the kitchen order ticket sent from the counter.
type TicketInput struct {
	OrderID *string
	Table   string
	Items   []TicketItem
}

// Ticket is the kitchen acknowledgement of a TicketInput. Tickets are not persisted.
type Ticket struct {
	ID             uuid.UUID
	OrderID        *uuid.UUID
	Table          string
	Items          []TicketItem
	AcknowledgedAt time.Time
}

// Service defines the business operations for the orders domain.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Order, error)
	List(ctx context.Context, limit int) ([]Order, error)
	MonthlySummary(ctx context.Context) (MonthlySummary, error)
	AcknowledgeTicket(ctx context.Context, input TicketInput) (Ticket, error)
}

type service struct {
	repo repo.Repository
	now  func() time.Time
}

// New constructs an orders Service. A nil clock defaults to time.Now.
func New(r repo.Repository, clock func() time.Time) Service {
	if r == nil {
		panic("orders repository is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: r, now: clock}
}

func (s *service) Create(ctx context.Context, input CreateInput) (Order, error) {
	audit := requesttrace.FromContextOrAnonymous(ctx)

	record, err := s.repo.Create(ctx, persistence.CreateOrderParams{
		Total:     input.Total,
		CreatedBy: audit.UserID,
	})
	if err != nil {
		return Order{}, err
	}
	return mapOrder(record), nil
}

func (s *service) List(ctx context.Context, limit int) ([]Order, error) {
	records, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(records))
	for _, record := range records {
		orders = append(orders, mapOrder(record))
	}
	return orders, nil
}

// MonthlySummary uses the same window as the monthly bill quota.
func (s *service) MonthlySummary(ctx context.Context) (MonthlySummary, error) {
	summary, err := s.repo.Summarize(ctx, access.MonthStart(s.now()))
	if err != nil {
		return MonthlySummary{}, err
	}
	return MonthlySummary{Since: summary.Since, Count: summary.Count, Total: summary.Total}, nil
}

func (s *service) AcknowledgeTicket(_ context.Context, input TicketInput) (Ticket, error) {
	fieldErrors := FieldErrors{}

	var orderID *uuid.UUID
	if input.OrderID != nil && strings.TrimSpace(*input.OrderID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(*input.OrderID))
		if err != nil {
			fieldErrors["orderId"] = append(fieldErrors["orderId"], "orderId must be a UUID")
		} else {
			orderID = &parsed
		}
	}

	items := make([]TicketItem, 0, len(input.Items))
	for i, item := range input.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			key := fmt.Sprintf("items[%d].name", i)
			fieldErrors[key] = append(fieldErrors[key], "name is required")
		}
		items = append(items, TicketItem{Name: name, Quantity: item.Quantity, Note: strings.TrimSpace(item.Note)})
	}

	if len(fieldErrors) > 0 {
		return Ticket{}, &ValidationError{Fields: fieldErrors}
	}

	return Ticket{
		ID:             uuid.New(),
		OrderID:        orderID,
		Table:          strings.TrimSpace(input.Table),
		Items:          items,
		AcknowledgedAt: s.now().UTC(),
	}, nil
}

func mapOrder(record persistence.Order) Order {
	return Order{
		ID:        record.OrderID,
		Total:     record.Total,
		CreatedBy: record.CreatedBy,
		CreatedAt: record.CreatedAt,
	}
}
