package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const OrdersTable = "orders"

// Order is a bill raised by a tenant. Total is in minor units.
type Order struct {
	OrderID   uuid.UUID  `db:"order_id" json:"orderId"`
	TenantID  uuid.UUID  `db:"tenant_id" json:"tenantId"`
	Total     int64      `db:"total" json:"total"`
	CreatedBy *uuid.UUID `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

// CreateOrderParams captures the fields required to insert an order.
type CreateOrderParams struct {
	Total     int64
	CreatedBy *uuid.UUID
}

// OrderSummary aggregates a tenant's orders over a window.
type OrderSummary struct {
	Since time.Time `json:"since"`
	Count int       `json:"count"`
	Total int64     `json:"total"`
}

// OrderStore persists orders for the bound tenant.
type OrderStore struct {
	db *TenantDB
}

func NewOrderStore(ctx context.Context, pool *pgxpool.Pool) (*OrderStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &OrderStore{db: NewTenantDB(pool)}, nil
}

// CreateOrder inserts an order into the bound tenant.
func (s *OrderStore) CreateOrder(ctx context.Context, params CreateOrderParams) (Order, error) {
	if params.Total < 0 {
		return Order{}, errors.New("order total must not be negative")
	}

	var order Order
	err := s.db.WithTenant(ctx, func(tx pgx.Tx, tenantID uuid.UUID) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO %s (tenant_id, total, created_by)
            VALUES ($1, $2, $3)
            RETURNING order_id, tenant_id, total, created_by, created_at
        `, OrdersTable), tenantID, params.Total, params.CreatedBy)

		var err error
		order, err = scanOrder(row)
		return err
	})
	return order, err
}

// ListOrders returns up to limit orders of the bound tenant, newest first.
func (s *OrderStore) ListOrders(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	orders := make([]Order, 0)
	err := s.db.WithTenant(ctx, func(tx pgx.Tx, tenantID uuid.UUID) error {
		rows, err := tx.Query(ctx, fmt.Sprintf(`
            SELECT order_id, tenant_id, total, created_by, created_at
            FROM %s WHERE tenant_id = $1
            ORDER BY created_at DESC
            LIMIT $2
        `, OrdersTable), tenantID, limit)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return fmt.Errorf("scan order: %w", err)
			}
			orders = append(orders, o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// SummarizeOrders counts and sums the bound tenant's orders created at or after since.
func (s *OrderStore) SummarizeOrders(ctx context.Context, since time.Time) (OrderSummary, error) {
	summary := OrderSummary{Since: since}
	err := s.db.WithTenant(ctx, func(tx pgx.Tx, tenantID uuid.UUID) error {
		err := tx.QueryRow(ctx, fmt.Sprintf(`
            SELECT COUNT(*), COALESCE(SUM(total), 0)::BIGINT
            FROM %s WHERE tenant_id = $1 AND created_at >= $2
        `, OrdersTable), tenantID, since).Scan(&summary.Count, &summary.Total)
		if err != nil {
			return fmt.Errorf("summarize orders: %w", err)
		}
		return nil
	})
	return summary, err
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	if err := row.Scan(&o.OrderID, &o.TenantID, &o.Total, &o.CreatedBy, &o.CreatedAt); err != nil {
		return Order{}, err
	}
	return o, nil
}
