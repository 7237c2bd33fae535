package repo

import (
	"context"
	"time"

	"github.com/posbill/posbill-saas/platform/go/persistence"
)

// Repository defines the persistence operations required by the orders service.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateOrderParams) (persistence.Order, error)
	List(ctx context.Context, limit int) ([]persistence.Order, error)
	Summarize(ctx context.Context, since time.Time) (persistence.OrderSummary, error)
}

type postgresRepository struct {
	store *persistence.OrderStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.OrderStore) Repository {
	if store == nil {
		panic("order store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateOrderParams) (persistence.Order, error) {
	return r.store.CreateOrder(ctx, params)
}

func (r *postgresRepository) List(ctx context.Context, limit int) ([]persistence.Order, error) {
	return r.store.ListOrders(ctx, limit)
}

func (r *postgresRepository) Summarize(ctx context.Context, since time.Time) (persistence.OrderSummary, error) {
	return r.store.SummarizeOrders(ctx, since)
}
