package repo

import (
	"context"

	"github.com/posbill/posbill-saas/platform/go/persistence"
)

// Repository defines the persistence operations required by the products service.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateProductParams) (persistence.Product, error)
	List(ctx context.Context, limit int) ([]persistence.Product, error)
}

type postgresRepository struct {
	store *persistence.ProductStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.ProductStore) Repository {
	if store == nil {
		panic("product store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateProductParams) (persistence.Product, error) {
	return r.store.CreateProduct(ctx, params)
}

func (r *postgresRepository) List(ctx context.Context, limit int) ([]persistence.Product, error) {
	return r.store.ListProducts(ctx, limit)
}
