package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/posbill/posbill-saas/platform/go/persistence"
)

// Repository is the tenant registry as seen by the admin console.
type Repository interface {
	List(ctx context.Context, params persistence.ListTenantsParams) (persistence.ListTenantsResult, error)
	Create(ctx context.Context, params persistence.CreateTenantParams) (persistence.TenantRecord, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.TenantRecord, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (persistence.TenantRecord, error)
}

type postgresRepository struct {
	store *persistence.TenantStore
}

// NewPostgresRepository constructs a repository backed by TenantStore.
func NewPostgresRepository(store *persistence.TenantStore) Repository {
	if store == nil {
		panic("tenant store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) List(ctx context.Context, params persistence.ListTenantsParams) (persistence.ListTenantsResult, error) {
	return r.store.List(ctx, params)
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateTenantParams) (persistence.TenantRecord, error) {
	return r.store.Create(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.TenantRecord, error) {
	return r.store.Get(ctx, id)
}

func (r *postgresRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (persistence.TenantRecord, error) {
	return r.store.SetActive(ctx, id, active)
}
