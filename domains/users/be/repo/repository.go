package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/posbill/posbill-saas/platform/go/persistence"
)

// Repository is the users service's view of storage. Every call is scoped to the tenant bound on ctx
// and fails with persistence.ErrNoTenantBinding without one.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error)
	List(ctx context.Context, params persistence.ListUsersParams) (persistence.ListUsersResult, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.User, error)
}

type postgresRepository struct {
	store *persistence.UserStore
}

func NewPostgresRepository(store *persistence.UserStore) Repository {
	if store == nil {
		panic("user store is required")
	}
	return postgresRepository{store: store}
}

func (r postgresRepository) Create(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
	params.IsSuperAdmin = false
	return r.store.CreateUser(ctx, params)
}

func (r postgresRepository) List(ctx context.Context, params persistence.ListUsersParams) (persistence.ListUsersResult, error) {
	return r.store.ListUsers(ctx, params)
}

func (r postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.User, error) {
	return r.store.GetUser(ctx, id)
}
