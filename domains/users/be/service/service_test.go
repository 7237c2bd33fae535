package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/posbill/posbill-saas/platform/go/persistence"
)

type mockRepository struct {
	createFn func(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error)
	listFn   func(ctx context.Context, params persistence.ListUsersParams) (persistence.ListUsersResult, error)
	getFn    func(ctx context.Context, id uuid.UUID) (persistence.User, error)
}

func (m *mockRepository) Create(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, params)
}

func (m *mockRepository) List(ctx context.Context, params persistence.ListUsersParams) (persistence.ListUsersResult, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, params)
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (persistence.User, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func TestServiceCreateValidation(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.Create(context.Background(), CreateInput{RoleID: ptrString("cashier")})
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "email")
	require.Contains(t, validationErr.Fields, "fullName")
	require.Contains(t, validationErr.Fields, "roleId")
}

func TestServiceCreateSuccess(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	roleID := uuid.New()
	repository := &mockRepository{}

	repository.createFn = func(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
		require.Equal(t, "waiter@spice.example", params.Email)
		require.Equal(t, "Asha", params.FullName)
		require.Equal(t, &roleID, params.RoleID)
		require.False(t, params.IsSuperAdmin)

		return persistence.User{
			UserID:    uuid.New(),
			RoleID:    params.RoleID,
			Email:     params.Email,
			FullName:  params.FullName,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}

	svc := New(repository)

	user, err := svc.Create(context.Background(), CreateInput{
		Email:    "  Waiter@Spice.example ",
		FullName: " Asha ",
		RoleID:   ptrString(roleID.String()),
	})
	require.NoError(t, err)
	require.Equal(t, "waiter@spice.example", user.Email)
	require.Equal(t, "Asha", user.FullName)
	require.True(t, user.IsActive)
}

func TestServiceCreateConflict(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{createFn: func(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
		return persistence.User{}, persistence.ErrUserConflict
	}})

	_, err := svc.Create(context.Background(), CreateInput{Email: "a@b.c", FullName: "A"})
	require.ErrorIs(t, err, ErrConflict)
}

func TestServiceCreateRoleOfAnotherTenant(t *testing.T) {
	t.Parallel()

	foreignRole := uuid.New()
	svc := New(&mockRepository{createFn: func(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
		require.Equal(t, &foreignRole, params.RoleID)
		return persistence.User{}, persistence.ErrRoleNotInTenant
	}})

	_, err := svc.Create(context.Background(), CreateInput{Email: "a@b.c", FullName: "A", RoleID: ptrString(foreignRole.String())})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Fields, 1)
	require.Contains(t, validationErr.Fields, "roleId")
}

func TestServiceCreateWithoutTenantBinding(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{createFn: func(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
		return persistence.User{}, persistence.ErrNoTenantBinding
	}})

	_, err := svc.Create(context.Background(), CreateInput{Email: "a@b.c", FullName: "A"})
	require.ErrorIs(t, err, persistence.ErrNoTenantBinding)
}

func TestServiceListSuccess(t *testing.T) {
	t.Parallel()

	repository := &mockRepository{}
	now := time.Now().UTC()
	userID := uuid.New()

	repository.listFn = func(ctx context.Context, params persistence.ListUsersParams) (persistence.ListUsersResult, error) {
		require.Equal(t, 2, params.Page)
		require.Equal(t, 10, params.PageSize)
		require.NotNil(t, params.Sort)
		require.Equal(t, "createdAt", *params.Sort)
		require.NotNil(t, params.Email)
		require.Equal(t, "admin@example.com", *params.Email)

		return persistence.ListUsersResult{
			Users: []persistence.User{{
				UserID:    userID,
				Email:     "admin@example.com",
				FullName:  "Admin",
				CreatedAt: now,
				UpdatedAt: now,
			}},
			TotalItems: 15,
		}, nil
	}

	svc := New(repository)

	sort := "createdAt"
	result, err := svc.List(context.Background(), ListOptions{
		Page:     2,
		PageSize: 10,
		Sort:     &sort,
		Email:    ptrString(" admin@example.com "),
	})

	require.NoError(t, err)
	require.Equal(t, 2, result.Page)
	require.Equal(t, 10, result.PageSize)
	require.Equal(t, 15, result.TotalItems)
	require.Equal(t, 2, result.TotalPages)
	require.Len(t, result.Users, 1)
	require.Equal(t, userID, result.Users[0].ID)
}

func TestServiceListClampsPaging(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{listFn: func(ctx context.Context, params persistence.ListUsersParams) (persistence.ListUsersResult, error) {
		require.Equal(t, 1, params.Page)
		require.Equal(t, 100, params.PageSize)
		require.Nil(t, params.Email)
		return persistence.ListUsersResult{}, nil
	}})

	result, err := svc.List(context.Background(), ListOptions{Page: -3, PageSize: 500, Email: ptrString("  ")})
	require.NoError(t, err)
	require.Equal(t, 0, result.TotalPages)
	require.Empty(t, result.Users)
}

func TestServiceListInvalidSort(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	sort := "-invalid"
	_, err := svc.List(context.Background(), ListOptions{Sort: &sort})
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "sort")
}

func TestServiceGet(t *testing.T) {
	t.Parallel()

	_, err := New(&mockRepository{}).Get(context.Background(), uuid.Nil)
	require.ErrorIs(t, err, ErrNotFound)

	svc := New(&mockRepository{getFn: func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
		return persistence.User{}, persistence.ErrUserNotFound
	}})
	_, err = svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func ptrString(v string) *string {
	s := v
	return &s
}
