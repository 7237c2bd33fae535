package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/posbill/posbill-saas/domains/tenants/be/service"
	"github.com/posbill/posbill-saas/platform/go/problem"
)

type mockService struct {
	listFn      func(ctx context.Context, opts service.ListOptions) (service.ListResult, error)
	createFn    func(ctx context.Context, input service.CreateInput) (service.Tenant, error)
	getFn       func(ctx context.Context, id uuid.UUID) (service.Tenant, error)
	setActiveFn func(ctx context.Context, id uuid.UUID, active bool) (service.Tenant, error)
}

func (m *mockService) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, opts)
}

func (m *mockService) Create(ctx context.Context, input service.CreateInput) (service.Tenant, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, input)
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockService) SetActive(ctx context.Context, id uuid.UUID, active bool) (service.Tenant, error) {
	if m.setActiveFn == nil {
		panic("setActiveFn not configured")
	}
	return m.setActiveFn(ctx, id, active)
}

func newRouter(t *testing.T, svc service.Service) http.Handler {
	t.Helper()

	h := New(svc, zaptest.NewLogger(t))
	r := chi.NewRouter()
	r.Get("/admin/tenants", h.List)
	r.Post("/admin/tenants", h.Create)
	r.Get("/admin/tenants/{tenantId}", h.Get)
	r.Patch("/admin/tenants/{tenantId}", h.Update)
	return r
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) problem.Details {
	t.Helper()
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var body problem.Details
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestTenantsList(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{}
	svc.listFn = func(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
		require.Equal(t, 2, opts.Page)
		require.NotNil(t, opts.IsActive)
		require.False(t, *opts.IsActive)
		return service.ListResult{
			Tenants:    []service.Tenant{{ID: id, Slug: "spice-garden", Name: "Spice Garden"}},
			Page:       2,
			PageSize:   20,
			TotalItems: 21,
			TotalPages: 2,
		}, nil
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/tenants?page=2&isActive=false", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body TenantList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	require.Equal(t, id, body.Items[0].ID)
	require.Equal(t, 2, body.TotalPages)
}

func TestTenantsListInvalidFilter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newRouter(t, &mockService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/tenants?isActive=maybe", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeProblem(t, rec).Errors, "isActive")
}

func TestTenantsCreate(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{}
	svc.createFn = func(ctx context.Context, input service.CreateInput) (service.Tenant, error) {
		require.Equal(t, "spice-garden", input.Slug)
		return service.Tenant{ID: id, Slug: input.Slug, Name: input.Name, IsActive: true, CreatedAt: time.Now().UTC()}, nil
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/tenants", strings.NewReader(`{"slug":"spice-garden","name":"Spice Garden"}`))
	newRouter(t, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/api/v1/admin/tenants/"+id.String(), rec.Header().Get("Location"))
}

func TestTenantsCreateConflict(t *testing.T) {
	t.Parallel()

	svc := &mockService{createFn: func(ctx context.Context, input service.CreateInput) (service.Tenant, error) {
		return service.Tenant{}, service.ErrConflictSlug
	}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/tenants", strings.NewReader(`{"slug":"spice-garden","name":"Spice Garden"}`))
	newRouter(t, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, problem.TypeConflict, decodeProblem(t, rec).Type)
}

func TestTenantsGetNotFound(t *testing.T) {
	t.Parallel()

	svc := &mockService{getFn: func(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
		return service.Tenant{}, service.ErrNotFound
	}}

	for _, path := range []string{"/admin/tenants/" + uuid.NewString(), "/admin/tenants/not-a-uuid"} {
		rec := httptest.NewRecorder()
		newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestTenantsDeactivate(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{}
	svc.setActiveFn = func(ctx context.Context, got uuid.UUID, active bool) (service.Tenant, error) {
		require.Equal(t, id, got)
		require.False(t, active)
		return service.Tenant{ID: id, Slug: "spice-garden", IsActive: false}, nil
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/admin/tenants/"+id.String(), strings.NewReader(`{"isActive":false}`))
	newRouter(t, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body Tenant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.IsActive)
}

func TestTenantsUpdateRequiresIsActive(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/admin/tenants/"+uuid.NewString(), strings.NewReader(`{}`))
	newRouter(t, &mockService{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeProblem(t, rec).Errors, "isActive")
}
