package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/posbill/posbill-saas/domains/tenants/be/repo"
	"github.com/posbill/posbill-saas/platform/go/persistence"
)

// Errors returned by the service layer.
var (
	ErrNotFound     = errors.New("tenant not found")
	ErrConflictSlug = errors.New("tenant slug already exists")
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "invalid tenant input"
}

// Tenant is a restaurant account in the registry.
type Tenant struct {
	ID        uuid.UUID
	Slug      string
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// CreateInput represents the request to register a tenant.
type CreateInput struct {
	Slug string
	Name string
}

// ListOptions captures filters and pagination.
type ListOptions struct {
	Page     int
	PageSize int
	IsActive *bool
}

// ListResult wraps paginated tenants.
type ListResult struct {
	Tenants    []Tenant
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// Service provides the super-admin tenant registry operations.
type Service interface {
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Create(ctx context.Context, input CreateInput) (Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (Tenant, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (Tenant, error)
}

type service struct {
	repo repo.Repository
}

// New constructs a Service with required dependencies.
func New(r repo.Repository) Service {
	if r == nil {
		panic("tenants repository is required")
	}
	return &service{repo: r}
}

const defaultPageSize = 20

func (s *service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	page := max(opts.Page, 1)
	size := opts.PageSize
	if size <= 0 {
		size = defaultPageSize
	}

	found, err := s.repo.List(ctx, persistence.ListTenantsParams{Page: page, PageSize: size, IsActive: opts.IsActive})
	if err != nil {
		return ListResult{}, err
	}

	out := ListResult{
		Tenants:    make([]Tenant, 0, len(found.Tenants)),
		Page:       page,
		PageSize:   size,
		TotalItems: found.TotalItems,
		TotalPages: (found.TotalItems + size - 1) / size,
	}
	for _, rec := range found.Tenants {
		out.Tenants = append(out.Tenants, toTenant(rec))
	}
	return out, nil
}

// Create registers a tenant. New tenants start active and without a subscription, so their
// members are turned away until one is assigned.
func (s *service) Create(ctx context.Context, input CreateInput) (Tenant, error) {
	problems := FieldErrors{}

	slug, err := persistence.NormalizeSlug(input.Slug)
	if err != nil {
		problems["slug"] = append(problems["slug"], err.Error())
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		problems["name"] = append(problems["name"], "name is required")
	}
	if len(problems) > 0 {
		return Tenant{}, &ValidationError{Fields: problems}
	}

	rec, err := s.repo.Create(ctx, persistence.CreateTenantParams{Slug: slug, Name: name})
	if err != nil {
		return Tenant{}, mapPersistenceError(err)
	}
	return toTenant(rec), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return Tenant{}, mapPersistenceError(err)
	}
	return toTenant(rec), nil
}

// SetActive deactivates or reactivates a tenant. Data is never removed.
func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (Tenant, error) {
	rec, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return Tenant{}, mapPersistenceError(err)
	}
	return toTenant(rec), nil
}

func toTenant(rec persistence.TenantRecord) Tenant {
	return Tenant{
		ID:        rec.TenantID,
		Slug:      rec.Slug,
		Name:      rec.Name,
		IsActive:  rec.IsActive,
		CreatedAt: rec.CreatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConflict):
		return ErrConflictSlug
	default:
		return err
	}
}
