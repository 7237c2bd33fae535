package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const TenantsTable = "tenants"

// TenantRecord represents a restaurant account.
type TenantRecord struct {
	TenantID  uuid.UUID `db:"tenant_id"`
	Slug      string    `db:"slug"`
	Name      string    `db:"name"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

// CreateTenantParams captures the fields required to register a tenant.
type CreateTenantParams struct {
	Slug string
	Name string
}

// TenantStore provides access to the tenants table.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore creates a store; assumes ApplySchema already created the table.
func NewTenantStore(ctx context.Context, pool *pgxpool.Pool) (*TenantStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TenantStore{pool: pool}, nil
}

// Create inserts a tenant with a normalized slug.
func (s *TenantStore) Create(ctx context.Context, params CreateTenantParams) (TenantRecord, error) {
	slug, err := NormalizeSlug(params.Slug)
	if err != nil {
		return TenantRecord{}, err
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return TenantRecord{}, errors.New("tenant name is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (slug, name)
        VALUES ($1, $2)
        RETURNING tenant_id, slug, name, is_active, created_at
    `, TenantsTable), slug, name)

	rec, err := scanTenantRecord(row)
	if err != nil {
		if isUniqueViolation(err) {
			return TenantRecord{}, ErrConflict
		}
		return TenantRecord{}, err
	}
	return rec, nil
}

// Get fetches a tenant by id.
func (s *TenantStore) Get(ctx context.Context, id uuid.UUID) (TenantRecord, error) {
	query := fmt.Sprintf(`SELECT tenant_id, slug, name, is_active, created_at FROM %s WHERE tenant_id = $1`, TenantsTable)
	return scanTenantRecord(s.pool.QueryRow(ctx, query, id))
}

// GetBySlug returns the tenant registered under slug.
func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (TenantRecord, error) {
	normalized, err := NormalizeSlug(slug)
	if err != nil {
		return TenantRecord{}, err
	}
	query := fmt.Sprintf(`SELECT tenant_id, slug, name, is_active, created_at FROM %s WHERE slug = $1`, TenantsTable)
	return scanTenantRecord(s.pool.QueryRow(ctx, query, normalized))
}

// ListTenantsParams pages the tenant registry. IsActive filters on the active flag when set.
type ListTenantsParams struct {
	Page     int
	PageSize int
	IsActive *bool
}

// ListTenantsResult is a page of tenants plus the unpaged total.
type ListTenantsResult struct {
	Tenants    []TenantRecord
	TotalItems int
}

// List returns tenants ordered by slug.
func (s *TenantStore) List(ctx context.Context, params ListTenantsParams) (ListTenantsResult, error) {
	params.Page = max(params.Page, 1)
	if params.PageSize <= 0 || params.PageSize > 100 {
		params.PageSize = 20
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE ($1::boolean IS NULL OR is_active = $1)`, TenantsTable)
	if err := s.pool.QueryRow(ctx, countQuery, params.IsActive).Scan(&total); err != nil {
		return ListTenantsResult{}, fmt.Errorf("count tenants: %w", err)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT tenant_id, slug, name, is_active, created_at
        FROM %s
        WHERE ($1::boolean IS NULL OR is_active = $1)
        ORDER BY slug
        LIMIT $2 OFFSET $3
    `, TenantsTable), params.IsActive, params.PageSize, (params.Page-1)*params.PageSize)
	if err != nil {
		return ListTenantsResult{}, fmt.Errorf("list tenants: %w", err)
	}

	tenants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (TenantRecord, error) {
		return scanTenantRecord(row)
	})
	if err != nil {
		return ListTenantsResult{}, fmt.Errorf("scan tenants: %w", err)
	}
	return ListTenantsResult{Tenants: tenants, TotalItems: total}, nil
}

// SetActive flips the tenant's active flag. Deactivated tenants keep their rows; their members are
// turned away by the access pipeline.
func (s *TenantStore) SetActive(ctx context.Context, id uuid.UUID, active bool) (TenantRecord, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET is_active = $2
        WHERE tenant_id = $1
        RETURNING tenant_id, slug, name, is_active, created_at
    `, TenantsTable), id, active)
	return scanTenantRecord(row)
}

func scanTenantRecord(row pgx.Row) (TenantRecord, error) {
	var rec TenantRecord
	if err := row.Scan(&rec.TenantID, &rec.Slug, &rec.Name, &rec.IsActive, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TenantRecord{}, ErrNotFound
		}
		return TenantRecord{}, err
	}
	return rec, nil
}
