package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageStore counts tenant-owned rows for quota checks. It implements access.UsageCounter.
type UsageStore struct {
	pool *pgxpool.Pool
}

func NewUsageStore(ctx context.Context, pool *pgxpool.Pool) (*UsageStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &UsageStore{pool: pool}, nil
}

// CountUsers counts the tenant's users, active or not.
func (s *UsageStore) CountUsers(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return s.count(ctx, "users", fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE tenant_id = $1`, UsersTable), tenantID)
}

// CountProducts counts the tenant's products.
func (s *UsageStore) CountProducts(ctx context.Context, tenantID uuid.UUID) (int, error) {
	return s.count(ctx, "products", fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE tenant_id = $1`, ProductsTable), tenantID)
}

// CountOrdersSince counts the tenant's orders created at or after since.
func (s *UsageStore) CountOrdersSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error) {
	return s.count(ctx, "orders", fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE tenant_id = $1 AND created_at >= $2`, OrdersTable), tenantID, since)
}

func (s *UsageStore) count(ctx context.Context, what, query string, args ...any) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", what, err)
	}
	return n, nil
}
