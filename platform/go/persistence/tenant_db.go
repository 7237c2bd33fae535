package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/posbill/posbill-saas/platform/go/tenant"
)

type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TenantDB runs queries for the tenant bound to the request context. Every tenant-owned table carries a
// tenant_id column and callbacks must filter on the id they are handed.
type TenantDB struct {
	pool txBeginner
}

func NewTenantDB(pool *pgxpool.Pool) *TenantDB {
	if pool == nil {
		panic("TenantDB requires pool")
	}
	return &TenantDB{pool: pool}
}

// WithTenant executes fn inside a transaction for the bound tenant. It fails with ErrNoTenantBinding when
// the access pipeline did not bind one.
func (db *TenantDB) WithTenant(ctx context.Context, fn func(tx pgx.Tx, tenantID uuid.UUID) error) error {
	binding, ok := tenant.FromContext(ctx)
	if !ok || binding.TenantID == uuid.Nil {
		return ErrNoTenantBinding
	}

	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(tx, binding.TenantID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
