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

const ProductsTable = "products"

// Product is a menu item owned by one tenant. Price is in minor units.
type Product struct {
	ProductID uuid.UUID `db:"product_id" json:"productId"`
	TenantID  uuid.UUID `db:"tenant_id" json:"tenantId"`
	Name      string    `db:"name" json:"name"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CreateProductParams captures the fields required to insert a product.
type CreateProductParams struct {
	Name  string
	Price int64
}

// ProductStore persists products for the bound tenant.
type ProductStore struct {
	db *TenantDB
}

func NewProductStore(ctx context.Context, pool *pgxpool.Pool) (*ProductStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ProductStore{db: NewTenantDB(pool)}, nil
}

// CreateProduct inserts a product into the bound tenant.
func (s *ProductStore) CreateProduct(ctx context.Context, params CreateProductParams) (Product, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return Product{}, errors.New("product name is required")
	}

	var product Product
	err := s.db.WithTenant(ctx, func(tx pgx.Tx, tenantID uuid.UUID) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO %s (tenant_id, name, price)
            VALUES ($1, $2, $3)
            RETURNING product_id, tenant_id, name, price, created_at
        `, ProductsTable), tenantID, name, params.Price)

		var err error
		product, err = scanProduct(row)
		return err
	})
	return product, err
}

// ListProducts returns up to limit products of the bound tenant, newest first.
func (s *ProductStore) ListProducts(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	products := make([]Product, 0)
	err := s.db.WithTenant(ctx, func(tx pgx.Tx, tenantID uuid.UUID) error {
		rows, err := tx.Query(ctx, fmt.Sprintf(`
            SELECT product_id, tenant_id, name, price, created_at
            FROM %s WHERE tenant_id = $1
            ORDER BY created_at DESC
            LIMIT $2
        `, ProductsTable), tenantID, limit)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return fmt.Errorf("scan product: %w", err)
			}
			products = append(products, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	if err := row.Scan(&p.ProductID, &p.TenantID, &p.Name, &p.Price, &p.CreatedAt); err != nil {
		return Product{}, err
	}
	return p, nil
}
