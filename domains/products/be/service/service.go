package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/posbill/posbill-saas/domains/products/be/repo"
	"github.com/posbill/posbill-saas/platform/go/persistence"
)

const defaultPageSize = 100

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Product is a menu item. Price is expressed in minor currency units.
type Product struct {
	ID        uuid.UUID
	Name      string
	Price     int64
	CreatedAt time.Time
}

// CreateInput represents the payload required to add a product to the menu.
type CreateInput struct {
	Name  string
	Price int64
}

// Service defines the business operations for the products domain.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Product, error)
	List(ctx context.Context, limit int) ([]Product, error)
}

type service struct {
	repo repo.Repository
}

// New constructs a products Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("products repository is required")
	}
	return &service{repo: r}
}

// Create adds a menu item. Length and price bounds are enforced by the API contract; a name made only
// of whitespace still passes the contract and is rejected here.
func (s *service) Create(ctx context.Context, input CreateInput) (Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Product{}, &ValidationError{Fields: FieldErrors{"name": {"name is required"}}}
	}

	record, err := s.repo.Create(ctx, persistence.CreateProductParams{Name: name, Price: input.Price})
	if err != nil {
		return Product{}, err
	}
	return mapProduct(record), nil
}

func (s *service) List(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	records, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(records))
	for _, record := range records {
		products = append(products, mapProduct(record))
	}
	return products, nil
}

func mapProduct(record persistence.Product) Product {
	return Product{
		ID:        record.ProductID,
		Name:      record.Name,
		Price:     record.Price,
		CreatedAt: record.CreatedAt,
	}
}
