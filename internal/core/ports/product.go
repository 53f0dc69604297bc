package ports

import (
	"SidraStore/internal/core/domain"
	"context"
)

// ProductRepository defines the persistence operations for the catalog.
type ProductRepository interface {
	// GetAll returns the full catalog, newest first.
	GetAll(ctx context.Context) ([]domain.Product, error)

	// GetByID finds a product, returning nil when not found.
	GetByID(ctx context.Context, id int) (*domain.Product, error)

	// Create inserts a new product (used by seeding).
	Create(ctx context.Context, product *domain.Product) error
}
