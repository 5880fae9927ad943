package repositories

import (
	"context"

	"catalog/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// FindAll returns every product in storage order.
	FindAll(ctx context.Context) ([]models.Product, error)
	// Save inserts product and fills in its generated ID and CreatedAt.
	Save(ctx context.Context, product *models.Product) error
}
