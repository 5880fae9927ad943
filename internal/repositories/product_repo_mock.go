package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catalog/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// Products are kept in insertion order.
type MockProductRepository struct {
	products []models.Product
	nextID   uint
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{nextID: 1}
}

// FindAll returns all products.
func (r *MockProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, len(r.products))
	copy(productList, r.products)
	return productList, nil
}

// Save adds a new product.
func (r *MockProductRepository) Save(ctx context.Context, product *models.Product) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID != 0 {
		return fmt.Errorf("product already has ID %d", product.ID)
	}
	product.ID = r.nextID
	r.nextID++
	product.CreatedAt = time.Now().UTC()
	r.products = append(r.products, *product)
	return nil
}
