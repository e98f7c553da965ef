package catalog

import (
	"context"
	"sync"

	apperrors "github.com/gigpass/storefront/pkg/errors"
)

// MemoryCatalog is an in-memory Catalog for tests and local development.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{products: make(map[string]Product)}
}

// Put adds or replaces a product.
func (c *MemoryCatalog) Put(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

// GetProduct retrieves a single product by id.
func (c *MemoryCatalog) GetProduct(_ context.Context, productID string) (*Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[productID]
	if !ok {
		return nil, apperrors.NotFound("product", productID)
	}
	return &p, nil
}

// GetProducts retrieves a batch of products by id.
func (c *MemoryCatalog) GetProducts(_ context.Context, productIDs []string) (map[string]*Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]*Product, len(productIDs))
	for _, id := range productIDs {
		if p, ok := c.products[id]; ok {
			cp := p
			result[id] = &cp
		}
	}
	return result, nil
}
