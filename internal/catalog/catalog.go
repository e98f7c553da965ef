package catalog

import "context"

// Product is the catalog view this core consumes: pricing and availability
// only. Catalog storage and search live in another service.
type Product struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          int64   `json:"price"`
	SaleRate       float64 `json:"sale_rate"`
	AvailableStock int     `json:"available_stock"`
}

// Catalog looks up products by id.
type Catalog interface {
	// GetProduct retrieves a single product. Returns apperrors.ErrNotFound
	// if the product does not exist.
	GetProduct(ctx context.Context, productID string) (*Product, error)

	// GetProducts retrieves a batch of products keyed by id. Missing
	// products are absent from the result map, not an error.
	GetProducts(ctx context.Context, productIDs []string) (map[string]*Product, error)
}
