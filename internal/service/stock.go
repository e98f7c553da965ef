package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/gigpass/storefront/internal/catalog"
	"github.com/gigpass/storefront/internal/domain"
	apperrors "github.com/gigpass/storefront/pkg/errors"
)

// StockGuard validates requested quantities against live catalog stock. It
// holds no state of its own: checkout is gated here, not cart mutation, so
// carts may exceed stock while browsing.
type StockGuard struct {
	catalog catalog.Catalog
}

// NewStockGuard creates a stock guard over the given catalog.
func NewStockGuard(c catalog.Catalog) *StockGuard {
	return &StockGuard{catalog: c}
}

// AssertStockAvailable validates every line item, accumulating all
// violations instead of failing on the first, so the caller can show every
// problem at once. An unknown product is a NotFound error.
func (g *StockGuard) AssertStockAvailable(ctx context.Context, items map[string]int) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	products, err := g.catalog.GetProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("fetch products for stock check: %w", err)
	}

	var violations []domain.StockViolation
	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			return apperrors.NotFound("product", id)
		}

		qty := items[id]
		if qty > product.AvailableStock {
			violations = append(violations, domain.StockViolation{
				ProductID:         id,
				ProductName:       product.Name,
				RequestedQuantity: qty,
				AvailableQuantity: product.AvailableStock,
			})
		}
	}

	if len(violations) > 0 {
		return &domain.StockUnavailableError{Violations: violations}
	}

	return nil
}
