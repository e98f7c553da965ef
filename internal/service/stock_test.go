package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigpass/storefront/internal/catalog"
	"github.com/gigpass/storefront/internal/domain"
	apperrors "github.com/gigpass/storefront/pkg/errors"
)

func newStockCatalog() *catalog.MemoryCatalog {
	c := catalog.NewMemoryCatalog()
	c.Put(catalog.Product{ID: "prod-1", Name: "Standing", Price: 5000, AvailableStock: 10})
	c.Put(catalog.Product{ID: "prod-2", Name: "Balcony", Price: 8000, AvailableStock: 2})
	c.Put(catalog.Product{ID: "prod-3", Name: "VIP Box", Price: 20000, AvailableStock: 0})
	return c
}

func TestStockGuard_AllAvailable(t *testing.T) {
	guard := NewStockGuard(newStockCatalog())

	err := guard.AssertStockAvailable(context.Background(), map[string]int{
		"prod-1": 10,
		"prod-2": 2,
	})

	assert.NoError(t, err)
}

func TestStockGuard_EmptyItems(t *testing.T) {
	guard := NewStockGuard(newStockCatalog())

	assert.NoError(t, guard.AssertStockAvailable(context.Background(), nil))
	assert.NoError(t, guard.AssertStockAvailable(context.Background(), map[string]int{}))
}

func TestStockGuard_AccumulatesAllViolations(t *testing.T) {
	guard := NewStockGuard(newStockCatalog())

	err := guard.AssertStockAvailable(context.Background(), map[string]int{
		"prod-1": 3, // fine
		"prod-2": 5, // only 2 left
		"prod-3": 1, // sold out
	})

	var stockErr *domain.StockUnavailableError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Violations, 2)

	byProduct := make(map[string]domain.StockViolation, len(stockErr.Violations))
	for _, v := range stockErr.Violations {
		byProduct[v.ProductID] = v
	}

	assert.Equal(t, 5, byProduct["prod-2"].RequestedQuantity)
	assert.Equal(t, 2, byProduct["prod-2"].AvailableQuantity)
	assert.Equal(t, "Balcony", byProduct["prod-2"].ProductName)
	assert.Equal(t, 1, byProduct["prod-3"].RequestedQuantity)
	assert.Equal(t, 0, byProduct["prod-3"].AvailableQuantity)
}

func TestStockGuard_UnknownProduct(t *testing.T) {
	guard := NewStockGuard(newStockCatalog())

	err := guard.AssertStockAvailable(context.Background(), map[string]int{
		"prod-missing": 1,
	})

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
