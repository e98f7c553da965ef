package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gigpass/storefront/internal/domain"
	apperrors "github.com/gigpass/storefront/pkg/errors"
	"github.com/gigpass/storefront/pkg/logger"
)

func newCartService(guests *mockGuestCartStore, users *mockUserCartStore) *CartService {
	return NewCartService(guests, users, logger.New("cart-test", "error"))
}

func TestCartService_ResolveGuest(t *testing.T) {
	guests := new(mockGuestCartStore)
	users := new(mockUserCartStore)
	svc := newCartService(guests, users)

	guests.On("Snapshot", mock.Anything, "guest-1").Return(map[string]int{"prod-1": 2})

	cart, err := svc.Resolve(context.Background(), domain.GuestIdentity("guest-1"))

	require.NoError(t, err)
	assert.Empty(t, cart.CartID)
	assert.Equal(t, map[string]int{"prod-1": 2}, cart.Items)
	users.AssertNotCalled(t, "GetOrCreateCart", mock.Anything, mock.Anything)
}

func TestCartService_ResolveUser(t *testing.T) {
	guests := new(mockGuestCartStore)
	users := new(mockUserCartStore)
	svc := newCartService(guests, users)

	users.On("GetOrCreateCart", mock.Anything, "usr-1").
		Return(&domain.Cart{ID: "cart-1", UserID: "usr-1"}, nil)
	users.On("Items", mock.Anything, "cart-1").
		Return(map[string]int{"prod-1": 1, "prod-2": 3}, nil)

	cart, err := svc.Resolve(context.Background(), domain.UserIdentity("usr-1"))

	require.NoError(t, err)
	assert.Equal(t, "cart-1", cart.CartID)
	assert.Equal(t, 4, cart.ItemCount())
}

func TestCartService_AddItem_Validation(t *testing.T) {
	guests := new(mockGuestCartStore)
	users := new(mockUserCartStore)
	svc := newCartService(guests, users)

	tests := []struct {
		name      string
		productID string
		quantity  int
	}{
		{"zero quantity", "prod-1", 0},
		{"negative quantity", "prod-1", -1},
		{"excessive quantity", "prod-1", MaxQuantityPerItem + 1},
		{"empty product id", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.AddItem(context.Background(), domain.GuestIdentity("guest-1"), tt.productID, tt.quantity)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
		})
	}

	guests.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartService_AddItem_Guest(t *testing.T) {
	guests := new(mockGuestCartStore)
	users := new(mockUserCartStore)
	svc := newCartService(guests, users)

	guests.On("Add", mock.Anything, "guest-1", "prod-1", 2).Return()

	err := svc.AddItem(context.Background(), domain.GuestIdentity("guest-1"), "prod-1", 2)

	require.NoError(t, err)
	guests.AssertExpectations(t)
}

func TestCartService_AddItem_User(t *testing.T) {
	guests := new(mockGuestCartStore)
	users := new(mockUserCartStore)
	svc := newCartService(guests, users)

	users.On("AddItem", mock.Anything, "usr-1", "prod-1", 2).Return(nil)

	err := svc.AddItem(context.Background(), domain.UserIdentity("usr-1"), "prod-1", 2)

	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestCartService_AddItem_UserStoreError(t *testing.T) {
	guests := new(mockGuestCartStore)
	users := new(mockUserCartStore)
	svc := newCartService(guests, users)

	users.On("AddItem", mock.Anything, "usr-1", "prod-1", 2).Return(errors.New("connection refused"))

	err := svc.AddItem(context.Background(), domain.UserIdentity("usr-1"), "prod-1", 2)

	assert.Error(t, err)
}

func TestCartService_RemoveItem(t *testing.T) {
	guests := new(mockGuestCartStore)
	users := new(mockUserCartStore)
	svc := newCartService(guests, users)

	guests.On("Remove", mock.Anything, "guest-1", "prod-1", 1).Return()
	users.On("RemoveItem", mock.Anything, "usr-1", "prod-1", 0).Return(nil)

	require.NoError(t, svc.RemoveItem(context.Background(), domain.GuestIdentity("guest-1"), "prod-1", 1))
	require.NoError(t, svc.RemoveItem(context.Background(), domain.UserIdentity("usr-1"), "prod-1", 0))

	guests.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestCartService_ClearGuest_SwallowsError(t *testing.T) {
	guests := new(mockGuestCartStore)
	users := new(mockUserCartStore)
	svc := newCartService(guests, users)

	guests.On("Clear", mock.Anything, "guest-1").Return(errors.New("redis: connection refused"))

	assert.NoError(t, svc.Clear(context.Background(), domain.GuestIdentity("guest-1")))
}

func TestCartService_MergeGuestIntoUser(t *testing.T) {
	guests := new(mockGuestCartStore)
	users := new(mockUserCartStore)
	svc := newCartService(guests, users)

	guests.On("Snapshot", mock.Anything, "guest-1").
		Return(map[string]int{"prod-1": 2, "prod-2": 1})
	users.On("AddItem", mock.Anything, "usr-1", "prod-1", 2).Return(nil)
	users.On("AddItem", mock.Anything, "usr-1", "prod-2", 1).Return(nil)
	guests.On("Clear", mock.Anything, "guest-1").Return(nil)

	err := svc.MergeGuestIntoUser(context.Background(), "guest-1", "usr-1")

	require.NoError(t, err)
	guests.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestCartService_MergeGuestIntoUser_EmptyGuestCart(t *testing.T) {
	guests := new(mockGuestCartStore)
	users := new(mockUserCartStore)
	svc := newCartService(guests, users)

	guests.On("Snapshot", mock.Anything, "guest-1").Return(map[string]int{})

	require.NoError(t, svc.MergeGuestIntoUser(context.Background(), "guest-1", "usr-1"))
	users.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	guests.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestCartService_MergeGuestIntoUser_ClearFailureNonFatal(t *testing.T) {
	guests := new(mockGuestCartStore)
	users := new(mockUserCartStore)
	svc := newCartService(guests, users)

	guests.On("Snapshot", mock.Anything, "guest-1").Return(map[string]int{"prod-1": 2})
	users.On("AddItem", mock.Anything, "usr-1", "prod-1", 2).Return(nil)
	guests.On("Clear", mock.Anything, "guest-1").Return(errors.New("redis: connection refused"))

	// The merge already landed in the user cart; a failed guest delete is
	// logged and the login flow proceeds.
	assert.NoError(t, svc.MergeGuestIntoUser(context.Background(), "guest-1", "usr-1"))
}

func TestCartService_MergeGuestIntoUser_UserStoreError(t *testing.T) {
	guests := new(mockGuestCartStore)
	users := new(mockUserCartStore)
	svc := newCartService(guests, users)

	guests.On("Snapshot", mock.Anything, "guest-1").Return(map[string]int{"prod-1": 2})
	users.On("AddItem", mock.Anything, "usr-1", "prod-1", 2).Return(errors.New("connection refused"))

	err := svc.MergeGuestIntoUser(context.Background(), "guest-1", "usr-1")

	assert.Error(t, err)
	guests.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}
