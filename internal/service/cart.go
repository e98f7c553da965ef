package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/gigpass/storefront/internal/domain"
	"github.com/gigpass/storefront/internal/repository"
	apperrors "github.com/gigpass/storefront/pkg/errors"
)

// MaxQuantityPerItem caps a single line item. Carts larger than this are
// almost certainly abuse or a client bug.
const MaxQuantityPerItem = 100

// CartService dispatches cart operations to the guest or user store based
// on the caller's identity. Guest carts live in Redis and degrade silently;
// user carts live in Postgres and surface their failures.
type CartService struct {
	guests repository.GuestCartStore
	users  repository.UserCartStore
	logger *slog.Logger
}

// NewCartService creates a cart service over both cart stores.
func NewCartService(guests repository.GuestCartStore, users repository.UserCartStore, logger *slog.Logger) *CartService {
	return &CartService{
		guests: guests,
		users:  users,
		logger: logger,
	}
}

// Resolve returns the current cart contents for the identity. A guest with
// no cart, or one whose cart expired, gets an empty cart rather than an
// error.
func (s *CartService) Resolve(ctx context.Context, identity domain.Identity) (*domain.ResolvedCart, error) {
	if identity.IsGuest() {
		items := s.guests.Snapshot(ctx, identity.GuestID)
		return &domain.ResolvedCart{Items: items}, nil
	}

	cart, err := s.users.GetOrCreateCart(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve user cart: %w", err)
	}

	items, err := s.users.Items(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("load user cart items: %w", err)
	}

	return &domain.ResolvedCart{CartID: cart.ID, Items: items}, nil
}

// AddItem adds quantity of a product to the identity's cart, accumulating
// onto any existing line.
func (s *CartService) AddItem(ctx context.Context, identity domain.Identity, productID string, quantity int) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if quantity < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}
	if quantity > MaxQuantityPerItem {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	if identity.IsGuest() {
		s.guests.Add(ctx, identity.GuestID, productID, quantity)
		return nil
	}

	if err := s.users.AddItem(ctx, identity.UserID, productID, quantity); err != nil {
		return fmt.Errorf("add item to user cart: %w", err)
	}

	return nil
}

// RemoveItem decrements a line by quantity, removing the line when it
// reaches zero. A non-positive quantity removes the line outright.
func (s *CartService) RemoveItem(ctx context.Context, identity domain.Identity, productID string, quantity int) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	if identity.IsGuest() {
		s.guests.Remove(ctx, identity.GuestID, productID, quantity)
		return nil
	}

	if err := s.users.RemoveItem(ctx, identity.UserID, productID, quantity); err != nil {
		return fmt.Errorf("remove item from user cart: %w", err)
	}

	return nil
}

// Clear empties the identity's cart.
func (s *CartService) Clear(ctx context.Context, identity domain.Identity) error {
	if identity.IsGuest() {
		// Guest cart failures never block the shopper; the store already
		// logged the drop.
		_ = s.guests.Clear(ctx, identity.GuestID)
		return nil
	}

	if err := s.users.Clear(ctx, identity.UserID); err != nil {
		return fmt.Errorf("clear user cart: %w", err)
	}

	return nil
}

// MergeGuestIntoUser folds a guest cart into the user's cart at login.
// Quantities for products present in both carts are summed. The guest cart
// is deleted afterwards; a failed delete is logged and the merge still
// succeeds, since the stale guest cart will expire on its own.
func (s *CartService) MergeGuestIntoUser(ctx context.Context, guestID, userID string) error {
	items := s.guests.Snapshot(ctx, guestID)
	if len(items) == 0 {
		return nil
	}

	productIDs := make([]string, 0, len(items))
	for id := range items {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	for _, productID := range productIDs {
		if err := s.users.AddItem(ctx, userID, productID, items[productID]); err != nil {
			return fmt.Errorf("merge item %s into user cart: %w", productID, err)
		}
	}

	if err := s.guests.Clear(ctx, guestID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete guest cart after merge",
			"guest_id", guestID,
			"user_id", userID,
			"error", err,
		)
	}

	s.logger.InfoContext(ctx, "guest cart merged into user cart",
		"guest_id", guestID,
		"user_id", userID,
		"item_count", len(items),
	)

	return nil
}
