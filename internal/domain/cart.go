package domain

import "time"

// Cart represents a durable, per-user shopping cart. One cart per user,
// created lazily on first access.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartItem is a single line in a user cart, one row per (cart, product).
type CartItem struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ResolvedCart is the unified view of a cart regardless of whether it is
// backed by the guest store or the user store. CartID is empty for guests.
type ResolvedCart struct {
	CartID string         `json:"cart_id,omitempty"`
	Items  map[string]int `json:"items"`
}

// ItemCount returns the total quantity across all products.
func (c *ResolvedCart) ItemCount() int {
	var count int
	for _, qty := range c.Items {
		count += qty
	}
	return count
}

// IsEmpty reports whether the cart holds no items.
func (c *ResolvedCart) IsEmpty() bool {
	return len(c.Items) == 0
}
