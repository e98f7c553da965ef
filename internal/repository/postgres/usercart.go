package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gigpass/storefront/internal/domain"
	"github.com/gigpass/storefront/internal/repository"
	apperrors "github.com/gigpass/storefront/pkg/errors"
)

// querier is the query surface shared by repository.DB and pgx.Tx, so the
// same helpers work inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CartRepository implements repository.UserCartStore using PostgreSQL. User
// carts are the durable source of truth at checkout: every mutation runs in
// one transaction, and persistence failures are logged and returned.
type CartRepository struct {
	db     repository.DB
	logger *slog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed user cart store.
func NewCartRepository(db repository.DB, logger *slog.Logger) *CartRepository {
	return &CartRepository{db: db, logger: logger}
}

// GetOrCreateCart returns the user's cart, creating it lazily on first access.
func (r *CartRepository) GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := r.getCartByUser(ctx, r.db, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	insert := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, insert, uuid.New().String(), userID, now); err != nil {
		return nil, r.fail(ctx, "create cart", userID, err)
	}

	// Re-read covers the concurrent-creation case where the insert hit the
	// conflict clause.
	return r.getCartByUser(ctx, r.db, userID)
}

// GetCart retrieves a cart by its id.
func (r *CartRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	query := `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE id = $1`

	var cart domain.Cart
	err := r.db.QueryRow(ctx, query, cartID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart", cartID)
		}
		return nil, r.fail(ctx, "get cart", cartID, err)
	}

	return &cart, nil
}

// Items returns the cart contents keyed by product id.
func (r *CartRepository) Items(ctx context.Context, cartID string) (map[string]int, error) {
	query := `
		SELECT product_id, quantity
		FROM cart_items
		WHERE cart_id = $1`

	rows, err := r.db.Query(ctx, query, cartID)
	if err != nil {
		return nil, r.fail(ctx, "list cart items", cartID, err)
	}
	defer rows.Close()

	items := make(map[string]int)
	for rows.Next() {
		var (
			productID string
			qty       int
		)
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, r.fail(ctx, "scan cart item", cartID, err)
		}
		items[productID] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail(ctx, "iterate cart items", cartID, err)
	}

	return items, nil
}

// AddItem upserts a line inside one transaction: created at qty if absent,
// incremented otherwise.
func (r *CartRepository) AddItem(ctx context.Context, userID, productID string, qty int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return r.fail(ctx, "begin add item", userID, err)
	}
	defer tx.Rollback(ctx)

	cart, err := r.getOrCreateCartTx(ctx, tx, userID)
	if err != nil {
		return err
	}

	upsert := `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	if _, err := tx.Exec(ctx, upsert, cart.ID, productID, qty); err != nil {
		return r.fail(ctx, "upsert cart item", userID, err)
	}

	if err := r.touchCart(ctx, tx, cart.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return r.fail(ctx, "commit add item", userID, err)
	}

	return nil
}

// RemoveItem decrements a line inside one transaction, deleting the row when
// the result would be zero or less. A qty <= 0 deletes the row outright.
// A missing cart or item is a no-op.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, productID string, qty int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return r.fail(ctx, "begin remove item", userID, err)
	}
	defer tx.Rollback(ctx)

	cart, err := r.getCartByUser(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	if qty <= 0 {
		if _, err := tx.Exec(ctx,
			`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
			cart.ID, productID,
		); err != nil {
			return r.fail(ctx, "delete cart item", userID, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return r.fail(ctx, "commit remove item", userID, err)
		}
		return nil
	}

	// Row lock against concurrent writers for the same cart line.
	var current int
	err = tx.QueryRow(ctx,
		`SELECT quantity FROM cart_items WHERE cart_id = $1 AND product_id = $2 FOR UPDATE`,
		cart.ID, productID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tx.Commit(ctx)
		}
		return r.fail(ctx, "lock cart item", userID, err)
	}

	if current-qty <= 0 {
		_, err = tx.Exec(ctx,
			`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
			cart.ID, productID,
		)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE cart_items SET quantity = $1 WHERE cart_id = $2 AND product_id = $3`,
			current-qty, cart.ID, productID,
		)
	}
	if err != nil {
		return r.fail(ctx, "decrement cart item", userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return r.fail(ctx, "commit remove item", userID, err)
	}

	return nil
}

// Clear removes every item from the user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	query := `
		DELETE FROM cart_items
		USING carts
		WHERE cart_items.cart_id = carts.id AND carts.user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return r.fail(ctx, "clear cart", userID, err)
	}

	return nil
}

func (r *CartRepository) getCartByUser(ctx context.Context, q querier, userID string) (*domain.Cart, error) {
	query := `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1`

	var cart domain.Cart
	err := q.QueryRow(ctx, query, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, r.fail(ctx, "get cart by user", userID, err)
	}

	return &cart, nil
}

func (r *CartRepository) getOrCreateCartTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.Cart, error) {
	cart, err := r.getCartByUser(ctx, tx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	insert := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := tx.Exec(ctx, insert, uuid.New().String(), userID, now); err != nil {
		return nil, r.fail(ctx, "create cart", userID, err)
	}

	return r.getCartByUser(ctx, tx, userID)
}

func (r *CartRepository) touchCart(ctx context.Context, q querier, cartID string) error {
	if _, err := q.Exec(ctx,
		`UPDATE carts SET updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), cartID,
	); err != nil {
		return r.fail(ctx, "touch cart", cartID, err)
	}
	return nil
}

// fail logs a persistence failure with context and wraps it for the caller.
// User-cart errors are never swallowed.
func (r *CartRepository) fail(ctx context.Context, op, id string, err error) error {
	r.logger.ErrorContext(ctx, "user cart store error",
		slog.String("op", op),
		slog.String("id", id),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s: %w", op, err)
}
