package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gigpass/storefront/internal/domain"
)

// DB is the subset of pgxpool.Pool the postgres repositories use. It is
// satisfied by *pgxpool.Pool and by pgxmock.PgxPoolIface in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// GuestCartStore is the ephemeral, best-effort cart for anonymous shoppers.
// Implementations treat communication failures with the backing store as
// logged no-ops; guest carts are not durable.
type GuestCartStore interface {
	// Add atomically increments the product's quantity and refreshes the
	// cart's sliding TTL.
	Add(ctx context.Context, guestID, productID string, qty int)

	// Remove decrements the product's quantity by qty, deleting the field
	// when the result would be zero or less. A qty <= 0 deletes the field
	// outright.
	Remove(ctx context.Context, guestID, productID string, qty int)

	// Snapshot returns the cart contents. An unreachable store yields an
	// empty map.
	Snapshot(ctx context.Context, guestID string) map[string]int

	// Clear deletes the whole cart key. The error is surfaced so the merge
	// path can log a warning; ordinary guest clears ignore it.
	Clear(ctx context.Context, guestID string) error
}

// UserCartStore is the durable cart for authenticated users. Mutations run
// inside a transaction per call; persistence failures are logged and
// returned, never swallowed.
type UserCartStore interface {
	// GetOrCreateCart returns the user's cart, creating it lazily on first
	// access.
	GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error)

	// GetCart retrieves a cart by its id.
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)

	// Items returns the cart contents keyed by product id.
	Items(ctx context.Context, cartID string) (map[string]int, error)

	// AddItem upserts a line: created at qty if absent, incremented otherwise.
	AddItem(ctx context.Context, userID, productID string, qty int) error

	// RemoveItem decrements a line by qty, deleting the row when the result
	// would be zero or less. A qty <= 0 deletes the row outright. A missing
	// item is a no-op, not an error.
	RemoveItem(ctx context.Context, userID, productID string, qty int) error

	// Clear removes every item from the user's cart.
	Clear(ctx context.Context, userID string) error
}

// PaymentStore persists payments and drives their guarded status
// transitions. Transition methods return whether a row actually moved, so
// redelivered webhooks are safe no-ops.
type PaymentStore interface {
	// Create inserts a new payment row.
	Create(ctx context.Context, p *domain.Payment) error

	// GetByID retrieves a payment by its internal UUID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByTransactionID retrieves a payment by its gateway reference.
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)

	// FindPendingByUserAndCart returns the user's pending payment whose
	// snapshot was taken from the given cart, or apperrors.ErrNotFound.
	FindPendingByUserAndCart(ctx context.Context, userID, cartID string) (*domain.Payment, error)

	// MarkPaid transitions a pending payment to paid. Returns false when no
	// pending row matched (already paid, failed, or unknown).
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)

	// MarkPaidByTransactionID is MarkPaid keyed by gateway reference.
	MarkPaidByTransactionID(ctx context.Context, transactionID string, paidAt time.Time) (bool, error)

	// MarkFailedByTransactionID transitions a pending payment to failed.
	// Returns false when no pending row matched.
	MarkFailedByTransactionID(ctx context.Context, transactionID string) (bool, error)

	// ApplyRefund atomically adds amount to the refund ledger and, when the
	// payment becomes fully refunded, transitions it to refunded. Returns
	// false when the guarded update matched no row (not paid, or the
	// increment would exceed the amount).
	ApplyRefund(ctx context.Context, id string, amount int64, refundedAt time.Time) (bool, error)

	// ListByUserID returns payments for a user with pagination. Returns the
	// payment slice, the total count, and any error.
	ListByUserID(ctx context.Context, userID string, offset, limit int) ([]domain.Payment, int, error)
}

// TicketStore persists issued tickets.
type TicketStore interface {
	// CreateBatch inserts all tickets in one transaction.
	CreateBatch(ctx context.Context, tickets []domain.Ticket) error

	// ListByPaymentID returns the tickets issued for a payment.
	ListByPaymentID(ctx context.Context, paymentID string) ([]domain.Ticket, error)
}
