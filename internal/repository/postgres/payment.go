package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gigpass/storefront/internal/domain"
	"github.com/gigpass/storefront/internal/repository"
	apperrors "github.com/gigpass/storefront/pkg/errors"
)

// PaymentRepository implements repository.PaymentStore using PostgreSQL.
// Status transitions are guarded UPDATEs on the expected pre-state, so
// re-running any transition is a safe no-op.
type PaymentRepository struct {
	db repository.DB
}

// NewPaymentRepository creates a new PostgreSQL-backed payment store.
func NewPaymentRepository(db repository.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, user_id, amount, refunded_amount, status, method,
	transaction_id, client_secret, cart_snapshot, paid_at, refunded_at,
	created_at, updated_at`

// Create inserts a new payment row.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	snapshotJSON, err := json.Marshal(p.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	query := `
		INSERT INTO payments (id, user_id, amount, refunded_amount, status, method, transaction_id, client_secret, cart_snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.Amount,
		p.RefundedAmount,
		p.Status,
		p.Method,
		p.TransactionID,
		p.ClientSecret,
		snapshotJSON,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by its internal UUID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)
	return r.scanPayment(ctx, query, id)
}

// GetByTransactionID retrieves a payment by its gateway reference.
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE transaction_id = $1`, paymentColumns)
	return r.scanPayment(ctx, query, transactionID)
}

// FindPendingByUserAndCart returns the user's pending payment whose snapshot
// was taken from the given cart. This anchors the intent-creation
// idempotency check.
func (r *PaymentRepository) FindPendingByUserAndCart(ctx context.Context, userID, cartID string) (*domain.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE user_id = $1 AND status = $2 AND cart_snapshot->>'cart_id' = $3
		ORDER BY created_at DESC
		LIMIT 1`, paymentColumns)

	return r.scanPayment(ctx, query, userID, domain.PaymentStatusPending, cartID)
}

// MarkPaid transitions a pending payment to paid. Returns false when no
// pending row matched.
func (r *PaymentRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, paid_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4`

	ct, err := r.db.Exec(ctx, query, domain.PaymentStatusPaid, paidAt, id, domain.PaymentStatusPending)
	if err != nil {
		return false, fmt.Errorf("mark payment paid: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// MarkPaidByTransactionID is MarkPaid keyed by the gateway reference.
func (r *PaymentRepository) MarkPaidByTransactionID(ctx context.Context, transactionID string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, paid_at = $2, updated_at = $2
		WHERE transaction_id = $3 AND status = $4`

	ct, err := r.db.Exec(ctx, query, domain.PaymentStatusPaid, paidAt, transactionID, domain.PaymentStatusPending)
	if err != nil {
		return false, fmt.Errorf("mark payment paid by transaction: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// MarkFailedByTransactionID transitions a pending payment to failed. Returns
// false when no pending row matched.
func (r *PaymentRepository) MarkFailedByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, updated_at = $2
		WHERE transaction_id = $3 AND status = $4`

	ct, err := r.db.Exec(ctx, query, domain.PaymentStatusFailed, time.Now().UTC(), transactionID, domain.PaymentStatusPending)
	if err != nil {
		return false, fmt.Errorf("mark payment failed by transaction: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// ApplyRefund atomically adds amount to the refund ledger, transitioning to
// refunded when the payment becomes fully refunded. The guard rejects rows
// that are not paid or where the increment would exceed the amount, so the
// over-refund check holds even under concurrent refund calls.
func (r *PaymentRepository) ApplyRefund(ctx context.Context, id string, amount int64, refundedAt time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET refunded_amount = refunded_amount + $1,
		    status = CASE WHEN refunded_amount + $1 >= amount THEN $2 ELSE status END,
		    refunded_at = CASE WHEN refunded_amount + $1 >= amount THEN $3 ELSE refunded_at END,
		    updated_at = $3
		WHERE id = $4 AND status = $5 AND refunded_amount + $1 <= amount`

	ct, err := r.db.Exec(ctx, query, amount, domain.PaymentStatusRefunded, refundedAt, id, domain.PaymentStatusPaid)
	if err != nil {
		return false, fmt.Errorf("apply refund: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// ListByUserID returns payments for a user with pagination.
func (r *PaymentRepository) ListByUserID(ctx context.Context, userID string, offset, limit int) ([]domain.Payment, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, paymentColumns)

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments by user: %w", err)
	}
	defer rows.Close()

	var (
		payments   []domain.Payment
		totalCount int
	)

	for rows.Next() {
		var (
			p            domain.Payment
			snapshotJSON []byte
		)

		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Amount,
			&p.RefundedAmount,
			&p.Status,
			&p.Method,
			&p.TransactionID,
			&p.ClientSecret,
			&snapshotJSON,
			&p.PaidAt,
			&p.RefundedAt,
			&p.CreatedAt,
			&p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan payment row: %w", err)
		}

		if snapshotJSON != nil {
			if err := json.Unmarshal(snapshotJSON, &p.Snapshot); err != nil {
				return nil, 0, fmt.Errorf("unmarshal cart snapshot: %w", err)
			}
		}

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payment rows: %w", err)
	}

	if payments == nil {
		payments = []domain.Payment{}
	}

	return payments, totalCount, nil
}

// scanPayment executes a query expected to return a single payment row.
func (r *PaymentRepository) scanPayment(ctx context.Context, query string, args ...any) (*domain.Payment, error) {
	var (
		p            domain.Payment
		snapshotJSON []byte
	)

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.UserID,
		&p.Amount,
		&p.RefundedAmount,
		&p.Status,
		&p.Method,
		&p.TransactionID,
		&p.ClientSecret,
		&snapshotJSON,
		&p.PaidAt,
		&p.RefundedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	if snapshotJSON != nil {
		if err := json.Unmarshal(snapshotJSON, &p.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
		}
	}

	return &p, nil
}
