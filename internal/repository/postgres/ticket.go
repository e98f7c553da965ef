package postgres

import (
	"context"
	"fmt"

	"github.com/gigpass/storefront/internal/domain"
	"github.com/gigpass/storefront/internal/repository"
)

// TicketRepository implements repository.TicketStore using PostgreSQL.
type TicketRepository struct {
	db repository.DB
}

// NewTicketRepository creates a new PostgreSQL-backed ticket store.
func NewTicketRepository(db repository.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// CreateBatch inserts all tickets in one transaction.
func (r *TicketRepository) CreateBatch(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ticket batch: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO tickets (id, payment_id, user_id, product_id, issued_at)
		VALUES ($1, $2, $3, $4, $5)`

	for _, t := range tickets {
		if _, err := tx.Exec(ctx, query, t.ID, t.PaymentID, t.UserID, t.ProductID, t.IssuedAt); err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ticket batch: %w", err)
	}

	return nil
}

// ListByPaymentID returns the tickets issued for a payment.
func (r *TicketRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]domain.Ticket, error) {
	query := `
		SELECT id, payment_id, user_id, product_id, issued_at
		FROM tickets
		WHERE payment_id = $1
		ORDER BY issued_at, id`

	rows, err := r.db.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list tickets by payment: %w", err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.PaymentID, &t.UserID, &t.ProductID, &t.IssuedAt); err != nil {
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		tickets = append(tickets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticket rows: %w", err)
	}

	if tickets == nil {
		tickets = []domain.Ticket{}
	}

	return tickets, nil
}
