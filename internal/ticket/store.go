package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gigpass/storefront/internal/domain"
	"github.com/gigpass/storefront/internal/repository"
)

// StoreIssuer issues one ticket record per snapshot line quantity and
// persists the batch. Artifact generation (PDF, QR) happens elsewhere,
// keyed by these records.
type StoreIssuer struct {
	store  repository.TicketStore
	logger *slog.Logger
}

// NewStoreIssuer creates a ticket issuer backed by the given store.
func NewStoreIssuer(store repository.TicketStore, logger *slog.Logger) *StoreIssuer {
	return &StoreIssuer{store: store, logger: logger}
}

// IssueForPayment creates the payment's tickets. If tickets already exist
// for the payment they are returned unchanged, so a re-invocation cannot
// double-issue.
func (i *StoreIssuer) IssueForPayment(ctx context.Context, p *domain.Payment) ([]domain.Ticket, error) {
	existing, err := i.store.ListByPaymentID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing tickets: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	now := time.Now().UTC()
	var tickets []domain.Ticket
	for _, line := range p.Snapshot.Lines {
		for n := 0; n < line.Quantity; n++ {
			tickets = append(tickets, domain.Ticket{
				ID:        uuid.New().String(),
				PaymentID: p.ID,
				UserID:    p.UserID,
				ProductID: line.ProductID,
				IssuedAt:  now,
			})
		}
	}

	if err := i.store.CreateBatch(ctx, tickets); err != nil {
		return nil, fmt.Errorf("persist tickets: %w", err)
	}

	i.logger.InfoContext(ctx, "tickets issued",
		slog.String("payment_id", p.ID),
		slog.Int("count", len(tickets)),
	)

	return tickets, nil
}
