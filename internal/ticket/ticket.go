package ticket

import (
	"context"

	"github.com/gigpass/storefront/internal/domain"
)

// Issuer produces purchased tickets once a payment transitions to paid.
// The payment flow invokes it fire-and-forget: issuance failure never rolls
// back the paid transition.
type Issuer interface {
	IssueForPayment(ctx context.Context, p *domain.Payment) ([]domain.Ticket, error)
}
