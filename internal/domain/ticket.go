package domain

import "time"

// Ticket is the record of one purchased ticket, issued per snapshot line
// quantity once a payment is paid. Artifact generation (PDF, QR) happens
// outside this core.
type Ticket struct {
	ID        string    `json:"id"`
	PaymentID string    `json:"payment_id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	IssuedAt  time.Time `json:"issued_at"`
}
