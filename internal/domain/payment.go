package domain

import (
	"math"
	"time"
)

// Payment status constants.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Payment method constants.
const (
	PaymentMethodCreditCard   = "credit_card"
	PaymentMethodDebitCard    = "debit_card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodWallet       = "wallet"
)

// SnapshotLine is one priced line of a cart snapshot, captured at
// intent-creation time from the catalog and never recomputed afterward.
type SnapshotLine struct {
	ProductID       string  `json:"product_id"`
	ProductName     string  `json:"product_name"`
	Quantity        int     `json:"quantity"`
	UnitPrice       int64   `json:"unit_price"`
	DiscountRate    float64 `json:"discount_rate"`
	DiscountedPrice int64   `json:"discounted_price"`
}

// LineTotal returns the line amount: discounted unit price times quantity.
func (l SnapshotLine) LineTotal() int64 {
	return l.DiscountedPrice * int64(l.Quantity)
}

// DiscountedUnitPrice applies a discount rate to a unit price, rounding
// half-up to the nearest minor unit.
func DiscountedUnitPrice(unitPrice int64, rate float64) int64 {
	return int64(math.Round(float64(unitPrice) * (1 - rate)))
}

// CartSnapshot is the immutable audit record of what was purchased. CartID
// identifies the cart the snapshot was taken from and anchors the pending
// payment idempotency check.
type CartSnapshot struct {
	CartID string         `json:"cart_id"`
	Lines  []SnapshotLine `json:"lines"`
}

// Total returns the snapshot grand total.
func (s CartSnapshot) Total() int64 {
	var total int64
	for _, l := range s.Lines {
		total += l.LineTotal()
	}
	return total
}

// Payment represents a payment through the external gateway. Status moves
// monotonically: pending to paid or failed, paid to refunded; failed and
// refunded are terminal.
type Payment struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	Amount         int64        `json:"amount"`
	RefundedAmount int64        `json:"refunded_amount"`
	Status         string       `json:"status"`
	Method         string       `json:"method"`
	TransactionID  string       `json:"transaction_id"`
	ClientSecret   string       `json:"client_secret,omitempty"`
	Snapshot       CartSnapshot `json:"cart_snapshot"`
	PaidAt         *time.Time   `json:"paid_at,omitempty"`
	RefundedAt     *time.Time   `json:"refunded_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// RemainingRefundable returns how much of the payment can still be refunded.
func (p *Payment) RemainingRefundable() int64 {
	return p.Amount - p.RefundedAmount
}

// CanTransitionTo reports whether the monotonic status machine allows a move
// from the payment's current status to the target status.
func (p *Payment) CanTransitionTo(target string) bool {
	switch p.Status {
	case PaymentStatusPending:
		return target == PaymentStatusPaid || target == PaymentStatusFailed
	case PaymentStatusPaid:
		return target == PaymentStatusRefunded
	default:
		return false
	}
}

// IsTerminal reports whether the payment can never change status again.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusFailed || p.Status == PaymentStatusRefunded
}

// ValidPaymentMethods returns all valid payment methods.
func ValidPaymentMethods() []string {
	return []string{
		PaymentMethodCreditCard,
		PaymentMethodDebitCard,
		PaymentMethodBankTransfer,
		PaymentMethodWallet,
	}
}

// IsValidPaymentMethod checks whether the given method is a valid payment method.
func IsValidPaymentMethod(method string) bool {
	for _, m := range ValidPaymentMethods() {
		if m == method {
			return true
		}
	}
	return false
}
