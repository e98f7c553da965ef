package gateway

import "context"

// IntentInput holds the parameters for creating a payment intent.
type IntentInput struct {
	Amount      int64
	Currency    string
	Method      string
	Description string
	Metadata    map[string]string
}

// Intent is the gateway's representation of an in-progress charge. The
// transaction id correlates webhooks back to the local payment row; the
// client secret is handed to the storefront client to confirm the charge.
type Intent struct {
	TransactionID string
	ClientSecret  string
}

// RefundInput holds the parameters for refunding part of a charge.
type RefundInput struct {
	TransactionID string
	Amount        int64
	Reason        string
}

// RefundResult holds the gateway's refund reference.
type RefundResult struct {
	RefundID string
}

// Gateway defines the external payment gateway integration. Implementations
// return plain errors; callers map them to a retryable gateway-unavailable
// failure.
type Gateway interface {
	// Name returns the gateway name (e.g., "mock", "stripe").
	Name() string

	// CreateIntent creates a payment intent for the given amount.
	CreateIntent(ctx context.Context, input *IntentInput) (*Intent, error)

	// Refund refunds part or all of a previously captured charge.
	Refund(ctx context.Context, input *RefundInput) (*RefundResult, error)
}
