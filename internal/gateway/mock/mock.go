package mock

import (
	"context"

	"github.com/google/uuid"

	"github.com/gigpass/storefront/internal/gateway"
)

// Gateway is a mock payment gateway that always succeeds. It is intended for
// development and testing purposes.
type Gateway struct{}

// NewGateway creates a new mock payment gateway.
func NewGateway() *Gateway {
	return &Gateway{}
}

// Name returns the gateway name.
func (g *Gateway) Name() string {
	return "mock"
}

// CreateIntent fabricates a payment intent with a random transaction id.
func (g *Gateway) CreateIntent(_ context.Context, _ *gateway.IntentInput) (*gateway.Intent, error) {
	id := uuid.New().String()
	return &gateway.Intent{
		TransactionID: "mock_pi_" + id,
		ClientSecret:  "mock_secret_" + id,
	}, nil
}

// Refund fabricates a successful refund.
func (g *Gateway) Refund(_ context.Context, _ *gateway.RefundInput) (*gateway.RefundResult, error) {
	return &gateway.RefundResult{
		RefundID: "mock_re_" + uuid.New().String(),
	}, nil
}
