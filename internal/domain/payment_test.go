package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"pending to paid", PaymentStatusPending, PaymentStatusPaid, true},
		{"pending to failed", PaymentStatusPending, PaymentStatusFailed, true},
		{"pending to refunded", PaymentStatusPending, PaymentStatusRefunded, false},
		{"paid to refunded", PaymentStatusPaid, PaymentStatusRefunded, true},
		{"paid to failed", PaymentStatusPaid, PaymentStatusFailed, false},
		{"paid to pending", PaymentStatusPaid, PaymentStatusPending, false},
		{"failed is terminal", PaymentStatusFailed, PaymentStatusPaid, false},
		{"refunded is terminal", PaymentStatusRefunded, PaymentStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{Status: tt.from}
			assert.Equal(t, tt.allowed, p.CanTransitionTo(tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, (&Payment{Status: PaymentStatusPending}).IsTerminal())
	assert.False(t, (&Payment{Status: PaymentStatusPaid}).IsTerminal())
	assert.True(t, (&Payment{Status: PaymentStatusFailed}).IsTerminal())
	assert.True(t, (&Payment{Status: PaymentStatusRefunded}).IsTerminal())
}

func TestRemainingRefundable(t *testing.T) {
	p := &Payment{Amount: 100, RefundedAmount: 30}
	assert.Equal(t, int64(70), p.RemainingRefundable())
}

func TestDiscountedUnitPrice(t *testing.T) {
	assert.Equal(t, int64(45), DiscountedUnitPrice(50, 0.1))
	assert.Equal(t, int64(50), DiscountedUnitPrice(50, 0))
	assert.Equal(t, int64(0), DiscountedUnitPrice(50, 1))
	// rounds half-up
	assert.Equal(t, int64(67), DiscountedUnitPrice(100, 0.335))
}

func TestCartSnapshotTotal(t *testing.T) {
	snap := CartSnapshot{
		CartID: "cart-1",
		Lines: []SnapshotLine{
			{ProductID: "7", Quantity: 2, UnitPrice: 50, DiscountRate: 0.1, DiscountedPrice: 45},
		},
	}

	assert.Equal(t, int64(90), snap.Total())
	assert.Equal(t, int64(90), snap.Lines[0].LineTotal())
}

func TestStockUnavailableError(t *testing.T) {
	err := &StockUnavailableError{
		Violations: []StockViolation{
			{ProductID: "a", RequestedQuantity: 5, AvailableQuantity: 2},
		},
	}

	assert.Contains(t, err.Error(), "1 product")
}

func TestIsValidPaymentMethod(t *testing.T) {
	assert.True(t, IsValidPaymentMethod(PaymentMethodCreditCard))
	assert.True(t, IsValidPaymentMethod(PaymentMethodWallet))
	assert.False(t, IsValidPaymentMethod("cash"))
	assert.False(t, IsValidPaymentMethod(""))
}
