package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/gigpass/storefront/internal/domain"
	"github.com/gigpass/storefront/internal/gateway"
)

type mockGuestCartStore struct {
	mock.Mock
}

func (m *mockGuestCartStore) Add(ctx context.Context, guestID, productID string, qty int) {
	m.Called(ctx, guestID, productID, qty)
}

func (m *mockGuestCartStore) Remove(ctx context.Context, guestID, productID string, qty int) {
	m.Called(ctx, guestID, productID, qty)
}

func (m *mockGuestCartStore) Snapshot(ctx context.Context, guestID string) map[string]int {
	args := m.Called(ctx, guestID)
	if args.Get(0) == nil {
		return map[string]int{}
	}
	return args.Get(0).(map[string]int)
}

func (m *mockGuestCartStore) Clear(ctx context.Context, guestID string) error {
	args := m.Called(ctx, guestID)
	return args.Error(0)
}

type mockUserCartStore struct {
	mock.Mock
}

func (m *mockUserCartStore) GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockUserCartStore) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockUserCartStore) Items(ctx context.Context, cartID string) (map[string]int, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockUserCartStore) AddItem(ctx context.Context, userID, productID string, qty int) error {
	args := m.Called(ctx, userID, productID, qty)
	return args.Error(0)
}

func (m *mockUserCartStore) RemoveItem(ctx context.Context, userID, productID string, qty int) error {
	args := m.Called(ctx, userID, productID, qty)
	return args.Error(0)
}

func (m *mockUserCartStore) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockPaymentStore struct {
	mock.Mock
}

func (m *mockPaymentStore) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *mockPaymentStore) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentStore) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentStore) FindPendingByUserAndCart(ctx context.Context, userID, cartID string) (*domain.Payment, error) {
	args := m.Called(ctx, userID, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentStore) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, id, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentStore) MarkPaidByTransactionID(ctx context.Context, transactionID string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, transactionID, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentStore) MarkFailedByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	args := m.Called(ctx, transactionID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentStore) ApplyRefund(ctx context.Context, id string, amount int64, refundedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, amount, refundedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentStore) ListByUserID(ctx context.Context, userID string, offset, limit int) ([]domain.Payment, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Payment), args.Int(1), args.Error(2)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string {
	return "mock"
}

func (m *mockGateway) CreateIntent(ctx context.Context, input *gateway.IntentInput) (*gateway.Intent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Intent), args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, input *gateway.RefundInput) (*gateway.RefundResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.RefundResult), args.Error(1)
}

type mockIssuer struct {
	mock.Mock
}

func (m *mockIssuer) IssueForPayment(ctx context.Context, p *domain.Payment) ([]domain.Ticket, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}
