package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigpass/storefront/internal/domain"
	"github.com/gigpass/storefront/pkg/database"
	apperrors "github.com/gigpass/storefront/pkg/errors"
)

// helper to build a sample payment for tests.
func samplePayment() *domain.Payment {
	return &domain.Payment{
		ID:             "pay-001",
		UserID:         "usr-001",
		Amount:         9000,
		RefundedAmount: 0,
		Status:         domain.PaymentStatusPending,
		Method:         domain.PaymentMethodCreditCard,
		TransactionID:  "pi_abc123",
		ClientSecret:   "secret_abc123",
		Snapshot: domain.CartSnapshot{
			CartID: "cart-001",
			Lines: []domain.SnapshotLine{
				{ProductID: "prod-7", ProductName: "Concert A", Quantity: 2, UnitPrice: 5000, DiscountRate: 0.1, DiscountedPrice: 4500},
			},
		},
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

var paymentCols = []string{
	"id", "user_id", "amount", "refunded_amount", "status", "method",
	"transaction_id", "client_secret", "cart_snapshot", "paid_at",
	"refunded_at", "created_at", "updated_at",
}

func paymentRow(t *testing.T, p *domain.Payment) *pgxmock.Rows {
	t.Helper()
	snapshotJSON, err := json.Marshal(p.Snapshot)
	require.NoError(t, err)

	return pgxmock.NewRows(paymentCols).AddRow(
		p.ID, p.UserID, p.Amount, p.RefundedAmount, p.Status, p.Method,
		p.TransactionID, p.ClientSecret, snapshotJSON, p.PaidAt,
		p.RefundedAt, p.CreatedAt, p.UpdatedAt,
	)
}

func TestPaymentRepository_Create(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)
	p := samplePayment()

	snapshotJSON, err := json.Marshal(p.Snapshot)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO payments").
		WithArgs(
			p.ID, p.UserID, p.Amount, p.RefundedAmount, p.Status, p.Method,
			p.TransactionID, p.ClientSecret, snapshotJSON, p.CreatedAt, p.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), p)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Create_ExecError(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)
	p := samplePayment()

	mock.ExpectExec("INSERT INTO payments").
		WillReturnError(errors.New("connection refused"))

	err = repo.Create(context.Background(), p)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert payment")
}

func TestPaymentRepository_GetByID(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)
	p := samplePayment()

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs(p.ID).
		WillReturnRows(paymentRow(t, p))

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.TransactionID, got.TransactionID)
	assert.Equal(t, "cart-001", got.Snapshot.CartID)
	require.Len(t, got.Snapshot.Lines, 1)
	assert.Equal(t, int64(4500), got.Snapshot.Lines[0].DiscountedPrice)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_GetByID_NotFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(paymentCols))

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPaymentRepository_GetByTransactionID(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)
	p := samplePayment()

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE transaction_id").
		WithArgs(p.TransactionID).
		WillReturnRows(paymentRow(t, p))

	got, err := repo.GetByTransactionID(context.Background(), p.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestPaymentRepository_FindPendingByUserAndCart(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)
	p := samplePayment()

	mock.ExpectQuery("SELECT (.+) FROM payments").
		WithArgs(p.UserID, domain.PaymentStatusPending, "cart-001").
		WillReturnRows(paymentRow(t, p))

	got, err := repo.FindPendingByUserAndCart(context.Background(), p.UserID, "cart-001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, domain.PaymentStatusPending, got.Status)
}

func TestPaymentRepository_FindPendingByUserAndCart_None(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM payments").
		WithArgs("usr-001", domain.PaymentStatusPending, "cart-404").
		WillReturnRows(pgxmock.NewRows(paymentCols))

	_, err = repo.FindPendingByUserAndCart(context.Background(), "usr-001", "cart-404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPaymentRepository_MarkPaid(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)
	paidAt := time.Now().UTC()

	mock.ExpectExec("UPDATE payments").
		WithArgs(domain.PaymentStatusPaid, paidAt, "pay-001", domain.PaymentStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	moved, err := repo.MarkPaid(context.Background(), "pay-001", paidAt)
	require.NoError(t, err)
	assert.True(t, moved)
}

func TestPaymentRepository_MarkPaid_AlreadyPaid(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)
	paidAt := time.Now().UTC()

	mock.ExpectExec("UPDATE payments").
		WithArgs(domain.PaymentStatusPaid, paidAt, "pay-001", domain.PaymentStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	moved, err := repo.MarkPaid(context.Background(), "pay-001", paidAt)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestPaymentRepository_MarkPaidByTransactionID(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)
	paidAt := time.Now().UTC()

	mock.ExpectExec("UPDATE payments").
		WithArgs(domain.PaymentStatusPaid, paidAt, "pi_abc123", domain.PaymentStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	moved, err := repo.MarkPaidByTransactionID(context.Background(), "pi_abc123", paidAt)
	require.NoError(t, err)
	assert.True(t, moved)
}

func TestPaymentRepository_MarkFailedByTransactionID(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)

	mock.ExpectExec("UPDATE payments").
		WithArgs(domain.PaymentStatusFailed, pgxmock.AnyArg(), "pi_abc123", domain.PaymentStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	moved, err := repo.MarkFailedByTransactionID(context.Background(), "pi_abc123")
	require.NoError(t, err)
	assert.True(t, moved)
}

func TestPaymentRepository_ApplyRefund(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)
	refundedAt := time.Now().UTC()

	mock.ExpectExec("UPDATE payments").
		WithArgs(int64(30), domain.PaymentStatusRefunded, refundedAt, "pay-001", domain.PaymentStatusPaid).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	applied, err := repo.ApplyRefund(context.Background(), "pay-001", 30, refundedAt)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestPaymentRepository_ApplyRefund_GuardRejects(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)
	refundedAt := time.Now().UTC()

	mock.ExpectExec("UPDATE payments").
		WithArgs(int64(500), domain.PaymentStatusRefunded, refundedAt, "pay-001", domain.PaymentStatusPaid).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	applied, err := repo.ApplyRefund(context.Background(), "pay-001", 500, refundedAt)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestPaymentRepository_ListByUserID(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)
	p := samplePayment()

	snapshotJSON, err := json.Marshal(p.Snapshot)
	require.NoError(t, err)

	cols := append(append([]string{}, paymentCols...), "total_count")
	rows := pgxmock.NewRows(cols).AddRow(
		p.ID, p.UserID, p.Amount, p.RefundedAmount, p.Status, p.Method,
		p.TransactionID, p.ClientSecret, snapshotJSON, p.PaidAt,
		p.RefundedAt, p.CreatedAt, p.UpdatedAt, 42,
	)

	mock.ExpectQuery("SELECT (.+) FROM payments").
		WithArgs(p.UserID, 20, 0).
		WillReturnRows(rows)

	payments, total, err := repo.ListByUserID(context.Background(), p.UserID, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	require.Len(t, payments, 1)
	assert.Equal(t, p.ID, payments[0].ID)
}

func TestPaymentRepository_ListByUserID_Empty(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPaymentRepository(mock)

	cols := append(append([]string{}, paymentCols...), "total_count")
	mock.ExpectQuery("SELECT (.+) FROM payments").
		WithArgs("usr-404", 20, 0).
		WillReturnRows(pgxmock.NewRows(cols))

	payments, total, err := repo.ListByUserID(context.Background(), "usr-404", 0, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, payments)
	assert.NotNil(t, payments)
}
