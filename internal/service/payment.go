package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gigpass/storefront/internal/catalog"
	"github.com/gigpass/storefront/internal/domain"
	"github.com/gigpass/storefront/internal/event"
	"github.com/gigpass/storefront/internal/gateway"
	"github.com/gigpass/storefront/internal/repository"
	"github.com/gigpass/storefront/internal/ticket"
	apperrors "github.com/gigpass/storefront/pkg/errors"
)

const (
	defaultCurrency = "USD"

	// DefaultPageSize is the payment history page size when none is given.
	DefaultPageSize = 20
	// MaxPageSize caps the payment history page size.
	MaxPageSize = 100
)

// PaymentService orchestrates the payment lifecycle: checkout from a user
// cart through the external gateway, and the webhook-driven transitions
// that settle each payment.
type PaymentService struct {
	payments repository.PaymentStore
	carts    repository.UserCartStore
	stock    *StockGuard
	catalog  catalog.Catalog
	gateway  gateway.Gateway
	issuer   ticket.Issuer
	producer *event.Producer
	logger   *slog.Logger
}

// NewPaymentService creates a payment service. The issuer and producer may
// be nil; paid-transition side effects are skipped when they are.
func NewPaymentService(
	payments repository.PaymentStore,
	carts repository.UserCartStore,
	stock *StockGuard,
	cat catalog.Catalog,
	gw gateway.Gateway,
	issuer ticket.Issuer,
	producer *event.Producer,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		carts:    carts,
		stock:    stock,
		catalog:  cat,
		gateway:  gw,
		issuer:   issuer,
		producer: producer,
		logger:   logger,
	}
}

// CreateFromCart starts checkout for the user's cart. It validates stock,
// snapshots prices, creates a gateway intent and persists the payment as
// pending. If a pending payment already exists for the same user and cart
// it is returned unchanged and no new gateway intent is created.
func (s *PaymentService) CreateFromCart(ctx context.Context, userID, cartID, method string) (*domain.Payment, error) {
	if !domain.IsValidPaymentMethod(method) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid payment method: %s", method))
	}

	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("cart", cartID)
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.UserID != userID {
		// Do not reveal whether a foreign cart exists.
		return nil, apperrors.NotFound("cart", cartID)
	}

	items, err := s.carts.Items(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	if len(items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	if err := s.stock.AssertStockAvailable(ctx, items); err != nil {
		return nil, err
	}

	existing, err := s.payments.FindPendingByUserAndCart(ctx, userID, cartID)
	if err == nil {
		s.logger.InfoContext(ctx, "returning existing pending payment",
			"payment_id", existing.ID,
			"cart_id", cartID,
		)
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check for pending payment: %w", err)
	}

	snapshot, err := s.buildSnapshot(ctx, cartID, items)
	if err != nil {
		return nil, err
	}
	amount := snapshot.Total()

	intent, err := s.gateway.CreateIntent(ctx, &gateway.IntentInput{
		Amount:      amount,
		Currency:    defaultCurrency,
		Method:      method,
		Description: fmt.Sprintf("storefront checkout for cart %s", cartID),
		Metadata: map[string]string{
			"cart_id": cartID,
			"user_id": userID,
		},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "gateway intent creation failed",
			"cart_id", cartID,
			"gateway", s.gateway.Name(),
			"error", err,
		)
		return nil, apperrors.GatewayUnavailable("failed to create payment intent")
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:            uuid.New().String(),
		UserID:        userID,
		Amount:        amount,
		Status:        domain.PaymentStatusPending,
		Method:        method,
		TransactionID: intent.TransactionID,
		ClientSecret:  intent.ClientSecret,
		Snapshot:      snapshot,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		// The gateway intent exists but we have no local record of it; the
		// orphan must be reconciled out of band.
		s.logger.ErrorContext(ctx, "failed to persist payment after gateway intent created, reconciliation required",
			"transaction_id", intent.TransactionID,
			"user_id", userID,
			"cart_id", cartID,
			"amount", amount,
			"error", err,
		)
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	s.logger.InfoContext(ctx, "payment created",
		"payment_id", payment.ID,
		"transaction_id", payment.TransactionID,
		"amount", amount,
		"method", method,
	)

	return payment, nil
}

func (s *PaymentService) buildSnapshot(ctx context.Context, cartID string, items map[string]int) (domain.CartSnapshot, error) {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return domain.CartSnapshot{}, fmt.Errorf("fetch products for snapshot: %w", err)
	}

	lines := make([]domain.SnapshotLine, 0, len(ids))
	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			return domain.CartSnapshot{}, apperrors.NotFound("product", id)
		}
		lines = append(lines, domain.SnapshotLine{
			ProductID:       id,
			ProductName:     product.Name,
			Quantity:        items[id],
			UnitPrice:       product.Price,
			DiscountRate:    product.SaleRate,
			DiscountedPrice: domain.DiscountedUnitPrice(product.Price, product.SaleRate),
		})
	}

	return domain.CartSnapshot{CartID: cartID, Lines: lines}, nil
}

// MarkPaid transitions the payment to paid. Only a pending payment moves;
// any other status is a safe no-op returning the payment unchanged, which
// makes duplicate webhook deliveries harmless.
func (s *PaymentService) MarkPaid(ctx context.Context, paymentID string) (*domain.Payment, error) {
	moved, err := s.payments.MarkPaid(ctx, paymentID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("mark payment paid: %w", err)
	}

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("payment", paymentID)
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}

	if moved {
		s.afterPaid(ctx, payment)
	}

	return payment, nil
}

// MarkPaidByReference is MarkPaid keyed by the gateway transaction id, the
// form webhooks arrive in.
func (s *PaymentService) MarkPaidByReference(ctx context.Context, transactionID string) (*domain.Payment, error) {
	moved, err := s.payments.MarkPaidByTransactionID(ctx, transactionID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("mark payment paid: %w", err)
	}

	payment, err := s.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("payment", transactionID)
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}

	if moved {
		s.afterPaid(ctx, payment)
	}

	return payment, nil
}

// MarkFailedByReference transitions a pending payment to failed. Unknown
// transaction ids and payments past pending are no-ops.
func (s *PaymentService) MarkFailedByReference(ctx context.Context, transactionID string) error {
	moved, err := s.payments.MarkFailedByTransactionID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	if !moved {
		return nil
	}

	payment, err := s.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load payment after failed transition",
			"transaction_id", transactionID,
			"error", err,
		)
		return nil
	}

	s.logger.InfoContext(ctx, "payment marked failed",
		"payment_id", payment.ID,
		"transaction_id", transactionID,
	)

	if s.producer != nil {
		if err := s.producer.PublishPaymentFailed(ctx, payment); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish payment failed event",
				"payment_id", payment.ID,
				"error", err,
			)
		}
	}

	return nil
}

// sideEffectTimeout bounds how long the paid-transition side effects may
// hold up a webhook ack when the broker or ticket store is slow.
const sideEffectTimeout = 5 * time.Second

// afterPaid runs the paid-transition side effects. They are best effort:
// the transition has already committed, so failures here are logged and
// never surfaced to the webhook caller. The side effects run on their own
// bounded context so a cancelled request cannot abort them and a hung
// downstream cannot stall the ack indefinitely.
func (s *PaymentService) afterPaid(ctx context.Context, payment *domain.Payment) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	s.logger.InfoContext(ctx, "payment marked paid",
		"payment_id", payment.ID,
		"transaction_id", payment.TransactionID,
		"amount", payment.Amount,
	)

	var tickets []domain.Ticket
	if s.issuer != nil {
		issued, err := s.issuer.IssueForPayment(ctx, payment)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to issue tickets for paid payment",
				"payment_id", payment.ID,
				"error", err,
			)
		} else {
			tickets = issued
		}
	}

	if s.producer == nil {
		return
	}

	if err := s.producer.PublishPaymentPaid(ctx, payment); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish payment paid event",
			"payment_id", payment.ID,
			"error", err,
		)
	}
	if len(tickets) > 0 {
		if err := s.producer.PublishTicketsIssued(ctx, payment, tickets); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish tickets issued event",
				"payment_id", payment.ID,
				"error", err,
			)
		}
	}
}

// GetPayment returns a payment owned by the given user.
func (s *PaymentService) GetPayment(ctx context.Context, userID, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("payment", paymentID)
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if payment.UserID != userID {
		return nil, apperrors.NotFound("payment", paymentID)
	}
	return payment, nil
}

// GetByReference returns the payment for a gateway transaction id.
func (s *PaymentService) GetByReference(ctx context.Context, transactionID string) (*domain.Payment, error) {
	payment, err := s.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("payment", transactionID)
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}
	return payment, nil
}

// ListPaymentsByUser returns a page of the user's payments, newest first,
// along with the total count.
func (s *PaymentService) ListPaymentsByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Payment, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPageSize
	}
	if perPage > MaxPageSize {
		perPage = MaxPageSize
	}

	offset := (page - 1) * perPage
	payments, total, err := s.payments.ListByUserID(ctx, userID, offset, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	return payments, total, nil
}
