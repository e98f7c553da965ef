package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gigpass/storefront/internal/domain"
	"github.com/gigpass/storefront/internal/event"
	"github.com/gigpass/storefront/internal/gateway"
	"github.com/gigpass/storefront/internal/repository"
	apperrors "github.com/gigpass/storefront/pkg/errors"
)

// RefundService applies partial and full refunds against paid payments. The
// running refunded amount never exceeds the original charge, and a payment
// flips to refunded exactly when the total reaches the charge.
type RefundService struct {
	payments repository.PaymentStore
	gateway  gateway.Gateway
	producer *event.Producer
	logger   *slog.Logger
}

// NewRefundService creates a refund service. The producer may be nil.
func NewRefundService(payments repository.PaymentStore, gw gateway.Gateway, producer *event.Producer, logger *slog.Logger) *RefundService {
	return &RefundService{
		payments: payments,
		gateway:  gw,
		producer: producer,
		logger:   logger,
	}
}

// RefundByID refunds amount against the payment with the given id on behalf
// of userID. Payments owned by another user are reported as not found.
func (s *RefundService) RefundByID(ctx context.Context, userID, paymentID string, amount int64, reason string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("payment", paymentID)
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}

	if payment.UserID != userID {
		// Do not reveal whether a foreign payment exists.
		return nil, apperrors.NotFound("payment", paymentID)
	}

	return s.refund(ctx, payment, amount, reason)
}

// RefundByReference refunds amount against the payment with the given
// gateway transaction id. It performs no ownership check and must only be
// wired to trusted callers such as gateway-initiated flows.
func (s *RefundService) RefundByReference(ctx context.Context, transactionID string, amount int64, reason string) (*domain.Payment, error) {
	payment, err := s.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("payment", transactionID)
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}
	return s.refund(ctx, payment, amount, reason)
}

func (s *RefundService) refund(ctx context.Context, payment *domain.Payment, amount int64, reason string) (*domain.Payment, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidInput("refund amount must be positive")
	}
	if payment.Status != domain.PaymentStatusPaid {
		return nil, apperrors.Conflict(fmt.Sprintf("payment in status %s is not refundable", payment.Status))
	}
	if remaining := payment.RemainingRefundable(); amount > remaining {
		return nil, apperrors.Conflict(fmt.Sprintf("refund amount %d exceeds remaining refundable amount %d", amount, remaining))
	}

	if _, err := s.gateway.Refund(ctx, &gateway.RefundInput{
		TransactionID: payment.TransactionID,
		Amount:        amount,
		Reason:        reason,
	}); err != nil {
		s.logger.WarnContext(ctx, "gateway refund failed",
			"payment_id", payment.ID,
			"transaction_id", payment.TransactionID,
			"amount", amount,
			"error", err,
		)
		return nil, apperrors.GatewayUnavailable("failed to refund payment")
	}

	applied, err := s.payments.ApplyRefund(ctx, payment.ID, amount, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("apply refund: %w", err)
	}
	if !applied {
		// A concurrent refund moved the payment under us after the
		// pre-check; the ledger guard rejected this one.
		return nil, apperrors.Conflict("refund rejected by concurrent update")
	}

	updated, err := s.payments.GetByID(ctx, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("load payment after refund: %w", err)
	}

	s.logger.InfoContext(ctx, "refund applied",
		"payment_id", updated.ID,
		"amount", amount,
		"refunded_amount", updated.RefundedAmount,
		"status", updated.Status,
	)

	if s.producer != nil && updated.Status == domain.PaymentStatusRefunded {
		if err := s.producer.PublishPaymentRefunded(ctx, updated); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish payment refunded event",
				"payment_id", updated.ID,
				"error", err,
			)
		}
	}

	return updated, nil
}
