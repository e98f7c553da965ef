package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gigpass/storefront/internal/domain"
	pkgkafka "github.com/gigpass/storefront/pkg/kafka"
)

// Kafka topic constants for payment domain events.
const (
	TopicPaymentPaid     = "storefront.payment.paid"
	TopicPaymentFailed   = "storefront.payment.failed"
	TopicPaymentRefunded = "storefront.payment.refunded"
	TopicTicketsIssued   = "storefront.tickets.issued"
)

// Aggregate type constant.
const AggregateTypePayment = "payment"

// Source identifier for events originating from this service.
const SourceStorefront = "storefront"

// PaymentEventData is the payload shared by payment lifecycle events.
type PaymentEventData struct {
	PaymentID      string `json:"payment_id"`
	UserID         string `json:"user_id"`
	TransactionID  string `json:"transaction_id"`
	Amount         int64  `json:"amount"`
	RefundedAmount int64  `json:"refunded_amount,omitempty"`
	Status         string `json:"status"`
}

// TicketsIssuedData is the payload for a tickets.issued event.
type TicketsIssuedData struct {
	PaymentID string   `json:"payment_id"`
	UserID    string   `json:"user_id"`
	TicketIDs []string `json:"ticket_ids"`
}

// Producer publishes payment domain events to Kafka. It is the notification
// side channel: publishing is fire-and-forget from the caller's point of
// view, and a broker failure never affects the state transition that
// triggered the event.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishPaymentPaid publishes a payment.paid event.
func (p *Producer) PublishPaymentPaid(ctx context.Context, payment *domain.Payment) error {
	return p.publish(ctx, TopicPaymentPaid, payment)
}

// PublishPaymentFailed publishes a payment.failed event.
func (p *Producer) PublishPaymentFailed(ctx context.Context, payment *domain.Payment) error {
	return p.publish(ctx, TopicPaymentFailed, payment)
}

// PublishPaymentRefunded publishes a payment.refunded event.
func (p *Producer) PublishPaymentRefunded(ctx context.Context, payment *domain.Payment) error {
	return p.publish(ctx, TopicPaymentRefunded, payment)
}

// PublishTicketsIssued publishes a tickets.issued event.
func (p *Producer) PublishTicketsIssued(ctx context.Context, payment *domain.Payment, tickets []domain.Ticket) error {
	ids := make([]string, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}

	data := TicketsIssuedData{
		PaymentID: payment.ID,
		UserID:    payment.UserID,
		TicketIDs: ids,
	}

	evt, err := pkgkafka.NewEvent(TopicTicketsIssued, payment.ID, AggregateTypePayment, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create tickets.issued event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicTicketsIssued, evt); err != nil {
		return fmt.Errorf("publish tickets.issued event: %w", err)
	}

	return nil
}

func (p *Producer) publish(ctx context.Context, topic string, payment *domain.Payment) error {
	data := PaymentEventData{
		PaymentID:      payment.ID,
		UserID:         payment.UserID,
		TransactionID:  payment.TransactionID,
		Amount:         payment.Amount,
		RefundedAmount: payment.RefundedAmount,
		Status:         payment.Status,
	}

	evt, err := pkgkafka.NewEvent(topic, payment.ID, AggregateTypePayment, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published payment event",
		slog.String("topic", topic),
		slog.String("payment_id", payment.ID),
		slog.String("status", payment.Status),
	)

	return nil
}
