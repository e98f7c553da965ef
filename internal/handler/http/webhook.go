package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gigpass/storefront/internal/gateway"
	"github.com/gigpass/storefront/internal/service"
	apperrors "github.com/gigpass/storefront/pkg/errors"
)

// HeaderGatewaySignature carries the gateway's webhook signature in the
// form "t=<unix_ts>,v1=<hex_hmac>".
const HeaderGatewaySignature = "Gateway-Signature"

// Gateway webhook event types.
const (
	eventPaymentSucceeded = "payment.succeeded"
	eventPaymentFailed    = "payment.failed"
)

// maxWebhookBody caps webhook payloads at 256KB; gateway events are small.
const maxWebhookBody = 256 << 10

// webhookEvent is the gateway's notification envelope.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		TransactionID string `json:"transaction_id"`
	} `json:"data"`
}

// WebhookHandler receives payment notifications from the external gateway.
// The response contract is the gateway's, not the storefront's: 400 only
// for a bad signature or unparseable payload, 200 with an empty body for
// every other outcome so the gateway stops redelivering.
type WebhookHandler struct {
	verifier *gateway.SignatureVerifier
	payments *service.PaymentService
	logger   *slog.Logger
}

// NewWebhookHandler creates a webhook HTTP handler.
func NewWebhookHandler(verifier *gateway.SignatureVerifier, payments *service.PaymentService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		payments: payments,
		logger:   logger,
	}
}

// HandleGatewayEvent handles POST /api/v1/webhooks/gateway
func (h *WebhookHandler) HandleGatewayEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to read webhook body", "error", err)
		writeRawError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	if err := h.verifier.Verify(r.Header.Get(HeaderGatewaySignature), body); err != nil {
		h.logger.WarnContext(r.Context(), "webhook signature verification failed", "error", err)
		writeRawError(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.WarnContext(r.Context(), "failed to parse webhook payload", "error", err)
		writeRawError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	h.process(r, event)
	w.WriteHeader(http.StatusOK)
}

// process applies the event. Business failures are logged, never surfaced:
// a non-200 here would make the gateway redeliver an event we cannot use.
func (h *WebhookHandler) process(r *http.Request, event webhookEvent) {
	ctx := r.Context()

	if event.Type != eventPaymentSucceeded && event.Type != eventPaymentFailed {
		h.logger.InfoContext(ctx, "ignoring webhook event of unhandled type",
			"event_id", event.ID,
			"event_type", event.Type,
		)
		return
	}

	if event.Data.TransactionID == "" {
		h.logger.WarnContext(ctx, "webhook event missing transaction id",
			"event_id", event.ID,
			"event_type", event.Type,
		)
		return
	}

	switch event.Type {
	case eventPaymentSucceeded:
		if _, err := h.payments.MarkPaidByReference(ctx, event.Data.TransactionID); err != nil {
			h.logWebhookFailure(r, event, err)
		}
	case eventPaymentFailed:
		if err := h.payments.MarkFailedByReference(ctx, event.Data.TransactionID); err != nil {
			h.logWebhookFailure(r, event, err)
		}
	}
}

func (h *WebhookHandler) logWebhookFailure(r *http.Request, event webhookEvent, err error) {
	ctx := r.Context()

	if errors.Is(err, apperrors.ErrNotFound) {
		h.logger.WarnContext(ctx, "webhook references unknown payment",
			"event_id", event.ID,
			"event_type", event.Type,
			"transaction_id", event.Data.TransactionID,
		)
		return
	}

	h.logger.ErrorContext(ctx, "failed to apply webhook event",
		"event_id", event.ID,
		"event_type", event.Type,
		"transaction_id", event.Data.TransactionID,
		"error", err,
	)
}

func writeRawError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
