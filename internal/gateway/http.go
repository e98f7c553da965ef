package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gigpass/storefront/pkg/httpclient"
)

// HTTPGateway implements Gateway against the payment provider's HTTP API,
// going through the resilient circuit-breaker client.
type HTTPGateway struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewHTTPGateway creates a gateway client for the given base URL and API key.
func NewHTTPGateway(client *httpclient.CircuitBreakerClient, baseURL, apiKey string, logger *slog.Logger) *HTTPGateway {
	return &HTTPGateway{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

// Name returns the gateway name.
func (g *HTTPGateway) Name() string {
	return "http"
}

type intentRequest struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Method      string            `json:"method"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type intentResponse struct {
	TransactionID string `json:"transaction_id"`
	ClientSecret  string `json:"client_secret"`
}

type refundRequest struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Reason        string `json:"reason,omitempty"`
}

type refundResponse struct {
	RefundID string `json:"refund_id"`
}

// CreateIntent creates a payment intent at the gateway.
func (g *HTTPGateway) CreateIntent(ctx context.Context, input *IntentInput) (*Intent, error) {
	var out intentResponse
	if err := g.post(ctx, "/v1/payment_intents", intentRequest{
		Amount:      input.Amount,
		Currency:    input.Currency,
		Method:      input.Method,
		Description: input.Description,
		Metadata:    input.Metadata,
	}, &out); err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	if out.TransactionID == "" {
		return nil, fmt.Errorf("create payment intent: empty transaction id in response")
	}

	return &Intent{
		TransactionID: out.TransactionID,
		ClientSecret:  out.ClientSecret,
	}, nil
}

// Refund refunds part or all of a charge at the gateway.
func (g *HTTPGateway) Refund(ctx context.Context, input *RefundInput) (*RefundResult, error) {
	var out refundResponse
	if err := g.post(ctx, "/v1/refunds", refundRequest{
		TransactionID: input.TransactionID,
		Amount:        input.Amount,
		Reason:        input.Reason,
	}, &out); err != nil {
		return nil, fmt.Errorf("create refund: %w", err)
	}

	return &RefundResult{RefundID: out.RefundID}, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.logger.WarnContext(ctx, "gateway request rejected",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}

	return nil
}
