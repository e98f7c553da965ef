package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gigpass/storefront/internal/gateway"
	"github.com/gigpass/storefront/internal/service"
	"github.com/gigpass/storefront/pkg/health"
	"github.com/gigpass/storefront/pkg/middleware"
)

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	cartService *service.CartService,
	paymentService *service.PaymentService,
	refundService *service.RefundService,
	verifier *gateway.SignatureVerifier,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(cartService, logger)
	paymentHandler := NewPaymentHandler(paymentService, refundService, logger)
	webhookHandler := NewWebhookHandler(verifier, paymentService, logger)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(Identity)

		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)
		r.Post("/items", cartHandler.AddItem)
		r.Delete("/items/{productID}", cartHandler.RemoveItem)
		r.Post("/merge", cartHandler.MergeCart)
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(Identity)
		r.Use(RequireUser)

		r.Post("/", paymentHandler.CreatePayment)
		r.Get("/", paymentHandler.ListPayments)
		r.Get("/{id}", paymentHandler.GetPayment)
		r.Post("/{id}/refund", paymentHandler.RefundPayment)
	})

	// The webhook endpoint authenticates via HMAC signature, not identity
	// headers, and must see the raw body before any JSON handling.
	r.Post("/api/v1/webhooks/gateway", webhookHandler.HandleGatewayEvent)

	return r
}
