package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gigpass/storefront/internal/catalog"
	"github.com/gigpass/storefront/internal/config"
	"github.com/gigpass/storefront/internal/event"
	"github.com/gigpass/storefront/internal/gateway"
	gatewaymock "github.com/gigpass/storefront/internal/gateway/mock"
	handler "github.com/gigpass/storefront/internal/handler/http"
	"github.com/gigpass/storefront/internal/repository/postgres"
	redisrepo "github.com/gigpass/storefront/internal/repository/redis"
	"github.com/gigpass/storefront/internal/service"
	"github.com/gigpass/storefront/internal/ticket"
	"github.com/gigpass/storefront/migrations"
	"github.com/gigpass/storefront/pkg/database"
	"github.com/gigpass/storefront/pkg/health"
	"github.com/gigpass/storefront/pkg/httpclient"
	pkgkafka "github.com/gigpass/storefront/pkg/kafka"
	"github.com/gigpass/storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSample,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis for guest carts.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("port", cfg.RedisPort),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Repositories.
	guestCarts := redisrepo.NewGuestCartRepository(redisClient, time.Duration(cfg.GuestCartTTL)*time.Hour, logger)
	userCarts := postgres.NewCartRepository(pool, logger)
	payments := postgres.NewPaymentRepository(pool)
	tickets := postgres.NewTicketRepository(pool)

	// Outbound HTTP clients with circuit breakers, one per dependency so a
	// catalog outage does not open the gateway circuit.
	baseClient := httpclient.New(httpclient.DefaultConfig())
	gatewayClient := httpclient.NewCircuitBreakerClient(
		baseClient, httpclient.DefaultCircuitBreakerConfig("payment-gateway"), logger)
	catalogClient := httpclient.NewCircuitBreakerClient(
		baseClient, httpclient.DefaultCircuitBreakerConfig("product-catalog"), logger)

	var paymentGateway gateway.Gateway
	if cfg.GatewayAPIKey != "" {
		paymentGateway = gateway.NewHTTPGateway(gatewayClient, cfg.GatewayBaseURL, cfg.GatewayAPIKey, logger)
	} else {
		logger.Warn("no gateway API key configured, using mock payment gateway")
		paymentGateway = gatewaymock.NewGateway()
	}

	productCatalog := catalog.NewHTTPCatalog(catalogClient, cfg.CatalogBaseURL, logger)
	verifier := gateway.NewSignatureVerifier(cfg.GatewayWebhookSecret, cfg.WebhookTolerance)

	// Services.
	eventProducer := event.NewProducer(producer, logger)
	issuer := ticket.NewStoreIssuer(tickets, logger)
	stockGuard := service.NewStockGuard(productCatalog)
	cartService := service.NewCartService(guestCarts, userCarts, logger)
	paymentService := service.NewPaymentService(
		payments, userCarts, stockGuard, productCatalog, paymentGateway, issuer, eventProducer, logger)
	refundService := service.NewRefundService(payments, paymentGateway, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(cartService, paymentService, refundService, verifier, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: drain HTTP first, then flush
// spans, then close the producer and data stores.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application stopped")
	return errors.Join(errs...)
}
