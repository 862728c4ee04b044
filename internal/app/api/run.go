package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	storefrontserver "github.com/Apurer/go-gin-storefront/go"

	catalogmemory "github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/memory"
	catalogobs "github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/observability"
	catalogpostgres "github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/persistence/postgres"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/adapters/purchases"
	catalogapp "github.com/Apurer/go-gin-storefront/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"

	chatdirectory "github.com/Apurer/go-gin-storefront/internal/domains/chat/adapters/directory"
	chatmemory "github.com/Apurer/go-gin-storefront/internal/domains/chat/adapters/memory"
	chatobs "github.com/Apurer/go-gin-storefront/internal/domains/chat/adapters/observability"
	chatmongo "github.com/Apurer/go-gin-storefront/internal/domains/chat/adapters/persistence/mongo"
	"github.com/Apurer/go-gin-storefront/internal/domains/chat/adapters/realtime"
	chatapp "github.com/Apurer/go-gin-storefront/internal/domains/chat/application"
	chatports "github.com/Apurer/go-gin-storefront/internal/domains/chat/ports"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/inventory"
	ordermemory "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/memory"
	orderobs "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/observability"
	orderpostgres "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/persistence/postgres"
	orderworkflows "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/workflows"
	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"

	paymentobs "github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/observability"
	paymentstripe "github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/stripe"
	paymentapp "github.com/Apurer/go-gin-storefront/internal/domains/payments/application"

	usermemory "github.com/Apurer/go-gin-storefront/internal/domains/users/adapters/memory"
	userobs "github.com/Apurer/go-gin-storefront/internal/domains/users/adapters/observability"
	userpostgres "github.com/Apurer/go-gin-storefront/internal/domains/users/adapters/persistence/postgres"
	usertokens "github.com/Apurer/go-gin-storefront/internal/domains/users/adapters/tokens"
	userapp "github.com/Apurer/go-gin-storefront/internal/domains/users/application"
	userports "github.com/Apurer/go-gin-storefront/internal/domains/users/ports"

	"github.com/Apurer/go-gin-storefront/internal/platform/auth"
	"github.com/Apurer/go-gin-storefront/internal/platform/migrations"
	platformmongo "github.com/Apurer/go-gin-storefront/internal/platform/mongo"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

const serviceName = "storefront-api"

// productStore is satisfied by catalog repositories that also keep the stock ledger.
type productStore interface {
	catalogports.Repository
	catalogports.Ledger
}

// orderStore is satisfied by order repositories that can also answer purchase checks.
type orderStore interface {
	orderports.Repository
	purchases.DeliveredOrders
}

type repositories struct {
	products    productStore
	orders      orderStore
	idempotency orderports.IdempotencyStore
	users       userports.Repository
	chat        chatports.Repository
}

// Run boots the storefront HTTP API with observability, repositories, and workflows wired.
// It blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.AccessTokenSecret == "" {
		return errors.New("invalid configuration: ACCESS_TOKEN must be set")
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, closeDB := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	defer closeDB()
	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	mongoDB, closeMongo := platformmongo.ConnectOptional(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	defer closeMongo()
	repos, err := buildRepositories(ctx, db, mongoDB)
	if err != nil {
		return err
	}

	accessTokens := auth.NewVerifier(cfg.AccessTokenSecret)
	userService := userobs.New(
		userapp.NewService(repos.users,
			userapp.WithTokenIssuer(usertokens.NewIssuer(accessTokens, auth.NewVerifier(cfg.RefreshTokenSecret),
				usertokens.WithAccessTTL(cfg.AccessTokenTTL),
				usertokens.WithRefreshTTL(cfg.RefreshTokenTTL),
			)),
		),
		userobs.WithLogger(logger),
		userobs.WithTracer(instruments.Tracer("internal.users.application")),
		userobs.WithMeter(instruments.Meter("internal.users.application")),
	)

	catalogService := catalogobs.New(
		catalogapp.NewService(repos.products, purchases.NewVerifier(repos.orders)),
		catalogobs.WithLogger(logger),
		catalogobs.WithTracer(instruments.Tracer("internal.catalog.application")),
		catalogobs.WithMeter(instruments.Meter("internal.catalog.application")),
	)

	var confirmations orderports.ConfirmationDispatcher
	if cfg.TemporalDisabled {
		logger.Warn("Temporal disabled via TEMPORAL_DISABLED, sending confirmations inline")
		confirmations = orderworkflows.NewInlineConfirmations(NewMailer(cfg, logger), logger)
	} else if temporalClient, err := ConnectTemporal(cfg, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, sending confirmations inline", slog.String("error", err.Error()))
		confirmations = orderworkflows.NewInlineConfirmations(NewMailer(cfg, logger), logger)
	} else {
		defer temporalClient.Close()
		confirmations = orderworkflows.NewTemporalConfirmations(temporalClient, logger)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}
	orderService := orderobs.New(
		orderapp.NewService(repos.orders, inventory.NewLedger(repos.products),
			orderapp.WithIdempotencyStore(repos.idempotency),
			orderapp.WithConfirmationDispatcher(confirmations),
		),
		orderobs.WithLogger(logger),
		orderobs.WithTracer(instruments.Tracer("internal.orders.application")),
		orderobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	registry := realtime.NewRegistry(realtime.WithRegistryLogger(instruments.Component("chat.registry")))
	chatService := chatobs.New(
		chatapp.NewService(repos.chat, registry,
			chatapp.WithDirectory(chatdirectory.NewUsers(userService)),
			chatapp.WithHistoryLimit(cfg.ChatHistoryLimit),
		),
		chatobs.WithLogger(logger),
		chatobs.WithTracer(instruments.Tracer("internal.chat.application")),
		chatobs.WithMeter(instruments.Meter("internal.chat.application")),
	)
	hub := realtime.NewHub(chatService, registry,
		realtime.WithHubLogger(instruments.Component("chat.hub")),
		realtime.WithAllowedOrigins(cfg.AllowedOrigins),
	)

	if cfg.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set, payment intents will be rejected")
	}
	paymentService := paymentobs.New(
		paymentapp.NewService(paymentstripe.NewGateway(cfg.StripeSecretKey), paymentapp.WithConversionRate(cfg.VNDPerUSD)),
		paymentobs.WithLogger(logger),
		paymentobs.WithTracer(instruments.Tracer("internal.payments.application")),
		paymentobs.WithMeter(instruments.Meter("internal.payments.application")),
	)

	handlers := storefrontserver.ApiHandleFunctions{
		CatalogAPI: storefrontserver.NewCatalogAPI(catalogService, userService),
		OrderAPI:   storefrontserver.NewOrderAPI(orderService),
		ChatAPI:    storefrontserver.NewChatAPI(chatService, hub),
		PaymentAPI: storefrontserver.NewPaymentAPI(paymentService),
		UserAPI:    storefrontserver.NewUserAPI(userService),
	}
	authMiddleware := auth.NewMiddleware(accessTokens)
	router := storefrontserver.NewRouter(handlers, authMiddleware, otelgin.Middleware(serviceName))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront API listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("storefront API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("storefront API shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func buildRepositories(ctx context.Context, db *gorm.DB, mongoDB *mongo.Database) (repositories, error) {
	var repos repositories
	if db != nil {
		repos.products = catalogpostgres.NewRepository(db)
		repos.orders = orderpostgres.NewRepository(db)
		repos.idempotency = orderpostgres.NewIdempotencyStore(db)
		repos.users = userpostgres.NewRepository(db)
	} else {
		repos.products = catalogmemory.NewRepository()
		repos.orders = ordermemory.NewRepository()
		repos.idempotency = ordermemory.NewIdempotencyStore()
		repos.users = usermemory.NewRepository()
	}
	if mongoDB != nil {
		chatRepo, err := chatmongo.NewRepository(ctx, mongoDB)
		if err != nil {
			return repositories{}, fmt.Errorf("failed to prepare chat collections: %w", err)
		}
		repos.chat = chatRepo
	} else {
		repos.chat = chatmemory.NewRepository()
	}
	return repos, nil
}
