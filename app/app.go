package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapkartapp/snapkart/internal/cache"
	"github.com/snapkartapp/snapkart/internal/config"
	"github.com/snapkartapp/snapkart/internal/db"
	"github.com/snapkartapp/snapkart/internal/ekart"
	"github.com/snapkartapp/snapkart/internal/email"
	"github.com/snapkartapp/snapkart/internal/handlers"
	"github.com/snapkartapp/snapkart/internal/logging"
	"github.com/snapkartapp/snapkart/internal/services"
	"github.com/snapkartapp/snapkart/internal/stripe"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers
	Reconciler    *services.Reconciler

	reconcilerCancel context.CancelFunc
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	sentryEnabled := cfg.SentryDSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
		}); err != nil {
			return nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, sentryEnabled)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	orderStore := db.NewOrderStore(database)
	cartStore := db.NewCartStore(database)
	productStore := db.NewProductStore(database)
	customerStore := db.NewCustomerStore(database)

	gateway := stripe.NewClient(cfg.StripeSecretKey, cfg.BaseURL)
	carrier := ekart.NewClient(ekart.Config{
		BaseURL:  cfg.EkartBaseURL,
		ClientID: cfg.EkartClientID,
		Username: cfg.EkartUsername,
		Password: cfg.EkartPassword,
	}, logger.With("component", "ekart_client"))

	var emailSender email.Sender = email.NoopSender{}
	if cfg.ResendAPIKey != "" {
		emailSender = email.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
	}

	authService, err := services.NewAuthService(customerStore, cfg.JWTSecret, logger.With("component", "auth_service"))
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	cartService := services.NewCartService(cartStore, productStore, logger.With("component", "cart_service"))
	orderService := services.NewOrderService(
		orderStore,
		cartStore,
		customerStore,
		gateway,
		carrier,
		cacheProvider,
		emailSender,
		logger.With("component", "order_service"),
	)
	reconciler := services.NewReconciler(
		orderStore,
		cartStore,
		gateway,
		cfg.ReconcileInterval,
		logger.With("component", "reconciler"),
	)

	h, err := handlers.New(handlers.Dependencies{
		Config:       cfg,
		DB:           database,
		AuthService:  authService,
		CartService:  cartService,
		OrderService: orderService,
		ProductStore: productStore,
		Logger:       logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
		Reconciler:    reconciler,
	}, nil
}

// StartReconciler runs the payment reconciliation loop until Close.
func (a *App) StartReconciler() {
	ctx, cancel := context.WithCancel(context.Background())
	a.reconcilerCancel = cancel
	go a.Reconciler.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.reconcilerCancel != nil {
		a.reconcilerCancel()
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Config != nil && a.Config.SentryDSN != "" {
		sentry.Flush(2 * time.Second)
	}
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
