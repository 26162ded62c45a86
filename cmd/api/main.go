package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wastetotreasure/w2t-backend/api/routes"
	"github.com/wastetotreasure/w2t-backend/internal/address"
	"github.com/wastetotreasure/w2t-backend/internal/auth"
	"github.com/wastetotreasure/w2t-backend/internal/cart"
	checkoutsvc "github.com/wastetotreasure/w2t-backend/internal/checkout"
	"github.com/wastetotreasure/w2t-backend/internal/checkoutsession"
	"github.com/wastetotreasure/w2t-backend/internal/listings"
	"github.com/wastetotreasure/w2t-backend/internal/orders"
	"github.com/wastetotreasure/w2t-backend/internal/payments"
	"github.com/wastetotreasure/w2t-backend/internal/users"
	"github.com/wastetotreasure/w2t-backend/pkg/auth/session"
	"github.com/wastetotreasure/w2t-backend/pkg/config"
	"github.com/wastetotreasure/w2t-backend/pkg/db"
	"github.com/wastetotreasure/w2t-backend/pkg/logger"
	"github.com/wastetotreasure/w2t-backend/pkg/metrics"
	"github.com/wastetotreasure/w2t-backend/pkg/migrate"
	"github.com/wastetotreasure/w2t-backend/pkg/redis"
	"github.com/wastetotreasure/w2t-backend/pkg/square"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create square client", err)
		os.Exit(1)
	}

	checkoutStore, err := checkoutsession.NewRedisStore(redisClient, cfg.Checkout.SessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout session store", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	customers, err := users.NewSquareCustomers(usersRepo, squareClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create customer linker", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	addressService, err := address.NewService(address.ServiceParams{
		Repo:              address.NewRepository(dbClient.DB()),
		TransactionRunner: dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	listingsService, err := listings.NewService(listings.ServiceParams{
		Repo: listings.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create listings service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:     cart.NewRepository(dbClient.DB()),
		Listings: listingsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Sessions:             checkoutStore,
		Customers:            customers,
		Gateway:              squareClient,
		MinOperationDuration: cfg.Checkout.MinOperationDuration,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:              orders.NewRepository(dbClient.DB()),
		Cart:              cartService,
		Customers:         customers,
		Gateway:           squareClient,
		TransactionRunner: dbClient,
		LocationID:        cfg.Square.LocationID,
		Currency:          cfg.Square.Currency,
		MinChargeCents:    cfg.Checkout.MinChargeCents,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Sessions:  checkoutStore,
		Orders:    ordersService,
		Cart:      cartService,
		Addresses: addressService,
		Metrics:   metrics.NewCheckoutMetrics(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Registry:      registry,
			Sessions:      sessionManager,
			CheckoutStore: checkoutStore,
			AuthService:   authService,
			Addresses:     addressService,
			Listings:      listingsService,
			Cart:          cartService,
			Payments:      paymentsService,
			Checkout:      checkoutService,
			Orders:        ordersService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
