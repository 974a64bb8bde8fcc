package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/payflow-checkout/api/controllers"
	"github.com/angelmondragon/payflow-checkout/api/routes"
	"github.com/angelmondragon/payflow-checkout/internal/cart"
	"github.com/angelmondragon/payflow-checkout/internal/catalog"
	"github.com/angelmondragon/payflow-checkout/internal/checkout"
	"github.com/angelmondragon/payflow-checkout/internal/orders"
	"github.com/angelmondragon/payflow-checkout/internal/payments"
	"github.com/angelmondragon/payflow-checkout/pkg/auth/session"
	"github.com/angelmondragon/payflow-checkout/pkg/config"
	"github.com/angelmondragon/payflow-checkout/pkg/db"
	"github.com/angelmondragon/payflow-checkout/pkg/logger"
	"github.com/angelmondragon/payflow-checkout/pkg/metrics"
	"github.com/angelmondragon/payflow-checkout/pkg/migrate"
	"github.com/angelmondragon/payflow-checkout/pkg/payflow"
	"github.com/angelmondragon/payflow-checkout/pkg/pubsub"
	"github.com/angelmondragon/payflow-checkout/pkg/redis"
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
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// resources collects everything that must be closed on shutdown.
type resources []io.Closer

func (r resources) Close() error {
	var errs error
	for i := len(r) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, r[i].Close())
	}
	return errs
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers resources
	defer func() {
		err = multierr.Append(err, closers.Close())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	var (
		dbClient    *db.Client
		redisClient *redis.Client
		readiness   []controllers.Dependency
	)

	if cfg.DB.DSN != "" {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			return fmt.Errorf("bootstrap database: %w", err)
		}
		closers = append(closers, dbClient)
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return fmt.Errorf("run dev migrations: %w", err)
		}
		readiness = append(readiness, controllers.Dependency{Name: "db", Pinger: dbClient})
	}

	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		closers = append(closers, redisClient)
		readiness = append(readiness, controllers.Dependency{Name: "redis", Pinger: redisClient})
	}

	snapshots, err := snapshotStore(cfg, dbClient, redisClient)
	if err != nil {
		return err
	}

	backend, err := payflow.NewClient(cfg.Backend.BaseURL,
		payflow.WithTimeout(cfg.Backend.Timeout),
		payflow.WithToken(cfg.Backend.Token),
	)
	if err != nil {
		return fmt.Errorf("create payflow client: %w", err)
	}

	products, err := catalog.New(backend, cfg.Checkout.SeatColumns)
	if err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}

	registryParams := cart.RegistryParams{
		Namespace: cfg.Cart.Key,
		Snapshots: snapshots,
		Logger:    logg,
		Metrics:   checkoutMetrics,
		IdleTTL:   cfg.Cart.IdleTTL,
	}
	if cfg.Cart.EnforceStock {
		registryParams.Stock = products
	}
	carts, err := cart.NewRegistry(registryParams)
	if err != nil {
		return fmt.Errorf("create cart registry: %w", err)
	}
	go carts.Run(ctx, cfg.Cart.SweepInterval)

	adapter, err := orders.NewAdapter(backend)
	if err != nil {
		return fmt.Errorf("create order adapter: %w", err)
	}
	resolver, err := payments.NewResolver(payments.ResolverParams{
		Submitter: adapter,
		Logger:    logg,
		Metrics:   checkoutMetrics,
	})
	if err != nil {
		return fmt.Errorf("create payment resolver: %w", err)
	}

	serviceParams := checkout.ServiceParams{
		Catalog:     products,
		Carts:       carts,
		Resolver:    resolver,
		Calculator:  checkout.Calculator{ChargeMinimumOneSeat: cfg.Checkout.ChargeMinimumOneSeat},
		Logger:      logg,
		Metrics:     checkoutMetrics,
		DefaultNote: cfg.Checkout.DefaultNote,
	}
	eventsDep := controllers.Dependency{Name: "events"}
	if cfg.Events.Enabled {
		events, err := pubsub.NewClient(ctx, cfg.Events, logg)
		if err != nil {
			return fmt.Errorf("bootstrap pubsub: %w", err)
		}
		closers = append(closers, events)
		serviceParams.Publisher = events
		eventsDep.Pinger = events
	}
	readiness = append(readiness, eventsDep)

	checkoutService, err := checkout.NewService(serviceParams)
	if err != nil {
		return fmt.Errorf("create checkout service: %w", err)
	}

	routerParams := routes.RouterParams{
		Config:    cfg,
		Logger:    logg,
		Carts:     carts,
		Products:  products,
		Checkout:  checkoutService,
		Gatherer:  registry,
		Readiness: readiness,
	}
	if redisClient != nil {
		revocations, err := session.NewRevocations(redisClient)
		if err != nil {
			return fmt.Errorf("create session revocations: %w", err)
		}
		routerParams.Revocations = revocations
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"cart_backend": cfg.Cart.Normalized(),
		"events":       cfg.Events.Enabled,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(routerParams),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	return nil
}

func snapshotStore(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (cart.SnapshotStore, error) {
	switch cfg.Cart.Normalized() {
	case config.CartBackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis cart backend needs a redis connection")
		}
		store, err := cart.NewRedisSnapshotStore(redisClient, cfg.Cart.TTL)
		if err != nil {
			return nil, fmt.Errorf("create redis snapshot store: %w", err)
		}
		return store, nil
	case config.CartBackendSQL:
		if dbClient == nil {
			return nil, fmt.Errorf("sql cart backend needs a database")
		}
		store, err := cart.NewSQLSnapshotStore(dbClient.DB())
		if err != nil {
			return nil, fmt.Errorf("create sql snapshot store: %w", err)
		}
		return store, nil
	default:
		return cart.NewMemorySnapshotStore(), nil
	}
}
