package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/tradepost-backend/api/controllers"
	"github.com/angelmondragon/tradepost-backend/api/routes"
	"github.com/angelmondragon/tradepost-backend/internal/cargo"
	"github.com/angelmondragon/tradepost-backend/internal/inventory"
	"github.com/angelmondragon/tradepost-backend/internal/ledger"
	"github.com/angelmondragon/tradepost-backend/internal/locks"
	"github.com/angelmondragon/tradepost-backend/internal/reconcile"
	"github.com/angelmondragon/tradepost-backend/internal/trades"
	"github.com/angelmondragon/tradepost-backend/internal/users"
	"github.com/angelmondragon/tradepost-backend/pkg/config"
	"github.com/angelmondragon/tradepost-backend/pkg/db"
	"github.com/angelmondragon/tradepost-backend/pkg/logger"
	"github.com/angelmondragon/tradepost-backend/pkg/metrics"
	"github.com/angelmondragon/tradepost-backend/pkg/migrate"
	pkgredis "github.com/angelmondragon/tradepost-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	readiness := map[string]controllers.Pinger{"db": dbClient}

	var redisClient *pkgredis.Client
	var idempotencyStore pkgredis.IdempotencyStore
	if cfg.Redis.Enabled() {
		redisClient, err = pkgredis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		readiness["redis"] = redisClient
		idempotencyStore = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured; idempotency keys are ignored")
	}

	locker, err := buildLocker(cfg.Reconcile, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build locker", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reconcileMetrics := metrics.NewReconcileMetrics(registry)

	guard, err := reconcile.NewGuard(locker, reconcileMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create lock guard", err)
		os.Exit(1)
	}
	engine, err := reconcile.NewEngine(guard, reconcile.RetryPolicy{
		MaxRetries: cfg.Reconcile.MaxRetries,
		BaseDelay:  cfg.Reconcile.RetryBaseDelay,
	}, reconcileMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile engine", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	inventoryRepo := inventory.NewRepository(gormDB)
	tradeRepo := trades.NewRepository(gormDB)
	cargoRepo := cargo.NewRepository(gormDB, cfg.Reconcile.CargoTransit())

	journal, err := ledger.NewService(ledger.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	inventoryService, err := inventory.NewService(inventoryRepo, engine, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	tradeService, err := trades.NewService(tradeRepo, inventoryRepo, users.NewRepository(gormDB), journal, engine, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create trade service", err)
		os.Exit(1)
	}
	cargoService, err := cargo.NewService(cargoRepo, tradeRepo, journal, engine, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cargo service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"lock_backend": cfg.Reconcile.LockBackend,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, readiness, idempotencyStore, registry, routes.Services{
			Inventory: inventoryService,
			Trades:    tradeService,
			Cargo:     cargoService,
			Journal:   journal,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildLocker(cfg config.ReconcileConfig, redisClient *pkgredis.Client) (locks.Locker, error) {
	if strings.EqualFold(cfg.LockBackend, config.LockBackendRedis) {
		if redisClient == nil {
			return nil, errors.New("redis lock backend requires redis configuration")
		}
		locker, err := locks.NewRedisLocker(redisClient, locks.RedisOptions{
			TTL:          cfg.LockTTL,
			Wait:         cfg.LockWait,
			PollInterval: cfg.LockRetryInterval,
		})
		if err != nil {
			return nil, err
		}
		return locker, nil
	}
	return locks.NewLocalLocker(cfg.LockWait), nil
}
