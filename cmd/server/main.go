// Package main is the entry point for the goods-return API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"stockreturn/internal/config"
	"stockreturn/internal/core/tenant"
	"stockreturn/internal/domain/auth"
	"stockreturn/internal/domain/catalogs/inventory_item"
	"stockreturn/internal/domain/documents/goods_return"
	"stockreturn/internal/domain/registers/stock"
	"stockreturn/internal/infrastructure/cache"
	"stockreturn/internal/infrastructure/events"
	v1 "stockreturn/internal/infrastructure/http/v1"
	"stockreturn/internal/infrastructure/numerator"
	"stockreturn/internal/infrastructure/storage/postgres"
	"stockreturn/internal/infrastructure/storage/postgres/catalog_repo"
	"stockreturn/internal/infrastructure/storage/postgres/document_repo"
	"stockreturn/internal/infrastructure/storage/postgres/register_repo"
	"stockreturn/pkg/logger"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: !cfg.App.IsProduction(),
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting stockreturn server", "env", cfg.App.Env, "version", version)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.ApplicationName = cfg.App.Name
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	pool.LogStats(ctx)

	txManager := postgres.NewTxManager(pool)

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warnw("redis unavailable, company lookups fall through to postgres", "error", err)
	}

	// --- Companies ---
	companies := cache.NewCompanyCache(redisClient, tenant.NewPostgresRegistry(pool.Pool), cache.CompanyCacheConfig{
		TTL: cfg.Redis.CacheTTL,
	})
	invalidator := cache.NewInvalidator(pool.Pool, companies)
	invalidator.Start(ctx)
	defer invalidator.Stop()

	// --- Domain services ---
	auditService, err := postgres.NewAuditService(txManager, cfg.Audit.CompressThreshold)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}
	defer auditService.Close()

	stockService := stock.NewService(register_repo.NewStockRepo(txManager))
	itemRepo := catalog_repo.NewInventoryItemRepo(txManager)
	publisher := postgres.NewOutboxPublisher(txManager)

	numbers := goods_return.NewNumberGenerator(
		numerator.NewWithTxManager(txManager),
		companies,
		cfg.Numbering.Location(),
		cfg.Numbering.FallbackCode,
	)

	goodsReturns := goods_return.NewService(
		document_repo.NewGoodsReturnRepo(txManager),
		itemRepo,
		numbers,
		events.NewMovementRecorder(publisher),
		auditService,
		txManager,
		goods_return.Config{ApprovalRequired: cfg.Approval.Required},
	)
	inventory := inventory_item.NewService(itemRepo, stockService)

	// --- JWT ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	if cfg.JWT.Issuer != "" {
		jwtConfig.Issuer = cfg.JWT.Issuer
	}
	jwtConfig.AccessTokenTTL = cfg.JWT.TTL
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Outbox relay (optional, in-process) ---
	var wg sync.WaitGroup
	if cfg.Outbox.EmbeddedRelay {
		relay := postgres.NewOutboxRelay(txManager, events.NewRouter(stockService), postgres.RelayOptions{
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetries,
			Guard:      cache.NewGuard(redisClient, "stockreturn:outbox-relay", cfg.Outbox.LockTTL),
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Run(ctx, cfg.Outbox.PollInterval)
		}()
		log.Infow("embedded outbox relay started", "poll_interval", cfg.Outbox.PollInterval)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		Companies:    companies,
		JWTValidator: jwtService,
		Idempotency:  postgres.NewIdempotencyStore(txManager, cfg.HTTP.IdempotencyTTL),
		GoodsReturns: goodsReturns,
		Inventory:    inventory,
		History:      auditService,
		Movements:    stockService,
		Database:     pool,
		Redis:        redisClient,
		Version:      version,
		Debug:        !cfg.App.IsProduction(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	cancel()
	wg.Wait()
	log.Info("server stopped")
}
