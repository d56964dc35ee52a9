// Package main is the entry point for the background worker: it relays the
// outbox and runs periodic housekeeping.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"stockreturn/internal/config"
	"stockreturn/internal/domain/registers/stock"
	"stockreturn/internal/infrastructure/cache"
	"stockreturn/internal/infrastructure/events"
	"stockreturn/internal/infrastructure/storage/postgres"
	"stockreturn/internal/infrastructure/storage/postgres/register_repo"
	"stockreturn/pkg/logger"
)

const housekeepingInterval = time.Hour

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
	ctx = logger.WithLogger(ctx, log.WithComponent("worker"))

	log.Info("starting stockreturn worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.ApplicationName = cfg.App.Name + "-worker"
	poolCfg.MaxConns = cfg.Database.MaxConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to database", "error", err)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	txManager := postgres.NewTxManager(pool)
	stockService := stock.NewService(register_repo.NewStockRepo(txManager))

	worker := &Worker{
		relay: postgres.NewOutboxRelay(txManager, events.NewRouter(stockService), postgres.RelayOptions{
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetries,
			Guard:      cache.NewGuard(redisClient, "stockreturn:outbox-relay", cfg.Outbox.LockTTL),
		}),
		housekeeping: cache.NewGuard(redisClient, "stockreturn:housekeeping", cfg.Outbox.LockTTL),
		idempotency:  postgres.NewIdempotencyStore(txManager, cfg.HTTP.IdempotencyTTL),
		pool:         pool,
		cfg:          cfg.Outbox,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker drives the outbox relay and periodic cleanup.
type Worker struct {
	relay        *postgres.OutboxRelay
	housekeeping *cache.Guard
	idempotency  *postgres.IdempotencyStore
	pool         *postgres.Pool
	cfg          config.OutboxConfig
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.relay.Run(ctx, w.cfg.PollInterval)
	}()

	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	w.cleanup(ctx)
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-ticker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	release, ok, err := w.housekeeping.TryAcquire(ctx)
	if err != nil {
		logger.Warn(ctx, "housekeeping lock failed", "error", err)
		return
	}
	if !ok {
		return
	}
	defer release()

	if moved, err := w.relay.MoveToDLQ(ctx); err != nil {
		logger.Error(ctx, "move outbox to DLQ failed", "error", err)
	} else if moved > 0 {
		logger.Warn(ctx, "outbox messages moved to DLQ", "count", moved)
	}

	if purged, err := w.relay.PurgePublished(ctx, w.cfg.Retention); err != nil {
		logger.Error(ctx, "purge published outbox failed", "error", err)
	} else if purged > 0 {
		logger.Info(ctx, "purged published outbox messages", "count", purged)
	}

	if expired, err := w.idempotency.CleanupExpired(ctx); err != nil {
		logger.Error(ctx, "idempotency cleanup failed", "error", err)
	} else if expired > 0 {
		logger.Info(ctx, "cleaned up idempotency keys", "count", expired)
	}

	w.pool.LogStats(ctx)
}
