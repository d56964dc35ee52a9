// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"stockreturn/internal/config"
	"stockreturn/internal/core/id"
	"stockreturn/internal/core/tenant"
	"stockreturn/internal/domain/auth"
	"stockreturn/internal/infrastructure/storage/postgres"
	"stockreturn/pkg/logger"
)

type itemSeed struct {
	code        string
	name        string
	unit        string
	costPrice   *decimal.Decimal
	stock       int64
	averageCost decimal.Decimal
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.DSN))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	registry := tenant.NewPostgresRegistry(pool.Pool)
	txManager := postgres.NewTxManager(pool)
	bulk := postgres.NewBulk(txManager)

	company := &tenant.Tenant{Code: getEnv("SEED_COMPANY_CODE", "ACME"), Name: "Acme Trading"}
	if err := registry.Create(ctx, company); err != nil {
		log.Fatalw("failed to seed company", "error", err)
	}
	log.Infow("company ready", "company_id", company.ID, "code", company.Code)

	costPrice := decimal.NewFromInt(75)
	items := []itemSeed{
		{code: "ITM-001", name: "Ceramic mug", unit: "pcs", stock: 100, averageCost: decimal.NewFromInt(50)},
		{code: "ITM-002", name: "Steel kettle", unit: "pcs", costPrice: &costPrice, stock: 40, averageCost: decimal.NewFromInt(70)},
		{code: "ITM-003", name: "Paper napkins", unit: "pack", stock: 500},
	}

	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		n, err := bulk.ExecuteBatch(ctx, itemUpserts(company.ID, items))
		if err != nil {
			return err
		}
		log.Infow("demo items seeded", "inserted", n, "total", len(items))

		if count, _ := strconv.Atoi(os.Getenv("SEED_BULK_ITEMS")); count > 0 {
			copied, err := bulk.CopyFromSlice(ctx, "inventory_items", bulkColumns, bulkRows(company.ID, count))
			if err != nil {
				return err
			}
			log.Infow("bulk items loaded", "count", copied)
		}
		return nil
	})
	if err != nil {
		log.Fatalw("failed to seed items", "error", err)
	}

	ttl := cfg.JWT.TTL
	if v, err := time.ParseDuration(os.Getenv("SEED_TOKEN_TTL")); err == nil {
		ttl = v
	}
	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	if cfg.JWT.Issuer != "" {
		jwtConfig.Issuer = cfg.JWT.Issuer
	}
	token, expiresAt, err := auth.NewJWTService(jwtConfig).GenerateAccessToken(auth.TokenSubject{
		UserID:      "seed-admin",
		CompanyID:   company.ID,
		Email:       "admin@" + company.Code + ".local",
		Roles:       []string{"admin"},
		Permissions: auth.AllPermissions(),
	}, ttl)
	if err != nil {
		log.Fatalw("failed to issue dev token", "error", err)
	}

	log.Info("seeding completed successfully")
	fmt.Printf("\nX-Tenant-ID: %s\nAuthorization: Bearer %s\n(expires %s)\n",
		company.ID, token, expiresAt.Format(time.RFC3339))
}

func itemUpserts(companyID string, items []itemSeed) []postgres.BatchQuery {
	queries := make([]postgres.BatchQuery, 0, len(items))
	for _, it := range items {
		var cost any
		if it.costPrice != nil {
			cost = *it.costPrice
		}
		total := it.averageCost.Mul(decimal.NewFromInt(it.stock))
		queries = append(queries, postgres.BatchQuery{
			SQL: `
				INSERT INTO inventory_items (
					id, company_id, code, name, unit, cost_price,
					current_stock, available_stock, average_cost, total_value
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8, $9)
				ON CONFLICT (company_id, code) DO NOTHING
			`,
			Args: []any{id.New(), companyID, it.code, it.name, it.unit, cost, it.stock, it.averageCost, total},
		})
	}
	return queries
}

var bulkColumns = []string{
	"id", "company_id", "code", "name", "unit",
	"current_stock", "available_stock", "average_cost", "total_value",
}

func bulkRows(companyID string, count int) [][]any {
	// Codes carry a run stamp so repeated loads never collide.
	stamp := time.Now().UTC().Format("060102150405")
	rows := make([][]any, 0, count)
	for i := 1; i <= count; i++ {
		stock := int64(i%200 + 1)
		cost := decimal.NewFromInt(int64(i%90 + 10))
		rows = append(rows, []any{
			id.New(), companyID,
			fmt.Sprintf("BLK-%s-%05d", stamp, i),
			fmt.Sprintf("Bulk item %d", i), "pcs",
			stock, stock, numeric(cost), numeric(cost.Mul(decimal.NewFromInt(stock))),
		})
	}
	return rows
}

// numeric converts for COPY, which encodes every column in binary.
func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
