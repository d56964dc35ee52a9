package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BatchQuery represents a query in a batch.
type BatchQuery struct {
	SQL  string
	Args []any
}

// Bulk runs COPY loads and pipelined batches on the transaction in ctx.
// Used by seeding and data migration tooling.
type Bulk struct {
	txManager *TxManager
}

// NewBulk creates a bulk writer.
func NewBulk(txManager *TxManager) *Bulk {
	return &Bulk{txManager: txManager}
}

// CopyFromSlice loads rows with the COPY protocol.
func (b *Bulk) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// ExecuteBatch executes multiple queries in a single round-trip and returns
// the total number of affected rows.
func (b *Bulk) ExecuteBatch(ctx context.Context, queries []BatchQuery) (int64, error) {
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("ExecuteBatch requires transaction context")
	}

	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	var affected int64
	for i := range queries {
		tag, err := results.Exec()
		if err != nil {
			return affected, fmt.Errorf("batch query %d failed: %w", i, err)
		}
		affected += tag.RowsAffected()
	}

	return affected, nil
}
