// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockreturn/internal/core/id"
	"stockreturn/internal/domain/registers/stock"
	"stockreturn/internal/infrastructure/storage/postgres"
)

const stockMovementsTable = "reg_stock_movements"

var movementColumns = []string{
	"line_id", "recorder_id", "recorder_type", "recorder_number",
	"period", "record_type", "company_id", "inventory_item_id", "item_code",
	"movement_type", "quantity", "unit_cost", "amount",
	"stock_before", "stock_after", "remarks", "created_at",
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// insertMovementsQuery builds a multi-row insert that skips rows already
// recorded for the same recorder and record type.
func (r *StockRepo) insertMovementsQuery(movements []stock.StockMovement) squirrel.InsertBuilder {
	q := r.builder.Insert(stockMovementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(
			m.LineID, m.RecorderID, m.RecorderType, m.RecorderNumber,
			m.Period, m.RecordType, m.CompanyID, m.InventoryItemID, m.ItemCode,
			m.MovementType, m.Quantity, m.UnitCost, m.Amount,
			m.StockBefore, m.StockAfter, m.Remarks, m.CreatedAt,
		)
	}
	return q.Suffix("ON CONFLICT (recorder_id, record_type) DO NOTHING")
}

// CreateMovements inserts movements idempotently.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.StockMovement) (int64, error) {
	if len(movements) == 0 {
		return 0, nil
	}

	sql, args, err := r.insertMovementsQuery(movements).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("insert movements: %w", err)
	}

	return tag.RowsAffected(), nil
}

// GetMovementsByRecorder retrieves movements for a document.
func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]stock.StockMovement, error) {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.StockMovement
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("get movements: %w", err)
	}

	return movements, nil
}

func (r *StockRepo) listByItemQuery(companyID string, itemID id.ID, filter stock.MovementFilter) squirrel.SelectBuilder {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"company_id": companyID, "inventory_item_id": itemID})

	if filter.RecordType != nil {
		q = q.Where(squirrel.Eq{"record_type": *filter.RecordType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC", "line_id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

// ListByItem returns the movement history of one item, newest first.
func (r *StockRepo) ListByItem(ctx context.Context, companyID string, itemID id.ID, filter stock.MovementFilter) ([]stock.StockMovement, error) {
	sql, args, err := r.listByItemQuery(companyID, itemID, filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	movements := make([]stock.StockMovement, 0)
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	return movements, nil
}

var _ stock.Repository = (*StockRepo)(nil)
