// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockreturn/internal/core/apperror"
	"stockreturn/internal/core/id"
	"stockreturn/internal/domain/catalogs/inventory_item"
	"stockreturn/internal/infrastructure/storage/postgres"
)

const inventoryItemsTable = "inventory_items"

// levelColumns is what stock mutations return.
const levelColumns = "current_stock, available_stock, damaged_stock, total_value, " +
	"returned_damaged_total, returned_good_total, version"

// InventoryItemRepo implements inventory_item.Repository.
type InventoryItemRepo struct {
	txm        *postgres.TxManager
	selectCols []string
}

// NewInventoryItemRepo creates a new inventory item repository.
func NewInventoryItemRepo(txm *postgres.TxManager) *InventoryItemRepo {
	return &InventoryItemRepo{
		txm:        txm,
		selectCols: postgres.ExtractDBColumns[inventory_item.Item](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *InventoryItemRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetByID retrieves an item by ID.
func (r *InventoryItemRepo) GetByID(ctx context.Context, itemID id.ID) (*inventory_item.Item, error) {
	q := r.Builder().
		Select(r.selectCols...).
		From(inventoryItemsTable).
		Where(squirrel.Eq{"id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item inventory_item.Item
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory item", itemID.String())
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}

	return &item, nil
}

// applyReturnQuery decrements stock only while enough is on hand. SET
// expressions see the pre-update row, so every reference to current_stock
// below is the old value.
func (r *InventoryItemRepo) applyReturnQuery(companyID string, itemID id.ID, adj inventory_item.ReturnAdjustment) squirrel.UpdateBuilder {
	total := adj.Total()
	return r.Builder().
		Update(inventoryItemsTable).
		Set("current_stock", squirrel.Expr("current_stock - ?", total)).
		Set("available_stock", squirrel.Expr("GREATEST(current_stock - ? - reserved_stock, 0)", total)).
		Set("damaged_stock", squirrel.Expr("damaged_stock + ?", adj.Damaged)).
		Set("returned_damaged_total", squirrel.Expr("returned_damaged_total + ?", adj.Damaged)).
		Set("returned_good_total", squirrel.Expr("returned_good_total + ?", adj.Returned)).
		Set("total_value", squirrel.Expr("(current_stock - ?) * average_cost", total)).
		Set("last_stock_update", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": itemID, "company_id": companyID}).
		Where(squirrel.GtOrEq{"current_stock": total}).
		Suffix("RETURNING " + levelColumns)
}

// ApplyReturn atomically removes a return's quantity from stock.
func (r *InventoryItemRepo) ApplyReturn(ctx context.Context, companyID string, itemID id.ID, adj inventory_item.ReturnAdjustment) (*inventory_item.StockLevels, error) {
	sql, args, err := r.applyReturnQuery(companyID, itemID, adj).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	var levels inventory_item.StockLevels
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &levels, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, inventory_item.ErrInsufficientStock
		}
		return nil, fmt.Errorf("apply return to %s: %w", inventoryItemsTable, err)
	}

	return &levels, nil
}

func (r *InventoryItemRepo) reverseReturnQuery(companyID string, itemID id.ID, adj inventory_item.ReturnAdjustment) squirrel.UpdateBuilder {
	total := adj.Total()
	return r.Builder().
		Update(inventoryItemsTable).
		Set("current_stock", squirrel.Expr("current_stock + ?", total)).
		Set("available_stock", squirrel.Expr("GREATEST(current_stock + ? - reserved_stock, 0)", total)).
		Set("damaged_stock", squirrel.Expr("GREATEST(damaged_stock - ?, 0)", adj.Damaged)).
		Set("returned_damaged_total", squirrel.Expr("GREATEST(returned_damaged_total - ?, 0)", adj.Damaged)).
		Set("returned_good_total", squirrel.Expr("GREATEST(returned_good_total - ?, 0)", adj.Returned)).
		Set("total_value", squirrel.Expr("(current_stock + ?) * average_cost", total)).
		Set("last_stock_update", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": itemID, "company_id": companyID}).
		Suffix("RETURNING " + levelColumns)
}

// ReverseReturn puts a return's quantity back into stock.
func (r *InventoryItemRepo) ReverseReturn(ctx context.Context, companyID string, itemID id.ID, adj inventory_item.ReturnAdjustment) (*inventory_item.StockLevels, error) {
	sql, args, err := r.reverseReturnQuery(companyID, itemID, adj).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	var levels inventory_item.StockLevels
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &levels, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory item", itemID.String())
		}
		return nil, fmt.Errorf("reverse return on %s: %w", inventoryItemsTable, err)
	}

	return &levels, nil
}

var _ inventory_item.Repository = (*InventoryItemRepo)(nil)
