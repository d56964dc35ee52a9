// Package inventory_item is the read-modify-write view of inventory items
// that goods returns consume. Items are owned by the inventory subsystem;
// this package only touches their stock sub-record.
package inventory_item

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"stockreturn/internal/core/id"
	"stockreturn/internal/core/types"
)

// ErrInsufficientStock is returned by the store when a conditional
// decrement finds less stock than requested.
var ErrInsufficientStock = errors.New("insufficient stock")

// Stock is the mutable stock sub-record of an item.
type Stock struct {
	CurrentStock    int64       `db:"current_stock" json:"currentStock"`
	AvailableStock  int64       `db:"available_stock" json:"availableStock"`
	ReservedStock   int64       `db:"reserved_stock" json:"reservedStock"`
	DamagedStock    int64       `db:"damaged_stock" json:"damagedStock"`
	AverageCost     types.Money `db:"average_cost" json:"averageCost"`
	TotalValue      types.Money `db:"total_value" json:"totalValue"`
	LastStockUpdate *time.Time  `db:"last_stock_update" json:"lastStockUpdate,omitempty"`
}

// ReturnTotals are the running goods-return accumulators cached on the item.
// They equal the sums over all active returns for the item.
type ReturnTotals struct {
	Damaged  int64 `db:"returned_damaged_total" json:"damaged"`
	Returned int64 `db:"returned_good_total" json:"returned"`
}

// Item is an inventory item as seen by the return engine.
type Item struct {
	ID        id.ID               `db:"id" json:"id"`
	CompanyID string              `db:"company_id" json:"companyId"`
	Code      string              `db:"code" json:"code"`
	Name      string              `db:"name" json:"name"`
	Unit      string              `db:"unit" json:"unit"`
	CostPrice decimal.NullDecimal `db:"cost_price" json:"costPrice"`

	Stock        `json:"stock"`
	ReturnTotals `json:"returnTotals"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// BelongsTo reports whether the item is owned by the company.
func (i *Item) BelongsTo(companyID string) bool {
	return i.CompanyID == companyID
}

// ResolveUnitCost picks the valuation cost for a return: the first positive
// value of override, configured cost price, average cost; zero otherwise.
func (i *Item) ResolveUnitCost(override *types.Money) types.Money {
	if override != nil && override.IsPositive() {
		return *override
	}
	if i.CostPrice.Valid && i.CostPrice.Decimal.IsPositive() {
		return i.CostPrice.Decimal
	}
	if i.AverageCost.IsPositive() {
		return i.AverageCost
	}
	return types.Zero()
}

// ReturnAdjustment is the quantity pair a goods return removes from stock.
type ReturnAdjustment struct {
	Damaged  int64
	Returned int64
}

// Total is the quantity leaving current stock.
func (a ReturnAdjustment) Total() int64 {
	return a.Damaged + a.Returned
}

// StockLevels is the item state after a stock mutation.
type StockLevels struct {
	CurrentStock   int64       `db:"current_stock"`
	AvailableStock int64       `db:"available_stock"`
	DamagedStock   int64       `db:"damaged_stock"`
	TotalValue     types.Money `db:"total_value"`
	ReturnTotals
	Version int `db:"version"`
}

// Before reconstructs the levels that held right before adj was applied.
func (l StockLevels) Before(adj ReturnAdjustment) (stock, damaged, returned int64) {
	return l.CurrentStock + adj.Total(), l.Damaged - adj.Damaged, l.Returned - adj.Returned
}
