// Package stock provides the stock movement register: an append-only audit
// trail of quantity changes against inventory items.
package stock

import (
	"time"

	"stockreturn/internal/core/entity"
	"stockreturn/internal/core/id"
	"stockreturn/internal/core/types"
)

// MovementType classifies what caused a movement.
type MovementType string

const (
	MovementTypeGoodsReturn MovementType = "goods_return"
)

// Outbox routing for movements recorded as a follow-up of a document.
const (
	AggregateGoodsReturn   = "goods_return"
	EventMovementRequested = "stock.movement_requested"
)

// StockMovement is one row of the register.
type StockMovement struct {
	entity.MovementBase

	CompanyID       string       `db:"company_id" json:"companyId"`
	InventoryItemID id.ID        `db:"inventory_item_id" json:"inventoryItemId"`
	ItemCode        string       `db:"item_code" json:"itemCode"`
	MovementType    MovementType `db:"movement_type" json:"movementType"`

	Quantity int64       `db:"quantity" json:"quantity"`
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
	Amount   types.Money `db:"amount" json:"amount"`

	StockBefore int64  `db:"stock_before" json:"stockBefore"`
	StockAfter  int64  `db:"stock_after" json:"stockAfter"`
	Remarks     string `db:"remarks" json:"remarks,omitempty"`
}

// NewGoodsReturnMovement builds the outward movement for the damaged part of
// a goods return.
func NewGoodsReturnMovement(
	returnID id.ID,
	returnNumber string,
	period time.Time,
	companyID string,
	itemID id.ID,
	itemCode string,
	quantity int64,
	unitCost types.Money,
	stockBefore, stockAfter int64,
) StockMovement {
	m := newReturnMovement(returnID, returnNumber, period, entity.RecordTypeExpense,
		companyID, itemID, itemCode, quantity, unitCost, stockBefore, stockAfter)
	m.Remarks = "Goods return " + returnNumber
	return m
}

// NewGoodsReturnReversal builds the inward movement written when a return
// with damaged goods is cancelled or rejected.
func NewGoodsReturnReversal(
	returnID id.ID,
	returnNumber string,
	period time.Time,
	companyID string,
	itemID id.ID,
	itemCode string,
	quantity int64,
	unitCost types.Money,
	stockBefore, stockAfter int64,
) StockMovement {
	m := newReturnMovement(returnID, returnNumber, period, entity.RecordTypeReceipt,
		companyID, itemID, itemCode, quantity, unitCost, stockBefore, stockAfter)
	m.Remarks = "Goods return reversed " + returnNumber
	return m
}

func newReturnMovement(
	returnID id.ID,
	returnNumber string,
	period time.Time,
	recordType entity.RecordType,
	companyID string,
	itemID id.ID,
	itemCode string,
	quantity int64,
	unitCost types.Money,
	stockBefore, stockAfter int64,
) StockMovement {
	return StockMovement{
		MovementBase:    entity.NewMovementBase(returnID, AggregateGoodsReturn, returnNumber, period, recordType),
		CompanyID:       companyID,
		InventoryItemID: itemID,
		ItemCode:        itemCode,
		MovementType:    MovementTypeGoodsReturn,
		Quantity:        quantity,
		UnitCost:        unitCost,
		Amount:          types.Extend(unitCost, quantity),
		StockBefore:     stockBefore,
		StockAfter:      stockAfter,
	}
}

// SignedQuantity returns quantity with sign based on record type.
// Receipt = positive, Expense = negative.
func (m *StockMovement) SignedQuantity() int64 {
	if m.RecordType == entity.RecordTypeExpense {
		return -m.Quantity
	}
	return m.Quantity
}
