package goods_return

import (
	"strings"
	"time"

	"stockreturn/internal/core/apperror"
	"stockreturn/internal/core/id"
	"stockreturn/internal/core/types"
)

// CreateInput carries the caller's part of a new return.
// Company and actor come from the request context.
type CreateInput struct {
	InventoryItemID  id.ID
	DamagedQuantity  int64
	ReturnedQuantity int64

	// UnitCostOverride wins over the item's cost when positive.
	UnitCostOverride *types.Money

	OriginalChallanNumber string
	OriginalChallanDate   *time.Time

	// ReturnDate defaults to now.
	ReturnDate *time.Time

	ReturnReason      ReturnReason
	ReasonDetails     string
	BatchNumber       string
	LotNumber         string
	SupplierReference string
	Remarks           string

	// ApprovalRequired forces the pending_approval state.
	ApprovalRequired bool
}

// TotalQuantity is the quantity leaving stock.
func (in CreateInput) TotalQuantity() int64 {
	return in.DamagedQuantity + in.ReturnedQuantity
}

// Validate checks the input without touching storage.
func (in *CreateInput) Validate() error {
	if id.IsNil(in.InventoryItemID) {
		return apperror.NewValidation("inventory item is required").
			WithDetail("field", "inventoryItemId")
	}
	if in.DamagedQuantity < 0 {
		return apperror.NewValidation("damaged quantity cannot be negative").
			WithDetail("field", "damagedQuantity")
	}
	if in.ReturnedQuantity < 0 {
		return apperror.NewValidation("returned quantity cannot be negative").
			WithDetail("field", "returnedQuantity")
	}
	if in.TotalQuantity() <= 0 {
		return apperror.NewValidation("total quantity must be greater than 0").
			WithDetail("field", "totalQuantity")
	}

	in.OriginalChallanNumber = strings.TrimSpace(in.OriginalChallanNumber)
	if in.OriginalChallanNumber == "" {
		return apperror.NewValidation("original challan number is required").
			WithDetail("field", "originalChallanNumber")
	}

	if in.ReturnReason == "" {
		in.ReturnReason = ReasonDamaged
	}
	if !in.ReturnReason.IsValid() {
		return apperror.NewValidation("unknown return reason").
			WithDetail("field", "returnReason").
			WithDetail("value", string(in.ReturnReason))
	}

	if in.UnitCostOverride != nil && in.UnitCostOverride.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}

	return nil
}
