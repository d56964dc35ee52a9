package goods_return

import (
	"stockreturn/internal/core/types"
)

// Valuation is the monetary side of a return, fixed at creation.
type Valuation struct {
	UnitCost      types.Money `json:"unitCost"`
	DamagedValue  types.Money `json:"damagedValue"`
	ReturnedValue types.Money `json:"returnedValue"`
	TotalValue    types.Money `json:"totalValue"`
}

// Value extends unitCost over the damaged and returned quantities.
// TotalValue is the sum of the two parts so the three always agree.
func Value(unitCost types.Money, damaged, returned int64) Valuation {
	damagedValue := types.Extend(unitCost, damaged)
	returnedValue := types.Extend(unitCost, returned)
	return Valuation{
		UnitCost:      unitCost,
		DamagedValue:  damagedValue,
		ReturnedValue: returnedValue,
		TotalValue:    damagedValue.Add(returnedValue),
	}
}
