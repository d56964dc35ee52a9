package inventory_item

import (
	"context"

	"stockreturn/internal/core/id"
)

// Repository is the inventory item store.
type Repository interface {
	// GetByID loads an item regardless of owner so callers can tell
	// a missing item from a foreign one.
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)

	// ApplyReturn removes adj from current stock and adds it to the return
	// accumulators in one conditional statement. It fails with
	// ErrInsufficientStock, changing nothing, when current stock is below
	// adj.Total().
	ApplyReturn(ctx context.Context, companyID string, itemID id.ID, adj ReturnAdjustment) (*StockLevels, error)

	// ReverseReturn puts adj back into stock and takes it out of the
	// accumulators. Used when a return stops being active.
	ReverseReturn(ctx context.Context, companyID string, itemID id.ID, adj ReturnAdjustment) (*StockLevels, error)
}
