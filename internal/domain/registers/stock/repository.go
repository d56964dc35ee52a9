package stock

import (
	"context"
	"time"

	"stockreturn/internal/core/entity"
	"stockreturn/internal/core/id"
)

// Repository defines operations for the stock register.
type Repository interface {
	// CreateMovements inserts movements. A movement whose recorder already
	// has a row of the same record type is skipped, so redelivery is safe.
	// Returns the number of rows actually inserted.
	CreateMovements(ctx context.Context, movements []StockMovement) (int64, error)

	// GetMovementsByRecorder retrieves all movements for a document
	GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]StockMovement, error)

	// ListByItem returns movement history for an item, newest first.
	ListByItem(ctx context.Context, companyID string, itemID id.ID, filter MovementFilter) ([]StockMovement, error)
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	RecordType *entity.RecordType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
