package goods_return

import (
	"context"
	"time"

	"stockreturn/internal/core/id"
	"stockreturn/internal/domain"
)

// Repository defines operations for goods return documents.
// Every read is scoped to a company.
type Repository interface {
	Create(ctx context.Context, doc *GoodsReturn) error
	GetByID(ctx context.Context, companyID string, docID id.ID) (*GoodsReturn, error)
	GetByNumber(ctx context.Context, companyID, number string) (*GoodsReturn, error)

	// GetForUpdate locks the row for the rest of the transaction.
	GetForUpdate(ctx context.Context, companyID string, docID id.ID) (*GoodsReturn, error)

	// UpdateState persists workflow fields. Fails with a concurrent
	// modification error when doc.Version is stale.
	UpdateState(ctx context.Context, doc *GoodsReturn) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*GoodsReturn], error)

	// ListActiveByChallan returns active returns against a challan,
	// newest return date first.
	ListActiveByChallan(ctx context.Context, companyID, challanNumber string) ([]*GoodsReturn, error)
}

// ListFilter for filtering goods returns.
type ListFilter struct {
	domain.ListFilter

	CompanyID       string
	States          []State
	Reasons         []ReturnReason
	ChallanNumber   string
	InventoryItemID *id.ID
	DateFrom        *time.Time
	// DateTo includes the whole calendar day it falls on.
	DateTo *time.Time
}

// SortFields maps accepted OrderBy names to columns.
var SortFields = map[string]string{
	"returnDate":   "return_date",
	"returnNumber": "return_number",
	"totalValue":   "total_value",
	"createdAt":    "created_at",
}
