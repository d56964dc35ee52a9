// Package goods_return provides the GoodsReturn document: goods sent back
// against an outbound challan, split into damaged and re-stockable parts.
// Creating a return removes its quantity from the item's stock and records
// a valuation and a stock snapshot that never change afterwards.
package goods_return

import (
	"time"

	"stockreturn/internal/core/entity"
	"stockreturn/internal/core/id"
)

// ReturnReason classifies why goods came back.
type ReturnReason string

const (
	ReasonDamaged      ReturnReason = "damaged"
	ReasonDefective    ReturnReason = "defective"
	ReasonQualityIssue ReturnReason = "quality_issue"
	ReasonWrongItem    ReturnReason = "wrong_item"
	ReasonExpired      ReturnReason = "expired"
	ReasonOther        ReturnReason = "other"
)

// Reasons lists all accepted return reasons.
var Reasons = []ReturnReason{
	ReasonDamaged, ReasonDefective, ReasonQualityIssue,
	ReasonWrongItem, ReasonExpired, ReasonOther,
}

// IsValid reports whether r is a known reason.
func (r ReturnReason) IsValid() bool {
	for _, known := range Reasons {
		if r == known {
			return true
		}
	}
	return false
}

// StockImpact is the point-in-time stock ledger entry of a return.
type StockImpact struct {
	InventoryStockBefore int64 `json:"inventoryStockBefore"`
	InventoryStockAfter  int64 `json:"inventoryStockAfter"`
	DamagedStockBefore   int64 `json:"damagedStockBefore"`
	DamagedStockAfter    int64 `json:"damagedStockAfter"`
	ReturnedStockBefore  int64 `json:"returnedStockBefore"`
	ReturnedStockAfter   int64 `json:"returnedStockAfter"`
}

// Approval is the approval view of the workflow.
type Approval struct {
	Status  ApprovalStatus `json:"status"`
	By      string         `json:"by,omitempty"`
	At      *time.Time     `json:"at,omitempty"`
	Remarks string         `json:"remarks,omitempty"`
}

// GoodsReturn is a goods return document.
type GoodsReturn struct {
	entity.BaseDocument

	CompanyID    string    `json:"companyId"`
	ReturnNumber string    `json:"returnNumber"`
	ReturnDate   time.Time `json:"returnDate"`

	// Item snapshot taken at creation
	InventoryItemID id.ID  `json:"inventoryItemId"`
	ItemCode        string `json:"itemCode"`
	ItemName        string `json:"itemName"`
	Unit            string `json:"unit"`

	OriginalChallanNumber string     `json:"originalChallanNumber"`
	OriginalChallanDate   *time.Time `json:"originalChallanDate,omitempty"`

	DamagedQuantity  int64 `json:"damagedQuantity"`
	ReturnedQuantity int64 `json:"returnedQuantity"`
	TotalQuantity    int64 `json:"totalQuantity"`

	Valuation
	StockImpact StockImpact `json:"stockImpact"`

	ReturnReason      ReturnReason `json:"returnReason"`
	ReasonDetails     string       `json:"reasonDetails,omitempty"`
	BatchNumber       string       `json:"batchNumber,omitempty"`
	LotNumber         string       `json:"lotNumber,omitempty"`
	SupplierReference string       `json:"supplierReference,omitempty"`
	Remarks           string       `json:"remarks,omitempty"`

	// State is the canonical workflow state; Approval, ReturnStatus and
	// Status are read-only views derived from it.
	State        State          `json:"state"`
	Approval     Approval       `json:"approval"`
	ReturnStatus ReturnStatus   `json:"returnStatus"`
	Status       DocumentStatus `json:"status"`

	ProcessedAt        *time.Time `json:"processedAt,omitempty"`
	ProcessedBy        string     `json:"processedBy,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancelledBy        string     `json:"cancelledBy,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
}

// IsActive reports whether the return still counts against stock.
func (g *GoodsReturn) IsActive() bool {
	return g.State.IsActive()
}
