package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"stockreturn/internal/core/id"
	"stockreturn/internal/domain/documents/goods_return"
	"stockreturn/internal/infrastructure/storage/postgres"
)

// --- Request DTOs ---

type CreateGoodsReturnRequest struct {
	InventoryItemID       string           `json:"inventoryItemId" binding:"required,uuid"`
	DamagedQuantity       int64            `json:"damagedQuantity" binding:"gte=0"`
	ReturnedQuantity      int64            `json:"returnedQuantity" binding:"gte=0"`
	UnitCost              *decimal.Decimal `json:"unitCost,omitempty"`
	OriginalChallanNumber string           `json:"originalChallanNumber" binding:"required,max=100"`
	OriginalChallanDate   *time.Time       `json:"originalChallanDate,omitempty"`
	ReturnDate            *time.Time       `json:"returnDate,omitempty"`
	ReturnReason          string           `json:"returnReason,omitempty" binding:"omitempty,return_reason"`
	ReasonDetails         string           `json:"reasonDetails,omitempty" binding:"max=1000"`
	BatchNumber           string           `json:"batchNumber,omitempty" binding:"max=100"`
	LotNumber             string           `json:"lotNumber,omitempty" binding:"max=100"`
	SupplierReference     string           `json:"supplierReference,omitempty" binding:"max=200"`
	Remarks               string           `json:"remarks,omitempty" binding:"max=2000"`
	ApprovalRequired      bool             `json:"approvalRequired,omitempty"`
}

// ToInput converts the request. The item id is validated by binding.
func (r *CreateGoodsReturnRequest) ToInput() goods_return.CreateInput {
	itemID, _ := id.Parse(r.InventoryItemID)
	return goods_return.CreateInput{
		InventoryItemID:       itemID,
		DamagedQuantity:       r.DamagedQuantity,
		ReturnedQuantity:      r.ReturnedQuantity,
		UnitCostOverride:      r.UnitCost,
		OriginalChallanNumber: r.OriginalChallanNumber,
		OriginalChallanDate:   r.OriginalChallanDate,
		ReturnDate:            r.ReturnDate,
		ReturnReason:          goods_return.ReturnReason(r.ReturnReason),
		ReasonDetails:         r.ReasonDetails,
		BatchNumber:           r.BatchNumber,
		LotNumber:             r.LotNumber,
		SupplierReference:     r.SupplierReference,
		Remarks:               r.Remarks,
		ApprovalRequired:      r.ApprovalRequired,
	}
}

// RemarksRequest is the body of approve and reject.
type RemarksRequest struct {
	Remarks string `json:"remarks,omitempty" binding:"max=1000"`
}

// CancelRequest is the body of cancel.
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// ListGoodsReturnsQuery holds list query parameters.
type ListGoodsReturnsQuery struct {
	PageQuery
	Search          string     `form:"search"`
	OrderBy         string     `form:"orderBy"`
	States          []string   `form:"state"`
	Reasons         []string   `form:"reason" binding:"omitempty,dive,return_reason"`
	ChallanNumber   string     `form:"challanNumber"`
	InventoryItemID string     `form:"inventoryItemId" binding:"omitempty,uuid"`
	DateFrom        *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo          *time.Time `form:"dateTo" time_format:"2006-01-02"`
}

// ToFilter converts the query into a repository filter.
func (q *ListGoodsReturnsQuery) ToFilter() goods_return.ListFilter {
	f := goods_return.ListFilter{
		ListFilter:    q.ToListFilter(q.Search, q.OrderBy),
		ChallanNumber: q.ChallanNumber,
		DateFrom:      q.DateFrom,
		DateTo:        q.DateTo,
	}
	for _, s := range q.States {
		f.States = append(f.States, goods_return.State(s))
	}
	for _, r := range q.Reasons {
		f.Reasons = append(f.Reasons, goods_return.ReturnReason(r))
	}
	if q.InventoryItemID != "" {
		itemID, _ := id.Parse(q.InventoryItemID)
		f.InventoryItemID = &itemID
	}
	return f
}

// --- Response DTOs ---

type ValuationResponse struct {
	UnitCost      decimal.Decimal `json:"unitCost"`
	DamagedValue  decimal.Decimal `json:"damagedValue"`
	ReturnedValue decimal.Decimal `json:"returnedValue"`
	TotalValue    decimal.Decimal `json:"totalValue"`
}

type GoodsReturnResponse struct {
	ID                    string                   `json:"id"`
	ReturnNumber          string                   `json:"returnNumber"`
	ReturnDate            time.Time                `json:"returnDate"`
	InventoryItemID       string                   `json:"inventoryItemId"`
	ItemCode              string                   `json:"itemCode"`
	ItemName              string                   `json:"itemName"`
	Unit                  string                   `json:"unit,omitempty"`
	OriginalChallanNumber string                   `json:"originalChallanNumber"`
	OriginalChallanDate   *time.Time               `json:"originalChallanDate,omitempty"`
	DamagedQuantity       int64                    `json:"damagedQuantity"`
	ReturnedQuantity      int64                    `json:"returnedQuantity"`
	TotalQuantity         int64                    `json:"totalQuantity"`
	Valuation             ValuationResponse        `json:"valuation"`
	StockImpact           goods_return.StockImpact `json:"stockImpact"`
	ReturnReason          string                   `json:"returnReason"`
	ReasonDetails         string                   `json:"reasonDetails,omitempty"`
	BatchNumber           string                   `json:"batchNumber,omitempty"`
	LotNumber             string                   `json:"lotNumber,omitempty"`
	SupplierReference     string                   `json:"supplierReference,omitempty"`
	Remarks               string                   `json:"remarks,omitempty"`
	State                 string                   `json:"state"`
	Approval              goods_return.Approval    `json:"approval"`
	ReturnStatus          string                   `json:"returnStatus"`
	Status                string                   `json:"status"`
	ProcessedAt           *time.Time               `json:"processedAt,omitempty"`
	ProcessedBy           string                   `json:"processedBy,omitempty"`
	CancelledAt           *time.Time               `json:"cancelledAt,omitempty"`
	CancelledBy           string                   `json:"cancelledBy,omitempty"`
	CancellationReason    string                   `json:"cancellationReason,omitempty"`
	Version               int                      `json:"version"`
	CreatedAt             time.Time                `json:"createdAt"`
	CreatedBy             string                   `json:"createdBy,omitempty"`
	UpdatedAt             time.Time                `json:"updatedAt"`
	UpdatedBy             string                   `json:"updatedBy,omitempty"`
}

func FromGoodsReturn(doc *goods_return.GoodsReturn) GoodsReturnResponse {
	return GoodsReturnResponse{
		ID:                    doc.ID.String(),
		ReturnNumber:          doc.ReturnNumber,
		ReturnDate:            doc.ReturnDate,
		InventoryItemID:       doc.InventoryItemID.String(),
		ItemCode:              doc.ItemCode,
		ItemName:              doc.ItemName,
		Unit:                  doc.Unit,
		OriginalChallanNumber: doc.OriginalChallanNumber,
		OriginalChallanDate:   doc.OriginalChallanDate,
		DamagedQuantity:       doc.DamagedQuantity,
		ReturnedQuantity:      doc.ReturnedQuantity,
		TotalQuantity:         doc.TotalQuantity,
		Valuation: ValuationResponse{
			UnitCost:      doc.UnitCost,
			DamagedValue:  doc.DamagedValue,
			ReturnedValue: doc.ReturnedValue,
			TotalValue:    doc.TotalValue,
		},
		StockImpact:        doc.StockImpact,
		ReturnReason:       string(doc.ReturnReason),
		ReasonDetails:      doc.ReasonDetails,
		BatchNumber:        doc.BatchNumber,
		LotNumber:          doc.LotNumber,
		SupplierReference:  doc.SupplierReference,
		Remarks:            doc.Remarks,
		State:              string(doc.State),
		Approval:           doc.Approval,
		ReturnStatus:       string(doc.ReturnStatus),
		Status:             string(doc.Status),
		ProcessedAt:        doc.ProcessedAt,
		ProcessedBy:        doc.ProcessedBy,
		CancelledAt:        doc.CancelledAt,
		CancelledBy:        doc.CancelledBy,
		CancellationReason: doc.CancellationReason,
		Version:            doc.Version,
		CreatedAt:          doc.CreatedAt,
		CreatedBy:          doc.CreatedBy,
		UpdatedAt:          doc.UpdatedAt,
		UpdatedBy:          doc.UpdatedBy,
	}
}

func FromGoodsReturns(docs []*goods_return.GoodsReturn) []GoodsReturnResponse {
	out := make([]GoodsReturnResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromGoodsReturn(d))
	}
	return out
}

type ChallanSummaryResponse struct {
	ChallanNumber string                `json:"challanNumber"`
	Returns       []GoodsReturnResponse `json:"returns"`
	Summary       goods_return.Summary  `json:"summary"`
}

func FromChallanReturns(r *goods_return.ChallanReturns) ChallanSummaryResponse {
	return ChallanSummaryResponse{
		ChallanNumber: r.ChallanNumber,
		Returns:       FromGoodsReturns(r.Returns),
		Summary:       r.Summary,
	}
}

// HistoryQuery limits the audit trail of a return.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// AuditEntryResponse is one change of a return.
type AuditEntryResponse struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	UserID    string          `json:"userId,omitempty"`
	Changes   json.RawMessage `json:"changes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func FromAuditEntries(entries []postgres.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:        e.ID.String(),
			Action:    string(e.Action),
			UserID:    e.UserID,
			Changes:   e.Changes,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
