package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"stockreturn/internal/core/entity"
	"stockreturn/internal/domain/catalogs/inventory_item"
	"stockreturn/internal/domain/registers/stock"
)

type InventoryItemResponse struct {
	ID                   string           `json:"id"`
	Code                 string           `json:"code"`
	Name                 string           `json:"name"`
	Unit                 string           `json:"unit,omitempty"`
	CostPrice            *decimal.Decimal `json:"costPrice,omitempty"`
	AverageCost          decimal.Decimal  `json:"averageCost"`
	CurrentStock         int64            `json:"currentStock"`
	AvailableStock       int64            `json:"availableStock"`
	ReservedStock        int64            `json:"reservedStock"`
	DamagedStock         int64            `json:"damagedStock"`
	TotalValue           decimal.Decimal  `json:"totalValue"`
	ReturnedDamagedTotal int64            `json:"returnedDamagedTotal"`
	ReturnedGoodTotal    int64            `json:"returnedGoodTotal"`
	LastStockUpdate      *time.Time       `json:"lastStockUpdate,omitempty"`
	Version              int              `json:"version"`
}

func FromInventoryItem(item *inventory_item.Item) InventoryItemResponse {
	resp := InventoryItemResponse{
		ID:                   item.ID.String(),
		Code:                 item.Code,
		Name:                 item.Name,
		Unit:                 item.Unit,
		AverageCost:          item.AverageCost,
		CurrentStock:         item.CurrentStock,
		AvailableStock:       item.AvailableStock,
		ReservedStock:        item.ReservedStock,
		DamagedStock:         item.DamagedStock,
		TotalValue:           item.TotalValue,
		ReturnedDamagedTotal: item.ReturnTotals.Damaged,
		ReturnedGoodTotal:    item.ReturnTotals.Returned,
		LastStockUpdate:      item.LastStockUpdate,
		Version:              item.Version,
	}
	if item.CostPrice.Valid {
		cp := item.CostPrice.Decimal
		resp.CostPrice = &cp
	}
	return resp
}

// MovementQuery holds movement history query parameters.
type MovementQuery struct {
	PageQuery
	RecordType string     `form:"recordType" binding:"omitempty,oneof=receipt expense"`
	FromDate   *time.Time `form:"fromDate" time_format:"2006-01-02"`
	ToDate     *time.Time `form:"toDate" time_format:"2006-01-02"`
}

func (q *MovementQuery) ToFilter() stock.MovementFilter {
	f := stock.MovementFilter{
		FromDate: q.FromDate,
		ToDate:   q.ToDate,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.RecordType != "" {
		rt := entity.RecordType(q.RecordType)
		f.RecordType = &rt
	}
	return f
}

type StockMovementResponse struct {
	LineID         string          `json:"lineId"`
	RecorderID     string          `json:"recorderId"`
	RecorderType   string          `json:"recorderType"`
	RecorderNumber string          `json:"recorderNumber"`
	Period         time.Time       `json:"period"`
	RecordType     string          `json:"recordType"`
	MovementType   string          `json:"movementType"`
	Quantity       int64           `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unitCost"`
	Amount         decimal.Decimal `json:"amount"`
	StockBefore    int64           `json:"stockBefore"`
	StockAfter     int64           `json:"stockAfter"`
	Remarks        string          `json:"remarks,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func FromStockMovements(movements []stock.StockMovement) []StockMovementResponse {
	out := make([]StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, StockMovementResponse{
			LineID:         m.LineID.String(),
			RecorderID:     m.RecorderID.String(),
			RecorderType:   m.RecorderType,
			RecorderNumber: m.RecorderNumber,
			Period:         m.Period,
			RecordType:     string(m.RecordType),
			MovementType:   string(m.MovementType),
			Quantity:       m.Quantity,
			UnitCost:       m.UnitCost,
			Amount:         m.Amount,
			StockBefore:    m.StockBefore,
			StockAfter:     m.StockAfter,
			Remarks:        m.Remarks,
			CreatedAt:      m.CreatedAt,
		})
	}
	return out
}
