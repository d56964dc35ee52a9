package goods_return

import (
	"cmp"
	"slices"

	"stockreturn/internal/core/types"
)

// Summary aggregates a set of returns.
type Summary struct {
	TotalReturns          int         `json:"totalReturns"`
	TotalDamagedQuantity  int64       `json:"totalDamagedQuantity"`
	TotalReturnedQuantity int64       `json:"totalReturnedQuantity"`
	TotalValue            types.Money `json:"totalValue"`
}

// ChallanReturns is the challan return summary.
type ChallanReturns struct {
	ChallanNumber string         `json:"challanNumber"`
	Returns       []*GoodsReturn `json:"returns"`
	Summary       Summary        `json:"summary"`
}

// Summarize folds the active returns of the slice.
func Summarize(returns []*GoodsReturn) Summary {
	s := Summary{TotalValue: types.Zero()}
	for _, r := range returns {
		if !r.IsActive() {
			continue
		}
		s.TotalReturns++
		s.TotalDamagedQuantity += r.DamagedQuantity
		s.TotalReturnedQuantity += r.ReturnedQuantity
		s.TotalValue = s.TotalValue.Add(r.TotalValue)
	}
	return s
}

// activeByDateDesc keeps active returns ordered newest first.
// Ties are broken by return number so the order is stable between calls.
func activeByDateDesc(returns []*GoodsReturn) []*GoodsReturn {
	out := make([]*GoodsReturn, 0, len(returns))
	for _, r := range returns {
		if r.IsActive() {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b *GoodsReturn) int {
		if c := b.ReturnDate.Compare(a.ReturnDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ReturnNumber, a.ReturnNumber)
	})
	return out
}
