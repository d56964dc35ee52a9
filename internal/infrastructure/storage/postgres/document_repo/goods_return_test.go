package document_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockreturn/internal/core/apperror"
	"stockreturn/internal/core/entity"
	"stockreturn/internal/core/id"
	"stockreturn/internal/core/types"
	"stockreturn/internal/domain"
	"stockreturn/internal/domain/documents/goods_return"
	"stockreturn/internal/infrastructure/storage/postgres"
)

func sampleReturn() *goods_return.GoodsReturn {
	approvedAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	doc := &goods_return.GoodsReturn{
		BaseDocument:          entity.NewBaseDocument("user-1"),
		CompanyID:             "company-1",
		ReturnNumber:          "GR-ACME-20240115-0001",
		ReturnDate:            approvedAt,
		InventoryItemID:       id.New(),
		ItemCode:              "ITM-001",
		ItemName:              "Widget",
		Unit:                  "pcs",
		OriginalChallanNumber: "CH-2024-001",
		DamagedQuantity:       10,
		ReturnedQuantity:      5,
		TotalQuantity:         15,
		Valuation:             goods_return.Value(types.MustMoney("50"), 10, 5),
		StockImpact: goods_return.StockImpact{
			InventoryStockBefore: 100, InventoryStockAfter: 85,
			DamagedStockBefore: 0, DamagedStockAfter: 10,
			ReturnedStockBefore: 0, ReturnedStockAfter: 5,
		},
		ReturnReason: goods_return.ReasonDamaged,
		State:        goods_return.StateApproved,
		Approval:     goods_return.Approval{By: "user-1", At: &approvedAt},
	}
	doc.SyncViews()
	return doc
}

func TestGoodsReturnRow_RoundTrip(t *testing.T) {
	doc := sampleReturn()

	row := toRow(doc)
	back := row.toDomain()

	assert.Equal(t, doc, back)
}

func TestGoodsReturnRow_ColumnsMatchInsert(t *testing.T) {
	cols := postgres.ExtractDBColumns[goodsReturnRow]()
	values := postgres.StructToMap(toRow(sampleReturn()))

	assert.Len(t, values, len(cols))
	for _, col := range []string{
		"return_number", "inventory_stock_before", "returned_stock_after",
		"total_value", "state", "approved_at", "version",
	} {
		assert.Contains(t, cols, col)
		assert.Contains(t, values, col)
	}
}

func TestFilteredSelect(t *testing.T) {
	repo := NewGoodsReturnRepo(nil)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	q := repo.filteredSelect(goods_return.ListFilter{
		ListFilter:    domain.ListFilter{Search: "ITM"},
		CompanyID:     "company-1",
		States:        []goods_return.State{goods_return.StateApproved, goods_return.StateProcessed},
		ChallanNumber: "CH-1",
		DateFrom:      &from,
	})
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM doc_goods_returns WHERE company_id = $1")
	assert.Contains(t, sql, "state IN ($2,$3)")
	assert.Contains(t, sql, "original_challan_number = $4")
	assert.Contains(t, sql, "return_date >= $5")
	assert.Contains(t, sql, "(return_number ILIKE $6 OR item_code ILIKE $7 OR item_name ILIKE $8 OR original_challan_number ILIKE $9)")
	assert.Equal(t, "company-1", args[0])
	assert.Equal(t, "%ITM%", args[5])
}

func TestFilteredSelect_DateToCoversWholeDay(t *testing.T) {
	repo := NewGoodsReturnRepo(nil)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	sql, args, err := repo.filteredSelect(goods_return.ListFilter{
		CompanyID: "company-1",
		DateTo:    &to,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "return_date < $2")
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), args[1])
}

func TestFilteredSelect_EscapesSearchWildcards(t *testing.T) {
	repo := NewGoodsReturnRepo(nil)

	_, args, err := repo.filteredSelect(goods_return.ListFilter{
		ListFilter: domain.ListFilter{Search: `50%_off\x`},
		CompanyID:  "company-1",
	}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, `%50\%\_off\\x%`, args[1])
	assert.Equal(t, args[1], args[4])
}

func TestActiveByChallanQuery(t *testing.T) {
	repo := NewGoodsReturnRepo(nil)

	sql, args, err := repo.activeByChallanQuery("company-1", "CH-1").ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE company_id = $1 AND original_challan_number = $2 AND state IN ($3,$4,$5)")
	assert.Contains(t, sql, "ORDER BY return_date DESC, return_number DESC")
	assert.Equal(t, []any{"company-1", "CH-1", "pending_approval", "approved", "processed"}, args)
}

func TestUpdateStateQuery_ChecksVersion(t *testing.T) {
	repo := NewGoodsReturnRepo(nil)
	doc := sampleReturn()
	doc.Version = 3

	sql, args, err := repo.updateStateQuery(doc).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "WHERE company_id = $")
	assert.Contains(t, sql, "AND version = $")
	assert.Equal(t, 3, args[len(args)-1])
}

func TestParseOrderBy(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", defaultGoodsReturnsOrder, false},
		{"returnDate", "return_date ASC", false},
		{"-totalValue", "total_value DESC", false},
		{"+returnNumber", "return_number ASC", false},
		{"itemName", "", true},
		{"-return_date; DROP TABLE x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOrderBy(tt.in, defaultGoodsReturnsOrder, goods_return.SortFields)
			if tt.wantErr {
				assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
