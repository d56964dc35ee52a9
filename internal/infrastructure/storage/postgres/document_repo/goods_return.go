package document_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockreturn/internal/core/apperror"
	"stockreturn/internal/core/id"
	"stockreturn/internal/core/types"
	"stockreturn/internal/domain"
	"stockreturn/internal/domain/documents/goods_return"
	"stockreturn/internal/infrastructure/storage/postgres"
)

const (
	goodsReturnsTable        = "doc_goods_returns"
	goodsReturnNumberUnique  = "doc_goods_returns_company_number_key"
	defaultGoodsReturnsOrder = "return_date DESC"
)

// likeEscaper escapes LIKE wildcards with the default backslash escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// goodsReturnRow is the flat storage shape of a goods return.
type goodsReturnRow struct {
	ID        id.ID     `db:"id"`
	Version   int       `db:"version"`
	CompanyID string    `db:"company_id"`
	Number    string    `db:"return_number"`
	Date      time.Time `db:"return_date"`

	InventoryItemID id.ID  `db:"inventory_item_id"`
	ItemCode        string `db:"item_code"`
	ItemName        string `db:"item_name"`
	Unit            string `db:"unit"`

	ChallanNumber string     `db:"original_challan_number"`
	ChallanDate   *time.Time `db:"original_challan_date"`

	DamagedQuantity  int64 `db:"damaged_quantity"`
	ReturnedQuantity int64 `db:"returned_quantity"`
	TotalQuantity    int64 `db:"total_quantity"`

	UnitCost      types.Money `db:"unit_cost"`
	DamagedValue  types.Money `db:"damaged_value"`
	ReturnedValue types.Money `db:"returned_value"`
	TotalValue    types.Money `db:"total_value"`

	InventoryStockBefore int64 `db:"inventory_stock_before"`
	InventoryStockAfter  int64 `db:"inventory_stock_after"`
	DamagedStockBefore   int64 `db:"damaged_stock_before"`
	DamagedStockAfter    int64 `db:"damaged_stock_after"`
	ReturnedStockBefore  int64 `db:"returned_stock_before"`
	ReturnedStockAfter   int64 `db:"returned_stock_after"`

	ReturnReason      string `db:"return_reason"`
	ReasonDetails     string `db:"reason_details"`
	BatchNumber       string `db:"batch_number"`
	LotNumber         string `db:"lot_number"`
	SupplierReference string `db:"supplier_reference"`
	Remarks           string `db:"remarks"`

	State           string     `db:"state"`
	ApprovedBy      string     `db:"approved_by"`
	ApprovedAt      *time.Time `db:"approved_at"`
	ApprovalRemarks string     `db:"approval_remarks"`

	ProcessedAt        *time.Time `db:"processed_at"`
	ProcessedBy        string     `db:"processed_by"`
	CancelledAt        *time.Time `db:"cancelled_at"`
	CancelledBy        string     `db:"cancelled_by"`
	CancellationReason string     `db:"cancellation_reason"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	CreatedBy string    `db:"created_by"`
	UpdatedBy string    `db:"updated_by"`
}

func toRow(doc *goods_return.GoodsReturn) goodsReturnRow {
	return goodsReturnRow{
		ID:                   doc.ID,
		Version:              doc.Version,
		CompanyID:            doc.CompanyID,
		Number:               doc.ReturnNumber,
		Date:                 doc.ReturnDate,
		InventoryItemID:      doc.InventoryItemID,
		ItemCode:             doc.ItemCode,
		ItemName:             doc.ItemName,
		Unit:                 doc.Unit,
		ChallanNumber:        doc.OriginalChallanNumber,
		ChallanDate:          doc.OriginalChallanDate,
		DamagedQuantity:      doc.DamagedQuantity,
		ReturnedQuantity:     doc.ReturnedQuantity,
		TotalQuantity:        doc.TotalQuantity,
		UnitCost:             doc.UnitCost,
		DamagedValue:         doc.DamagedValue,
		ReturnedValue:        doc.ReturnedValue,
		TotalValue:           doc.TotalValue,
		InventoryStockBefore: doc.StockImpact.InventoryStockBefore,
		InventoryStockAfter:  doc.StockImpact.InventoryStockAfter,
		DamagedStockBefore:   doc.StockImpact.DamagedStockBefore,
		DamagedStockAfter:    doc.StockImpact.DamagedStockAfter,
		ReturnedStockBefore:  doc.StockImpact.ReturnedStockBefore,
		ReturnedStockAfter:   doc.StockImpact.ReturnedStockAfter,
		ReturnReason:         string(doc.ReturnReason),
		ReasonDetails:        doc.ReasonDetails,
		BatchNumber:          doc.BatchNumber,
		LotNumber:            doc.LotNumber,
		SupplierReference:    doc.SupplierReference,
		Remarks:              doc.Remarks,
		State:                string(doc.State),
		ApprovedBy:           doc.Approval.By,
		ApprovedAt:           doc.Approval.At,
		ApprovalRemarks:      doc.Approval.Remarks,
		ProcessedAt:          doc.ProcessedAt,
		ProcessedBy:          doc.ProcessedBy,
		CancelledAt:          doc.CancelledAt,
		CancelledBy:          doc.CancelledBy,
		CancellationReason:   doc.CancellationReason,
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
		CreatedBy:            doc.CreatedBy,
		UpdatedBy:            doc.UpdatedBy,
	}
}

func (row *goodsReturnRow) toDomain() *goods_return.GoodsReturn {
	doc := &goods_return.GoodsReturn{
		CompanyID:             row.CompanyID,
		ReturnNumber:          row.Number,
		ReturnDate:            row.Date,
		InventoryItemID:       row.InventoryItemID,
		ItemCode:              row.ItemCode,
		ItemName:              row.ItemName,
		Unit:                  row.Unit,
		OriginalChallanNumber: row.ChallanNumber,
		OriginalChallanDate:   row.ChallanDate,
		DamagedQuantity:       row.DamagedQuantity,
		ReturnedQuantity:      row.ReturnedQuantity,
		TotalQuantity:         row.TotalQuantity,
		Valuation: goods_return.Valuation{
			UnitCost:      row.UnitCost,
			DamagedValue:  row.DamagedValue,
			ReturnedValue: row.ReturnedValue,
			TotalValue:    row.TotalValue,
		},
		StockImpact: goods_return.StockImpact{
			InventoryStockBefore: row.InventoryStockBefore,
			InventoryStockAfter:  row.InventoryStockAfter,
			DamagedStockBefore:   row.DamagedStockBefore,
			DamagedStockAfter:    row.DamagedStockAfter,
			ReturnedStockBefore:  row.ReturnedStockBefore,
			ReturnedStockAfter:   row.ReturnedStockAfter,
		},
		ReturnReason:      goods_return.ReturnReason(row.ReturnReason),
		ReasonDetails:     row.ReasonDetails,
		BatchNumber:       row.BatchNumber,
		LotNumber:         row.LotNumber,
		SupplierReference: row.SupplierReference,
		Remarks:           row.Remarks,
		State:             goods_return.State(row.State),
		Approval: goods_return.Approval{
			By:      row.ApprovedBy,
			At:      row.ApprovedAt,
			Remarks: row.ApprovalRemarks,
		},
		ProcessedAt:        row.ProcessedAt,
		ProcessedBy:        row.ProcessedBy,
		CancelledAt:        row.CancelledAt,
		CancelledBy:        row.CancelledBy,
		CancellationReason: row.CancellationReason,
	}
	doc.ID = row.ID
	doc.Version = row.Version
	doc.CreatedAt = row.CreatedAt
	doc.UpdatedAt = row.UpdatedAt
	doc.CreatedBy = row.CreatedBy
	doc.UpdatedBy = row.UpdatedBy
	doc.SyncViews()
	return doc
}

// GoodsReturnRepo implements goods_return.Repository.
type GoodsReturnRepo struct {
	txm        *postgres.TxManager
	selectCols []string
}

// NewGoodsReturnRepo creates a new goods return repository.
func NewGoodsReturnRepo(txm *postgres.TxManager) *GoodsReturnRepo {
	return &GoodsReturnRepo{
		txm:        txm,
		selectCols: postgres.ExtractDBColumns[goodsReturnRow](),
	}
}

func (r *GoodsReturnRepo) baseSelect(companyID string) squirrel.SelectBuilder {
	return builder().
		Select(r.selectCols...).
		From(goodsReturnsTable).
		Where(squirrel.Eq{"company_id": companyID})
}

// Create inserts a new goods return.
func (r *GoodsReturnRepo) Create(ctx context.Context, doc *goods_return.GoodsReturn) error {
	q := builder().
		Insert(goodsReturnsTable).
		SetMap(postgres.StructToMap(toRow(doc)))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err, goodsReturnNumberUnique) {
			return apperror.NewDuplicate("goods return", "returnNumber", doc.ReturnNumber)
		}
		return fmt.Errorf("insert %s: %w", goodsReturnsTable, err)
	}

	return nil
}

func (r *GoodsReturnRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*goods_return.GoodsReturn, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row goodsReturnRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("goods return", key)
		}
		return nil, fmt.Errorf("get goods return: %w", err)
	}

	return row.toDomain(), nil
}

// GetByID retrieves a goods return by ID.
func (r *GoodsReturnRepo) GetByID(ctx context.Context, companyID string, docID id.ID) (*goods_return.GoodsReturn, error) {
	return r.getOne(ctx, r.baseSelect(companyID).Where(squirrel.Eq{"id": docID}), docID.String())
}

// GetByNumber retrieves a goods return by its number.
func (r *GoodsReturnRepo) GetByNumber(ctx context.Context, companyID, number string) (*goods_return.GoodsReturn, error) {
	return r.getOne(ctx, r.baseSelect(companyID).Where(squirrel.Eq{"return_number": number}), number)
}

// GetForUpdate retrieves a goods return with row lock.
func (r *GoodsReturnRepo) GetForUpdate(ctx context.Context, companyID string, docID id.ID) (*goods_return.GoodsReturn, error) {
	q := r.baseSelect(companyID).
		Where(squirrel.Eq{"id": docID}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q, docID.String())
}

func (r *GoodsReturnRepo) updateStateQuery(doc *goods_return.GoodsReturn) squirrel.UpdateBuilder {
	return builder().
		Update(goodsReturnsTable).
		Set("state", string(doc.State)).
		Set("approved_by", doc.Approval.By).
		Set("approved_at", doc.Approval.At).
		Set("approval_remarks", doc.Approval.Remarks).
		Set("processed_at", doc.ProcessedAt).
		Set("processed_by", doc.ProcessedBy).
		Set("cancelled_at", doc.CancelledAt).
		Set("cancelled_by", doc.CancelledBy).
		Set("cancellation_reason", doc.CancellationReason).
		Set("updated_by", doc.UpdatedBy).
		Set("updated_at", doc.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": doc.ID, "company_id": doc.CompanyID, "version": doc.Version})
}

// UpdateState persists workflow fields with optimistic locking.
func (r *GoodsReturnRepo) UpdateState(ctx context.Context, doc *goods_return.GoodsReturn) error {
	sql, args, err := r.updateStateQuery(doc).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", goodsReturnsTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("goods return", doc.ID)
	}

	doc.Version++
	return nil
}

func (r *GoodsReturnRepo) filteredSelect(filter goods_return.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect(filter.CompanyID)

	if len(filter.States) > 0 {
		states := make([]string, len(filter.States))
		for i, s := range filter.States {
			states[i] = string(s)
		}
		q = q.Where(squirrel.Eq{"state": states})
	}

	if len(filter.Reasons) > 0 {
		reasons := make([]string, len(filter.Reasons))
		for i, reason := range filter.Reasons {
			reasons[i] = string(reason)
		}
		q = q.Where(squirrel.Eq{"return_reason": reasons})
	}

	if filter.ChallanNumber != "" {
		q = q.Where(squirrel.Eq{"original_challan_number": filter.ChallanNumber})
	}

	if filter.InventoryItemID != nil {
		q = q.Where(squirrel.Eq{"inventory_item_id": *filter.InventoryItemID})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"return_date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		to := *filter.DateTo
		dayAfter := time.Date(to.Year(), to.Month(), to.Day()+1, 0, 0, 0, 0, to.Location())
		q = q.Where(squirrel.Lt{"return_date": dayAfter})
	}

	if filter.Search != "" {
		searchPattern := "%" + likeEscaper.Replace(filter.Search) + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"return_number": searchPattern},
			squirrel.ILike{"item_code": searchPattern},
			squirrel.ILike{"item_name": searchPattern},
			squirrel.ILike{"original_challan_number": searchPattern},
		})
	}

	return q
}

// List retrieves goods returns with filtering and pagination.
func (r *GoodsReturnRepo) List(ctx context.Context, filter goods_return.ListFilter) (domain.ListResult[*goods_return.GoodsReturn], error) {
	result := domain.ListResult[*goods_return.GoodsReturn]{
		Items:  make([]*goods_return.GoodsReturn, 0),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.filteredSelect(filter)

	countQ := builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := parseOrderBy(filter.OrderBy, defaultGoodsReturnsOrder, goods_return.SortFields)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "return_number DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var rows []goodsReturnRow
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}
	for i := range rows {
		result.Items = append(result.Items, rows[i].toDomain())
	}

	return result, nil
}

func (r *GoodsReturnRepo) activeByChallanQuery(companyID, challanNumber string) squirrel.SelectBuilder {
	active := make([]string, len(goods_return.ActiveStates))
	for i, s := range goods_return.ActiveStates {
		active[i] = string(s)
	}
	return r.baseSelect(companyID).
		Where(squirrel.Eq{"original_challan_number": challanNumber, "state": active}).
		OrderBy("return_date DESC", "return_number DESC")
}

// ListActiveByChallan returns active returns against a challan, newest first.
func (r *GoodsReturnRepo) ListActiveByChallan(ctx context.Context, companyID, challanNumber string) ([]*goods_return.GoodsReturn, error) {
	sql, args, err := r.activeByChallanQuery(companyID, challanNumber).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []goodsReturnRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list by challan: %w", err)
	}

	out := make([]*goods_return.GoodsReturn, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

var _ goods_return.Repository = (*GoodsReturnRepo)(nil)
