package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockreturn/internal/core/id"
	"stockreturn/internal/domain"
	"stockreturn/internal/domain/documents/goods_return"
	"stockreturn/internal/domain/registers/stock"
	"stockreturn/internal/infrastructure/http/v1/dto"
	"stockreturn/internal/infrastructure/storage/postgres"
)

const defaultHistoryLimit = 50

// GoodsReturnService is the goods return use-case surface.
type GoodsReturnService interface {
	Create(ctx context.Context, in goods_return.CreateInput) (*goods_return.GoodsReturn, error)
	Get(ctx context.Context, docID id.ID) (*goods_return.GoodsReturn, error)
	GetByNumber(ctx context.Context, number string) (*goods_return.GoodsReturn, error)
	List(ctx context.Context, filter goods_return.ListFilter) (domain.ListResult[*goods_return.GoodsReturn], error)
	ChallanSummary(ctx context.Context, challanNumber string) (*goods_return.ChallanReturns, error)
	Approve(ctx context.Context, docID id.ID, remarks string) (*goods_return.GoodsReturn, error)
	Reject(ctx context.Context, docID id.ID, remarks string) (*goods_return.GoodsReturn, error)
	MarkProcessed(ctx context.Context, docID id.ID) (*goods_return.GoodsReturn, error)
	Cancel(ctx context.Context, docID id.ID, reason string) (*goods_return.GoodsReturn, error)
}

// HistoryReader reads the audit trail of an entity.
type HistoryReader interface {
	GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// RecorderMovements reads the register rows a document produced.
type RecorderMovements interface {
	GetByRecorder(ctx context.Context, recorderID id.ID) ([]stock.StockMovement, error)
}

// GoodsReturnHandler handles goods return requests.
type GoodsReturnHandler struct {
	*BaseHandler
	service   GoodsReturnService
	history   HistoryReader
	movements RecorderMovements
}

// NewGoodsReturnHandler creates a new goods return handler.
func NewGoodsReturnHandler(
	base *BaseHandler,
	service GoodsReturnService,
	history HistoryReader,
	movements RecorderMovements,
) *GoodsReturnHandler {
	return &GoodsReturnHandler{BaseHandler: base, service: service, history: history, movements: movements}
}

// Create handles POST /goods-returns
func (h *GoodsReturnHandler) Create(c *gin.Context) {
	var req dto.CreateGoodsReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromGoodsReturn(doc))
}

// List handles GET /goods-returns
func (h *GoodsReturnHandler) List(c *gin.Context) {
	var q dto.ListGoodsReturnsQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse[dto.GoodsReturnResponse]{
		Items:      dto.FromGoodsReturns(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /goods-returns/:id
func (h *GoodsReturnHandler) Get(c *gin.Context) {
	doc, ok := h.scoped(c)
	if !ok {
		return
	}

	h.OK(c, dto.FromGoodsReturn(doc))
}

// GetByNumber handles GET /goods-returns/by-number/:number
func (h *GoodsReturnHandler) GetByNumber(c *gin.Context) {
	doc, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromGoodsReturn(doc))
}

// ChallanSummary handles GET /challans/:challanNumber/returns
func (h *GoodsReturnHandler) ChallanSummary(c *gin.Context) {
	summary, err := h.service.ChallanSummary(c.Request.Context(), c.Param("challanNumber"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromChallanReturns(summary))
}

// Approve handles POST /goods-returns/:id/approve
func (h *GoodsReturnHandler) Approve(c *gin.Context) {
	h.withRemarks(c, h.service.Approve)
}

// Reject handles POST /goods-returns/:id/reject
func (h *GoodsReturnHandler) Reject(c *gin.Context) {
	h.withRemarks(c, h.service.Reject)
}

func (h *GoodsReturnHandler) withRemarks(
	c *gin.Context,
	op func(ctx context.Context, docID id.ID, remarks string) (*goods_return.GoodsReturn, error),
) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.RemarksRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	doc, err := op(c.Request.Context(), docID, req.Remarks)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromGoodsReturn(doc))
}

// Process handles POST /goods-returns/:id/process
func (h *GoodsReturnHandler) Process(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.MarkProcessed(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromGoodsReturn(doc))
}

// Cancel handles POST /goods-returns/:id/cancel
func (h *GoodsReturnHandler) Cancel(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Cancel(c.Request.Context(), docID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromGoodsReturn(doc))
}

// History handles GET /goods-returns/:id/history
func (h *GoodsReturnHandler) History(c *gin.Context) {
	doc, ok := h.scoped(c)
	if !ok {
		return
	}
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	entries, err := h.history.GetEntityHistory(c.Request.Context(), goods_return.AuditEntity, doc.ID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": dto.FromAuditEntries(entries)})
}

// Movements handles GET /goods-returns/:id/movements
func (h *GoodsReturnHandler) Movements(c *gin.Context) {
	doc, ok := h.scoped(c)
	if !ok {
		return
	}

	movements, err := h.movements.GetByRecorder(c.Request.Context(), doc.ID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": dto.FromStockMovements(movements)})
}

// scoped loads the return through the service so reads keyed only by
// document ID stay inside the caller's company.
func (h *GoodsReturnHandler) scoped(c *gin.Context) (*goods_return.GoodsReturn, bool) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return nil, false
	}
	doc, err := h.service.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return doc, true
}
