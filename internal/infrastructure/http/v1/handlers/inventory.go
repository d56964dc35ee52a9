package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockreturn/internal/core/id"
	"stockreturn/internal/domain/catalogs/inventory_item"
	"stockreturn/internal/domain/registers/stock"
	"stockreturn/internal/infrastructure/http/v1/dto"
)

// InventoryService reads inventory items of the caller's company.
type InventoryService interface {
	Get(ctx context.Context, itemID id.ID) (*inventory_item.Item, error)
	Movements(ctx context.Context, itemID id.ID, filter stock.MovementFilter) ([]stock.StockMovement, error)
}

// InventoryHandler handles inventory item requests.
type InventoryHandler struct {
	*BaseHandler
	service InventoryService
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service InventoryService) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service}
}

// Get handles GET /inventory-items/:id
func (h *InventoryHandler) Get(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	item, err := h.service.Get(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInventoryItem(item))
}

// Movements handles GET /inventory-items/:id/movements
func (h *InventoryHandler) Movements(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var q dto.MovementQuery
	if !h.BindQuery(c, &q) {
		return
	}

	movements, err := h.service.Movements(c.Request.Context(), itemID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": dto.FromStockMovements(movements)})
}
