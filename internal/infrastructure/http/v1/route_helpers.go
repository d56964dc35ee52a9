package v1

import (
	"github.com/gin-gonic/gin"

	"stockreturn/internal/domain/auth"
	"stockreturn/internal/infrastructure/http/v1/middleware"
)

// GoodsReturnRouteHandler defines the endpoints of the goods return resource.
type GoodsReturnRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	GetByNumber(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	Process(c *gin.Context)
	Cancel(c *gin.Context)
	ChallanSummary(c *gin.Context)
	History(c *gin.Context)
	Movements(c *gin.Context)
}

// InventoryRouteHandler defines the read endpoints of inventory items.
type InventoryRouteHandler interface {
	Get(c *gin.Context)
	Movements(c *gin.Context)
}

// RegisterGoodsReturnRoutes registers the goods return lifecycle routes and
// the per-challan summary.
func RegisterGoodsReturnRoutes(rg *gin.RouterGroup, handler GoodsReturnRouteHandler) {
	group := rg.Group("/goods-returns")
	group.GET("", middleware.RequirePermission(auth.PermGoodsReturnRead), handler.List)
	group.POST("", middleware.RequirePermission(auth.PermGoodsReturnCreate), handler.Create)
	group.GET("/:id", middleware.RequirePermission(auth.PermGoodsReturnRead), handler.Get)
	group.GET("/by-number/:number", middleware.RequirePermission(auth.PermGoodsReturnRead), handler.GetByNumber)
	group.POST("/:id/approve", middleware.RequirePermission(auth.PermGoodsReturnApprove), handler.Approve)
	group.POST("/:id/reject", middleware.RequirePermission(auth.PermGoodsReturnApprove), handler.Reject)
	group.POST("/:id/process", middleware.RequirePermission(auth.PermGoodsReturnProcess), handler.Process)
	group.POST("/:id/cancel", middleware.RequirePermission(auth.PermGoodsReturnCancel), handler.Cancel)
	group.GET("/:id/history", middleware.RequirePermission(auth.PermGoodsReturnRead), handler.History)
	group.GET("/:id/movements", middleware.RequirePermission(auth.PermGoodsReturnRead), handler.Movements)

	rg.GET("/challans/:challanNumber/returns",
		middleware.RequirePermission(auth.PermGoodsReturnRead), handler.ChallanSummary)
}

// RegisterInventoryRoutes registers inventory item reads.
func RegisterInventoryRoutes(rg *gin.RouterGroup, handler InventoryRouteHandler) {
	group := rg.Group("/inventory-items")
	group.GET("/:id", middleware.RequirePermission(auth.PermInventoryRead), handler.Get)
	group.GET("/:id/movements", middleware.RequirePermission(auth.PermInventoryRead), handler.Movements)
}
