package handler

import (
	"github.com/gin-gonic/gin"
	inventoryapp "github.com/retailcore/backend/internal/application/inventory"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
)

// StockHandler handles ledger endpoints
type StockHandler struct {
	BaseHandler
	stockService *inventoryapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *inventoryapp.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// RecordMovement godoc
// @Summary      Record a restock, return or adjustment
// @Tags         stock
// @Param        request body inventoryapp.RecordMovementRequest true "Movement"
// @Success      201 {object} dto.Response{data=inventoryapp.RecordMovementResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /stock/movements [post]
func (h *StockHandler) RecordMovement(c *gin.Context) {
	var req inventoryapp.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.stockService.RecordMovement(c.Request.Context(), middleware.GetTenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMovements returns the ledger of one product, newest first
func (h *StockHandler) ListMovements(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var filter inventoryapp.MovementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	movements, total, err := h.stockService.ListMovements(c.Request.Context(), middleware.GetTenantID(c), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := filter.Filter()
	h.SuccessWithMeta(c, movements, total, page.Page, page.PageSize)
}

// Audit compares the product counter with its ledger
func (h *StockHandler) Audit(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	result, err := h.stockService.AuditProduct(c.Request.Context(), middleware.GetTenantID(c), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
