package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	tradeapp "github.com/retailcore/backend/internal/application/trade"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	BaseHandler
	orderService          *tradeapp.OrderFulfillmentService
	requireIdempotencyKey bool
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *tradeapp.OrderFulfillmentService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// RequireIdempotencyKey makes the Idempotency-Key header mandatory on create
func (h *OrderHandler) RequireIdempotencyKey(required bool) {
	h.requireIdempotencyKey = required
}

// Create godoc
// @Summary      Create an order
// @Description  Validates stock, upserts the customer by phone and commits the sale atomically
// @Tags         orders
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        Idempotency-Key header string false "Client retry key"
// @Param        request body tradeapp.CreateOrderRequest true "Order"
// @Success      201 {object} dto.Response{data=tradeapp.CreateOrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req tradeapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	req.IdempotencyKey = strings.TrimSpace(c.GetHeader(middleware.IdempotencyKeyHeader))
	if h.requireIdempotencyKey && req.IdempotencyKey == "" {
		h.HandleError(c, shared.NewValidationError("idempotency_key", "Idempotency-Key header is required"))
		return
	}

	resp, err := h.orderService.CreateOrder(c.Request.Context(), middleware.GetTenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateStatus godoc
// @Summary      Move an order to a new status
// @Tags         orders
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body tradeapp.UpdateOrderStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=tradeapp.OrderResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.orderService.UpdateOrderStatus(c.Request.Context(), middleware.GetTenantID(c), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns one order with its lines
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.GetOrder(c.Request.Context(), middleware.GetTenantID(c), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of orders filtered by status, origin or customer
func (h *OrderHandler) List(c *gin.Context) {
	var filter tradeapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := filter.Filter()
	h.SuccessWithMeta(c, orders, total, page.Page, page.PageSize)
}
