package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/retailcore/backend/internal/application/finance"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
)

// DebtHandler handles deferred-payment endpoints
type DebtHandler struct {
	BaseHandler
	debtService *financeapp.DebtService
}

// NewDebtHandler creates a new DebtHandler
func NewDebtHandler(debtService *financeapp.DebtService) *DebtHandler {
	return &DebtHandler{debtService: debtService}
}

// Create godoc
// @Summary      Record a sale on credit
// @Description  Single cash payment with a due date, or an installment plan
// @Tags         debts
// @Param        request body financeapp.CreateDebtRequest true "Debt"
// @Success      201 {object} dto.Response{data=financeapp.DebtResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /debts [post]
func (h *DebtHandler) Create(c *gin.Context) {
	var req financeapp.CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.debtService.CreateDebt(c.Request.Context(), middleware.GetTenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ConfirmPayment godoc
// @Summary      Confirm a payment
// @Description  Body is {"installment": 2} or {"installment": "cash"}
// @Tags         debts
// @Param        id path string true "Debt ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.DebtResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /debts/{id}/payments [post]
func (h *DebtHandler) ConfirmPayment(c *gin.Context) {
	debtID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req financeapp.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.debtService.ConfirmInstallmentPaid(c.Request.Context(), middleware.GetTenantID(c), debtID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Summary returns the tenant's receivables
func (h *DebtHandler) Summary(c *gin.Context) {
	resp, err := h.debtService.Summary(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns one debt with owed and overdue amounts as of now
func (h *DebtHandler) Get(c *gin.Context) {
	debtID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.debtService.GetDebt(c.Request.Context(), middleware.GetTenantID(c), debtID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of debts
func (h *DebtHandler) List(c *gin.Context) {
	var filter financeapp.DebtListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	debts, total, err := h.debtService.ListDebts(c.Request.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := filter.Filter()
	h.SuccessWithMeta(c, debts, total, page.Page, page.PageSize)
}
