package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/retailcore/backend/internal/application/finance"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
)

// CashSessionHandler handles cash drawer endpoints
type CashSessionHandler struct {
	BaseHandler
	sessionService *financeapp.CashSessionService
}

// NewCashSessionHandler creates a new CashSessionHandler
func NewCashSessionHandler(sessionService *financeapp.CashSessionService) *CashSessionHandler {
	return &CashSessionHandler{sessionService: sessionService}
}

// Open godoc
// @Summary      Open the cash drawer
// @Tags         cash-sessions
// @Param        request body financeapp.OpenSessionRequest true "Opening balance and operator"
// @Success      201 {object} dto.Response{data=financeapp.CashSessionResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cash-sessions [post]
func (h *CashSessionHandler) Open(c *gin.Context) {
	var req financeapp.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.sessionService.Open(c.Request.Context(), middleware.GetTenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Close godoc
// @Summary      Close and reconcile a session
// @Tags         cash-sessions
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body financeapp.CloseSessionRequest true "Counted cash"
// @Success      200 {object} dto.Response{data=financeapp.CashSessionResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cash-sessions/{id}/close [post]
func (h *CashSessionHandler) Close(c *gin.Context) {
	sessionID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req financeapp.CloseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.sessionService.Close(c.Request.Context(), middleware.GetTenantID(c), sessionID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reopen puts a finalized session back in use
func (h *CashSessionHandler) Reopen(c *gin.Context) {
	sessionID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.sessionService.Reopen(c.Request.Context(), middleware.GetTenantID(c), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Current returns the active session, or SESSION_NOT_FOUND
func (h *CashSessionHandler) Current(c *gin.Context) {
	resp, err := h.sessionService.Current(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns one session
func (h *CashSessionHandler) Get(c *gin.Context) {
	sessionID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.sessionService.Get(c.Request.Context(), middleware.GetTenantID(c), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of sessions
func (h *CashSessionHandler) List(c *gin.Context) {
	var filter financeapp.SessionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	sessions, total, err := h.sessionService.List(c.Request.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := filter.Filter()
	h.SuccessWithMeta(c, sessions, total, page.Page, page.PageSize)
}
