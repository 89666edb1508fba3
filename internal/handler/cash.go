package handler

import (
	"net/http"

	"eventpay/internal/apierror"
	"eventpay/internal/dto"
	"eventpay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CashHandler struct{ svc service.CashService }

func NewCashHandler(svc service.CashService) *CashHandler { return &CashHandler{svc: svc} }

// OpenRegister godoc
// @Summary Open a new cash register
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenRegisterRequest true "Register data"
// @Success 201 {object} dto.RegisterResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cash/registers [post]
func (h *CashHandler) OpenRegister(c *gin.Context) {
	var req dto.OpenRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.OpenRegister(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CloseRegister godoc
// @Summary Close a cash register
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param id path string true "Register ID"
// @Success 200 {object} dto.RegisterResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash/registers/{id}/close [post]
func (h *CashHandler) CloseRegister(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid register id"))
		return
	}
	resp, err := h.svc.CloseRegister(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListRegisters godoc
// @Summary List all cash registers
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.RegisterResponse
// @Router /v1/cash/registers [get]
func (h *CashHandler) ListRegisters(c *gin.Context) {
	resp, err := h.svc.ListRegisters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordEntry godoc
// @Summary Record an income/expense entry on a register
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RecordEntryRequest true "Entry data"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cash/entries [post]
func (h *CashHandler) RecordEntry(c *gin.Context) {
	var req dto.RecordEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordEntry(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Transfer godoc
// @Summary Transfer value between two registers
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.TransferRequest true "Transfer data"
// @Success 201 {object} dto.TransferResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash/transfers [post]
func (h *CashHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Transfer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Movements godoc
// @Summary List entries of a register with full-set totals
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param id path string true "Register ID"
// @Param type query string false "INCOME | EXPENSE"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 50)"
// @Success 200 {object} dto.MovementListResponse
// @Router /v1/cash/registers/{id}/movements [get]
func (h *CashHandler) Movements(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid register id"))
		return
	}
	var filter dto.MovementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid filter: "+err.Error()))
		return
	}
	resp, err := h.svc.Movements(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordExpense godoc
// @Summary Record an expense against an event
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.EventExpenseRequest true "Expense data"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cash/expenses [post]
func (h *CashHandler) RecordExpense(c *gin.Context) {
	var req dto.EventExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordEventExpense(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
