package handler

import (
	"net/http"

	"eventpay/internal/apierror"
	"eventpay/internal/dto"
	"eventpay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TicketsHandler struct{ svc service.TicketService }

func NewTicketsHandler(svc service.TicketService) *TicketsHandler {
	return &TicketsHandler{svc: svc}
}

// CreateSale godoc
// @Summary Sell tickets, reserving inventory atomically
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateSaleRequest true "Sale data"
// @Success 201 {object} dto.SaleResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/tickets/sales [post]
func (h *TicketsHandler) CreateSale(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateSale(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetSale godoc
// @Summary Fetch a ticket sale with its units
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale ID"
// @Success 200 {object} dto.SaleResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/tickets/sales/{id} [get]
func (h *TicketsHandler) GetSale(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid sale id"))
		return
	}
	resp, err := h.svc.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Redeem godoc
// @Summary Redeem a ticket unit by QR code (single use)
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RedeemRequest true "QR code"
// @Success 200 {object} dto.RedeemResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/tickets/redeem [post]
func (h *TicketsHandler) Redeem(c *gin.Context) {
	var req dto.RedeemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Redeem(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
