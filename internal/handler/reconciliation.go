package handler

import (
	"net/http"

	"eventpay/internal/apierror"
	"eventpay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReconciliationHandler struct{ svc service.ReconciliationService }

func NewReconciliationHandler(svc service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc}
}

// CheckEvent godoc
// @Summary Compare an event's collected counter with the ledger
// @Tags reconciliation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} dto.DriftReport
// @Failure 404 {object} apierror.APIError
// @Router /v1/reconciliation/events/{id} [get]
func (h *ReconciliationHandler) CheckEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid event id"))
		return
	}
	resp, err := h.svc.CheckEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CheckRegister godoc
// @Summary Compare a register's balance with its entries and transfers
// @Tags reconciliation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Register ID"
// @Success 200 {object} dto.DriftReport
// @Failure 404 {object} apierror.APIError
// @Router /v1/reconciliation/registers/{id} [get]
func (h *ReconciliationHandler) CheckRegister(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid register id"))
		return
	}
	resp, err := h.svc.CheckRegister(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
