package handler

import (
	"net/http"

	"eventpay/internal/apierror"
	"eventpay/internal/dto"
	"eventpay/internal/middleware"
	"eventpay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentsHandler struct{ svc service.PaymentService }

func NewPaymentsHandler(svc service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

// Register godoc
// @Summary Register a payment for one or more inscriptions
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegisterPaymentRequest true "Payment data"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/payments [post]
func (h *PaymentsHandler) Register(c *gin.Context) {
	var req dto.RegisterPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary Fetch a payment with its allocations and installments
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/payments/{id} [get]
func (h *PaymentsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid payment id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Approve godoc
// @Summary Approve a payment under review
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param body body dto.ApprovePaymentRequest true "Approval data"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/payments/{id}/approve [post]
func (h *PaymentsHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid payment id"))
		return
	}
	var req dto.ApprovePaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	approvedBy, _ := uuid.Parse(claims.UserID)

	if err := h.svc.Approve(c.Request.Context(), id, approvedBy, req); err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reject godoc
// @Summary Reject a payment under review
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param body body dto.RejectPaymentRequest true "Rejection reason"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/payments/{id}/reject [post]
func (h *PaymentsHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid payment id"))
		return
	}
	var req dto.RejectPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Reject(c.Request.Context(), id, req); err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary Cancel (hard-delete) a pre-settlement payment
// @Tags payments
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/payments/{id} [delete]
func (h *PaymentsHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid payment id"))
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reverse godoc
// @Summary Reverse an approved payment, undoing all its ledger effects
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/payments/{id}/reverse [post]
func (h *PaymentsHandler) Reverse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid payment id"))
		return
	}
	if err := h.svc.Reverse(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
