package handler

import (
	"crypto/subtle"
	"net/http"

	"eventpay/internal/apierror"
	"eventpay/internal/dto"
	"eventpay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// WebhookTokenHeader carries the shared secret agreed with the gateway.
const WebhookTokenHeader = "X-Gateway-Token"

type WebhooksHandler struct {
	svc    service.WebhookService
	secret string
}

func NewWebhooksHandler(svc service.WebhookService, secret string) *WebhooksHandler {
	return &WebhooksHandler{svc: svc, secret: secret}
}

// Gateway godoc
// @Summary Receive a payment gateway event
// @Description Authenticated by a shared-secret header. Unknown payments and
// @Description duplicate deliveries are acknowledged with status "ignored" —
// @Description the gateway must never be given a reason to retry them.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Gateway-Token header string true "Shared secret"
// @Param body body dto.GatewayWebhookRequest true "Gateway event"
// @Success 200 {object} dto.WebhookResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/webhooks/gateway [post]
func (h *WebhooksHandler) Gateway(c *gin.Context) {
	token := c.GetHeader(WebhookTokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		log.Warn().
			Str("ip", c.ClientIP()).
			Str("path", c.Request.URL.Path).
			Msg("webhook rejected: invalid shared secret")
		c.JSON(http.StatusUnauthorized, apierror.New("Invalid webhook token"))
		return
	}

	var req dto.GatewayWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return
	}
	if req.Event == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Missing event field"))
		return
	}

	resp, err := h.svc.Process(c.Request.Context(), req)
	if err != nil {
		// A processing failure is retryable — let the gateway redeliver.
		log.Error().Err(err).Str("event", req.Event).Msg("webhook processing failed")
		c.JSON(http.StatusInternalServerError, apierror.New("Processing failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
