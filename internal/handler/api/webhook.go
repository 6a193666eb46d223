package api

import (
	"io"
	"net/http"

	resdto "mechanic-booking/internal/handler/dto/response"
	"mechanic-booking/internal/handler/httperr"
	"mechanic-booking/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

// Stripe caps event payloads well below this.
const maxWebhookBodyBytes = 1 << 16

type WebhookHandler struct {
	processor commands.WebhookProcessor
}

func NewWebhookHandler(processor commands.WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// @Summary Payment webhook
// @Description Signed payment gateway callback. Non-2xx responses make the gateway retry.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Gateway signature"
// @Success 200 {object} resdto.WebhookResponse
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /api/webhooks/payments [post]
func (h *WebhookHandler) Payments(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes+1))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Unreadable body", nil)
		return
	}
	if len(payload) > maxWebhookBodyBytes {
		httperr.AbortWithError(c, http.StatusRequestEntityTooLarge, nil, "Payload too large", nil)
		return
	}

	result, err := h.processor.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.WebhookResponse{Received: true, Outcome: string(result.Outcome)})
}
