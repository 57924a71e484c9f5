package webhook

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sarmadashoor/LeadManager/platform/config"
	"github.com/sarmadashoor/LeadManager/platform/httpkit"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

// Handler serves the inbound webhook endpoints.
type Handler struct {
	svc          *Service
	sharedSecret string
	log          *logger.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(svc *Service, cfg config.WebhookConfig, log *logger.Logger) *Handler {
	return &Handler{svc: svc, sharedSecret: cfg.GetWebhookSharedSecret(), log: log}
}

// Health handles GET /api/v1/webhooks/health.
func (h *Handler) Health(c *gin.Context) {
	httpkit.OK(c, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
}

// Order handles POST /api/v1/webhooks/:tenant/shopmonkey/order.
//
// Everything past authentication answers 200: a non-2xx would make
// ShopMonkey retry, and admission is already idempotent, so retries buy
// nothing but duplicate load. Failures are logged and counted instead.
func (h *Handler) Order(c *gin.Context) {
	if h.sharedSecret != "" {
		provided := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.sharedSecret)) != 1 {
			httpkit.Error(c, http.StatusUnauthorized, "invalid webhook secret", nil)
			return
		}
	}

	var payload OrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Warn("malformed webhook payload", "error", err)
		c.JSON(http.StatusOK, gin.H{"received": true, "processed": false, "reason": "malformed payload"})
		return
	}

	result, err := h.svc.ProcessOrderEvent(c.Request.Context(), c.Param("tenant"), payload)
	if err != nil {
		h.log.Error("webhook processing failed", "order_id", payload.Data.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"received":       true,
		"processed":      result.Processed,
		"reason":         result.Reason,
		"leadId":         result.LeadID,
		"created":        result.Created,
		"hasContactInfo": result.HasContactInfo,
	})
}
