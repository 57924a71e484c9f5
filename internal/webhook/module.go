// Package webhook provides the inbound CRM webhook module.
package webhook

import (
	apphttp "github.com/sarmadashoor/LeadManager/internal/http"
	"github.com/sarmadashoor/LeadManager/platform/config"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the webhook module.
func NewModule(admitter Admitter, enricher Enricher, resolver TenantResolver, cfg config.WebhookConfig, log *logger.Logger) *Module {
	svc := NewService(admitter, enricher, resolver, log)
	h := NewHandler(svc, cfg, log)
	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes. They are unauthenticated (the CRM
// cannot hold a JWT) so they sit behind the shared secret and the tighter
// per-IP rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/webhooks")
	group.Use(ctx.WebhookRateLimiter.RateLimit())
	group.GET("/health", m.handler.Health)
	group.POST("/:tenant/shopmonkey/order", m.handler.Order)
}

var _ apphttp.Module = (*Module)(nil)
