// Package leads provides the lead bounded context module.
// This file defines the module that encapsulates lead setup and route
// registration.
package leads

import (
	"github.com/sarmadashoor/LeadManager/internal/events"
	apphttp "github.com/sarmadashoor/LeadManager/internal/http"
	"github.com/sarmadashoor/LeadManager/internal/leads/handler"
	"github.com/sarmadashoor/LeadManager/internal/leads/repository"
	"github.com/sarmadashoor/LeadManager/internal/leads/service"
	"github.com/sarmadashoor/LeadManager/platform/logger"
	"github.com/sarmadashoor/LeadManager/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the lead bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	repository *repository.Repository
}

// NewModule creates and initializes the lead module with all its dependencies.
// nudger may be nil when the task queue is not configured.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, nudger service.Nudger, validate *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, nudger, log)
	h := handler.New(svc, validate)

	return &Module{
		handler:    h,
		service:    svc,
		repository: repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for use by the ingestion paths.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the lead repository for use by the background workers.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/leads")
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
	group.POST("/:id/respond", m.handler.Respond)
	group.PATCH("/:id/status", m.handler.UpdateStatus)
}

var _ apphttp.Module = (*Module)(nil)
