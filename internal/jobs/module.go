package jobs

import (
	apphttp "github.com/sarmadashoor/LeadManager/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module exposes the job execution ledger over HTTP.
type Module struct {
	handler    *Handler
	repository *Repository
}

// NewModule creates the jobs module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := NewRepository(pool)
	return &Module{
		handler:    NewHandler(repo),
		repository: repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "jobs"
}

// Repository returns the execution ledger for use by background workers.
func (m *Module) Repository() *Repository {
	return m.repository
}

// RegisterRoutes mounts the ledger routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/jobs")
	group.GET("/:type/executions", m.handler.ListExecutions)
}

var _ apphttp.Module = (*Module)(nil)
