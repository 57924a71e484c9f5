package jobs

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sarmadashoor/LeadManager/platform/httpkit"
)

// ExecutionLister is the read slice of the repository the handler needs.
type ExecutionLister interface {
	Recent(ctx context.Context, tenantID uuid.UUID, jobType string, limit int) ([]Execution, error)
}

// Handler serves the job execution ledger for operational visibility.
// Every read is scoped to the tenant carried in the caller's access token.
type Handler struct {
	executions ExecutionLister
}

// NewHandler creates a job execution handler.
func NewHandler(executions ExecutionLister) *Handler {
	return &Handler{executions: executions}
}

// ExecutionResponse is the wire shape of one ledger row.
type ExecutionResponse struct {
	ID             uuid.UUID  `json:"id"`
	JobType        string     `json:"jobType"`
	JobKey         string     `json:"jobKey"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	DurationMs     *int64     `json:"durationMs,omitempty"`
	LeadsProcessed int        `json:"leadsProcessed"`
	LeadsCreated   int        `json:"leadsCreated"`
	ErrorsCount    int        `json:"errorsCount"`
	ErrorMessage   *string    `json:"errorMessage,omitempty"`
}

func toExecutionResponses(executions []Execution) []ExecutionResponse {
	responses := make([]ExecutionResponse, 0, len(executions))
	for _, e := range executions {
		responses = append(responses, ExecutionResponse{
			ID:             e.ID,
			JobType:        e.JobType,
			JobKey:         e.JobKey,
			Status:         e.Status,
			StartedAt:      e.StartedAt,
			CompletedAt:    e.CompletedAt,
			DurationMs:     e.DurationMs,
			LeadsProcessed: e.LeadsProcessed,
			LeadsCreated:   e.LeadsCreated,
			ErrorsCount:    e.ErrorsCount,
			ErrorMessage:   e.ErrorMessage,
		})
	}
	return responses
}

// ListExecutions handles GET /api/v1/jobs/:type/executions?limit=...
func (h *Handler) ListExecutions(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "tenant scope required", nil)
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			httpkit.Error(c, http.StatusBadRequest, "limit must be between 1 and 100", nil)
			return
		}
		limit = parsed
	}

	executions, err := h.executions.Recent(c.Request.Context(), tenantID, c.Param("type"), limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"executions": toExecutionResponses(executions)})
}
