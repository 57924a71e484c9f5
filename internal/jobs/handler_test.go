package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sarmadashoor/LeadManager/platform/httpkit"
)

type fakeExecutionLister struct {
	executions []Execution
	err        error

	tenantID uuid.UUID
	jobType  string
	limit    int
}

func (f *fakeExecutionLister) Recent(_ context.Context, tenantID uuid.UUID, jobType string, limit int) ([]Execution, error) {
	f.tenantID = tenantID
	f.jobType = jobType
	f.limit = limit
	return f.executions, f.err
}

func newExecutionsRouter(lister ExecutionLister, tenantID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewHandler(lister)
	engine.GET("/api/v1/jobs/:type/executions", func(c *gin.Context) {
		if tenantID != uuid.Nil {
			c.Set(httpkit.ContextTenantIDKey, tenantID)
		}
		handler.ListExecutions(c)
	})
	return engine
}

func TestListExecutionsScopesToTenant(t *testing.T) {
	tenantID := uuid.New()
	started := time.Now().Add(-time.Minute)
	lister := &fakeExecutionLister{executions: []Execution{{
		ID:             uuid.New(),
		TenantID:       &tenantID,
		JobType:        "lead-poll",
		JobKey:         "lead-poll:key",
		Status:         StatusCompletedWithErrors,
		StartedAt:      started,
		LeadsProcessed: 3,
		ErrorsCount:    1,
	}}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/lead-poll/executions?limit=5", nil)
	newExecutionsRouter(lister, tenantID).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if lister.tenantID != tenantID || lister.jobType != "lead-poll" || lister.limit != 5 {
		t.Fatalf("unexpected lister call: tenant=%s type=%q limit=%d", lister.tenantID, lister.jobType, lister.limit)
	}

	var body struct {
		Executions []ExecutionResponse `json:"executions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Executions) != 1 || body.Executions[0].Status != StatusCompletedWithErrors {
		t.Fatalf("unexpected executions payload: %+v", body.Executions)
	}
}

func TestListExecutionsRejectsBadLimit(t *testing.T) {
	lister := &fakeExecutionLister{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/lead-poll/executions?limit=oops", nil)
	newExecutionsRouter(lister, uuid.New()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListExecutionsRequiresTenantScope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/lead-poll/executions", nil)
	newExecutionsRouter(&fakeExecutionLister{}, uuid.Nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
