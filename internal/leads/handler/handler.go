// Package handler exposes the tenant-facing lead API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sarmadashoor/LeadManager/internal/leads/domain"
	"github.com/sarmadashoor/LeadManager/internal/leads/service"
	"github.com/sarmadashoor/LeadManager/internal/leads/transport"
	"github.com/sarmadashoor/LeadManager/platform/httpkit"
	"github.com/sarmadashoor/LeadManager/platform/validator"
)

// Handler serves the lead HTTP endpoints. Every endpoint is scoped to the
// tenant carried in the caller's access token.
type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

// New creates a lead handler.
func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

// List handles GET /api/v1/leads?status=...
func (h *Handler) List(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "tenant scope required", nil)
		return
	}

	var statusFilter *domain.Status
	if raw := c.Query("status"); raw != "" {
		status := domain.Status(raw)
		if !status.IsValid() {
			httpkit.Error(c, http.StatusBadRequest, "unknown status filter", nil)
			return
		}
		statusFilter = &status
	}

	leads, err := h.svc.List(c.Request.Context(), tenantID, statusFilter)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"leads": transport.ToLeadResponses(leads)})
}

// Get handles GET /api/v1/leads/:id
func (h *Handler) Get(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "tenant scope required", nil)
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), tenantID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// Respond handles POST /api/v1/leads/:id/respond, recording a customer reply.
func (h *Handler) Respond(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "tenant scope required", nil)
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	lead, err := h.svc.Respond(c.Request.Context(), tenantID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// UpdateStatus handles PATCH /api/v1/leads/:id/status with optimistic
// concurrency: the request carries the version the caller last saw.
func (h *Handler) UpdateStatus(c *gin.Context) {
	tenantID, ok := httpkit.GetTenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "tenant scope required", nil)
		return
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), tenantID, leadID, domain.Status(req.Status), req.ExpectedVersion)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}
