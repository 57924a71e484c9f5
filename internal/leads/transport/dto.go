// Package transport defines the wire representations of leads for the HTTP
// API.
package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sarmadashoor/LeadManager/internal/leads/repository"
)

// LeadResponse is the API shape of a lead.
type LeadResponse struct {
	ID                 uuid.UUID       `json:"id"`
	CRMSource          string          `json:"crmSource"`
	CRMWorkOrderID     string          `json:"crmWorkOrderId"`
	CRMWorkOrderNumber *string         `json:"crmWorkOrderNumber,omitempty"`
	Status             string          `json:"status"`
	CustomerName       *string         `json:"customerName,omitempty"`
	CustomerPhone      *string         `json:"customerPhone,omitempty"`
	CustomerEmail      *string         `json:"customerEmail,omitempty"`
	VehicleYear        *int            `json:"vehicleYear,omitempty"`
	VehicleMake        *string         `json:"vehicleMake,omitempty"`
	VehicleModel       *string         `json:"vehicleModel,omitempty"`
	VehicleDescription *string         `json:"vehicleDescription,omitempty"`
	ServiceType        string          `json:"serviceType"`
	ServiceName        *string         `json:"serviceName,omitempty"`
	EstimatedCostCents *int            `json:"estimatedCostCents,omitempty"`
	InvitationSentAt   *time.Time      `json:"invitationSentAt,omitempty"`
	FirstResponseAt    *time.Time      `json:"firstResponseAt,omitempty"`
	CRMMetadata        json.RawMessage `json:"crmMetadata,omitempty"`
	Version            int             `json:"version"`
	TouchPointCount    int             `json:"touchPointCount"`
	NextTouchPointAt   *time.Time      `json:"nextTouchPointAt,omitempty"`
	LastContactedAt    *time.Time      `json:"lastContactedAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// ToLeadResponse maps a stored lead onto the API shape.
func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:                 lead.ID,
		CRMSource:          lead.CRMSource,
		CRMWorkOrderID:     lead.CRMWorkOrderID,
		CRMWorkOrderNumber: lead.CRMWorkOrderNumber,
		Status:             string(lead.Status),
		CustomerName:       lead.CustomerName,
		CustomerPhone:      lead.CustomerPhone,
		CustomerEmail:      lead.CustomerEmail,
		VehicleYear:        lead.VehicleYear,
		VehicleMake:        lead.VehicleMake,
		VehicleModel:       lead.VehicleModel,
		VehicleDescription: lead.VehicleDescription,
		ServiceType:        lead.ServiceType,
		ServiceName:        lead.ServiceName,
		EstimatedCostCents: lead.EstimatedCostCents,
		InvitationSentAt:   lead.InvitationSentAt,
		FirstResponseAt:    lead.FirstResponseAt,
		CRMMetadata:        lead.CRMMetadata,
		Version:            lead.Version,
		TouchPointCount:    lead.TouchPointCount,
		NextTouchPointAt:   lead.NextTouchPointAt,
		LastContactedAt:    lead.LastContactedAt,
		CreatedAt:          lead.CreatedAt,
		UpdatedAt:          lead.UpdatedAt,
	}
}

// ToLeadResponses maps a slice of stored leads.
func ToLeadResponses(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, ToLeadResponse(lead))
	}
	return out
}

// UpdateStatusRequest carries an optimistic status transition.
type UpdateStatusRequest struct {
	Status          string `json:"status" validate:"required,oneof=new contacted chat_active lost"`
	ExpectedVersion int    `json:"expectedVersion" validate:"required,min=1"`
}
