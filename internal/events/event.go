// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/sarmadashoor/LeadManager/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadAdmitted is published when ingestion creates a new lead. Redeliveries
// of an already known work order do not publish this event.
type LeadAdmitted struct {
	BaseEvent
	TenantID       uuid.UUID `json:"tenantId"`
	LeadID         uuid.UUID `json:"leadId"`
	CRMSource      string    `json:"crmSource"`
	CRMWorkOrderID string    `json:"crmWorkOrderId"`
	Source         string    `json:"source"`
	HasContactInfo bool      `json:"hasContactInfo"`
}

func (e LeadAdmitted) EventName() string { return "leads.lead.admitted" }

// TouchPointSent is published after a touch point delivery succeeds and is
// recorded.
type TouchPointSent struct {
	BaseEvent
	TenantID   uuid.UUID `json:"tenantId"`
	LeadID     uuid.UUID `json:"leadId"`
	TouchPoint int       `json:"touchPoint"`
}

func (e TouchPointSent) EventName() string { return "leads.touchpoint.sent" }

// LeadResponded is published when a customer reply moves the lead to
// chat_active.
type LeadResponded struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	LeadID   uuid.UUID `json:"leadId"`
}

func (e LeadResponded) EventName() string { return "leads.lead.responded" }

// LeadLost is published when the touch point sequence exhausts with no
// response.
type LeadLost struct {
	BaseEvent
	TenantID    uuid.UUID `json:"tenantId"`
	LeadID      uuid.UUID `json:"leadId"`
	TouchPoints int       `json:"touchPoints"`
}

func (e LeadLost) EventName() string { return "leads.lead.lost" }
