package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/sarmadashoor/LeadManager/internal/events"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

func TestTrailHandlesEveryLifecycleEvent(t *testing.T) {
	log := logger.New("test")
	bus := events.NewInMemoryBus(log)
	NewTrail(log).Register(bus)

	tenantID := uuid.New()
	leadID := uuid.New()

	lifecycle := []events.Event{
		events.LeadAdmitted{BaseEvent: events.NewBaseEvent(), TenantID: tenantID, LeadID: leadID, CRMSource: "shopmonkey", CRMWorkOrderID: "wo-1", Source: "webhook", HasContactInfo: true},
		events.TouchPointSent{BaseEvent: events.NewBaseEvent(), TenantID: tenantID, LeadID: leadID, TouchPoint: 1},
		events.LeadResponded{BaseEvent: events.NewBaseEvent(), TenantID: tenantID, LeadID: leadID},
		events.LeadLost{BaseEvent: events.NewBaseEvent(), TenantID: tenantID, LeadID: leadID, TouchPoints: 13},
	}

	for _, event := range lifecycle {
		if err := bus.PublishSync(context.Background(), event); err != nil {
			t.Fatalf("%s: %v", event.EventName(), err)
		}
	}
}

type unknownEvent struct{ events.BaseEvent }

func (unknownEvent) EventName() string { return "leads.lead.unknown" }

func TestTrailRejectsUnknownEvents(t *testing.T) {
	trail := NewTrail(logger.New("test"))

	if err := trail.handle(context.Background(), unknownEvent{}); err == nil {
		t.Fatal("expected an error for an unsubscribed event type")
	}
}
