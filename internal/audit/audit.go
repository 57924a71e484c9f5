// Package audit writes a structured trail of the lead lifecycle. It
// subscribes to the domain events the engine publishes, so every admission,
// touch point, reply, and loss shows up in the logs regardless of which
// path produced it.
package audit

import (
	"context"
	"fmt"

	"github.com/sarmadashoor/LeadManager/internal/events"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

// Trail logs lead lifecycle events as they are published.
type Trail struct {
	log *logger.Logger
}

// NewTrail creates an audit trail.
func NewTrail(log *logger.Logger) *Trail {
	return &Trail{log: log}
}

// Register subscribes the trail to every lead lifecycle event on the bus.
func (t *Trail) Register(bus events.Bus) {
	handler := events.HandlerFunc(t.handle)
	for _, name := range []string{
		events.LeadAdmitted{}.EventName(),
		events.TouchPointSent{}.EventName(),
		events.LeadResponded{}.EventName(),
		events.LeadLost{}.EventName(),
	} {
		bus.Subscribe(name, handler)
	}
}

func (t *Trail) handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAdmitted:
		t.log.WithTenantID(e.TenantID.String()).Info("audit: lead admitted",
			"lead_id", e.LeadID, "source", e.Source,
			"work_order_id", e.CRMWorkOrderID, "has_contact_info", e.HasContactInfo)
	case events.TouchPointSent:
		t.log.WithTenantID(e.TenantID.String()).Info("audit: touch point sent",
			"lead_id", e.LeadID, "touch_point", e.TouchPoint)
	case events.LeadResponded:
		t.log.WithTenantID(e.TenantID.String()).Info("audit: lead responded",
			"lead_id", e.LeadID)
	case events.LeadLost:
		t.log.WithTenantID(e.TenantID.String()).Info("audit: lead lost",
			"lead_id", e.LeadID, "touch_points", e.TouchPoints)
	default:
		return fmt.Errorf("audit: unexpected event %s", event.EventName())
	}

	return nil
}
