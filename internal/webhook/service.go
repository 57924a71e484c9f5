// Package webhook ingests ShopMonkey order events. It is the fast path of
// the two racing ingestion routes: classification happens on the pushed
// payload, enrichment and admission reuse the same code as the poller.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sarmadashoor/LeadManager/internal/crm/shopmonkey"
	"github.com/sarmadashoor/LeadManager/internal/leads/repository"
	"github.com/sarmadashoor/LeadManager/internal/metrics"
	"github.com/sarmadashoor/LeadManager/internal/tenants"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

// OrderPayload is the webhook body ShopMonkey sends on order events. The
// order fields arrive inline, without the REST envelope.
type OrderPayload struct {
	Event string    `json:"event"`
	Data  OrderData `json:"data"`
}

// OrderData is the pushed order snapshot. It carries a few webhook-only
// fields (appointments, invoicing flags) on top of the REST order shape.
type OrderData struct {
	shopmonkey.Order
	AppointmentDates []json.RawMessage `json:"appointmentDates"`
	Invoiced         bool              `json:"invoiced"`
	Paid             bool              `json:"paid"`
}

// Admitter is the slice of the leads service the webhook needs.
type Admitter interface {
	Admit(ctx context.Context, tenantID uuid.UUID, data repository.CreateLeadData, source string) (repository.Lead, bool, error)
}

// Enricher fetches customer and vehicle records from the CRM.
type Enricher interface {
	GetCustomer(ctx context.Context, customerID string) *shopmonkey.Customer
	GetVehicle(ctx context.Context, vehicleID string) *shopmonkey.Vehicle
}

// TenantResolver maps the webhook route's tenant slug to a tenant.
type TenantResolver interface {
	FindBySlug(ctx context.Context, slug string) (tenants.Tenant, error)
}

// Result describes what the webhook did with one event.
type Result struct {
	Processed      bool      `json:"processed"`
	Reason         string    `json:"reason,omitempty"`
	LeadID         uuid.UUID `json:"leadId,omitempty"`
	Created        bool      `json:"created"`
	HasContactInfo bool      `json:"hasContactInfo"`
}

// Service processes ShopMonkey order events for a tenant.
type Service struct {
	admitter Admitter
	enricher Enricher
	resolver TenantResolver
	log      *logger.Logger
}

// NewService creates a webhook service.
func NewService(admitter Admitter, enricher Enricher, resolver TenantResolver, log *logger.Logger) *Service {
	return &Service{admitter: admitter, enricher: enricher, resolver: resolver, log: log}
}

// IsWebsiteLeadEvent applies the webhook-side qualification. It is broader
// than the poller's REST classifier on the swim lane (an appointment-lane
// order with no actual appointment still counts) and stricter on lifecycle:
// anything invoiced, paid, or already scheduled is out.
func IsWebsiteLeadEvent(data OrderData) bool {
	if !isLeadLane(data.WorkflowStatusID) {
		return false
	}
	if data.Status != "Estimate" || data.Authorized || data.MessageCount != 0 {
		return false
	}
	if data.Name == nil || !strings.HasPrefix(*data.Name, "New Quote") {
		return false
	}
	if len(data.AppointmentDates) > 0 {
		return false
	}
	if data.Invoiced || data.Paid {
		return false
	}
	return true
}

func isLeadLane(workflowStatusID string) bool {
	return workflowStatusID == shopmonkey.WorkflowWebsiteLeads ||
		workflowStatusID == shopmonkey.WorkflowAppointments
}

// ProcessOrderEvent classifies, enriches, and admits one pushed order.
// Enrichment is best effort: a CRM outage degrades to a lead without contact
// info rather than a dropped event.
func (s *Service) ProcessOrderEvent(ctx context.Context, tenantSlug string, payload OrderPayload) (Result, error) {
	tenant, err := s.resolver.FindBySlug(ctx, tenantSlug)
	if err != nil {
		return Result{Reason: "unknown tenant"}, fmt.Errorf("resolve tenant %q: %w", tenantSlug, err)
	}

	log := s.log.WithTenantID(tenant.ID.String())
	log.Info("order event received", "event", payload.Event, "order_id", payload.Data.ID)

	if !IsWebsiteLeadEvent(payload.Data) {
		log.Debug("order is not a website lead", "order_id", payload.Data.ID)
		return Result{Reason: "not a website lead"}, nil
	}

	var customer *shopmonkey.Customer
	if payload.Data.CustomerID != "" {
		customer = s.enricher.GetCustomer(ctx, payload.Data.CustomerID)
	}

	var vehicle *shopmonkey.Vehicle
	if payload.Data.VehicleID != nil {
		vehicle = s.enricher.GetVehicle(ctx, *payload.Data.VehicleID)
	}

	data := shopmonkey.WebsiteLead{Order: payload.Data.Order, Customer: customer, Vehicle: vehicle}.LeadData()

	lead, created, err := s.admitter.Admit(ctx, tenant.ID, data, "webhook")
	if err != nil {
		return Result{Reason: "admission failed"}, fmt.Errorf("admit lead: %w", err)
	}

	if created {
		metrics.LeadsAdmitted.WithLabelValues("webhook").Inc()
	} else {
		metrics.LeadsRedelivered.WithLabelValues("webhook").Inc()
	}

	return Result{
		Processed:      true,
		LeadID:         lead.ID,
		Created:        created,
		HasContactInfo: lead.HasContactInfo(),
	}, nil
}
