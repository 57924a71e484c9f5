// Package service holds the lead lifecycle rules: admission from either
// ingestion path, the initial touch point arming, and the response and
// status transitions.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sarmadashoor/LeadManager/internal/events"
	"github.com/sarmadashoor/LeadManager/internal/leads/domain"
	"github.com/sarmadashoor/LeadManager/internal/leads/repository"
	"github.com/sarmadashoor/LeadManager/internal/metrics"
	"github.com/sarmadashoor/LeadManager/platform/apperr"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

// LeadStore is the persistence surface the service needs.
type LeadStore interface {
	Upsert(ctx context.Context, tenantID uuid.UUID, data repository.CreateLeadData) (repository.Lead, bool, error)
	UpdateStatus(ctx context.Context, tenantID, leadID uuid.UUID, status domain.Status, expectedVersion int) (repository.Lead, error)
	ScheduleNextTouchPoint(ctx context.Context, tenantID, leadID uuid.UUID, nextTouchPointAt time.Time) (repository.Lead, error)
	MarkAsResponded(ctx context.Context, tenantID, leadID uuid.UUID) (repository.Lead, error)
	FindByID(ctx context.Context, tenantID, leadID uuid.UUID) (repository.Lead, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]repository.Lead, error)
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status domain.Status) ([]repository.Lead, error)
}

// Nudger enqueues the out-of-band initial touch task for a new lead.
type Nudger interface {
	EnqueueInitialTouch(ctx context.Context, tenantID, leadID uuid.UUID) error
}

// Service implements the lead lifecycle.
type Service struct {
	store  LeadStore
	bus    events.Bus
	nudger Nudger
	log    *logger.Logger
}

// New creates a lead service. nudger may be nil when the task queue is not
// wired, in which case new leads wait for the sweep instead.
func New(store LeadStore, bus events.Bus, nudger Nudger, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, nudger: nudger, log: log}
}

// Admit runs the idempotent admission flow for both ingestion paths. A lead
// seen for the first time gets its initial touch point armed; a redelivery
// only refreshes the CRM-sourced fields and leaves the schedule alone.
// source names the path ("webhook" or "poller") for logging and events.
func (s *Service) Admit(ctx context.Context, tenantID uuid.UUID, data repository.CreateLeadData, source string) (repository.Lead, bool, error) {
	lead, created, err := s.store.Upsert(ctx, tenantID, data)
	if err != nil {
		return repository.Lead{}, false, fmt.Errorf("upsert lead: %w", err)
	}

	log := s.log.WithTenantID(tenantID.String())

	if !created {
		log.Debug("known lead refreshed", "lead_id", lead.ID, "source", source, "version", lead.Version)
		return lead, false, nil
	}

	if lead.HasContactInfo() {
		if next := domain.NextTouchPointTime(lead.CreatedAt, 0); next != nil {
			lead, err = s.store.ScheduleNextTouchPoint(ctx, tenantID, lead.ID, *next)
			if err != nil {
				return repository.Lead{}, false, fmt.Errorf("arm initial touch point: %w", err)
			}
		}

		if s.nudger != nil {
			if err := s.nudger.EnqueueInitialTouch(ctx, tenantID, lead.ID); err != nil {
				// The sweep picks the lead up anyway; the nudge only
				// shortens the wait.
				log.Warn("failed to enqueue initial touch nudge", "lead_id", lead.ID, "error", err)
			}
		}
	} else {
		log.Warn("lead admitted without contact info, outreach abandoned",
			"lead_id", lead.ID, "crm_work_order_id", lead.CRMWorkOrderID, "source", source)
	}

	log.Info("new lead admitted", "lead_id", lead.ID, "source", source, "has_contact_info", lead.HasContactInfo())

	s.bus.Publish(ctx, events.LeadAdmitted{
		BaseEvent:      events.NewBaseEvent(),
		TenantID:       tenantID,
		LeadID:         lead.ID,
		CRMSource:      lead.CRMSource,
		CRMWorkOrderID: lead.CRMWorkOrderID,
		Source:         source,
		HasContactInfo: lead.HasContactInfo(),
	})

	return lead, true, nil
}

// Respond records a customer reply: the lead moves to chat_active and drops
// out of the outreach schedule. Idempotent; a second reply is a no-op.
func (s *Service) Respond(ctx context.Context, tenantID, leadID uuid.UUID) (repository.Lead, error) {
	current, err := s.store.FindByID(ctx, tenantID, leadID)
	if err != nil {
		return repository.Lead{}, mapStoreErr(err, "Service.Respond")
	}

	if current.Status == domain.StatusChatActive {
		return current, nil
	}
	if current.Status == domain.StatusLost {
		return repository.Lead{}, apperr.Conflict("lead is already closed as lost")
	}

	lead, err := s.store.MarkAsResponded(ctx, tenantID, leadID)
	if err != nil {
		return repository.Lead{}, mapStoreErr(err, "Service.Respond")
	}

	metrics.LeadsResponded.Inc()
	s.log.WithTenantID(tenantID.String()).Info("lead responded", "lead_id", leadID)

	s.bus.Publish(ctx, events.LeadResponded{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		LeadID:    leadID,
	})

	return lead, nil
}

// UpdateStatus transitions the lead with optimistic concurrency. A stale
// expectedVersion surfaces as a conflict for the caller to retry against the
// fresh row.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, leadID uuid.UUID, status domain.Status, expectedVersion int) (repository.Lead, error) {
	lead, err := s.store.UpdateStatus(ctx, tenantID, leadID, status, expectedVersion)
	if err != nil {
		return repository.Lead{}, mapStoreErr(err, "Service.UpdateStatus")
	}

	return lead, nil
}

// Get returns one lead within the tenant.
func (s *Service) Get(ctx context.Context, tenantID, leadID uuid.UUID) (repository.Lead, error) {
	lead, err := s.store.FindByID(ctx, tenantID, leadID)
	if err != nil {
		return repository.Lead{}, mapStoreErr(err, "Service.Get")
	}

	return lead, nil
}

// List returns the tenant's leads, optionally filtered by status.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, status *domain.Status) ([]repository.Lead, error) {
	if status != nil {
		return s.store.FindByStatus(ctx, tenantID, *status)
	}

	return s.store.FindByTenant(ctx, tenantID)
}

func mapStoreErr(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("lead not found").WithOp(op)
	case errors.Is(err, repository.ErrStaleVersion):
		return apperr.Conflict("lead was modified concurrently, reload and retry").WithOp(op)
	default:
		return err
	}
}
