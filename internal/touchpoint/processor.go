// Package touchpoint drives the outreach cadence: it sweeps due leads on an
// interval, hands each one to the delivery handler, and records the outcome
// so every step of the sequence is sent at most once.
package touchpoint

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sarmadashoor/LeadManager/internal/events"
	"github.com/sarmadashoor/LeadManager/internal/leads/domain"
	"github.com/sarmadashoor/LeadManager/internal/leads/repository"
	"github.com/sarmadashoor/LeadManager/internal/metrics"
	"github.com/sarmadashoor/LeadManager/internal/tenants"
	"github.com/sarmadashoor/LeadManager/platform/config"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

// Action describes one touch point ready for delivery.
type Action struct {
	TenantID        uuid.UUID
	LeadID          uuid.UUID
	TouchPoint      int
	CustomerName    *string
	CustomerEmail   *string
	CustomerPhone   *string
	LeadCreatedAt   time.Time
	TouchPointCount int
}

// Handler delivers one touch point. Returning true means the touch counts as
// sent and the schedule advances; returning false leaves the lead due so the
// next sweep retries it.
type Handler func(ctx context.Context, action Action) bool

// LeadStore is the lead persistence the processor needs.
type LeadStore interface {
	FindDueForTouchPoint(ctx context.Context, tenantID uuid.UUID, limit int) ([]repository.Lead, error)
	RecordTouchPoint(ctx context.Context, tenantID, leadID uuid.UUID, nextTouchPointAt *time.Time) (repository.Lead, error)
	MarkAsLost(ctx context.Context, tenantID, leadID uuid.UUID) (repository.Lead, error)
}

// TenantLister enumerates the tenants to sweep.
type TenantLister interface {
	ListActive(ctx context.Context) ([]tenants.Tenant, error)
}

// Result summarizes one processing sweep.
type Result struct {
	Processed  int
	MarkedLost int
	Errors     []string
}

// Processor sweeps due leads across all active tenants.
type Processor struct {
	leads      LeadStore
	tenantRepo TenantLister
	bus        events.Bus
	handler    Handler
	interval   time.Duration
	batchSize  int
	processing atomic.Bool
	running    atomic.Bool
	log        *logger.Logger
}

// NewProcessor creates a touch point processor.
func NewProcessor(leads LeadStore, tenantRepo TenantLister, bus events.Bus, cfg config.ProcessorConfig, log *logger.Logger) *Processor {
	return &Processor{
		leads:      leads,
		tenantRepo: tenantRepo,
		bus:        bus,
		interval:   cfg.GetTouchPointInterval(),
		batchSize:  cfg.GetTouchPointBatchSize(),
		log:        log,
	}
}

// SetHandler installs the delivery handler. Without one, due touch points
// are logged and counted as sent, which keeps the schedule moving in
// environments with messaging disabled.
func (p *Processor) SetHandler(handler Handler) {
	p.handler = handler
}

// Run sweeps on the configured interval until ctx is cancelled. The first
// sweep happens immediately.
func (p *Processor) Run(ctx context.Context) {
	p.running.Store(true)
	defer p.running.Store(false)

	p.log.Info("touch point processor started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Process(ctx)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("touch point processor stopped")
			return
		case <-ticker.C:
			p.Process(ctx)
		}
	}
}

// Process runs one sweep over all active tenants. Overlapping calls are
// rejected: a sweep still in flight makes this a no-op, so a slow delivery
// can never double-send a touch point.
func (p *Processor) Process(ctx context.Context) Result {
	if !p.processing.CompareAndSwap(false, true) {
		p.log.Debug("sweep already in progress, skipping")
		return Result{Errors: []string{"already processing"}}
	}
	defer p.processing.Store(false)

	var result Result

	activeTenants, err := p.tenantRepo.ListActive(ctx)
	if err != nil {
		p.log.Error("failed to list tenants", "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("list tenants: %v", err))
		return result
	}

	for _, tenant := range activeTenants {
		p.processTenant(ctx, tenant.ID, &result)
	}

	if result.Processed > 0 || result.MarkedLost > 0 {
		p.log.Info("sweep complete", "processed", result.Processed, "marked_lost", result.MarkedLost, "errors", len(result.Errors))
	}

	return result
}

func (p *Processor) processTenant(ctx context.Context, tenantID uuid.UUID, result *Result) {
	due, err := p.leads.FindDueForTouchPoint(ctx, tenantID, p.batchSize)
	if err != nil {
		p.log.Error("failed to find due leads", "tenant_id", tenantID, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("tenant %s: find due: %v", tenantID, err))
		return
	}

	for _, lead := range due {
		if err := p.processLead(ctx, lead, result); err != nil {
			p.log.Error("failed to process lead", "tenant_id", tenantID, "lead_id", lead.ID, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("lead %s: %v", lead.ID, err))
		}
	}
}

func (p *Processor) processLead(ctx context.Context, lead repository.Lead, result *Result) error {
	if domain.ShouldMarkAsLost(lead.TouchPointCount, lead.FirstResponseAt != nil) {
		if _, err := p.leads.MarkAsLost(ctx, lead.TenantID, lead.ID); err != nil {
			return fmt.Errorf("mark as lost: %w", err)
		}

		result.MarkedLost++
		metrics.LeadsLost.Inc()
		p.log.Info("lead marked as lost", "lead_id", lead.ID, "touch_points", lead.TouchPointCount)
		p.bus.Publish(ctx, events.LeadLost{
			BaseEvent:   events.NewBaseEvent(),
			TenantID:    lead.TenantID,
			LeadID:      lead.ID,
			TouchPoints: lead.TouchPointCount,
		})
		return nil
	}

	touchPoint := lead.TouchPointCount + 1
	action := Action{
		TenantID:        lead.TenantID,
		LeadID:          lead.ID,
		TouchPoint:      touchPoint,
		CustomerName:    lead.CustomerName,
		CustomerEmail:   lead.CustomerEmail,
		CustomerPhone:   lead.CustomerPhone,
		LeadCreatedAt:   lead.CreatedAt,
		TouchPointCount: lead.TouchPointCount,
	}

	sent := true
	if p.handler != nil {
		sent = p.handler(ctx, action)
	} else {
		p.log.Info("touch point due with no delivery handler", "lead_id", lead.ID, "touch_point", touchPoint)
	}

	if !sent {
		// Delivery failed. Leave next_touch_point_at untouched so the
		// next sweep retries this lead.
		return nil
	}

	nextAt := domain.NextTouchPointTime(lead.CreatedAt, touchPoint)
	if _, err := p.leads.RecordTouchPoint(ctx, lead.TenantID, lead.ID, nextAt); err != nil {
		return fmt.Errorf("record touch point: %w", err)
	}

	result.Processed++
	metrics.TouchPointsSent.WithLabelValues(strconv.Itoa(touchPoint)).Inc()
	p.bus.Publish(ctx, events.TouchPointSent{
		BaseEvent:  events.NewBaseEvent(),
		TenantID:   lead.TenantID,
		LeadID:     lead.ID,
		TouchPoint: touchPoint,
	})

	return nil
}

// Status reports whether the processor loop is running and whether a sweep
// is currently in flight.
func (p *Processor) Status() (running, processing bool) {
	return p.running.Load(), p.processing.Load()
}
