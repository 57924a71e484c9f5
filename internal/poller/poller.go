// Package poller is the slow ingestion path. It sweeps the CRM on an
// interval and admits every qualifying order, catching anything the webhook
// missed or delivered before the tenant was wired up. Both paths converge on
// the same idempotent admission, so racing the webhook is safe.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sarmadashoor/LeadManager/internal/crm/shopmonkey"
	"github.com/sarmadashoor/LeadManager/internal/jobs"
	"github.com/sarmadashoor/LeadManager/internal/leads/repository"
	"github.com/sarmadashoor/LeadManager/internal/metrics"
	"github.com/sarmadashoor/LeadManager/internal/tenants"
	"github.com/sarmadashoor/LeadManager/platform/config"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

const crmTypeShopMonkey = "shopmonkey"

// LeadFetcher pulls qualified website leads from the CRM.
type LeadFetcher interface {
	FetchWebsiteLeads(ctx context.Context) ([]shopmonkey.WebsiteLead, error)
}

// Admitter is the slice of the leads service the poller needs.
type Admitter interface {
	Admit(ctx context.Context, tenantID uuid.UUID, data repository.CreateLeadData, source string) (repository.Lead, bool, error)
}

// ConfigStore reads per-tenant polling configuration and records outcomes.
type ConfigStore interface {
	ListPollableConfigs(ctx context.Context, crmType string) ([]tenants.CRMConfig, error)
	RecordPollResult(ctx context.Context, configID uuid.UUID, status string) error
}

// ExclusiveRunner guards each poll window against duplicate execution.
type ExclusiveRunner interface {
	RunExclusive(ctx context.Context, jobType, jobKey string, tenantID uuid.UUID, fn func(ctx context.Context) (jobs.Outcome, error)) (jobs.Outcome, error)
}

// Poller periodically sweeps every pollable tenant's CRM for new leads.
type Poller struct {
	fetcher  LeadFetcher
	admitter Admitter
	configs  ConfigStore
	runner   ExclusiveRunner
	interval time.Duration
	log      *logger.Logger
}

// NewPoller creates a poller.
func NewPoller(fetcher LeadFetcher, admitter Admitter, configs ConfigStore, runner ExclusiveRunner, cfg config.IngestionConfig, log *logger.Logger) *Poller {
	return &Poller{
		fetcher:  fetcher,
		admitter: admitter,
		configs:  configs,
		runner:   runner,
		interval: cfg.GetPollInterval(),
		log:      log,
	}
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("lead poller started", "interval", p.interval.String())

	p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("lead poller stopped")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce runs one poll cycle for every pollable tenant. A tenant's failure
// is recorded on its config and never blocks the other tenants.
func (p *Poller) PollOnce(ctx context.Context) {
	configs, err := p.configs.ListPollableConfigs(ctx, crmTypeShopMonkey)
	if err != nil {
		p.log.Error("failed to list pollable tenants", "error", err)
		return
	}

	for _, cfg := range configs {
		if ctx.Err() != nil {
			return
		}
		p.pollTenant(ctx, cfg)
	}
}

// windowFor returns the dedup window for one tenant's poll cycles. A tenant
// configured slower than the global tick keeps the same window key across
// ticks, so RunExclusive collapses the extra ones to skips.
func (p *Poller) windowFor(cfg tenants.CRMConfig) time.Duration {
	if cfg.PollingIntervalMinutes > 0 {
		return time.Duration(cfg.PollingIntervalMinutes) * time.Minute
	}
	return p.interval
}

func (p *Poller) pollTenant(ctx context.Context, cfg tenants.CRMConfig) {
	log := p.log.WithTenantID(cfg.TenantID.String())

	jobKey := jobs.PollWindowKey("lead-poll", cfg.TenantID, time.Now(), p.windowFor(cfg))
	outcome, err := p.runner.RunExclusive(ctx, "lead-poll", jobKey, cfg.TenantID, func(ctx context.Context) (jobs.Outcome, error) {
		return p.sweep(ctx, cfg.TenantID, log)
	})
	if errors.Is(err, jobs.ErrAlreadyRan) {
		log.Debug("poll window already claimed", "job_key", jobKey)
		return
	}

	status := "success"
	if err != nil {
		status = "failed"
		metrics.PollCycleErrors.WithLabelValues(cfg.TenantID.String()).Inc()
		log.Error("poll cycle failed", "error", err,
			"leads_processed", outcome.LeadsProcessed, "errors", outcome.ErrorsCount)
	} else {
		log.Info("poll cycle completed",
			"leads_processed", outcome.LeadsProcessed,
			"leads_created", outcome.LeadsCreated,
			"errors", outcome.ErrorsCount)
	}

	if recordErr := p.configs.RecordPollResult(ctx, cfg.ID, status); recordErr != nil {
		log.Error("failed to record poll result", "error", recordErr)
	}
}

// sweep fetches and admits one tenant's current website leads. A single bad
// lead counts as an error but never aborts the rest of the batch.
func (p *Poller) sweep(ctx context.Context, tenantID uuid.UUID, log *logger.Logger) (jobs.Outcome, error) {
	var outcome jobs.Outcome

	websiteLeads, err := p.fetcher.FetchWebsiteLeads(ctx)
	if err != nil {
		return outcome, fmt.Errorf("fetch website leads: %w", err)
	}

	for _, wl := range websiteLeads {
		_, created, err := p.admitter.Admit(ctx, tenantID, wl.LeadData(), "poller")
		if err != nil {
			outcome.ErrorsCount++
			log.Error("failed to admit polled lead", "work_order_id", wl.Order.ID, "error", err)
			continue
		}

		outcome.LeadsProcessed++
		if created {
			outcome.LeadsCreated++
			metrics.LeadsAdmitted.WithLabelValues("poller").Inc()
		} else {
			metrics.LeadsRedelivered.WithLabelValues("poller").Inc()
		}
	}

	return outcome, nil
}
