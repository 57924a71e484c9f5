package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sarmadashoor/LeadManager/internal/crm/shopmonkey"
	"github.com/sarmadashoor/LeadManager/internal/jobs"
	"github.com/sarmadashoor/LeadManager/internal/leads/repository"
	"github.com/sarmadashoor/LeadManager/internal/tenants"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

type fakeFetcher struct {
	leads []shopmonkey.WebsiteLead
	err   error
	calls int
}

func (f *fakeFetcher) FetchWebsiteLeads(context.Context) ([]shopmonkey.WebsiteLead, error) {
	f.calls++
	return f.leads, f.err
}

type admission struct {
	tenantID uuid.UUID
	data     repository.CreateLeadData
	source   string
}

type fakeAdmitter struct {
	admitted []admission
	failFor  map[string]error
	existing map[string]bool
}

func (f *fakeAdmitter) Admit(_ context.Context, tenantID uuid.UUID, data repository.CreateLeadData, source string) (repository.Lead, bool, error) {
	if err := f.failFor[data.CRMWorkOrderID]; err != nil {
		return repository.Lead{}, false, err
	}
	f.admitted = append(f.admitted, admission{tenantID: tenantID, data: data, source: source})
	created := !f.existing[data.CRMWorkOrderID]
	return repository.Lead{ID: uuid.New()}, created, nil
}

type pollResult struct {
	configID uuid.UUID
	status   string
}

type fakeConfigStore struct {
	configs []tenants.CRMConfig
	listErr error
	results []pollResult
}

func (f *fakeConfigStore) ListPollableConfigs(_ context.Context, crmType string) ([]tenants.CRMConfig, error) {
	if crmType != "shopmonkey" {
		return nil, nil
	}
	return f.configs, f.listErr
}

func (f *fakeConfigStore) RecordPollResult(_ context.Context, configID uuid.UUID, status string) error {
	f.results = append(f.results, pollResult{configID: configID, status: status})
	return nil
}

// passthroughRunner runs every job body and remembers the keys and tenants
// it saw, returning ErrAlreadyRan for keys marked as claimed.
type passthroughRunner struct {
	claimAll bool
	keys     []string
	tenants  []uuid.UUID
}

func (r *passthroughRunner) RunExclusive(ctx context.Context, _, jobKey string, tenantID uuid.UUID, fn func(ctx context.Context) (jobs.Outcome, error)) (jobs.Outcome, error) {
	r.keys = append(r.keys, jobKey)
	r.tenants = append(r.tenants, tenantID)
	if r.claimAll {
		return jobs.Outcome{}, jobs.ErrAlreadyRan
	}
	return fn(ctx)
}

type ingestionConfig struct {
	interval time.Duration
}

func (c ingestionConfig) GetPollInterval() time.Duration { return c.interval }

func websiteLead(workOrderID string) shopmonkey.WebsiteLead {
	name := "New Quote - Tint"
	return shopmonkey.WebsiteLead{
		Order: shopmonkey.Order{
			ID:               workOrderID,
			Name:             &name,
			Status:           "Estimate",
			WorkflowStatusID: shopmonkey.WorkflowWebsiteLeads,
		},
	}
}

func newTestPoller(fetcher *fakeFetcher, admitter *fakeAdmitter, configs *fakeConfigStore, runner *passthroughRunner) *Poller {
	return NewPoller(fetcher, admitter, configs, runner, ingestionConfig{interval: 15 * time.Minute}, logger.New("test"))
}

func TestPollOnceAdmitsLeadsForEveryTenant(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()
	fetcher := &fakeFetcher{leads: []shopmonkey.WebsiteLead{websiteLead("wo-1"), websiteLead("wo-2")}}
	admitter := &fakeAdmitter{}
	configs := &fakeConfigStore{configs: []tenants.CRMConfig{
		{ID: uuid.New(), TenantID: tenantA},
		{ID: uuid.New(), TenantID: tenantB},
	}}
	runner := &passthroughRunner{}

	newTestPoller(fetcher, admitter, configs, runner).PollOnce(context.Background())

	if len(admitter.admitted) != 4 {
		t.Fatalf("expected 4 admissions (2 leads x 2 tenants), got %d", len(admitter.admitted))
	}
	for _, a := range admitter.admitted {
		if a.source != "poller" {
			t.Fatalf("expected source poller, got %q", a.source)
		}
	}
	if len(configs.results) != 2 {
		t.Fatalf("expected 2 poll results, got %d", len(configs.results))
	}
	for _, r := range configs.results {
		if r.status != "success" {
			t.Fatalf("expected success result, got %q", r.status)
		}
	}
}

func TestPollOnceSkipsClaimedWindows(t *testing.T) {
	fetcher := &fakeFetcher{leads: []shopmonkey.WebsiteLead{websiteLead("wo-1")}}
	admitter := &fakeAdmitter{}
	configs := &fakeConfigStore{configs: []tenants.CRMConfig{{ID: uuid.New(), TenantID: uuid.New()}}}
	runner := &passthroughRunner{claimAll: true}

	newTestPoller(fetcher, admitter, configs, runner).PollOnce(context.Background())

	if len(admitter.admitted) != 0 {
		t.Fatal("claimed window must not admit leads")
	}
	if len(configs.results) != 0 {
		t.Fatal("claimed window must not record a poll result")
	}
}

func TestPollOnceRecordsFailureWhenFetchFails(t *testing.T) {
	configID := uuid.New()
	fetcher := &fakeFetcher{err: errors.New("crm unreachable")}
	admitter := &fakeAdmitter{}
	configs := &fakeConfigStore{configs: []tenants.CRMConfig{{ID: configID, TenantID: uuid.New()}}}
	runner := &passthroughRunner{}

	newTestPoller(fetcher, admitter, configs, runner).PollOnce(context.Background())

	if len(configs.results) != 1 || configs.results[0].status != "failed" {
		t.Fatalf("expected one failed result, got %+v", configs.results)
	}
}

func TestPollOnceIsolatesPerLeadErrors(t *testing.T) {
	fetcher := &fakeFetcher{leads: []shopmonkey.WebsiteLead{websiteLead("wo-bad"), websiteLead("wo-good")}}
	admitter := &fakeAdmitter{failFor: map[string]error{"wo-bad": errors.New("constraint violation")}}
	configs := &fakeConfigStore{configs: []tenants.CRMConfig{{ID: uuid.New(), TenantID: uuid.New()}}}
	runner := &passthroughRunner{}

	newTestPoller(fetcher, admitter, configs, runner).PollOnce(context.Background())

	if len(admitter.admitted) != 1 || admitter.admitted[0].data.CRMWorkOrderID != "wo-good" {
		t.Fatalf("expected only wo-good admitted, got %+v", admitter.admitted)
	}
	// A bad lead is an error inside the cycle, not a cycle failure.
	if len(configs.results) != 1 || configs.results[0].status != "success" {
		t.Fatalf("expected success result despite per-lead error, got %+v", configs.results)
	}
}

func TestPollOnceScopesJobsToTheirTenant(t *testing.T) {
	tenantID := uuid.New()
	fetcher := &fakeFetcher{leads: []shopmonkey.WebsiteLead{websiteLead("wo-1")}}
	admitter := &fakeAdmitter{}
	configs := &fakeConfigStore{configs: []tenants.CRMConfig{{ID: uuid.New(), TenantID: tenantID}}}
	runner := &passthroughRunner{}

	newTestPoller(fetcher, admitter, configs, runner).PollOnce(context.Background())

	if len(runner.tenants) != 1 || runner.tenants[0] != tenantID {
		t.Fatalf("expected the run scoped to tenant %s, got %v", tenantID, runner.tenants)
	}
}

func TestWindowForHonorsTenantCadence(t *testing.T) {
	poller := newTestPoller(&fakeFetcher{}, &fakeAdmitter{}, &fakeConfigStore{}, &passthroughRunner{})

	slow := tenants.CRMConfig{PollingIntervalMinutes: 60}
	if got := poller.windowFor(slow); got != time.Hour {
		t.Fatalf("expected 1h window for a 60-minute tenant, got %v", got)
	}

	// No per-tenant cadence falls back to the global tick, so every tick
	// opens a fresh window.
	if got := poller.windowFor(tenants.CRMConfig{}); got != 15*time.Minute {
		t.Fatalf("expected the global interval, got %v", got)
	}
}

func TestPollOnceReadmitsKnownLeadsWithoutCreating(t *testing.T) {
	fetcher := &fakeFetcher{leads: []shopmonkey.WebsiteLead{websiteLead("wo-1")}}
	admitter := &fakeAdmitter{existing: map[string]bool{"wo-1": true}}
	configs := &fakeConfigStore{configs: []tenants.CRMConfig{{ID: uuid.New(), TenantID: uuid.New()}}}
	runner := &passthroughRunner{}

	newTestPoller(fetcher, admitter, configs, runner).PollOnce(context.Background())

	if len(admitter.admitted) != 1 {
		t.Fatalf("expected the known lead re-admitted, got %d admissions", len(admitter.admitted))
	}
}
