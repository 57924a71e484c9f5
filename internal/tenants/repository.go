// Package tenants reads tenant registrations and their per-CRM polling
// configuration. Everything downstream (poller, processor, messaging) fans
// out over the tenants this package returns.
package tenants

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no tenant matches the lookup.
var ErrNotFound = errors.New("tenant not found")

// Tenant is a customer organization whose leads the engine manages.
type Tenant struct {
	ID        uuid.UUID
	Slug      string
	Name      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CRMConfig is one tenant's connection to one CRM type.
type CRMConfig struct {
	ID                     uuid.UUID
	TenantID               uuid.UUID
	CRMType                string
	PollingEnabled         bool
	PollingIntervalMinutes int
	LastPolledAt           *time.Time
	LastPollStatus         *string
	ConsecutiveFailures    int
}

const listActiveQuery = `
	SELECT id, slug, name, status, created_at, updated_at
	FROM tenants
	WHERE status = 'active' AND deleted_at IS NULL
	ORDER BY slug`

const findBySlugQuery = `
	SELECT id, slug, name, status, created_at, updated_at
	FROM tenants
	WHERE slug = $1 AND deleted_at IS NULL`

const listPollableConfigsQuery = `
	SELECT c.id, c.tenant_id, c.crm_type, c.polling_enabled, c.polling_interval_minutes,
	       c.last_polled_at, c.last_poll_status, c.consecutive_failures
	FROM tenant_crm_configs c
	JOIN tenants t ON t.id = c.tenant_id
	WHERE c.crm_type = $1
	  AND c.polling_enabled = TRUE
	  AND t.status = 'active'
	  AND t.deleted_at IS NULL
	ORDER BY t.slug`

const recordPollResultQuery = `
	UPDATE tenant_crm_configs
	SET last_polled_at = now(),
	    last_poll_status = $2,
	    consecutive_failures = CASE WHEN $2 = 'success' THEN 0 ELSE consecutive_failures + 1 END,
	    updated_at = now()
	WHERE id = $1`

// Repository reads tenant data from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new tenant repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActive returns all active tenants, ordered by slug.
func (r *Repository) ListActive(ctx context.Context) ([]Tenant, error) {
	rows, err := r.pool.Query(ctx, listActiveQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := make([]Tenant, 0)
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return tenants, nil
}

// FindBySlug returns the tenant registered under slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx, findBySlugQuery, slug).
		Scan(&t.ID, &t.Slug, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tenant{}, ErrNotFound
	}
	if err != nil {
		return Tenant{}, err
	}

	return t, nil
}

// ListPollableConfigs returns the CRM configs of active tenants with polling
// enabled for the given CRM type.
func (r *Repository) ListPollableConfigs(ctx context.Context, crmType string) ([]CRMConfig, error) {
	rows, err := r.pool.Query(ctx, listPollableConfigsQuery, crmType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make([]CRMConfig, 0)
	for rows.Next() {
		var c CRMConfig
		err := rows.Scan(&c.ID, &c.TenantID, &c.CRMType, &c.PollingEnabled, &c.PollingIntervalMinutes,
			&c.LastPolledAt, &c.LastPollStatus, &c.ConsecutiveFailures)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return configs, nil
}

// RecordPollResult stamps the outcome of a poll cycle on the config. A
// success resets the consecutive failure counter, anything else increments it.
func (r *Repository) RecordPollResult(ctx context.Context, configID uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, recordPollResultQuery, configID, status)
	return err
}
