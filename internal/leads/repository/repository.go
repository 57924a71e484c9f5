// Package repository is the sole writer of lead rows. Every query is
// tenant-scoped, and every state-changing write goes through either the
// storage-level natural-key constraint (upsert) or a version-checked
// conditional update (optimistic concurrency).
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sarmadashoor/LeadManager/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no lead matches the tenant-scoped lookup.
	ErrNotFound = errors.New("lead not found")
	// ErrStaleVersion is the optimistic-lock no-op sentinel: the stored
	// version no longer matches, a concurrent writer won, and the caller
	// must reload and retry or abandon. Expected under contention, not fatal.
	ErrStaleVersion = errors.New("lead version is stale")
)

// Lead is a CRM work order tracked for sales outreach.
type Lead struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	CRMSource          string
	CRMWorkOrderID     string
	CRMWorkOrderNumber *string
	Status             domain.Status
	CustomerExternalID *string
	CustomerName       *string
	CustomerPhone      *string
	CustomerEmail      *string
	VehicleExternalID  *string
	VehicleYear        *int
	VehicleMake        *string
	VehicleModel       *string
	VehicleDescription *string
	ServiceType        string
	ServiceName        *string
	EstimatedCostCents *int
	InvitationSentAt   *time.Time
	FirstResponseAt    *time.Time
	CRMMetadata        json.RawMessage
	Version            int
	TouchPointCount    int
	NextTouchPointAt   *time.Time
	LastContactedAt    *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ProcessedAt        *time.Time
}

// HasContactInfo reports whether any delivery channel can reach this lead.
func (l Lead) HasContactInfo() bool {
	return (l.CustomerEmail != nil && *l.CustomerEmail != "") ||
		(l.CustomerPhone != nil && *l.CustomerPhone != "")
}

// CreateLeadData carries the CRM-sourced fields for admitting a lead.
// The CRM is the source of truth: on redelivery these fields overwrite the
// stored row (last-writer-wins).
type CreateLeadData struct {
	CRMSource          string
	CRMWorkOrderID     string
	CRMWorkOrderNumber *string
	CustomerExternalID *string
	CustomerName       *string
	CustomerPhone      *string
	CustomerEmail      *string
	VehicleExternalID  *string
	VehicleYear        *int
	VehicleMake        *string
	VehicleModel       *string
	VehicleDescription *string
	ServiceType        string
	ServiceName        *string
	EstimatedCostCents *int
	CRMMetadata        json.RawMessage
}

const leadColumns = `id, tenant_id, crm_source, crm_work_order_id, crm_work_order_number, status,
	customer_external_id, customer_name, customer_phone, customer_email,
	vehicle_external_id, vehicle_year, vehicle_make, vehicle_model, vehicle_description,
	service_type, service_name, estimated_cost_cents,
	invitation_sent_at, first_response_at, crm_metadata,
	version, touch_point_count, next_touch_point_at, last_contacted_at,
	created_at, updated_at, processed_at`

// upsertLeadQuery converges both ingestion paths onto one row per natural
// key. The unique constraint on (tenant_id, crm_source, crm_work_order_id)
// closes the check-then-insert race at the storage layer; (xmax = 0)
// distinguishes a fresh insert from a conflict-update.
const upsertLeadQuery = `
	INSERT INTO leads (
		tenant_id, crm_source, crm_work_order_id, crm_work_order_number,
		customer_external_id, customer_name, customer_phone, customer_email,
		vehicle_external_id, vehicle_year, vehicle_make, vehicle_model, vehicle_description,
		service_type, service_name, estimated_cost_cents, crm_metadata
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (tenant_id, crm_source, crm_work_order_id) DO UPDATE SET
		crm_work_order_number = EXCLUDED.crm_work_order_number,
		customer_external_id = EXCLUDED.customer_external_id,
		customer_name = EXCLUDED.customer_name,
		customer_phone = EXCLUDED.customer_phone,
		customer_email = EXCLUDED.customer_email,
		vehicle_external_id = EXCLUDED.vehicle_external_id,
		vehicle_year = EXCLUDED.vehicle_year,
		vehicle_make = EXCLUDED.vehicle_make,
		vehicle_model = EXCLUDED.vehicle_model,
		vehicle_description = EXCLUDED.vehicle_description,
		service_type = EXCLUDED.service_type,
		service_name = EXCLUDED.service_name,
		estimated_cost_cents = EXCLUDED.estimated_cost_cents,
		crm_metadata = EXCLUDED.crm_metadata,
		version = leads.version + 1,
		updated_at = now()
	RETURNING ` + leadColumns + `, (xmax = 0) AS inserted`

const updateStatusQuery = `
	UPDATE leads
	SET status = $4, version = version + 1, updated_at = now()
	WHERE tenant_id = $1 AND id = $2 AND version = $3
	RETURNING ` + leadColumns

// The due query only considers statuses still in outreach, taken from the
// domain's follow-up list so the two can never drift apart.
var findDueForTouchPointQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE tenant_id = $1
	  AND status IN (` + statusList(domain.FollowUpStatuses) + `)
	  AND touch_point_count < $2
	  AND next_touch_point_at IS NOT NULL
	  AND next_touch_point_at <= now()
	ORDER BY next_touch_point_at ASC
	LIMIT $3`

func statusList(statuses []domain.Status) string {
	quoted := make([]string, len(statuses))
	for i, status := range statuses {
		quoted[i] = "'" + string(status) + "'"
	}
	return strings.Join(quoted, ", ")
}

const recordTouchPointQuery = `
	UPDATE leads
	SET touch_point_count = touch_point_count + 1,
	    last_contacted_at = now(),
	    next_touch_point_at = $3,
	    status = 'contacted',
	    updated_at = now()
	WHERE tenant_id = $1 AND id = $2
	RETURNING ` + leadColumns

const scheduleNextTouchPointQuery = `
	UPDATE leads
	SET next_touch_point_at = $3, updated_at = now()
	WHERE tenant_id = $1 AND id = $2
	RETURNING ` + leadColumns

const markAsLostQuery = `
	UPDATE leads
	SET status = 'lost', next_touch_point_at = NULL, updated_at = now()
	WHERE tenant_id = $1 AND id = $2
	RETURNING ` + leadColumns

const markAsRespondedQuery = `
	UPDATE leads
	SET status = 'chat_active',
	    first_response_at = COALESCE(first_response_at, now()),
	    next_touch_point_at = NULL,
	    updated_at = now()
	WHERE tenant_id = $1 AND id = $2
	RETURNING ` + leadColumns

const markInvitationSentQuery = `
	UPDATE leads
	SET status = 'contacted', invitation_sent_at = now(), updated_at = now()
	WHERE tenant_id = $1 AND id = $2
	RETURNING ` + leadColumns

const markAsProcessedQuery = `
	UPDATE leads
	SET processed_at = now(), updated_at = now()
	WHERE tenant_id = $1 AND id = $2
	RETURNING ` + leadColumns

const findByIDQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE tenant_id = $1 AND id = $2`

const findByWorkOrderIDQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE tenant_id = $1 AND crm_source = $2 AND crm_work_order_id = $3`

const findByTenantQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE tenant_id = $1
	ORDER BY created_at DESC`

const findByStatusQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE tenant_id = $1 AND status = $2
	ORDER BY created_at DESC`

const findUnprocessedQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE tenant_id = $1 AND processed_at IS NULL
	ORDER BY created_at ASC`

// Repository persists leads in Postgres via pgx.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new lead repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert admits a lead by natural key. A missing row is inserted with
// status=new and version=1; an existing row has its CRM-sourced fields
// overwritten and version bumped. Safe to call any number of times and from
// concurrently running ingestion paths.
func (r *Repository) Upsert(ctx context.Context, tenantID uuid.UUID, data CreateLeadData) (Lead, bool, error) {
	row := r.pool.QueryRow(ctx, upsertLeadQuery,
		tenantID, data.CRMSource, data.CRMWorkOrderID, data.CRMWorkOrderNumber,
		data.CustomerExternalID, data.CustomerName, data.CustomerPhone, data.CustomerEmail,
		data.VehicleExternalID, data.VehicleYear, data.VehicleMake, data.VehicleModel, data.VehicleDescription,
		data.ServiceType, data.ServiceName, data.EstimatedCostCents, data.CRMMetadata,
	)

	var lead Lead
	var created bool
	if err := scanLeadWith(row, &lead, &created); err != nil {
		return Lead{}, false, err
	}

	return lead, created, nil
}

// UpdateStatus transitions a lead's status only if the stored version still
// matches expectedVersion. A concurrent writer that committed first makes
// this a no-op, surfaced as ErrStaleVersion.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, leadID uuid.UUID, status domain.Status, expectedVersion int) (Lead, error) {
	row := r.pool.QueryRow(ctx, updateStatusQuery, tenantID, leadID, expectedVersion, status)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrStaleVersion
	}
	if err != nil {
		return Lead{}, err
	}

	return lead, nil
}

// FindDueForTouchPoint returns leads whose next touch point has come due,
// oldest first, capped at limit. Terminal statuses and exhausted sequences
// are excluded by the query itself.
func (r *Repository) FindDueForTouchPoint(ctx context.Context, tenantID uuid.UUID, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, findDueForTouchPointQuery, tenantID, domain.MaxTouchPoints, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

// RecordTouchPoint registers one delivered touch point: bumps the counter,
// stamps last_contacted_at, and schedules the next due time (nil means the
// sequence is exhausted). No version check: the counter bump is atomic and
// the processor's single-flight guard prevents double-processing.
func (r *Repository) RecordTouchPoint(ctx context.Context, tenantID, leadID uuid.UUID, nextTouchPointAt *time.Time) (Lead, error) {
	row := r.pool.QueryRow(ctx, recordTouchPointQuery, tenantID, leadID, nextTouchPointAt)
	return scanLeadOrNotFound(row)
}

// ScheduleNextTouchPoint sets the next due time without recording a touch.
// Used by ingestion to arm the initial touch point on newly admitted leads.
func (r *Repository) ScheduleNextTouchPoint(ctx context.Context, tenantID, leadID uuid.UUID, nextTouchPointAt time.Time) (Lead, error) {
	row := r.pool.QueryRow(ctx, scheduleNextTouchPointQuery, tenantID, leadID, nextTouchPointAt)
	return scanLeadOrNotFound(row)
}

// MarkAsLost terminates outreach after the sequence exhausts with no
// response. Clears the next due time so the lead never reappears in the
// due-query.
func (r *Repository) MarkAsLost(ctx context.Context, tenantID, leadID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, markAsLostQuery, tenantID, leadID)
	return scanLeadOrNotFound(row)
}

// MarkAsResponded terminates outreach because the customer replied. Stamps
// first_response_at once and clears the next due time.
func (r *Repository) MarkAsResponded(ctx context.Context, tenantID, leadID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, markAsRespondedQuery, tenantID, leadID)
	return scanLeadOrNotFound(row)
}

// MarkInvitationSent records that the chat invitation went out.
func (r *Repository) MarkInvitationSent(ctx context.Context, tenantID, leadID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, markInvitationSentQuery, tenantID, leadID)
	return scanLeadOrNotFound(row)
}

// MarkAsProcessed stamps processed_at for downstream reporting.
func (r *Repository) MarkAsProcessed(ctx context.Context, tenantID, leadID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, markAsProcessedQuery, tenantID, leadID)
	return scanLeadOrNotFound(row)
}

// FindByID returns a lead by surrogate id within the tenant.
func (r *Repository) FindByID(ctx context.Context, tenantID, leadID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, findByIDQuery, tenantID, leadID)
	return scanLeadOrNotFound(row)
}

// FindByWorkOrderID returns a lead by natural key within the tenant.
func (r *Repository) FindByWorkOrderID(ctx context.Context, tenantID uuid.UUID, crmSource, workOrderID string) (Lead, error) {
	row := r.pool.QueryRow(ctx, findByWorkOrderIDQuery, tenantID, crmSource, workOrderID)
	return scanLeadOrNotFound(row)
}

// FindByTenant returns all leads for the tenant, newest first.
func (r *Repository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, findByTenantQuery, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

// FindByStatus returns the tenant's leads in the given status, newest first.
func (r *Repository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status domain.Status) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, findByStatusQuery, tenantID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

// FindUnprocessed returns the tenant's leads not yet stamped processed_at,
// oldest first.
func (r *Repository) FindUnprocessed(ctx context.Context, tenantID uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, findUnprocessedQuery, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

func scanLeadOrNotFound(row pgx.Row) (Lead, error) {
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.TenantID, &lead.CRMSource, &lead.CRMWorkOrderID, &lead.CRMWorkOrderNumber, &lead.Status,
		&lead.CustomerExternalID, &lead.CustomerName, &lead.CustomerPhone, &lead.CustomerEmail,
		&lead.VehicleExternalID, &lead.VehicleYear, &lead.VehicleMake, &lead.VehicleModel, &lead.VehicleDescription,
		&lead.ServiceType, &lead.ServiceName, &lead.EstimatedCostCents,
		&lead.InvitationSentAt, &lead.FirstResponseAt, &lead.CRMMetadata,
		&lead.Version, &lead.TouchPointCount, &lead.NextTouchPointAt, &lead.LastContactedAt,
		&lead.CreatedAt, &lead.UpdatedAt, &lead.ProcessedAt,
	)
	return lead, err
}

func scanLeadWith(row pgx.Row, lead *Lead, created *bool) error {
	return row.Scan(
		&lead.ID, &lead.TenantID, &lead.CRMSource, &lead.CRMWorkOrderID, &lead.CRMWorkOrderNumber, &lead.Status,
		&lead.CustomerExternalID, &lead.CustomerName, &lead.CustomerPhone, &lead.CustomerEmail,
		&lead.VehicleExternalID, &lead.VehicleYear, &lead.VehicleMake, &lead.VehicleModel, &lead.VehicleDescription,
		&lead.ServiceType, &lead.ServiceName, &lead.EstimatedCostCents,
		&lead.InvitationSentAt, &lead.FirstResponseAt, &lead.CRMMetadata,
		&lead.Version, &lead.TouchPointCount, &lead.NextTouchPointAt, &lead.LastContactedAt,
		&lead.CreatedAt, &lead.UpdatedAt, &lead.ProcessedAt,
		created,
	)
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	leads := make([]Lead, 0)
	for rows.Next() {
		var lead Lead
		err := rows.Scan(
			&lead.ID, &lead.TenantID, &lead.CRMSource, &lead.CRMWorkOrderID, &lead.CRMWorkOrderNumber, &lead.Status,
			&lead.CustomerExternalID, &lead.CustomerName, &lead.CustomerPhone, &lead.CustomerEmail,
			&lead.VehicleExternalID, &lead.VehicleYear, &lead.VehicleMake, &lead.VehicleModel, &lead.VehicleDescription,
			&lead.ServiceType, &lead.ServiceName, &lead.EstimatedCostCents,
			&lead.InvitationSentAt, &lead.FirstResponseAt, &lead.CRMMetadata,
			&lead.Version, &lead.TouchPointCount, &lead.NextTouchPointAt, &lead.LastContactedAt,
			&lead.CreatedAt, &lead.UpdatedAt, &lead.ProcessedAt,
		)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return leads, nil
}
