// Package jobs is the execution ledger for background work. Each logical run
// is identified by a deterministic job key; the unique constraint on that key
// is what makes overlapping pollers and redelivered triggers collapse to a
// single execution.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadyRan signals that another worker claimed this job key first.
// Callers skip the run; this is the normal outcome under overlap, not an
// error condition worth alerting on.
var ErrAlreadyRan = errors.New("job already ran for this key")

// Execution statuses.
const (
	StatusRunning             = "running"
	StatusCompleted           = "completed"
	StatusCompletedWithErrors = "completed_with_errors"
	StatusFailed              = "failed"
)

// Outcome summarizes a finished job run.
type Outcome struct {
	Status         string
	LeadsProcessed int
	LeadsCreated   int
	ErrorsCount    int
	ErrorMessage   *string
	Metadata       json.RawMessage
}

const beginExecutionQuery = `
	INSERT INTO job_executions (job_type, job_key, tenant_id, status, started_at)
	VALUES ($1, $2, $3, 'running', now())
	ON CONFLICT (job_key) DO NOTHING
	RETURNING id`

const completeExecutionQuery = `
	UPDATE job_executions
	SET status = $2,
	    completed_at = now(),
	    duration_ms = (EXTRACT(EPOCH FROM (now() - started_at)) * 1000)::BIGINT,
	    leads_processed = $3,
	    leads_created = $4,
	    errors_count = $5,
	    error_message = $6,
	    metadata = $7
	WHERE id = $1`

const recentExecutionsQuery = `
	SELECT id, tenant_id, job_type, job_key, status, started_at, completed_at, duration_ms,
	       leads_processed, leads_created, errors_count, error_message
	FROM job_executions
	WHERE tenant_id = $1 AND job_type = $2
	ORDER BY started_at DESC
	LIMIT $3`

// Execution is one row of the ledger.
type Execution struct {
	ID             uuid.UUID
	TenantID       *uuid.UUID
	JobType        string
	JobKey         string
	Status         string
	StartedAt      time.Time
	CompletedAt    *time.Time
	DurationMs     *int64
	LeadsProcessed int
	LeadsCreated   int
	ErrorsCount    int
	ErrorMessage   *string
}

// Repository persists job executions in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new job execution repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Begin claims the job key and opens a running execution. Returns
// ErrAlreadyRan when the key is already taken, which is how concurrent
// workers lose the claim race. tenantID may be uuid.Nil for jobs that are
// not tenant-scoped.
func (r *Repository) Begin(ctx context.Context, jobType, jobKey string, tenantID uuid.UUID) (uuid.UUID, error) {
	var tenant *uuid.UUID
	if tenantID != uuid.Nil {
		tenant = &tenantID
	}

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, beginExecutionQuery, jobType, jobKey, tenant).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrAlreadyRan
	}
	if err != nil {
		return uuid.Nil, err
	}

	return id, nil
}

// Complete closes an execution with its outcome and measured duration.
func (r *Repository) Complete(ctx context.Context, executionID uuid.UUID, outcome Outcome) error {
	_, err := r.pool.Exec(ctx, completeExecutionQuery,
		executionID, outcome.Status,
		outcome.LeadsProcessed, outcome.LeadsCreated, outcome.ErrorsCount,
		outcome.ErrorMessage, outcome.Metadata,
	)
	return err
}

// Recent returns a tenant's latest executions of a job type, newest first.
func (r *Repository) Recent(ctx context.Context, tenantID uuid.UUID, jobType string, limit int) ([]Execution, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, recentExecutionsQuery, tenantID, jobType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	executions := make([]Execution, 0)
	for rows.Next() {
		var e Execution
		err := rows.Scan(
			&e.ID, &e.TenantID, &e.JobType, &e.JobKey, &e.Status, &e.StartedAt, &e.CompletedAt, &e.DurationMs,
			&e.LeadsProcessed, &e.LeadsCreated, &e.ErrorsCount, &e.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}
		executions = append(executions, e)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return executions, nil
}
