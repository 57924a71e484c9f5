package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sarmadashoor/LeadManager/platform/logger"
)

// Ledger is the subset of the repository the runner needs.
type Ledger interface {
	Begin(ctx context.Context, jobType, jobKey string, tenantID uuid.UUID) (uuid.UUID, error)
	Complete(ctx context.Context, executionID uuid.UUID, outcome Outcome) error
}

// Runner wraps job bodies with the claim-run-complete ledger protocol.
type Runner struct {
	ledger Ledger
	log    *logger.Logger
}

// NewRunner creates a runner backed by the given ledger.
func NewRunner(ledger Ledger, log *logger.Logger) *Runner {
	return &Runner{ledger: ledger, log: log}
}

// PollWindowKey builds the deterministic key for one tenant's polling window.
// Two pollers firing in the same window produce the same key and therefore
// at most one execution.
func PollWindowKey(jobType string, tenantID uuid.UUID, windowStart time.Time, windowSize time.Duration) string {
	window := windowStart.UTC().Truncate(windowSize)
	return fmt.Sprintf("%s:%s:%s", jobType, tenantID, window.Format(time.RFC3339))
}

// RunExclusive executes fn at most once per job key. If another worker
// already claimed the key the call returns (Outcome{}, ErrAlreadyRan) without
// invoking fn. fn's outcome is always written back to the ledger: a fn error
// closes the execution as failed, a clean return with per-item errors closes
// it as completed_with_errors, and a clean return closes it as completed.
func (r *Runner) RunExclusive(ctx context.Context, jobType, jobKey string, tenantID uuid.UUID, fn func(ctx context.Context) (Outcome, error)) (Outcome, error) {
	executionID, err := r.ledger.Begin(ctx, jobType, jobKey, tenantID)
	if errors.Is(err, ErrAlreadyRan) {
		r.log.Debug("skipping job, key already claimed", "job_type", jobType, "job_key", jobKey)
		return Outcome{}, ErrAlreadyRan
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("begin job execution: %w", err)
	}

	outcome, runErr := fn(ctx)
	if runErr != nil {
		msg := runErr.Error()
		outcome.Status = StatusFailed
		outcome.ErrorMessage = &msg
	} else if outcome.Status == "" {
		if outcome.ErrorsCount > 0 {
			outcome.Status = StatusCompletedWithErrors
		} else {
			outcome.Status = StatusCompleted
		}
	}

	// Complete on a detached context so a cancelled run still closes its
	// ledger row instead of leaving it stuck in running.
	completeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := r.ledger.Complete(completeCtx, executionID, outcome); err != nil {
		r.log.Error("failed to complete job execution", "job_type", jobType, "job_key", jobKey, "error", err)
	}

	return outcome, runErr
}
