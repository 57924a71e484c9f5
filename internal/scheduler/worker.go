package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/sarmadashoor/LeadManager/internal/touchpoint"
	"github.com/sarmadashoor/LeadManager/platform/config"
	"github.com/sarmadashoor/LeadManager/platform/logger"
)

// Sweeper runs one touch point sweep. A concurrent sweep is coalesced by the
// processor itself, so firing it for every queued task is safe.
type Sweeper interface {
	Process(ctx context.Context) touchpoint.Result
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper Sweeper
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper Sweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		sweeper: sweeper,
		log:     log,
	}

	mux.HandleFunc(TaskLeadInitialTouch, w.handleInitialTouch)

	return w, nil
}

// handleInitialTouch reacts to a fresh admission by sweeping immediately
// instead of waiting for the next tick. The sweep finds the lead through the
// same due-lead query as the interval path, so a stale or duplicate task is
// harmless.
func (w *Worker) handleInitialTouch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseInitialTouchPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	result := w.sweeper.Process(ctx)
	w.log.Info("initial touch sweep finished",
		"lead_id", leadID,
		"tenant_id", tenantID,
		"processed", result.Processed,
		"marked_lost", result.MarkedLost,
		"errors", len(result.Errors))

	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
