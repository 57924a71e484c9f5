package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sarmadashoor/LeadManager/internal/audit"
	"github.com/sarmadashoor/LeadManager/internal/crm/shopmonkey"
	"github.com/sarmadashoor/LeadManager/internal/events"
	"github.com/sarmadashoor/LeadManager/internal/jobs"
	leadrepo "github.com/sarmadashoor/LeadManager/internal/leads/repository"
	leadservice "github.com/sarmadashoor/LeadManager/internal/leads/service"
	"github.com/sarmadashoor/LeadManager/internal/messaging"
	"github.com/sarmadashoor/LeadManager/internal/poller"
	"github.com/sarmadashoor/LeadManager/internal/scheduler"
	"github.com/sarmadashoor/LeadManager/internal/tenants"
	"github.com/sarmadashoor/LeadManager/internal/touchpoint"
	"github.com/sarmadashoor/LeadManager/platform/config"
	"github.com/sarmadashoor/LeadManager/platform/db"
	"github.com/sarmadashoor/LeadManager/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	audit.NewTrail(log).Register(eventBus)

	leadRepo := leadrepo.New(pool)
	tenantRepo := tenants.NewRepository(pool)
	jobRunner := jobs.NewRunner(jobs.NewRepository(pool), log)

	crmClient := shopmonkey.NewClient(cfg, log)
	leadSvc := leadservice.New(leadRepo, eventBus, nil, log)

	// Delivery channels are opt-in. A disabled channel is simply absent, the
	// whitelist gate handles the rest.
	var emailCh messaging.EmailChannel
	if cfg.GetEmailEnabled() {
		emailCh = messaging.NewSMTPEmailChannel(cfg)
		log.Info("email channel enabled", "host", cfg.GetSMTPHost())
	} else {
		log.Warn("email channel disabled")
	}

	var smsCh messaging.SMSChannel
	if cfg.IsSMSEnabled() {
		smsCh = messaging.NewTwilioSMSChannel(cfg, log)
		log.Info("sms channel enabled")
	} else {
		log.Warn("sms channel disabled, Twilio credentials not configured")
	}

	messagingSvc := messaging.NewService(emailCh, smsCh, cfg, log)

	processor := touchpoint.NewProcessor(leadRepo, tenantRepo, eventBus, cfg, log)
	processor.SetHandler(messagingSvc.DeliverTouchPoint)

	leadPoller := poller.NewPoller(crmClient, leadSvc, tenantRepo, jobRunner, cfg, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		processor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		leadPoller.Run(gctx)
		return nil
	})

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; running without the task queue worker")
	} else {
		worker, err := scheduler.NewWorker(cfg, processor, log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
			panic("failed to initialize scheduler worker: " + err.Error())
		}
		g.Go(func() error {
			worker.Run(gctx)
			return nil
		})
	}

	_ = g.Wait()
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
