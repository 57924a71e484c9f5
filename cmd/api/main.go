package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sarmadashoor/LeadManager/internal/audit"
	"github.com/sarmadashoor/LeadManager/internal/crm/shopmonkey"
	"github.com/sarmadashoor/LeadManager/internal/events"
	apphttp "github.com/sarmadashoor/LeadManager/internal/http"
	"github.com/sarmadashoor/LeadManager/internal/http/router"
	"github.com/sarmadashoor/LeadManager/internal/jobs"
	"github.com/sarmadashoor/LeadManager/internal/leads"
	"github.com/sarmadashoor/LeadManager/internal/leads/service"
	"github.com/sarmadashoor/LeadManager/internal/scheduler"
	"github.com/sarmadashoor/LeadManager/internal/tenants"
	"github.com/sarmadashoor/LeadManager/internal/webhook"
	"github.com/sarmadashoor/LeadManager/migrations"
	"github.com/sarmadashoor/LeadManager/platform/config"
	"github.com/sarmadashoor/LeadManager/platform/db"
	"github.com/sarmadashoor/LeadManager/platform/logger"
	"github.com/sarmadashoor/LeadManager/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting api server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	audit.NewTrail(log).Register(eventBus)

	nudger, closeNudger := initNudger(cfg, log)
	if closeNudger != nil {
		defer closeNudger()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	tenantRepo := tenants.NewRepository(pool)
	crmClient := shopmonkey.NewClient(cfg, log)

	leadsModule := leads.NewModule(pool, eventBus, nudger, val, log)
	webhookModule := webhook.NewModule(leadsModule.Service(), crmClient, tenantRepo, cfg, log)
	jobsModule := jobs.NewModule(pool)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			webhookModule,
			jobsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initNudger wires the task queue client when Redis is configured. Without
// it new leads wait for the interval sweep instead of an immediate nudge.
func initNudger(cfg config.SchedulerConfig, log *logger.Logger) (service.Nudger, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; initial touch nudges disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
