package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	sdklog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/tendant/tenant-lifecycle/internal/activities"
	"github.com/tendant/tenant-lifecycle/internal/config"
	"github.com/tendant/tenant-lifecycle/internal/workflows"
	"github.com/tendant/tenant-lifecycle/pkg/orchestrator"
	"github.com/tendant/tenant-lifecycle/pkg/repository"
	"github.com/tendant/tenant-lifecycle/pkg/routing"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	// Connect to the workflow engine
	tc, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    sdklog.NewStructuredLogger(logger),
	})
	if err != nil {
		logger.Error("failed to connect to temporal", "error", err)
		os.Exit(1)
	}
	defer tc.Close()

	logger.Info("connected to temporal", "hostport", cfg.TemporalHostPort, "namespace", cfg.TemporalNamespace)

	acts := activities.New(db, logger, cfg.MigrationTimeout)

	// One worker per lifecycle shard. A shard's queue is drained by
	// exactly this set of registrations, so every queue name the router
	// can produce must have a worker here.
	var workers []worker.Worker
	for shard := 0; shard < cfg.ShardCount; shard++ {
		queue := routing.QueueName(cfg.TaskQueuePrefix, routing.KindLifecycle, shard)
		w := worker.New(tc, queue, worker.Options{})
		w.RegisterWorkflow(workflows.TenantProvisioningWorkflow)
		w.RegisterWorkflow(workflows.TenantDeletionWorkflow)
		w.RegisterActivity(acts)
		workers = append(workers, w)
	}

	// System queue for scheduled maintenance runs.
	systemQueue := routing.SystemRoute(cfg.TaskQueuePrefix, routing.KindSystem).QueueName
	sw := worker.New(tc, systemQueue, worker.Options{})
	sw.RegisterWorkflow(workflows.TokenCleanupWorkflow)
	sw.RegisterActivity(acts)
	workers = append(workers, sw)

	for _, w := range workers {
		if err := w.Start(); err != nil {
			logger.Error("failed to start worker", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("workers started", "lifecycle_shards", cfg.ShardCount, "system_queue", systemQueue)

	// Bootstrap the recurring cleanup schedule.
	tenantsRepo := repository.NewTenantsRepository(db)
	executionsRepo := repository.NewExecutionsRepository(db)
	orch := orchestrator.New(tc, tenantsRepo, executionsRepo, orchestrator.Config{
		TaskQueuePrefix: cfg.TaskQueuePrefix,
		ShardCount:      cfg.ShardCount,
		CleanupCron:     cfg.CleanupCron,
		RetentionDays:   cfg.CleanupRetentionDays,
	}, logger)

	scheduleCtx, cancelSchedule := context.WithTimeout(context.Background(), 30*time.Second)
	if err := orch.EnsureCleanupSchedule(scheduleCtx); err != nil {
		logger.Error("failed to ensure cleanup schedule", "error", err)
	}
	cancelSchedule()

	// Ops endpoint: liveness plus a readiness probe that exercises the pool.
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	server := &http.Server{
		Addr:         cfg.OpsAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting ops server", "addr", cfg.OpsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ops server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	for _, w := range workers {
		w.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}

	logger.Info("stopped")
}
