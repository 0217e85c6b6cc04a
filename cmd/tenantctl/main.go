// Command tenantctl submits tenant lifecycle operations from the
// command line: provision, delete, status, and cleanup-schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	sdklog "go.temporal.io/sdk/log"

	"github.com/tendant/tenant-lifecycle/internal/config"
	"github.com/tendant/tenant-lifecycle/pkg/domain"
	"github.com/tendant/tenant-lifecycle/pkg/orchestrator"
	"github.com/tendant/tenant-lifecycle/pkg/repository"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: tenantctl <command> [flags]

Commands:
  provision         start provisioning a tenant
  delete            start deleting a tenant
  status            show a workflow execution record
  cleanup-schedule  ensure the recurring cleanup schedule exists
`)
	os.Exit(2)
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "provision":
		runProvision(ctx, cfg, logger, os.Args[2:])
	case "delete":
		runDelete(ctx, cfg, logger, os.Args[2:])
	case "status":
		runStatus(ctx, cfg, logger, os.Args[2:])
	case "cleanup-schedule":
		runCleanupSchedule(ctx, cfg, logger, os.Args[2:])
	default:
		usage()
	}
}

func runProvision(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) {
	fs := flag.NewFlagSet("provision", flag.ExitOnError)
	name := fs.String("name", "", "tenant display name (required)")
	slug := fs.String("slug", "", "tenant slug (required)")
	plan := fs.String("plan", "free", "billing plan: free, pro, or enterprise")
	userID := fs.String("user", "", "registering user id (optional)")
	role := fs.String("role", "owner", "membership role for the registering user")
	_ = fs.Parse(args)

	if *name == "" || *slug == "" {
		fs.Usage()
		os.Exit(2)
	}

	req := orchestrator.ProvisionRequest{
		Name: *name,
		Slug: *slug,
		Plan: domain.Plan(*plan),
		Role: domain.MembershipRole(*role),
	}
	if *userID != "" {
		id, err := uuid.Parse(*userID)
		if err != nil {
			fatal("invalid -user: %v", err)
		}
		req.UserID = &id
	}

	orch, cleanup := buildOrchestrator(cfg, logger)
	defer cleanup()

	tenant, err := orch.ProvisionTenant(ctx, req)
	if err != nil {
		fatal("provision failed: %v", err)
	}

	fmt.Printf("tenant %s created (status=%s)\n", tenant.ID, tenant.Status)
	fmt.Printf("namespace: %s\n", tenant.NamespaceName)
	fmt.Printf("workflow:  %s\n", orchestrator.ProvisionWorkflowID(tenant.Slug))
}

func runDelete(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	idArg := fs.String("id", "", "tenant id (required)")
	_ = fs.Parse(args)

	if *idArg == "" {
		fs.Usage()
		os.Exit(2)
	}
	tenantID, err := uuid.Parse(*idArg)
	if err != nil {
		fatal("invalid -id: %v", err)
	}

	orch, cleanup := buildOrchestrator(cfg, logger)
	defer cleanup()

	if err := orch.DeleteTenant(ctx, tenantID); err != nil {
		fatal("delete failed: %v", err)
	}

	fmt.Printf("workflow: %s\n", orchestrator.DeletionWorkflowID(tenantID))
}

func runStatus(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	workflowID := fs.String("workflow", "", "workflow id (required)")
	_ = fs.Parse(args)

	if *workflowID == "" {
		fs.Usage()
		os.Exit(2)
	}

	orch, cleanup := buildOrchestrator(cfg, logger)
	defer cleanup()

	record, err := orch.DescribeExecution(ctx, *workflowID)
	if err != nil {
		fatal("status failed: %v", err)
	}

	fmt.Printf("workflow:  %s\n", record.WorkflowID)
	fmt.Printf("type:      %s\n", record.WorkflowType)
	fmt.Printf("entity:    %s %s\n", record.EntityType, record.EntityID)
	fmt.Printf("status:    %s\n", record.Status)
	if record.CompletedAt != nil {
		fmt.Printf("completed: %s\n", record.CompletedAt.Format(time.RFC3339))
	}
	if record.ErrorMessage != nil {
		fmt.Printf("error:     %s\n", *record.ErrorMessage)
	}
}

func runCleanupSchedule(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) {
	fs := flag.NewFlagSet("cleanup-schedule", flag.ExitOnError)
	_ = fs.Parse(args)

	orch, cleanup := buildOrchestrator(cfg, logger)
	defer cleanup()

	if err := orch.EnsureCleanupSchedule(ctx); err != nil {
		fatal("cleanup-schedule failed: %v", err)
	}

	fmt.Printf("schedule %s ensured (%s)\n", orchestrator.CleanupScheduleID, cfg.CleanupCron)
}

func buildOrchestrator(cfg *config.Config, logger *slog.Logger) (*orchestrator.Orchestrator, func()) {
	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		fatal("failed to connect to database: %v", err)
	}

	tc, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    sdklog.NewStructuredLogger(logger),
	})
	if err != nil {
		db.Close()
		fatal("failed to connect to temporal: %v", err)
	}

	orch := orchestrator.New(tc, repository.NewTenantsRepository(db), repository.NewExecutionsRepository(db), orchestrator.Config{
		TaskQueuePrefix: cfg.TaskQueuePrefix,
		ShardCount:      cfg.ShardCount,
		CleanupCron:     cfg.CleanupCron,
		RetentionDays:   cfg.CleanupRetentionDays,
	}, logger)

	return orch, func() {
		tc.Close()
		db.Close()
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
