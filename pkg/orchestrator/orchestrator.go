// Package orchestrator is the start surface for tenant lifecycle work.
// It owns the deterministic workflow ids, the shared-table writes that
// precede a run, and the routing of runs onto sharded task queues.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/tendant/tenant-lifecycle/internal/workflows"
	"github.com/tendant/tenant-lifecycle/pkg/domain"
	"github.com/tendant/tenant-lifecycle/pkg/namespace"
	"github.com/tendant/tenant-lifecycle/pkg/repository"
	"github.com/tendant/tenant-lifecycle/pkg/routing"
)

// CleanupScheduleID identifies the recurring cleanup schedule.
const CleanupScheduleID = "token-cleanup"

// Config tunes routing and the cleanup schedule.
type Config struct {
	TaskQueuePrefix string
	ShardCount      int
	CleanupCron     string
	RetentionDays   int
}

// Orchestrator starts lifecycle workflows and maintains the execution
// projection. Starts are fire-and-forget; callers poll the projection or
// the engine's describe-by-id.
type Orchestrator struct {
	temporal   client.Client
	tenants    *repository.TenantsRepository
	executions *repository.ExecutionsRepository
	cfg        Config
	logger     *slog.Logger
}

// New creates an orchestrator.
func New(tc client.Client, tenants *repository.TenantsRepository, executions *repository.ExecutionsRepository, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TaskQueuePrefix == "" {
		cfg.TaskQueuePrefix = "tenantflow"
	}
	if cfg.ShardCount < 1 {
		cfg.ShardCount = 1
	}
	if cfg.CleanupCron == "" {
		cfg.CleanupCron = "0 3 * * *"
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = workflows.DefaultRetentionDays
	}
	return &Orchestrator{
		temporal:   tc,
		tenants:    tenants,
		executions: executions,
		cfg:        cfg,
		logger:     logger,
	}
}

// ProvisionWorkflowID returns the deterministic run id for provisioning
// a slug. The engine rejects a duplicate id while a run is active, which
// is what prevents two concurrent provisions of the same tenant.
func ProvisionWorkflowID(slug string) string {
	return "tenant-provision-" + slug
}

// DeletionWorkflowID returns the deterministic run id for deleting a
// tenant.
func DeletionWorkflowID(tenantID uuid.UUID) string {
	return "tenant-deletion-" + tenantID.String()
}

// ProvisionRequest describes a tenant to create.
type ProvisionRequest struct {
	Name   string
	Slug   string
	Plan   domain.Plan
	UserID *uuid.UUID
	Role   domain.MembershipRole
}

// ProvisionTenant creates the tenant row in provisioning status and
// fire-and-forgets the provisioning workflow. Slugs whose normalized
// form collides with an existing namespace are rejected up front:
// "acme-corp" and "acme_corp" are the same candidate.
func (o *Orchestrator) ProvisionTenant(ctx context.Context, req ProvisionRequest) (*domain.Tenant, error) {
	nsName := namespace.Derive(req.Slug)
	if err := namespace.ValidateName(nsName); err != nil {
		return nil, err
	}

	plan := req.Plan
	if plan == "" {
		plan = domain.PlanFree
	}

	taken, err := o.tenants.ExistsByNamespace(ctx, nsName)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrTenantSlugTaken
	}

	now := time.Now()
	tenant := &domain.Tenant{
		ID:            uuid.New(),
		Name:          req.Name,
		Slug:          req.Slug,
		Status:        domain.TenantStatusProvisioning,
		Active:        false,
		NamespaceName: nsName,
		Plan:          plan,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}

	workflowID := ProvisionWorkflowID(req.Slug)
	input := workflows.ProvisionTenantInput{
		TenantID: tenant.ID,
		Slug:     req.Slug,
		Plan:     plan,
		UserID:   req.UserID,
		Role:     req.Role,
	}
	if err := o.start(ctx, workflowID, domain.WorkflowTypeTenantProvisioning, "tenant", tenant.ID.String(), tenant, workflows.TenantProvisioningWorkflow, input); err != nil {
		return nil, err
	}
	return tenant, nil
}

// DeleteTenant fire-and-forgets the deletion workflow for a tenant. A
// tenant whose prior deletion attempt failed part-way can be
// re-submitted; the run resumes from the soft-deleted state.
func (o *Orchestrator) DeleteTenant(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := o.tenants.GetByIDIncludingDeleted(ctx, tenantID)
	if err != nil {
		return err
	}

	workflowID := DeletionWorkflowID(tenantID)
	input := workflows.DeleteTenantInput{
		TenantID:      tenant.ID,
		Slug:          tenant.Slug,
		NamespaceName: tenant.NamespaceName,
		Plan:          tenant.Plan,
	}
	return o.start(ctx, workflowID, domain.WorkflowTypeTenantDeletion, "tenant", tenant.ID.String(), tenant, workflows.TenantDeletionWorkflow, input)
}

// start submits the run and records the execution projection. The
// deterministic id plus AllowDuplicateFailedOnly means an active run
// wins and a failed run can be retried under the same id. The projection
// row is written only after the engine accepts the start, so a rejected
// resubmission cannot clobber what the live run has already recorded.
func (o *Orchestrator) start(ctx context.Context, workflowID, workflowType, entityType, entityID string, tenant *domain.Tenant, workflowFn any, input any) error {
	tec := domain.TenantExecutionContext{
		TenantID:      tenant.ID,
		NamespaceName: tenant.NamespaceName,
		Plan:          tenant.Plan,
	}
	route, err := routing.Route(tenant.ID.String(), o.cfg.TaskQueuePrefix, o.cfg.ShardCount, routing.KindLifecycle, tec.FairnessWeight())
	if err != nil {
		return err
	}

	opts := client.StartWorkflowOptions{
		ID:                    workflowID,
		TaskQueue:             route.QueueName,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
		Priority: temporal.Priority{
			FairnessKey:    route.FairnessKey,
			FairnessWeight: route.FairnessWeight,
		},
	}

	_, err = o.temporal.ExecuteWorkflow(ctx, opts, workflowFn, input)
	if err != nil {
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			// A run with this id is active or already finished; the
			// submission is a no-op and the projection keeps what that
			// run wrote.
			o.logger.Info("workflow already started",
				slog.String("workflow_id", workflowID),
			)
			return nil
		}
		return fmt.Errorf("failed to start %s: %w", workflowType, err)
	}

	now := time.Now()
	record := &domain.WorkflowExecutionRecord{
		ID:           uuid.New(),
		WorkflowID:   workflowID,
		WorkflowType: workflowType,
		EntityType:   entityType,
		EntityID:     entityID,
		Status:       domain.ExecutionStatusRunning,
		CreatedAt:    now,
		StartedAt:    &now,
	}
	if err := o.executions.Create(ctx, record); err != nil {
		// The run is already submitted; a missing projection row only
		// degrades status reads, and the workflow's terminal update
		// warns if it finds nothing to update.
		o.logger.Warn("failed to record execution",
			slog.String("workflow_id", workflowID),
			slog.String("error", err.Error()),
		)
	}

	o.logger.Info("workflow started",
		slog.String("workflow_id", workflowID),
		slog.String("workflow_type", workflowType),
		slog.String("task_queue", route.QueueName),
	)
	return nil
}

// EnsureCleanupSchedule creates the recurring cleanup schedule on the
// system queue. An existing schedule is left untouched.
func (o *Orchestrator) EnsureCleanupSchedule(ctx context.Context) error {
	route := routing.SystemRoute(o.cfg.TaskQueuePrefix, routing.KindSystem)

	_, err := o.temporal.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID: CleanupScheduleID,
		Spec: client.ScheduleSpec{
			CronExpressions: []string{o.cfg.CleanupCron},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        CleanupScheduleID + "-run",
			Workflow:  workflows.TokenCleanupWorkflow,
			TaskQueue: route.QueueName,
			Args:      []any{workflows.CleanupInput{RetentionDays: o.cfg.RetentionDays}},
		},
	})
	if err != nil {
		if errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
			return nil
		}
		return fmt.Errorf("failed to create cleanup schedule: %w", err)
	}

	o.logger.Info("cleanup schedule created",
		slog.String("cron", o.cfg.CleanupCron),
		slog.Int("retention_days", o.cfg.RetentionDays),
		slog.String("task_queue", route.QueueName),
	)
	return nil
}

// DescribeExecution reads the projection for a run.
func (o *Orchestrator) DescribeExecution(ctx context.Context, workflowID string) (*domain.WorkflowExecutionRecord, error) {
	return o.executions.GetByWorkflowID(ctx, workflowID)
}
