package workflows

import (
	"github.com/google/uuid"
	"go.temporal.io/sdk/workflow"

	"github.com/tendant/tenant-lifecycle/internal/activities"
	"github.com/tendant/tenant-lifecycle/pkg/domain"
	"github.com/tendant/tenant-lifecycle/pkg/namespace"
)

// ProvisionTenantInput starts a provisioning run. The tenant row already
// exists in provisioning status; this run builds its namespace and flips
// the status.
type ProvisionTenantInput struct {
	TenantID uuid.UUID             `json:"tenant_id"`
	Slug     string                `json:"slug"`
	Plan     domain.Plan           `json:"plan"`
	UserID   *uuid.UUID            `json:"user_id,omitempty"`
	Role     domain.MembershipRole `json:"role,omitempty"`
}

// ProvisionTenantResult summarizes a successful run.
type ProvisionTenantResult struct {
	NamespaceName     string `json:"namespace_name"`
	MigrationsApplied int    `json:"migrations_applied"`
	MembershipCreated bool   `json:"membership_created"`
}

// compensation pairs a completed step with the action that undoes it.
// On failure the recorded list runs in strict reverse order.
type compensation struct {
	step string
	undo func(workflow.Context) error
}

// TenantProvisioningWorkflow is the Saga that builds a tenant's isolated
// namespace: apply baseline migrations, create the registering user's
// membership, mark the tenant ready. Any unhandled failure runs the
// recorded compensations in reverse, marks the tenant failed, and
// re-raises so the engine's own bookkeeping stays authoritative.
func TenantProvisioningWorkflow(ctx workflow.Context, in ProvisionTenantInput) (ProvisionTenantResult, error) {
	logger := workflow.GetLogger(ctx)
	workflowID := workflow.GetInfo(ctx).WorkflowExecution.ID

	// Step 1: resolve the namespace name. Pure and read-only, nothing to
	// compensate.
	nsName := namespace.Derive(in.Slug)
	tec := domain.TenantExecutionContext{
		TenantID:      in.TenantID,
		NamespaceName: nsName,
		Plan:          in.Plan,
	}

	var compensations []compensation
	result := ProvisionTenantResult{NamespaceName: nsName}

	// Step 2: apply baseline migrations. The compensation is recorded
	// before the attempt so a partially created namespace is dropped too.
	compensations = append(compensations, compensation{
		step: "RunNamespaceMigrations",
		undo: func(cctx workflow.Context) error {
			var drop activities.DropResult
			return workflow.ExecuteActivity(dropOptions(cctx), aref.DropNamespace, tec).Get(cctx, &drop)
		},
	})

	var migration activities.MigrationResult
	if err := workflow.ExecuteActivity(migrationOptions(ctx), aref.RunNamespaceMigrations, tec).Get(ctx, &migration); err != nil {
		return result, failProvisioning(ctx, tec, workflowID, compensations, err)
	}
	result.MigrationsApplied = migration.Applied

	// Step 3: membership for the registering user, when one was supplied.
	// No compensation: an orphaned membership row is harmless and cascade
	// deletes with the tenant.
	if in.UserID != nil {
		role := in.Role
		if role == "" {
			role = domain.RoleOwner
		}
		var membership activities.CreateMembershipResult
		err := workflow.ExecuteActivity(rowOptions(ctx), aref.CreateMembership, activities.CreateMembershipInput{
			UserID:   *in.UserID,
			TenantID: in.TenantID,
			Role:     role,
		}).Get(ctx, &membership)
		if err != nil {
			return result, failProvisioning(ctx, tec, workflowID, compensations, err)
		}
		result.MembershipCreated = membership.Created
	}

	// Step 4: tenant becomes ready and active.
	err := workflow.ExecuteActivity(rowOptions(ctx), aref.UpdateTenantStatus, activities.UpdateTenantStatusInput{
		TenantID: in.TenantID,
		Status:   domain.TenantStatusReady,
	}).Get(ctx, nil)
	if err != nil {
		return result, failProvisioning(ctx, tec, workflowID, compensations, err)
	}

	// Step 5: projection update, best effort.
	recordExecutionStatus(ctx, workflowID, domain.ExecutionStatusCompleted, "")

	logger.Info("tenant provisioned",
		"tenant_id", in.TenantID.String(),
		"namespace", nsName,
		"migrations_applied", migration.Applied,
	)
	return result, nil
}

// failProvisioning runs the recorded compensations in reverse order,
// marks the tenant failed, updates the projection, and returns the
// original error. Compensation failures are logged and never propagated:
// they must not mask the failure that triggered them.
func failProvisioning(ctx workflow.Context, tec domain.TenantExecutionContext, workflowID string, compensations []compensation, cause error) error {
	logger := workflow.GetLogger(ctx)
	logger.Error("provisioning failed, compensating",
		"tenant_id", tec.TenantID.String(),
		"namespace", tec.NamespaceName,
		"error", cause.Error(),
	)

	// A disconnected context keeps compensations running even when the
	// failure came from cancellation.
	cctx, cancel := workflow.NewDisconnectedContext(ctx)
	defer cancel()

	for i := len(compensations) - 1; i >= 0; i-- {
		c := compensations[i]
		if err := c.undo(cctx); err != nil {
			logger.Error("compensation failed",
				"step", c.step,
				"tenant_id", tec.TenantID.String(),
				"error", err.Error(),
			)
		}
	}

	err := workflow.ExecuteActivity(rowOptions(cctx), aref.UpdateTenantStatus, activities.UpdateTenantStatusInput{
		TenantID: tec.TenantID,
		Status:   domain.TenantStatusFailed,
	}).Get(cctx, nil)
	if err != nil {
		logger.Error("failed to mark tenant failed",
			"tenant_id", tec.TenantID.String(),
			"error", err.Error(),
		)
	}

	recordExecutionStatus(cctx, workflowID, domain.ExecutionStatusFailed, cause.Error())

	return cause
}

// recordExecutionStatus updates the observability projection. Best
// effort by design: the projection must never decide a run's outcome.
func recordExecutionStatus(ctx workflow.Context, workflowID string, status domain.ExecutionStatus, errorMessage string) {
	var updated bool
	err := workflow.ExecuteActivity(rowOptions(ctx), aref.UpdateWorkflowExecutionRecord, activities.UpdateExecutionRecordInput{
		WorkflowID:   workflowID,
		Status:       status,
		ErrorMessage: errorMessage,
	}).Get(ctx, &updated)
	if err != nil {
		workflow.GetLogger(ctx).Error("failed to update execution record",
			"workflow_id", workflowID,
			"status", string(status),
			"error", err.Error(),
		)
	}
}
