package workflows

import (
	"github.com/google/uuid"
	"go.temporal.io/sdk/workflow"

	"github.com/tendant/tenant-lifecycle/internal/activities"
	"github.com/tendant/tenant-lifecycle/pkg/domain"
	"github.com/tendant/tenant-lifecycle/pkg/namespace"
)

// DeleteTenantInput starts a deletion run. NamespaceName is optional;
// when empty it is derived from the slug.
type DeleteTenantInput struct {
	TenantID      uuid.UUID   `json:"tenant_id"`
	Slug          string      `json:"slug"`
	NamespaceName string      `json:"namespace_name,omitempty"`
	Plan          domain.Plan `json:"plan,omitempty"`
}

// DeleteTenantResult summarizes a deletion run.
type DeleteTenantResult struct {
	AlreadyDeleted   bool `json:"already_deleted"`
	NamespaceExisted bool `json:"namespace_existed"`
}

// TenantDeletionWorkflow tears a tenant down in strict order: soft
// delete first, destructive namespace drop last. The soft delete must be
// durably visible before the drop begins — the data-access layer refuses
// scopes for soft-deleted tenants, so completing step 1 stops live
// traffic before any irreversible DDL runs. Deletion has no undo, so
// there are no compensations; a failure simply fails the run and leaves
// it resumable.
func TenantDeletionWorkflow(ctx workflow.Context, in DeleteTenantInput) (DeleteTenantResult, error) {
	logger := workflow.GetLogger(ctx)
	workflowID := workflow.GetInfo(ctx).WorkflowExecution.ID

	var result DeleteTenantResult

	// Step 1: stop live traffic. Splitting this from the drop is the
	// ordering invariant: the activity completing means the commit is
	// durable before step 3 can start.
	var soft activities.SoftDeleteResult
	if err := workflow.ExecuteActivity(rowOptions(ctx), aref.SoftDeleteTenant, in.TenantID).Get(ctx, &soft); err != nil {
		recordExecutionStatus(ctx, workflowID, domain.ExecutionStatusFailed, err.Error())
		return result, err
	}
	result.AlreadyDeleted = soft.AlreadyDeleted

	// Step 2: resolve the namespace name.
	nsName := in.NamespaceName
	if nsName == "" {
		nsName = namespace.Derive(in.Slug)
	}
	tec := domain.TenantExecutionContext{
		TenantID:      in.TenantID,
		NamespaceName: nsName,
		Plan:          in.Plan,
	}

	// Step 3: cascading drop. Retry-safe; an absent namespace is success.
	var drop activities.DropResult
	if err := workflow.ExecuteActivity(dropOptions(ctx), aref.DropNamespace, tec).Get(ctx, &drop); err != nil {
		recordExecutionStatus(ctx, workflowID, domain.ExecutionStatusFailed, err.Error())
		return result, err
	}
	result.NamespaceExisted = drop.Existed

	recordExecutionStatus(ctx, workflowID, domain.ExecutionStatusCompleted, "")

	logger.Info("tenant deleted",
		"tenant_id", in.TenantID.String(),
		"namespace", nsName,
		"namespace_existed", drop.Existed,
	)
	return result, nil
}
