package workflows

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/tendant/tenant-lifecycle/internal/activities"
	"github.com/tendant/tenant-lifecycle/pkg/domain"
)

func TestTenantDeletionWorkflow_Success(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	tenantID := uuid.New()
	var calls []string

	var a *activities.Activities
	env.OnActivity(a.SoftDeleteTenant, mock.Anything, tenantID).
		Run(func(args mock.Arguments) { calls = append(calls, "soft_delete") }).
		Return(activities.SoftDeleteResult{AlreadyDeleted: false}, nil).Once()
	env.OnActivity(a.DropNamespace, mock.Anything, domain.TenantExecutionContext{
		TenantID:      tenantID,
		NamespaceName: "tenant_acme_corp",
	}).Run(func(args mock.Arguments) { calls = append(calls, "drop") }).
		Return(activities.DropResult{Existed: true}, nil).Once()
	env.OnActivity(a.UpdateWorkflowExecutionRecord, mock.Anything, mock.MatchedBy(func(in activities.UpdateExecutionRecordInput) bool {
		return in.Status == domain.ExecutionStatusCompleted
	})).Return(true, nil).Once()

	env.ExecuteWorkflow(TenantDeletionWorkflow, DeleteTenantInput{
		TenantID:      tenantID,
		Slug:          "acme-corp",
		NamespaceName: "tenant_acme_corp",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result DeleteTenantResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.False(t, result.AlreadyDeleted)
	require.True(t, result.NamespaceExisted)

	// Soft delete must be durably complete before the drop starts.
	require.Equal(t, []string{"soft_delete", "drop"}, calls)
	env.AssertExpectations(t)
}

func TestTenantDeletionWorkflow_DerivesNamespaceFromSlug(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	tenantID := uuid.New()

	var a *activities.Activities
	env.OnActivity(a.SoftDeleteTenant, mock.Anything, tenantID).
		Return(activities.SoftDeleteResult{}, nil).Once()
	env.OnActivity(a.DropNamespace, mock.Anything, mock.MatchedBy(func(tec domain.TenantExecutionContext) bool {
		return tec.NamespaceName == "tenant_acme_corp"
	})).Return(activities.DropResult{Existed: true}, nil).Once()
	env.OnActivity(a.UpdateWorkflowExecutionRecord, mock.Anything, mock.Anything).Return(true, nil).Once()

	env.ExecuteWorkflow(TenantDeletionWorkflow, DeleteTenantInput{
		TenantID: tenantID,
		Slug:     "acme-corp",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	env.AssertExpectations(t)
}

func TestTenantDeletionWorkflow_DropFailureLeavesTenantSoftDeleted(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	tenantID := uuid.New()

	var a *activities.Activities
	env.OnActivity(a.SoftDeleteTenant, mock.Anything, tenantID).
		Return(activities.SoftDeleteResult{AlreadyDeleted: false}, nil).Once()
	// Fault injected between step 1 and step 3: the drop never succeeds.
	env.OnActivity(a.DropNamespace, mock.Anything, mock.Anything).
		Return(activities.DropResult{}, temporal.NewNonRetryableApplicationError(
			"boom", activities.ErrTypeInvalidIdentifier, nil)).Once()
	env.OnActivity(a.UpdateWorkflowExecutionRecord, mock.Anything, mock.MatchedBy(func(in activities.UpdateExecutionRecordInput) bool {
		return in.Status == domain.ExecutionStatusFailed
	})).Return(true, nil).Once()

	env.ExecuteWorkflow(TenantDeletionWorkflow, DeleteTenantInput{
		TenantID:      tenantID,
		Slug:          "acme-corp",
		NamespaceName: "tenant_acme_corp",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())

	// The tenant is soft-deleted, the namespace untouched — never the
	// reverse.
	env.AssertCalled(t, "SoftDeleteTenant", mock.Anything, tenantID)
	env.AssertExpectations(t)
}

func TestTenantDeletionWorkflow_Rerun(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	tenantID := uuid.New()

	var a *activities.Activities
	env.OnActivity(a.SoftDeleteTenant, mock.Anything, tenantID).
		Return(activities.SoftDeleteResult{AlreadyDeleted: true}, nil).Once()
	env.OnActivity(a.DropNamespace, mock.Anything, mock.Anything).
		Return(activities.DropResult{Existed: false}, nil).Once()
	env.OnActivity(a.UpdateWorkflowExecutionRecord, mock.Anything, mock.Anything).Return(true, nil).Once()

	env.ExecuteWorkflow(TenantDeletionWorkflow, DeleteTenantInput{
		TenantID:      tenantID,
		Slug:          "acme-corp",
		NamespaceName: "tenant_acme_corp",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result DeleteTenantResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.True(t, result.AlreadyDeleted)
	require.False(t, result.NamespaceExisted)
	env.AssertExpectations(t)
}
