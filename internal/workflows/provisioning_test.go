package workflows

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/tendant/tenant-lifecycle/internal/activities"
	"github.com/tendant/tenant-lifecycle/pkg/domain"
)

func TestTenantProvisioningWorkflow_Success(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	tenantID := uuid.New()
	userID := uuid.New()
	tec := domain.TenantExecutionContext{
		TenantID:      tenantID,
		NamespaceName: "tenant_acme_corp",
		Plan:          domain.PlanPro,
	}

	var a *activities.Activities
	env.OnActivity(a.RunNamespaceMigrations, mock.Anything, tec).
		Return(activities.MigrationResult{NamespaceName: "tenant_acme_corp", Applied: 2}, nil).Once()
	env.OnActivity(a.CreateMembership, mock.Anything, activities.CreateMembershipInput{
		UserID:   userID,
		TenantID: tenantID,
		Role:     domain.RoleOwner,
	}).Return(activities.CreateMembershipResult{Created: true}, nil).Once()
	env.OnActivity(a.UpdateTenantStatus, mock.Anything, activities.UpdateTenantStatusInput{
		TenantID: tenantID,
		Status:   domain.TenantStatusReady,
	}).Return(nil).Once()
	env.OnActivity(a.UpdateWorkflowExecutionRecord, mock.Anything, mock.MatchedBy(func(in activities.UpdateExecutionRecordInput) bool {
		return in.Status == domain.ExecutionStatusCompleted
	})).Return(true, nil).Once()

	env.ExecuteWorkflow(TenantProvisioningWorkflow, ProvisionTenantInput{
		TenantID: tenantID,
		Slug:     "acme-corp",
		Plan:     domain.PlanPro,
		UserID:   &userID,
		Role:     domain.RoleOwner,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ProvisionTenantResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "tenant_acme_corp", result.NamespaceName)
	require.Equal(t, 2, result.MigrationsApplied)
	require.True(t, result.MembershipCreated)

	env.AssertExpectations(t)
}

func TestTenantProvisioningWorkflow_NoRegisteringUser(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	tenantID := uuid.New()

	var a *activities.Activities
	env.OnActivity(a.RunNamespaceMigrations, mock.Anything, mock.Anything).
		Return(activities.MigrationResult{Applied: 2}, nil).Once()
	env.OnActivity(a.UpdateTenantStatus, mock.Anything, mock.Anything).Return(nil).Once()
	env.OnActivity(a.UpdateWorkflowExecutionRecord, mock.Anything, mock.Anything).Return(true, nil).Once()

	env.ExecuteWorkflow(TenantProvisioningWorkflow, ProvisionTenantInput{
		TenantID: tenantID,
		Slug:     "solo",
		Plan:     domain.PlanFree,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ProvisionTenantResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.False(t, result.MembershipCreated)

	// Membership must not be attempted without a registering user.
	env.AssertNotCalled(t, "CreateMembership", mock.Anything, mock.Anything)
	env.AssertExpectations(t)
}

func TestTenantProvisioningWorkflow_MigrationFailureCompensates(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	tenantID := uuid.New()
	var calls []string

	var a *activities.Activities
	env.OnActivity(a.RunNamespaceMigrations, mock.Anything, mock.Anything).
		Return(activities.MigrationResult{}, temporal.NewNonRetryableApplicationError(
			"migration 1 failed: syntax error", activities.ErrTypeMigrationError, nil)).Once()
	env.OnActivity(a.DropNamespace, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { calls = append(calls, "drop") }).
		Return(activities.DropResult{Existed: true}, nil).Once()
	env.OnActivity(a.UpdateTenantStatus, mock.Anything, activities.UpdateTenantStatusInput{
		TenantID: tenantID,
		Status:   domain.TenantStatusFailed,
	}).Run(func(args mock.Arguments) { calls = append(calls, "status_failed") }).
		Return(nil).Once()
	env.OnActivity(a.UpdateWorkflowExecutionRecord, mock.Anything, mock.MatchedBy(func(in activities.UpdateExecutionRecordInput) bool {
		return in.Status == domain.ExecutionStatusFailed && in.ErrorMessage != ""
	})).Return(true, nil).Once()

	env.ExecuteWorkflow(TenantProvisioningWorkflow, ProvisionTenantInput{
		TenantID: tenantID,
		Slug:     "acme-corp",
		Plan:     domain.PlanFree,
	})

	require.True(t, env.IsWorkflowCompleted())

	wfErr := env.GetWorkflowError()
	require.Error(t, wfErr)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(wfErr, &appErr))
	require.Equal(t, activities.ErrTypeMigrationError, appErr.Type())

	// Partial namespace dropped before the tenant is marked failed.
	require.Equal(t, []string{"drop", "status_failed"}, calls)
	env.AssertExpectations(t)
}

func TestTenantProvisioningWorkflow_MembershipFailureCompensates(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	tenantID := uuid.New()
	userID := uuid.New()

	var a *activities.Activities
	env.OnActivity(a.RunNamespaceMigrations, mock.Anything, mock.Anything).
		Return(activities.MigrationResult{Applied: 2}, nil).Once()
	env.OnActivity(a.CreateMembership, mock.Anything, mock.Anything).
		Return(activities.CreateMembershipResult{}, temporal.NewNonRetryableApplicationError(
			"memberships.user_id foreign key violated", activities.ErrTypeConstraintViolation, nil)).Once()
	env.OnActivity(a.DropNamespace, mock.Anything, mock.Anything).
		Return(activities.DropResult{Existed: true}, nil).Once()
	env.OnActivity(a.UpdateTenantStatus, mock.Anything, activities.UpdateTenantStatusInput{
		TenantID: tenantID,
		Status:   domain.TenantStatusFailed,
	}).Return(nil).Once()
	env.OnActivity(a.UpdateWorkflowExecutionRecord, mock.Anything, mock.MatchedBy(func(in activities.UpdateExecutionRecordInput) bool {
		return in.Status == domain.ExecutionStatusFailed
	})).Return(true, nil).Once()

	env.ExecuteWorkflow(TenantProvisioningWorkflow, ProvisionTenantInput{
		TenantID: tenantID,
		Slug:     "acme-corp",
		Plan:     domain.PlanFree,
		UserID:   &userID,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())

	// The run must never reach ready after a membership failure.
	env.AssertNotCalled(t, "UpdateTenantStatus", mock.Anything, activities.UpdateTenantStatusInput{
		TenantID: tenantID,
		Status:   domain.TenantStatusReady,
	})
	env.AssertExpectations(t)
}

func TestTenantProvisioningWorkflow_CompensationFailureDoesNotMask(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	tenantID := uuid.New()

	var a *activities.Activities
	env.OnActivity(a.RunNamespaceMigrations, mock.Anything, mock.Anything).
		Return(activities.MigrationResult{}, temporal.NewNonRetryableApplicationError(
			"tooling broke", activities.ErrTypeMigrationError, nil)).Once()
	// Compensation itself fails; the original error must still surface.
	env.OnActivity(a.DropNamespace, mock.Anything, mock.Anything).
		Return(activities.DropResult{}, temporal.NewNonRetryableApplicationError(
			"drop failed", activities.ErrTypeInvalidIdentifier, nil)).Once()
	env.OnActivity(a.UpdateTenantStatus, mock.Anything, mock.Anything).Return(nil).Once()
	env.OnActivity(a.UpdateWorkflowExecutionRecord, mock.Anything, mock.Anything).Return(true, nil).Once()

	env.ExecuteWorkflow(TenantProvisioningWorkflow, ProvisionTenantInput{
		TenantID: tenantID,
		Slug:     "acme-corp",
	})

	require.True(t, env.IsWorkflowCompleted())

	wfErr := env.GetWorkflowError()
	require.Error(t, wfErr)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(wfErr, &appErr))
	require.Equal(t, activities.ErrTypeMigrationError, appErr.Type())
	env.AssertExpectations(t)
}
