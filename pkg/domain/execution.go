package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus represents the observed state of a workflow run.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// Workflow type names as registered with the engine.
const (
	WorkflowTypeTenantProvisioning = "TenantProvisioningWorkflow"
	WorkflowTypeTenantDeletion     = "TenantDeletionWorkflow"
	WorkflowTypeTokenCleanup       = "TokenCleanupWorkflow"
)

// WorkflowExecutionRecord is an observability projection of a workflow
// run, decoupled from the engine's internal bookkeeping. The starter
// creates the row; the run itself updates it at completion or failure.
type WorkflowExecutionRecord struct {
	ID           uuid.UUID
	WorkflowID   string
	WorkflowType string
	EntityType   string
	EntityID     string
	Status       ExecutionStatus
	ErrorMessage *string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}
