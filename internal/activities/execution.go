package activities

import (
	"context"
	"log/slog"

	"github.com/tendant/tenant-lifecycle/pkg/domain"
)

// UpdateExecutionRecordInput carries a status transition for the
// workflow execution projection.
type UpdateExecutionRecordInput struct {
	WorkflowID   string                 `json:"workflow_id"`
	Status       domain.ExecutionStatus `json:"status"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

// UpdateWorkflowExecutionRecord updates the observability projection for
// a run. Best effort: a missing record returns false, never an error, so
// projection gaps cannot fail or mask the business outcome of a run.
func (a *Activities) UpdateWorkflowExecutionRecord(ctx context.Context, in UpdateExecutionRecordInput) (bool, error) {
	var errMsg *string
	if in.ErrorMessage != "" {
		errMsg = &in.ErrorMessage
	}

	updated, err := a.executions.UpdateStatus(ctx, in.WorkflowID, in.Status, errMsg)
	if err != nil {
		return false, err
	}
	if !updated {
		a.logger.Warn("no execution record for workflow",
			slog.String("workflow_id", in.WorkflowID),
			slog.String("status", string(in.Status)),
		)
	}
	return updated, nil
}
