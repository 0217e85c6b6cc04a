package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tendant/tenant-lifecycle/pkg/domain"
)

// ExecutionsRepository persists the workflow execution projection. Rows
// are written only by the orchestrator and the runs themselves; the API
// layer reads them to report progress.
type ExecutionsRepository struct {
	db *sql.DB
}

// NewExecutionsRepository creates a new executions repository.
func NewExecutionsRepository(db *sql.DB) *ExecutionsRepository {
	return &ExecutionsRepository{db: db}
}

// Create inserts a record for an accepted run. The workflow id is
// business-deterministic, so re-submitting the same work resets the
// existing row to the fresh run's state instead of failing.
func (r *ExecutionsRepository) Create(ctx context.Context, rec *domain.WorkflowExecutionRecord) error {
	query := `
		INSERT INTO workflow_executions (id, workflow_id, workflow_type, entity_type, entity_id, status, created_at, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (workflow_id) DO UPDATE
		SET status = EXCLUDED.status,
		    error_message = NULL,
		    started_at = EXCLUDED.started_at,
		    completed_at = NULL
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.WorkflowID, rec.WorkflowType, rec.EntityType, rec.EntityID,
		rec.Status, rec.CreatedAt, rec.StartedAt,
	)
	return err
}

// GetByWorkflowID retrieves a record by its workflow id.
func (r *ExecutionsRepository) GetByWorkflowID(ctx context.Context, workflowID string) (*domain.WorkflowExecutionRecord, error) {
	query := `
		SELECT id, workflow_id, workflow_type, entity_type, entity_id, status, error_message, created_at, started_at, completed_at
		FROM workflow_executions
		WHERE workflow_id = $1
	`
	rec := &domain.WorkflowExecutionRecord{}
	err := r.db.QueryRowContext(ctx, query, workflowID).Scan(
		&rec.ID, &rec.WorkflowID, &rec.WorkflowType, &rec.EntityType, &rec.EntityID,
		&rec.Status, &rec.ErrorMessage, &rec.CreatedAt, &rec.StartedAt, &rec.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrExecutionNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateStatus sets the status and optional error message for a record.
// Terminal statuses also stamp completed_at. Returns false if no record
// matches the workflow id; callers treat that as non-fatal.
func (r *ExecutionsRepository) UpdateStatus(ctx context.Context, workflowID string, status domain.ExecutionStatus, errorMessage *string) (bool, error) {
	query := `
		UPDATE workflow_executions
		SET status = $2,
		    error_message = $3,
		    completed_at = CASE WHEN $2 IN ('completed', 'failed') THEN NOW() ELSE completed_at END
		WHERE workflow_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, workflowID, status, errorMessage)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
