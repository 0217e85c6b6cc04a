// Package workflows contains the deterministic orchestration logic run
// by the durable-execution engine. Workflow code never performs I/O
// directly: every effect goes through an activity, and failure handling
// is an explicit ordered list of compensating actions, not exception
// cleanup.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/tendant/tenant-lifecycle/internal/activities"
)

// aref resolves struct-method activity names without holding an
// activities instance inside workflow code.
var aref *activities.Activities

// migrationOptions sizes the retry policy for namespace DDL, the slowest
// step in provisioning.
func migrationOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
			NonRetryableErrorTypes: []string{
				activities.ErrTypeMigrationError,
				activities.ErrTypeInvalidIdentifier,
			},
		},
	})
}

// rowOptions covers single-row mutations against the shared schema.
func rowOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
			NonRetryableErrorTypes: []string{
				activities.ErrTypeConstraintViolation,
			},
		},
	})
}

// dropOptions covers the cascading namespace drop, used both as a
// deletion step and as the provisioning compensation.
func dropOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
			NonRetryableErrorTypes: []string{
				activities.ErrTypeInvalidIdentifier,
			},
		},
	})
}

// cleanupOptions covers the bulk delete sweeps.
func cleanupOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})
}
