package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/tendant/tenant-lifecycle/internal/activities"
)

// DefaultRetentionDays bounds cleanup sweeps when the trigger supplies
// no retention.
const DefaultRetentionDays = 30

// CleanupInput parameterizes a scheduled cleanup run.
type CleanupInput struct {
	RetentionDays int `json:"retention_days"`
}

// CleanupSummary reports per-kind and total deleted rows.
type CleanupSummary struct {
	Sessions int64 `json:"sessions"`
	Tokens   int64 `json:"tokens"`
	Invites  int64 `json:"invites"`
	Total    int64 `json:"total"`
}

// TokenCleanupWorkflow sweeps expired sessions, verification tokens, and
// tenant invites. The three tables are disjoint, so the sweeps run
// concurrently — the only fan-out any workflow here performs. Safe at
// any cadence: every sweep is idempotent and a no-op once nothing has
// crossed the retention threshold.
func TokenCleanupWorkflow(ctx workflow.Context, in CleanupInput) (CleanupSummary, error) {
	if in.RetentionDays <= 0 {
		in.RetentionDays = DefaultRetentionDays
	}
	input := activities.CleanupInput{RetentionDays: in.RetentionDays}

	ctx = cleanupOptions(ctx)
	sessionsFut := workflow.ExecuteActivity(ctx, aref.CleanupExpiredSessions, input)
	tokensFut := workflow.ExecuteActivity(ctx, aref.CleanupExpiredTokens, input)
	invitesFut := workflow.ExecuteActivity(ctx, aref.CleanupExpiredInvites, input)

	var summary CleanupSummary
	if err := sessionsFut.Get(ctx, &summary.Sessions); err != nil {
		return summary, err
	}
	if err := tokensFut.Get(ctx, &summary.Tokens); err != nil {
		return summary, err
	}
	if err := invitesFut.Get(ctx, &summary.Invites); err != nil {
		return summary, err
	}
	summary.Total = summary.Sessions + summary.Tokens + summary.Invites

	workflow.GetLogger(ctx).Info("cleanup sweep finished",
		"retention_days", in.RetentionDays,
		"sessions", summary.Sessions,
		"tokens", summary.Tokens,
		"invites", summary.Invites,
		"total", summary.Total,
	)
	return summary, nil
}
