package activities

import (
	"context"
	"log/slog"
	"time"
)

// CleanupInput bounds how far back a cleanup sweep reaches.
type CleanupInput struct {
	RetentionDays int `json:"retention_days"`
}

func (in CleanupInput) cutoff() time.Time {
	return time.Now().AddDate(0, 0, -in.RetentionDays)
}

// CleanupExpiredSessions deletes sessions expired or revoked past the
// retention cutoff. Inherently idempotent; a sweep with nothing past the
// threshold is a no-op.
func (a *Activities) CleanupExpiredSessions(ctx context.Context, in CleanupInput) (int64, error) {
	deleted, err := a.sessions.DeleteExpired(ctx, in.cutoff())
	if err != nil {
		return 0, err
	}
	a.logger.Info("expired sessions cleaned", slog.Int64("deleted", deleted))
	return deleted, nil
}

// CleanupExpiredTokens deletes verification tokens expired or consumed
// past the retention cutoff.
func (a *Activities) CleanupExpiredTokens(ctx context.Context, in CleanupInput) (int64, error) {
	deleted, err := a.tokens.DeleteExpired(ctx, in.cutoff())
	if err != nil {
		return 0, err
	}
	a.logger.Info("expired tokens cleaned", slog.Int64("deleted", deleted))
	return deleted, nil
}

// CleanupExpiredInvites deletes unaccepted tenant invites that expired
// past the retention cutoff.
func (a *Activities) CleanupExpiredInvites(ctx context.Context, in CleanupInput) (int64, error) {
	deleted, err := a.invites.DeleteExpired(ctx, in.cutoff())
	if err != nil {
		return 0, err
	}
	a.logger.Info("expired invites cleaned", slog.Int64("deleted", deleted))
	return deleted, nil
}
