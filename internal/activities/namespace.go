package activities

import (
	"context"
	"errors"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/tendant/tenant-lifecycle/pkg/domain"
	"github.com/tendant/tenant-lifecycle/pkg/repository"
)

// MigrationResult reports what RunNamespaceMigrations did.
type MigrationResult struct {
	NamespaceName string `json:"namespace_name"`
	Applied       int    `json:"applied"`
}

// DropResult reports whether DropNamespace found anything to drop.
type DropResult struct {
	NamespaceName string `json:"namespace_name"`
	Existed       bool   `json:"existed"`
}

// RunNamespaceMigrations creates the tenant's namespace if needed and
// applies the baseline schema. Creation and each applied step are
// tracked, so a retried call resumes where the last attempt stopped.
// Identifier and DDL failures are non-retryable; everything else is left
// to the activity retry policy.
func (a *Activities) RunNamespaceMigrations(ctx context.Context, tec domain.TenantExecutionContext) (MigrationResult, error) {
	applied, err := a.migrator.Apply(ctx, tec.NamespaceName)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidIdentifier) {
			return MigrationResult{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidIdentifier, err)
		}
		if repository.IsDDLFailure(err) {
			return MigrationResult{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeMigrationError, err)
		}
		return MigrationResult{}, err
	}

	a.logger.Info("namespace migrations applied",
		slog.String("tenant_id", tec.TenantID.String()),
		slog.String("namespace", tec.NamespaceName),
		slog.Int("applied", applied),
	)
	return MigrationResult{NamespaceName: tec.NamespaceName, Applied: applied}, nil
}

// DropNamespace destroys the tenant's namespace with everything in it.
// Dropping a namespace that is already gone succeeds with Existed=false,
// which makes the call safe both as a compensation and as a retry.
func (a *Activities) DropNamespace(ctx context.Context, tec domain.TenantExecutionContext) (DropResult, error) {
	existed, err := a.migrator.Drop(ctx, tec.NamespaceName)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidIdentifier) {
			return DropResult{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidIdentifier, err)
		}
		return DropResult{}, err
	}

	a.logger.Info("namespace dropped",
		slog.String("tenant_id", tec.TenantID.String()),
		slog.String("namespace", tec.NamespaceName),
		slog.Bool("existed", existed),
	)
	return DropResult{NamespaceName: tec.NamespaceName, Existed: existed}, nil
}
