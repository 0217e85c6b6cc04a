package activities

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tendant/tenant-lifecycle/pkg/domain"
)

// UpdateTenantStatusInput selects the tenant and its new status.
type UpdateTenantStatusInput struct {
	TenantID uuid.UUID           `json:"tenant_id"`
	Status   domain.TenantStatus `json:"status"`
}

// UpdateTenantStatus unconditionally sets the tenant's lifecycle status.
// The repository derives the active flag from the status, so the call is
// naturally idempotent.
func (a *Activities) UpdateTenantStatus(ctx context.Context, in UpdateTenantStatusInput) error {
	if err := a.tenants.UpdateStatus(ctx, in.TenantID, in.Status); err != nil {
		return err
	}
	a.logger.Info("tenant status updated",
		slog.String("tenant_id", in.TenantID.String()),
		slog.String("status", string(in.Status)),
	)
	return nil
}

// SoftDeleteResult reports whether the tenant was already gone.
type SoftDeleteResult struct {
	AlreadyDeleted bool `json:"already_deleted"`
}

// SoftDeleteTenant sets the delete timestamp and clears the active flag
// if not already set. A missing or already-deleted tenant reports
// AlreadyDeleted rather than failing, so deletion retries converge.
func (a *Activities) SoftDeleteTenant(ctx context.Context, tenantID uuid.UUID) (SoftDeleteResult, error) {
	performed, err := a.tenants.SoftDelete(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrTenantNotFound) {
			return SoftDeleteResult{AlreadyDeleted: true}, nil
		}
		return SoftDeleteResult{}, err
	}
	if performed {
		a.logger.Info("tenant soft deleted", slog.String("tenant_id", tenantID.String()))
	}
	return SoftDeleteResult{AlreadyDeleted: !performed}, nil
}
