package activities

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"

	"github.com/tendant/tenant-lifecycle/pkg/domain"
	"github.com/tendant/tenant-lifecycle/pkg/repository"
)

// CreateMembershipInput identifies the membership to ensure.
type CreateMembershipInput struct {
	UserID   uuid.UUID             `json:"user_id"`
	TenantID uuid.UUID             `json:"tenant_id"`
	Role     domain.MembershipRole `json:"role"`
}

// CreateMembershipResult reports whether this call inserted the row.
type CreateMembershipResult struct {
	Created bool `json:"created"`
}

// CreateMembership ensures the (user, tenant) membership exists. An
// existing pair is success, as is losing the insert race on the
// uniqueness constraint. Any other constraint violation — a missing user
// or tenant foreign key — is a real failure and must not be retried into
// oblivion.
func (a *Activities) CreateMembership(ctx context.Context, in CreateMembershipInput) (CreateMembershipResult, error) {
	if _, err := a.memberships.GetByUserAndTenant(ctx, in.UserID, in.TenantID); err == nil {
		return CreateMembershipResult{Created: false}, nil
	} else if !errors.Is(err, domain.ErrMembershipNotFound) {
		return CreateMembershipResult{}, err
	}

	now := time.Now()
	membership := &domain.Membership{
		ID:        uuid.New(),
		TenantID:  in.TenantID,
		UserID:    in.UserID,
		Role:      in.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := a.memberships.Create(ctx, membership)
	if errors.Is(err, domain.ErrMembershipExists) {
		// Lost the race to a concurrent insert of the same pair.
		return CreateMembershipResult{Created: false}, nil
	}
	if repository.IsConstraintViolation(err) {
		return CreateMembershipResult{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeConstraintViolation, err)
	}
	if err != nil {
		return CreateMembershipResult{}, err
	}

	a.logger.Info("membership created",
		slog.String("tenant_id", in.TenantID.String()),
		slog.String("user_id", in.UserID.String()),
		slog.String("role", string(in.Role)),
	)
	return CreateMembershipResult{Created: true}, nil
}
