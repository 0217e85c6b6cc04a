package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/tenant-lifecycle/pkg/domain"
)

// InvitesRepository handles tenant invite persistence.
type InvitesRepository struct {
	db *sql.DB
}

// NewInvitesRepository creates a new invites repository.
func NewInvitesRepository(db *sql.DB) *InvitesRepository {
	return &InvitesRepository{db: db}
}

// Create creates a new tenant invite.
func (r *InvitesRepository) Create(ctx context.Context, invite *domain.TenantInvite) error {
	query := `
		INSERT INTO tenant_invites (id, tenant_id, email, role, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		invite.ID, invite.TenantID, invite.Email, invite.Role,
		invite.TokenHash, invite.CreatedAt, invite.ExpiresAt,
	)
	return err
}

// GetByID retrieves an invite by ID.
func (r *InvitesRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TenantInvite, error) {
	query := `
		SELECT id, tenant_id, email, role, token_hash, created_at, expires_at, accepted_at
		FROM tenant_invites
		WHERE id = $1
	`
	invite := &domain.TenantInvite{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&invite.ID, &invite.TenantID, &invite.Email, &invite.Role,
		&invite.TokenHash, &invite.CreatedAt, &invite.ExpiresAt, &invite.AcceptedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInviteNotFound
	}
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// DeleteExpired deletes invites that expired unaccepted before the
// cutoff. Accepted invites are kept for the membership audit trail.
func (r *InvitesRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM tenant_invites
		WHERE accepted_at IS NULL AND expires_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
