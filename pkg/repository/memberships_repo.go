package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/tenant-lifecycle/pkg/domain"
)

// MembershipsRepository handles membership data persistence.
type MembershipsRepository struct {
	db *sql.DB
}

// NewMembershipsRepository creates a new memberships repository.
func NewMembershipsRepository(db *sql.DB) *MembershipsRepository {
	return &MembershipsRepository{db: db}
}

// Create creates a new membership. Returns domain.ErrMembershipExists on
// the (user_id, tenant_id) uniqueness constraint; other constraint
// violations (a missing user or tenant foreign key) pass through as-is.
func (r *MembershipsRepository) Create(ctx context.Context, membership *domain.Membership) error {
	return r.CreateTx(ctx, r.db, membership)
}

// CreateTx creates a new membership within a transaction.
func (r *MembershipsRepository) CreateTx(ctx context.Context, q Querier, membership *domain.Membership) error {
	query := `
		INSERT INTO memberships (id, tenant_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query,
		membership.ID,
		membership.TenantID,
		membership.UserID,
		membership.Role,
		membership.CreatedAt,
		membership.UpdatedAt,
	)
	if IsUniqueViolation(err) {
		return domain.ErrMembershipExists
	}
	return err
}

// GetByUserAndTenant retrieves a membership for a user in a tenant.
func (r *MembershipsRepository) GetByUserAndTenant(ctx context.Context, userID, tenantID uuid.UUID) (*domain.Membership, error) {
	query := `
		SELECT id, tenant_id, user_id, role, created_at, updated_at
		FROM memberships
		WHERE user_id = $1 AND tenant_id = $2
	`

	var membership domain.Membership
	err := r.db.QueryRowContext(ctx, query, userID, tenantID).Scan(
		&membership.ID,
		&membership.TenantID,
		&membership.UserID,
		&membership.Role,
		&membership.CreatedAt,
		&membership.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, err
	}

	return &membership, nil
}

// GetByTenantID retrieves all members of a tenant.
func (r *MembershipsRepository) GetByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*domain.Membership, error) {
	query := `
		SELECT id, tenant_id, user_id, role, created_at, updated_at
		FROM memberships
		WHERE tenant_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*domain.Membership
	for rows.Next() {
		var membership domain.Membership
		err := rows.Scan(
			&membership.ID,
			&membership.TenantID,
			&membership.UserID,
			&membership.Role,
			&membership.CreatedAt,
			&membership.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, &membership)
	}

	return memberships, rows.Err()
}
