package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/tenant-lifecycle/pkg/domain"
)

// TenantsRepository handles tenant data persistence.
type TenantsRepository struct {
	db *sql.DB
}

// NewTenantsRepository creates a new tenants repository.
func NewTenantsRepository(db *sql.DB) *TenantsRepository {
	return &TenantsRepository{db: db}
}

// Create creates a new tenant. The row starts in provisioning status and
// inactive; the provisioning workflow flips it to ready on success.
func (r *TenantsRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	return r.CreateTx(ctx, r.db, tenant)
}

// CreateTx creates a new tenant within a transaction.
func (r *TenantsRepository) CreateTx(ctx context.Context, q Querier, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, slug, status, active, namespace_name, plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Slug,
		tenant.Status,
		tenant.Active,
		tenant.NamespaceName,
		tenant.Plan,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if IsUniqueViolation(err) {
		return domain.ErrTenantSlugTaken
	}
	return err
}

const tenantColumns = `id, name, slug, status, active, namespace_name, plan, created_at, updated_at, deleted_at`

func scanTenant(row *sql.Row) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := row.Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Slug,
		&tenant.Status,
		&tenant.Active,
		&tenant.NamespaceName,
		&tenant.Plan,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
		&tenant.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetByID retrieves a tenant by ID, excluding soft-deleted tenants.
func (r *TenantsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE id = $1 AND deleted_at IS NULL
	`
	return scanTenant(r.db.QueryRowContext(ctx, query, id))
}

// GetByIDIncludingDeleted retrieves a tenant by ID even after soft
// deletion. The deletion workflow needs the row after step 1 has run.
func (r *TenantsRepository) GetByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE id = $1
	`
	return scanTenant(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves a tenant by slug.
func (r *TenantsRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE slug = $1 AND deleted_at IS NULL
	`
	return scanTenant(r.db.QueryRowContext(ctx, query, slug))
}

// GetByNamespace retrieves a tenant by its namespace name, excluding
// soft-deleted tenants. Scoped access uses this to refuse scopes for
// tenants whose deletion has already begun.
func (r *TenantsRepository) GetByNamespace(ctx context.Context, namespaceName string) (*domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE namespace_name = $1 AND deleted_at IS NULL
	`
	return scanTenant(r.db.QueryRowContext(ctx, query, namespaceName))
}

// ExistsByNamespace reports whether any tenant, soft-deleted or not,
// already owns the namespace name. Slug normalization maps "acme-corp"
// and "acme_corp" to the same namespace, so creation checks this before
// inserting.
func (r *TenantsRepository) ExistsByNamespace(ctx context.Context, namespaceName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tenants WHERE namespace_name = $1
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, namespaceName).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateStatus unconditionally sets the tenant's lifecycle status and
// derives the active flag: ready tenants are active, anything else is
// not. Naturally idempotent.
func (r *TenantsRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus) error {
	query := `
		UPDATE tenants
		SET status = $2, active = $3, updated_at = NOW()
		WHERE id = $1
	`
	active := status == domain.TenantStatusReady
	result, err := r.db.ExecContext(ctx, query, id, status, active)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}

// SoftDelete sets the delete timestamp and clears the active flag, only
// if not already set. Returns true if this call performed the delete,
// false if the tenant was already soft-deleted. A missing tenant is
// ErrTenantNotFound.
func (r *TenantsRepository) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE tenants
		SET deleted_at = NOW(), active = FALSE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows > 0 {
		return true, nil
	}

	// No row updated: either already soft-deleted or missing entirely.
	var exists bool
	check := `SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`
	if err := r.db.QueryRowContext(ctx, check, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, domain.ErrTenantNotFound
	}
	return false, nil
}
