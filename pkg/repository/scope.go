package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tendant/tenant-lifecycle/pkg/namespace"
)

// Scope is a single pooled connection pinned to one namespace. The
// connection pool is shared across every tenant, so the owner of a Scope
// must Close it on every exit path: Close resets the resolution path
// before the connection goes back to the pool, and a connection whose
// reset fails is discarded rather than reused.
type Scope struct {
	conn          *sql.Conn
	namespaceName string
	closed        bool
}

// ScopeOpener hands out namespace-scoped and shared-scoped connections
// from the shared pool.
type ScopeOpener struct {
	db      *sql.DB
	tenants *TenantsRepository
}

// NewScopeOpener creates a scope opener over the shared pool.
func NewScopeOpener(db *sql.DB, tenants *TenantsRepository) *ScopeOpener {
	return &ScopeOpener{db: db, tenants: tenants}
}

// OpenTenantScope checks out one connection and sets its resolution path
// to exactly the given namespace, with no fallback to the shared default.
// Shared tables must be referenced fully qualified while the scope is
// open. The name is validated before it is interpolated, and the
// namespace must belong to a live tenant: once deletion step 1 commits,
// no new scope may observe the namespace even though the drop has not
// run yet.
func (o *ScopeOpener) OpenTenantScope(ctx context.Context, namespaceName string) (*Scope, error) {
	if err := namespace.ValidateName(namespaceName); err != nil {
		return nil, err
	}
	// GetByNamespace excludes soft-deleted rows, so a tenant whose
	// deletion has begun resolves to ErrTenantNotFound here.
	if _, err := o.tenants.GetByNamespace(ctx, namespaceName); err != nil {
		return nil, err
	}
	return o.open(ctx, namespaceName)
}

// OpenForTenant resolves the tenant by id and opens a scope on its
// namespace. GetByID excludes soft-deleted tenants, so the same refusal
// applies as in OpenTenantScope.
func (o *ScopeOpener) OpenForTenant(ctx context.Context, tenantID uuid.UUID) (*Scope, error) {
	tenant, err := o.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := namespace.ValidateName(tenant.NamespaceName); err != nil {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, err)
	}
	return o.open(ctx, tenant.NamespaceName)
}

func (o *ScopeOpener) open(ctx context.Context, namespaceName string) (*Scope, error) {
	conn, err := o.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	set := "SET search_path TO " + pq.QuoteIdentifier(namespaceName)
	if _, err := conn.ExecContext(ctx, set); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set namespace %s: %w", namespaceName, err)
	}

	return &Scope{conn: conn, namespaceName: namespaceName}, nil
}

// OpenShared checks out one connection pinned to the shared schema.
func (o *ScopeOpener) OpenShared(ctx context.Context) (*Scope, error) {
	conn, err := o.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "SET search_path TO "+pq.QuoteIdentifier(SharedSchema)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set shared scope: %w", err)
	}

	return &Scope{conn: conn, namespaceName: SharedSchema}, nil
}

// Namespace returns the namespace this scope is pinned to.
func (s *Scope) Namespace() string {
	return s.namespaceName
}

// ExecContext runs a statement on the scoped connection.
func (s *Scope) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.conn.ExecContext(ctx, query, args...)
}

// QueryContext runs a query on the scoped connection.
func (s *Scope) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the scoped connection.
func (s *Scope) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction on the scoped connection.
func (s *Scope) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return s.conn.BeginTx(ctx, opts)
}

// Close resets the connection's resolution path to the shared default and
// returns it to the pool. If the reset fails the connection is poisoned
// so the pool discards it: a leaked search_path on a reused connection
// would be a cross-tenant leak. Safe to call more than once.
func (s *Scope) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	_, resetErr := s.conn.ExecContext(ctx, "SET search_path TO "+pq.QuoteIdentifier(SharedSchema))
	if resetErr != nil {
		// Raw returning ErrBadConn marks the underlying connection bad,
		// so the pool closes it instead of handing it to the next tenant.
		_ = s.conn.Raw(func(driverConn any) error {
			return driver.ErrBadConn
		})
		s.conn.Close()
		return fmt.Errorf("failed to reset scope for namespace %s: %w", s.namespaceName, resetErr)
	}

	return s.conn.Close()
}
