// Package activities implements the side-effecting units executed by the
// worker pool. The engine retries each activity independently with
// at-least-once semantics, so every method here is idempotent and touches
// exactly one external resource.
package activities

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/tendant/tenant-lifecycle/internal/schema"
	"github.com/tendant/tenant-lifecycle/pkg/repository"
)

// Application error types attached to non-retryable failures. Workflows
// list these in their retry policies; renaming one is a wire change.
const (
	ErrTypeInvalidIdentifier   = "InvalidIdentifier"
	ErrTypeMigrationError      = "MigrationError"
	ErrTypeConstraintViolation = "ConstraintViolation"
)

// Activities holds the shared resources every activity runs against. One
// instance is constructed by the worker's dependency-injection root; the
// *sql.DB inside is lazy, so a fresh worker process reconstructs its
// connections on first use rather than assuming any survived a retry.
type Activities struct {
	tenants     *repository.TenantsRepository
	memberships *repository.MembershipsRepository
	sessions    *repository.SessionsRepository
	tokens      *repository.VerificationTokensRepository
	invites     *repository.InvitesRepository
	executions  *repository.ExecutionsRepository
	migrator    *schema.Migrator
	logger      *slog.Logger
}

// New wires activities over the shared connection pool. migrationTimeout
// bounds each namespace migration run; zero leaves it to the activity
// deadline alone.
func New(db *sql.DB, logger *slog.Logger, migrationTimeout time.Duration) *Activities {
	if logger == nil {
		logger = slog.Default()
	}
	return &Activities{
		tenants:     repository.NewTenantsRepository(db),
		memberships: repository.NewMembershipsRepository(db),
		sessions:    repository.NewSessionsRepository(db),
		tokens:      repository.NewVerificationTokensRepository(db),
		invites:     repository.NewInvitesRepository(db),
		executions:  repository.NewExecutionsRepository(db),
		migrator:    schema.NewMigrator(db, logger, migrationTimeout),
		logger:      logger,
	}
}
