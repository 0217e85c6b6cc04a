// Package schema creates, migrates, and drops tenant namespaces.
//
// Every namespace name passes namespace.ValidateName before it is
// interpolated into DDL; these statements cannot take the name as a bound
// parameter. Application of baseline steps is tracked per namespace so a
// retried run resumes instead of re-applying.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/tendant/tenant-lifecycle/pkg/namespace"
)

// Step is one versioned baseline migration applied inside a namespace.
// Statements run in order; table names are unqualified and resolve into
// the namespace via search_path.
type Step struct {
	Version    int
	Name       string
	Statements []string
}

// Baseline is the schema every tenant namespace starts with.
var Baseline = []Step{
	{
		Version: 1,
		Name:    "workspace core",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value JSONB NOT NULL DEFAULT '{}'::jsonb,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS projects (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL,
				created_by UUID,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
		},
	},
	{
		Version: 2,
		Name:    "activity log",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS activity_log (
				id BIGSERIAL PRIMARY KEY,
				actor_id UUID,
				action TEXT NOT NULL,
				subject TEXT,
				occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS activity_log_occurred_at_idx
				ON activity_log (occurred_at)`,
		},
	},
}

// Migrator applies baseline DDL to tenant namespaces on the shared pool.
type Migrator struct {
	db      *sql.DB
	logger  *slog.Logger
	steps   []Step
	timeout time.Duration
}

// NewMigrator creates a migrator over the shared pool using the baseline
// steps. A positive timeout bounds each Apply call; zero means no bound
// beyond the caller's context.
func NewMigrator(db *sql.DB, logger *slog.Logger, timeout time.Duration) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{db: db, logger: logger, steps: Baseline, timeout: timeout}
}

// Exists reports whether the namespace exists.
func (m *Migrator) Exists(ctx context.Context, namespaceName string) (bool, error) {
	if err := namespace.ValidateName(namespaceName); err != nil {
		return false, err
	}
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`
	if err := m.db.QueryRowContext(ctx, query, namespaceName).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Apply creates the namespace if needed and applies any baseline steps
// not yet recorded in the namespace's migration table. Both creation and
// application are tracked, so a repeat resumes rather than re-applies.
// Returns the number of steps applied by this call.
func (m *Migrator) Apply(ctx context.Context, namespaceName string) (int, error) {
	if err := namespace.ValidateName(namespaceName); err != nil {
		return 0, err
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	quoted := pq.QuoteIdentifier(namespaceName)

	if _, err := m.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+quoted); err != nil {
		return 0, fmt.Errorf("failed to create namespace %s: %w", namespaceName, err)
	}

	tracking := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, quoted)
	if _, err := m.db.ExecContext(ctx, tracking); err != nil {
		return 0, fmt.Errorf("failed to create migration table in %s: %w", namespaceName, err)
	}

	applied, err := m.appliedVersions(ctx, quoted)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, step := range m.steps {
		if applied[step.Version] {
			continue
		}
		if err := m.applyStep(ctx, namespaceName, quoted, step); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (m *Migrator) appliedVersions(ctx context.Context, quoted string) (map[int]bool, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf("SELECT version FROM %s.schema_migrations", quoted))
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// applyStep runs one step inside a transaction pinned to the namespace.
// The step and its tracking row commit together, so a crash mid-step
// leaves the version unrecorded and the retry re-runs it; statements use
// IF NOT EXISTS so the re-run converges.
func (m *Migrator) applyStep(ctx context.Context, namespaceName, quoted string, step Step) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "SET LOCAL search_path TO "+quoted); err != nil {
		return fmt.Errorf("failed to scope migration to %s: %w", namespaceName, err)
	}

	for _, stmt := range step.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d (%s) failed in %s: %w", step.Version, step.Name, namespaceName, err)
		}
	}

	record := fmt.Sprintf("INSERT INTO %s.schema_migrations (version, name) VALUES ($1, $2)", quoted)
	if _, err := tx.ExecContext(ctx, record, step.Version, step.Name); err != nil {
		return fmt.Errorf("failed to record migration %d in %s: %w", step.Version, namespaceName, err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	m.logger.Info("applied namespace migration",
		slog.String("namespace", namespaceName),
		slog.Int("version", step.Version),
		slog.String("name", step.Name),
	)
	return nil
}

// Drop removes the namespace and everything in it. Returns whether the
// namespace existed; dropping an absent namespace is success.
func (m *Migrator) Drop(ctx context.Context, namespaceName string) (bool, error) {
	if err := namespace.ValidateName(namespaceName); err != nil {
		return false, err
	}

	existed, err := m.Exists(ctx, namespaceName)
	if err != nil {
		return false, err
	}
	if !existed {
		return false, nil
	}

	drop := "DROP SCHEMA IF EXISTS " + pq.QuoteIdentifier(namespaceName) + " CASCADE"
	if _, err := m.db.ExecContext(ctx, drop); err != nil {
		return true, fmt.Errorf("failed to drop namespace %s: %w", namespaceName, err)
	}

	m.logger.Info("dropped namespace", slog.String("namespace", namespaceName))
	return true, nil
}
