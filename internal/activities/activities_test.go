package activities

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.temporal.io/sdk/temporal"

	"github.com/tendant/tenant-lifecycle/pkg/domain"
)

func newTestActivities(t *testing.T) (*Activities, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, logger, time.Minute), mock
}

var membershipColumns = []string{"id", "tenant_id", "user_id", "role", "created_at", "updated_at"}

func membershipInput() CreateMembershipInput {
	return CreateMembershipInput{
		UserID:   uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001"),
		TenantID: uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002"),
		Role:     domain.RoleOwner,
	}
}

func TestCreateMembership_Creates(t *testing.T) {
	acts, mock := newTestActivities(t)
	in := membershipInput()

	mock.ExpectQuery("FROM memberships").
		WithArgs(in.UserID, in.TenantID).
		WillReturnRows(sqlmock.NewRows(membershipColumns))
	mock.ExpectExec("INSERT INTO memberships").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := acts.CreateMembership(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateMembership failed: %v", err)
	}
	if !result.Created {
		t.Error("Created = false, want true on first insert")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateMembership_SecondCallLeavesOneRow(t *testing.T) {
	acts, mock := newTestActivities(t)
	in := membershipInput()

	// The pair already exists: the lookup short-circuits and no insert is
	// attempted, so a repeated call cannot add a second row.
	now := time.Now()
	mock.ExpectQuery("FROM memberships").
		WithArgs(in.UserID, in.TenantID).
		WillReturnRows(sqlmock.NewRows(membershipColumns).AddRow(
			uuid.New().String(), in.TenantID.String(), in.UserID.String(),
			string(in.Role), now, now,
		))

	result, err := acts.CreateMembership(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateMembership failed: %v", err)
	}
	if result.Created {
		t.Error("Created = true, want false for an existing pair")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateMembership_InsertRaceIsSuccess(t *testing.T) {
	acts, mock := newTestActivities(t)
	in := membershipInput()

	// A concurrent insert lands between the lookup and our insert; losing
	// on the uniqueness constraint still reports success.
	mock.ExpectQuery("FROM memberships").
		WithArgs(in.UserID, in.TenantID).
		WillReturnRows(sqlmock.NewRows(membershipColumns))
	mock.ExpectExec("INSERT INTO memberships").
		WillReturnError(&pq.Error{Code: "23505"})

	result, err := acts.CreateMembership(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateMembership failed: %v", err)
	}
	if result.Created {
		t.Error("Created = true, want false after losing the insert race")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateMembership_ForeignKeyViolationIsFatal(t *testing.T) {
	acts, mock := newTestActivities(t)
	in := membershipInput()

	mock.ExpectQuery("FROM memberships").
		WithArgs(in.UserID, in.TenantID).
		WillReturnRows(sqlmock.NewRows(membershipColumns))
	mock.ExpectExec("INSERT INTO memberships").
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := acts.CreateMembership(context.Background(), in)
	if err == nil {
		t.Fatal("CreateMembership succeeded, want non-retryable error")
	}

	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not an ApplicationError", err)
	}
	if appErr.Type() != ErrTypeConstraintViolation {
		t.Errorf("error type = %q, want %q", appErr.Type(), ErrTypeConstraintViolation)
	}
	if !appErr.NonRetryable() {
		t.Error("foreign-key violation must be non-retryable")
	}
}

func TestDropNamespace_RepeatReportsExistedThenAbsent(t *testing.T) {
	acts, mock := newTestActivities(t)
	tec := domain.TenantExecutionContext{
		TenantID:      uuid.New(),
		NamespaceName: "tenant_acme",
		Plan:          domain.PlanFree,
	}

	// First call finds the schema and drops it.
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("tenant_acme").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta(`DROP SCHEMA IF EXISTS "tenant_acme" CASCADE`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := acts.DropNamespace(context.Background(), tec)
	if err != nil {
		t.Fatalf("first DropNamespace failed: %v", err)
	}
	if !first.Existed {
		t.Error("first call: Existed = false, want true")
	}

	// Second call finds nothing, issues no DDL, and still succeeds.
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("tenant_acme").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	second, err := acts.DropNamespace(context.Background(), tec)
	if err != nil {
		t.Fatalf("second DropNamespace failed: %v", err)
	}
	if second.Existed {
		t.Error("second call: Existed = true, want false")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDropNamespace_InvalidIdentifierIsFatal(t *testing.T) {
	acts, _ := newTestActivities(t)
	tec := domain.TenantExecutionContext{
		TenantID:      uuid.New(),
		NamespaceName: "tenant_x; DROP SCHEMA public CASCADE",
	}

	_, err := acts.DropNamespace(context.Background(), tec)
	if err == nil {
		t.Fatal("DropNamespace succeeded, want non-retryable error")
	}

	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not an ApplicationError", err)
	}
	if appErr.Type() != ErrTypeInvalidIdentifier {
		t.Errorf("error type = %q, want %q", appErr.Type(), ErrTypeInvalidIdentifier)
	}
	if !appErr.NonRetryable() {
		t.Error("invalid identifier must be non-retryable")
	}
}
