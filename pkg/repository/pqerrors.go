package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error codes the lifecycle logic distinguishes.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. Activities treat this as the expected lost-insert race, not
// a failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

// IsConstraintViolation reports whether err is any Postgres integrity
// constraint violation (class 23), unique violations included.
func IsConstraintViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Class() == "23"
}

// IsDDLFailure reports whether err is a Postgres syntax-or-access error
// (class 42) or an invalid catalog/schema error (class 3D/3F). These are
// tooling failures that retries cannot fix.
func IsDDLFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code.Class() {
	case "42", "3D", "3F":
		return true
	}
	return false
}
