package domain

import "errors"

// Tenant errors
var (
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrTenantSlugTaken      = errors.New("tenant slug already taken")
	ErrTenantAlreadyDeleted = errors.New("tenant already deleted")
)

// Identifier errors
var (
	// ErrInvalidIdentifier is returned for namespace names that fail the
	// identifier grammar or denylist. These names are interpolated into
	// DDL, so validation failures are never retried.
	ErrInvalidIdentifier = errors.New("invalid namespace identifier")
)

// Membership errors
var (
	ErrMembershipNotFound = errors.New("membership not found")
	ErrMembershipExists   = errors.New("membership already exists")
)

// Session and token errors
var (
	ErrSessionNotFound           = errors.New("session not found")
	ErrVerificationTokenNotFound = errors.New("verification token not found")
	ErrInviteNotFound            = errors.New("invite not found")
)

// Workflow execution errors
var (
	ErrExecutionNotFound = errors.New("workflow execution record not found")
)
